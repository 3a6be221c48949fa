// Package message defines the typed envelope used for all cross-context
// communication. Every message is a discriminated union of a closed set of
// types; payloads are validated when parsed at the channel boundary, so
// application handlers never see a malformed message.
package message

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

// Type discriminates the message union.
type Type string

const (
	TypeScanRequest       Type = "SCAN_REQUEST"
	TypeScanComplete      Type = "SCAN_COMPLETE"
	TypeScanError         Type = "SCAN_ERROR"
	TypeHighlightIssue    Type = "HIGHLIGHT_ISSUE"
	TypeClearHighlights   Type = "CLEAR_HIGHLIGHTS"
	TypeTogglePicker      Type = "TOGGLE_PICKER"
	TypeInspectElement    Type = "INSPECT_ELEMENT"
	TypeUpdateIssueStatus Type = "UPDATE_ISSUE_STATUS"
	TypeOpenPanel         Type = "OPEN_SIDEPANEL"
	TypeGetCurrentURL     Type = "GET_CURRENT_URL"
	TypeCurrentURLUpdate  Type = "CURRENT_URL_UPDATE"
)

// Validation errors.
var (
	ErrUnknownType    = errors.New("unknown message type")
	ErrMissingPayload = errors.New("missing message payload")
	ErrInvalidPayload = errors.New("invalid message payload")
)

// Payload is implemented by every message payload type.
type Payload interface {
	messageType() Type
	validate() error
}

// Message is the wire envelope: a type tag plus its type-specific payload.
type Message struct {
	Type Type
	Data Payload
}

// ScanRequest asks the content context to scan the page at URL.
type ScanRequest struct {
	URL   string `json:"url"`
	RunID string `json:"runId,omitempty"`
}

// ScanComplete carries one finished scan back to the panel.
type ScanComplete struct {
	Result model.ScanResult `json:"result"`
	RunID  string           `json:"runId,omitempty"`
}

// ScanError reports a failed scan attempt.
type ScanError struct {
	Error string `json:"error"`
	RunID string `json:"runId,omitempty"`
}

// HighlightIssue asks the overlay manager to mark one issue on the page.
type HighlightIssue struct {
	IssueID string `json:"issueId"`
}

// ClearHighlights removes every overlay marker. No payload fields.
type ClearHighlights struct{}

// TogglePicker enables or disables the element picker mode.
type TogglePicker struct {
	Enabled bool `json:"enabled"`
}

// InspectElement reports a user-picked element back to the panel.
type InspectElement struct {
	Selector    string         `json:"selector"`
	ElementInfo map[string]any `json:"elementInfo"`
}

// UpdateIssueStatus carries a triage decision.
type UpdateIssueStatus struct {
	IssueID string       `json:"issueId"`
	Status  model.Status `json:"status"`
	Notes   string       `json:"notes,omitempty"`
}

// OpenPanel asks the background context to open the panel surface.
type OpenPanel struct{}

// GetCurrentURL asks the router to rebroadcast the active tab URL.
type GetCurrentURL struct{}

// CurrentURLUpdate announces the active tab's URL to the panel.
type CurrentURLUpdate struct {
	URL string `json:"url"`
}

func (ScanRequest) messageType() Type       { return TypeScanRequest }
func (ScanComplete) messageType() Type      { return TypeScanComplete }
func (ScanError) messageType() Type         { return TypeScanError }
func (HighlightIssue) messageType() Type    { return TypeHighlightIssue }
func (ClearHighlights) messageType() Type   { return TypeClearHighlights }
func (TogglePicker) messageType() Type      { return TypeTogglePicker }
func (InspectElement) messageType() Type    { return TypeInspectElement }
func (UpdateIssueStatus) messageType() Type { return TypeUpdateIssueStatus }
func (OpenPanel) messageType() Type         { return TypeOpenPanel }
func (GetCurrentURL) messageType() Type     { return TypeGetCurrentURL }
func (CurrentURLUpdate) messageType() Type  { return TypeCurrentURLUpdate }

func (p ScanRequest) validate() error {
	if p.URL == "" {
		return fmt.Errorf("%w: scan request needs a url", ErrInvalidPayload)
	}
	return nil
}

func (p ScanComplete) validate() error { return nil }

func (p ScanError) validate() error {
	if p.Error == "" {
		return fmt.Errorf("%w: scan error needs a message", ErrInvalidPayload)
	}
	return nil
}

func (p HighlightIssue) validate() error {
	if p.IssueID == "" {
		return fmt.Errorf("%w: highlight needs an issue id", ErrInvalidPayload)
	}
	return nil
}

func (ClearHighlights) validate() error { return nil }
func (TogglePicker) validate() error    { return nil }

func (p InspectElement) validate() error {
	if p.Selector == "" {
		return fmt.Errorf("%w: inspect needs a selector", ErrInvalidPayload)
	}
	if p.ElementInfo == nil {
		return fmt.Errorf("%w: inspect needs element info", ErrInvalidPayload)
	}
	return nil
}

func (p UpdateIssueStatus) validate() error {
	if p.IssueID == "" {
		return fmt.Errorf("%w: status update needs an issue id", ErrInvalidPayload)
	}
	if !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidPayload, p.Status)
	}
	return nil
}

func (OpenPanel) validate() error     { return nil }
func (GetCurrentURL) validate() error { return nil }

func (p CurrentURLUpdate) validate() error {
	if p.URL == "" {
		return fmt.Errorf("%w: url update needs a url", ErrInvalidPayload)
	}
	return nil
}

// New wraps a payload in its envelope.
func New(data Payload) Message {
	return Message{Type: data.messageType(), Data: data}
}

// Validate checks the envelope against its declared type's schema.
func (m Message) Validate() error {
	if m.Data == nil {
		return ErrMissingPayload
	}
	if m.Data.messageType() != m.Type {
		return fmt.Errorf("%w: type %q does not match payload %q",
			ErrInvalidPayload, m.Type, m.Data.messageType())
	}
	return m.Data.validate()
}

// envelope is the raw wire shape before the payload is typed.
type envelope struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON encodes the envelope in the {"type","data"} wire shape.
func (m Message) MarshalJSON() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	switch m.Data.(type) {
	case ClearHighlights, OpenPanel, GetCurrentURL:
		// Payload-free messages omit the data field entirely.
		return json.Marshal(envelope{Type: m.Type})
	}
	data, err := json.Marshal(m.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: m.Type, Data: data})
}

// Parse decodes and validates a wire message. It is the only path from raw
// bytes to a Message: a payload that fails its schema never reaches handlers.
func Parse(raw []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Message{}, fmt.Errorf("decode envelope: %w", err)
	}

	payload, err := newPayload(env.Type)
	if err != nil {
		return Message{}, err
	}

	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, payload); err != nil {
			return Message{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	}

	msg := Message{Type: env.Type, Data: deref(payload)}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// UnmarshalJSON lets a Message be decoded anywhere goccy/go-json is used.
func (m *Message) UnmarshalJSON(raw []byte) error {
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func newPayload(t Type) (any, error) {
	switch t {
	case TypeScanRequest:
		return &ScanRequest{}, nil
	case TypeScanComplete:
		return &ScanComplete{}, nil
	case TypeScanError:
		return &ScanError{}, nil
	case TypeHighlightIssue:
		return &HighlightIssue{}, nil
	case TypeClearHighlights:
		return &ClearHighlights{}, nil
	case TypeTogglePicker:
		return &TogglePicker{}, nil
	case TypeInspectElement:
		return &InspectElement{}, nil
	case TypeUpdateIssueStatus:
		return &UpdateIssueStatus{}, nil
	case TypeOpenPanel:
		return &OpenPanel{}, nil
	case TypeGetCurrentURL:
		return &GetCurrentURL{}, nil
	case TypeCurrentURLUpdate:
		return &CurrentURLUpdate{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

func deref(p any) Payload {
	switch v := p.(type) {
	case *ScanRequest:
		return *v
	case *ScanComplete:
		return *v
	case *ScanError:
		return *v
	case *HighlightIssue:
		return *v
	case *ClearHighlights:
		return *v
	case *TogglePicker:
		return *v
	case *InspectElement:
		return *v
	case *UpdateIssueStatus:
		return *v
	case *OpenPanel:
		return *v
	case *GetCurrentURL:
		return *v
	case *CurrentURLUpdate:
		return *v
	default:
		return nil
	}
}
