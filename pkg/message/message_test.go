package message

import (
	"errors"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

func TestParseRoundTrip(t *testing.T) {
	msg := New(ScanRequest{URL: "https://example.com", RunID: "r1"})

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Type != TypeScanRequest {
		t.Errorf("type = %s, want %s", parsed.Type, TypeScanRequest)
	}
	req, ok := parsed.Data.(ScanRequest)
	if !ok {
		t.Fatalf("payload type = %T, want ScanRequest", parsed.Data)
	}
	if req.URL != "https://example.com" || req.RunID != "r1" {
		t.Errorf("payload = %+v", req)
	}
}

func TestParsePayloadFreeMessages(t *testing.T) {
	for _, raw := range []string{
		`{"type":"CLEAR_HIGHLIGHTS"}`,
		`{"type":"GET_CURRENT_URL"}`,
		`{"type":"OPEN_SIDEPANEL"}`,
	} {
		if _, err := Parse([]byte(raw)); err != nil {
			t.Errorf("Parse(%s) failed: %v", raw, err)
		}
	}
}

func TestParseRejectsUnknownType(t *testing.T) {
	_, err := Parse([]byte(`{"type":"NOT_A_THING","data":{}}`))
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestParseRejectsInvalidPayloads(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"scan request without url", `{"type":"SCAN_REQUEST","data":{"runId":"r1"}}`},
		{"highlight without issue id", `{"type":"HIGHLIGHT_ISSUE","data":{}}`},
		{"status update with bad status", `{"type":"UPDATE_ISSUE_STATUS","data":{"issueId":"x","status":"wontfix"}}`},
		{"status update without issue", `{"type":"UPDATE_ISSUE_STATUS","data":{"status":"open"}}`},
		{"url update without url", `{"type":"CURRENT_URL_UPDATE","data":{}}`},
		{"inspect without selector", `{"type":"INSPECT_ELEMENT","data":{"elementInfo":{}}}`},
		{"scan error without message", `{"type":"SCAN_ERROR","data":{"runId":"r1"}}`},
		{"not json at all", `{{{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.raw)); err == nil {
				t.Errorf("Parse accepted %s", tt.raw)
			}
		})
	}
}

func TestValidateMismatchedTag(t *testing.T) {
	msg := Message{Type: TypeScanRequest, Data: CurrentURLUpdate{URL: "https://a.com"}}
	if err := msg.Validate(); err == nil {
		t.Fatal("type/payload mismatch accepted")
	}
	if err := (Message{Type: TypeScanRequest}).Validate(); !errors.Is(err, ErrMissingPayload) {
		t.Fatal("nil payload accepted")
	}
}

func TestScanCompleteCarriesResult(t *testing.T) {
	result := model.NewScanResult("https://example.com", []model.Issue{{
		ID: "i1", RuleID: "image-alt", Impact: model.ImpactCritical,
		Status: model.StatusOpen, Node: model.Node{Selector: "img"},
	}}, nil, nil)
	msg := New(ScanComplete{Result: result, RunID: "r9"})

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	complete := parsed.Data.(ScanComplete)
	if complete.RunID != "r9" {
		t.Errorf("runId = %q, want r9", complete.RunID)
	}
	if len(complete.Result.Issues) != 1 || complete.Result.Issues[0].ID != "i1" {
		t.Errorf("result did not survive the round trip: %+v", complete.Result)
	}
	if complete.Result.Summary.BySeverity[model.ImpactCritical] != 1 {
		t.Error("summary did not survive the round trip")
	}
}

func TestTogglePickerBothStates(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		raw, err := json.Marshal(New(TogglePicker{Enabled: enabled}))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		parsed, err := Parse(raw)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if parsed.Data.(TogglePicker).Enabled != enabled {
			t.Errorf("enabled = %v lost in transit", enabled)
		}
	}
}
