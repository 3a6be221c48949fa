// Package model defines the canonical data types shared by every context:
// normalized accessibility findings, scan results, filters, and the manual
// test checklist.
package model

import (
	"fmt"
	"time"
)

// Impact is the severity of a finding, ordered most severe first.
type Impact string

const (
	ImpactCritical Impact = "critical"
	ImpactSerious  Impact = "serious"
	ImpactModerate Impact = "moderate"
	ImpactMinor    Impact = "minor"
)

// Impacts lists all severities in display order (most severe first).
var Impacts = []Impact{ImpactCritical, ImpactSerious, ImpactModerate, ImpactMinor}

// Rank returns the sort rank of the impact; lower sorts first.
func (i Impact) Rank() int {
	switch i {
	case ImpactCritical:
		return 0
	case ImpactSerious:
		return 1
	case ImpactModerate:
		return 2
	case ImpactMinor:
		return 3
	default:
		return 4
	}
}

// Valid reports whether the impact is a known severity.
func (i Impact) Valid() bool {
	return i.Rank() < 4
}

// Confidence distinguishes confirmed violations from findings that need a
// manual look.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// WCAGLevel is the conformance level a finding maps to.
type WCAGLevel string

const (
	LevelA   WCAGLevel = "A"
	LevelAA  WCAGLevel = "AA"
	LevelAAA WCAGLevel = "AAA"
)

// WCAGLevels lists all conformance levels in ascending strictness.
var WCAGLevels = []WCAGLevel{LevelA, LevelAA, LevelAAA}

// Source identifies which engine produced a finding.
type Source string

const (
	SourceEngine Source = "engine"
	SourceCustom Source = "custom"
	SourceManual Source = "manual"
)

// Status is the triage state of an issue. Status and Notes are the only
// fields mutated after an issue is created.
type Status string

const (
	StatusOpen          Status = "open"
	StatusFixed         Status = "fixed"
	StatusIgnored       Status = "ignored"
	StatusNeedsDesign   Status = "needs-design"
	StatusFalsePositive Status = "false-positive"
)

// Statuses lists every triage status.
var Statuses = []Status{StatusOpen, StatusFixed, StatusIgnored, StatusNeedsDesign, StatusFalsePositive}

// Valid reports whether the status is a known triage state.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Role targets a recommendation at a specific audience.
type Role string

const (
	RoleDeveloper Role = "developer"
	RoleQA        Role = "qa"
	RoleDesigner  Role = "designer"
)

// Priority grades a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is a role-targeted remediation suggestion attached to an issue.
type Recommendation struct {
	Role        Role     `json:"role"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CodeExample string   `json:"codeExample,omitempty"`
	Priority    Priority `json:"priority"`
}

// WCAG classifies an issue against the guidelines.
type WCAG struct {
	Level    WCAGLevel `json:"level"`
	Criteria []string  `json:"criteria"`
}

// Node locates the offending DOM element.
type Node struct {
	Selector string `json:"selector"`
	Snippet  string `json:"snippet"`
	XPath    string `json:"xpath,omitempty"`
}

// Context carries accessibility context captured at scan time.
type Context struct {
	Role           string  `json:"role,omitempty"`
	AccessibleName string  `json:"accessibleName,omitempty"`
	Focusable      bool    `json:"focusable,omitempty"`
	ContrastRatio  float64 `json:"contrastRatio,omitempty"`
}

// Issue is one normalized accessibility finding.
type Issue struct {
	ID              string           `json:"id"`
	Source          Source           `json:"source"`
	RuleID          string           `json:"ruleId"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Impact          Impact           `json:"impact"`
	Confidence      Confidence       `json:"confidence"`
	WCAG            WCAG             `json:"wcag"`
	Node            Node             `json:"node"`
	Context         Context          `json:"context"`
	Recommendations []Recommendation `json:"recommendations"`
	Status          Status           `json:"status"`
	Notes           string           `json:"notes,omitempty"`
	Tags            []string         `json:"tags,omitempty"`
	Timestamp       time.Time        `json:"timestamp"`
}

// Validate checks the fields that every consumer relies on.
func (i Issue) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("issue has empty id")
	}
	if i.RuleID == "" {
		return fmt.Errorf("issue %s has empty rule id", i.ID)
	}
	if !i.Impact.Valid() {
		return fmt.Errorf("issue %s has unknown impact %q", i.ID, i.Impact)
	}
	if !i.Status.Valid() {
		return fmt.Errorf("issue %s has unknown status %q", i.ID, i.Status)
	}
	if i.Node.Selector == "" {
		return fmt.Errorf("issue %s has empty selector", i.ID)
	}
	return nil
}

// WithStatus returns a copy of the issue carrying the new triage status and
// notes. The receiver is not modified.
func (i Issue) WithStatus(status Status, notes string) Issue {
	out := i
	out.Status = status
	out.Notes = notes
	return out
}

// Fingerprint identifies an issue across scans of the same page. IDs are
// regenerated per run, so cross-scan matching uses rule + location instead.
func (i Issue) Fingerprint() string {
	return i.RuleID + "|" + i.Node.Selector
}
