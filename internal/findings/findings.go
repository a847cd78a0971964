// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package findings shapes the engine's per-CTN outcomes into the reports
// a caller actually wants: one ComplianceFinding per evaluated CTN, rolled
// up into a ScanResult with a pass percentage and an overall compliance
// status.
package findings

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Status is a CTN's outcome.
type Status string

const (
	StatusPass    Status = "Pass"
	StatusFail    Status = "Fail"
	StatusError   Status = "Error"
	StatusUnknown Status = "Unknown"
)

// Severity mirrors errcode's scale so a finding can be triaged the same
// way a compile diagnostic is, per the Status -> Severity mapping in
// §6.6: Pass -> Info, Fail -> High, Error -> Critical, Unknown -> Medium.
type Severity string

const (
	SeverityInfo     Severity = "Info"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

func severityFor(s Status) Severity {
	switch s {
	case StatusPass:
		return SeverityInfo
	case StatusFail:
		return SeverityHigh
	case StatusError:
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

// ComplianceFinding is one CTN's evaluated outcome.
type ComplianceFinding struct {
	ID         string          `json:"id"`
	CtnType    string          `json:"ctn_type"`
	FieldPath  string          `json:"field_path,omitempty"`
	Status     Status          `json:"status"`
	Severity   Severity        `json:"severity"`
	Expected   json.RawMessage `json:"expected,omitempty"`
	Actual     json.RawMessage `json:"actual,omitempty"`
	Message    string          `json:"message,omitempty"`
}

// NewFinding builds a finding, deriving its severity from status and
// marshaling expected/actual to JSON (falling back to a quoted string
// representation if the value isn't itself JSON-marshalable, which should
// never happen for the scalar/record values this engine produces).
func NewFinding(ctnType, fieldPath string, status Status, expected, actual any, message string) ComplianceFinding {
	f := ComplianceFinding{
		ID: uuid.NewString(), CtnType: ctnType, FieldPath: fieldPath,
		Status: status, Severity: severityFor(status), Message: message,
	}
	if b, err := json.Marshal(expected); err == nil {
		f.Expected = b
	} else if b, err := json.Marshal(fmt.Sprint(expected)); err == nil {
		f.Expected = b
	}
	if b, err := json.Marshal(actual); err == nil {
		f.Actual = b
	} else if b, err := json.Marshal(fmt.Sprint(actual)); err == nil {
		f.Actual = b
	}
	return f
}

// ComplianceStatus is the scan's overall rollup.
type ComplianceStatus string

const (
	Compliant    ComplianceStatus = "Compliant"
	NonCompliant ComplianceStatus = "NonCompliant"
	Partial      ComplianceStatus = "Partial"
)

// ScanResult is the top-level artifact a scan produces.
type ScanResult struct {
	ScanID          string              `json:"scan_id"`
	CorrelationID   string              `json:"correlation_id"`
	Findings        []ComplianceFinding `json:"findings"`
	PassPercentage  float64             `json:"pass_percentage"`
	Status          ComplianceStatus    `json:"status"`
}

// NewScanResult rolls findings up into a ScanResult. correlationID lets a
// caller tie a scan back to an external request; an empty string is
// replaced with a freshly generated one.
func NewScanResult(findings []ComplianceFinding, correlationID string) ScanResult {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	var passed, counted int
	for _, f := range findings {
		if f.Status == StatusError {
			continue // errors don't count toward the pass percentage either way
		}
		counted++
		if f.Status == StatusPass {
			passed++
		}
	}
	pct := 100.0
	if counted > 0 {
		pct = 100.0 * float64(passed) / float64(counted)
	}

	status := Compliant
	hasFail, hasError := false, false
	for _, f := range findings {
		switch f.Status {
		case StatusFail:
			hasFail = true
		case StatusError:
			hasError = true
		}
	}
	switch {
	case hasFail && passed > 0:
		status = Partial
	case hasFail:
		status = NonCompliant
	case hasError && passed == 0:
		status = NonCompliant
	}

	return ScanResult{
		ScanID: uuid.NewString(), CorrelationID: correlationID,
		Findings: findings, PassPercentage: pct, Status: status,
	}
}

// JoinFieldPath builds a dot-separated field path the way record-data
// dot-paths are rendered elsewhere in the compiler, so a finding's path
// reads identically whether it came from a scalar field or a nested
// record check.
func JoinFieldPath(parts ...string) string {
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ".")
}
