// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package findings_test

import (
	"testing"

	"github.com/curtisslone/esp/internal/findings"
)

func TestNewScanResultRollup(t *testing.T) {
	fs := []findings.ComplianceFinding{
		findings.NewFinding("package", "version", findings.StatusPass, "1.0", "1.0", ""),
		findings.NewFinding("package", "version", findings.StatusFail, "2.0", "1.0", "below minimum"),
	}
	result := findings.NewScanResult(fs, "")
	if result.Status != findings.Partial {
		t.Errorf("expected Partial, got %s", result.Status)
	}
	if result.PassPercentage != 50.0 {
		t.Errorf("expected 50%%, got %v", result.PassPercentage)
	}
	if result.ScanID == "" || result.CorrelationID == "" {
		t.Errorf("expected scan and correlation ids to be populated")
	}
}

func TestNewScanResultAllFail(t *testing.T) {
	fs := []findings.ComplianceFinding{
		findings.NewFinding("package", "version", findings.StatusFail, "2.0", "1.0", "below minimum"),
	}
	result := findings.NewScanResult(fs, "corr-1")
	if result.Status != findings.NonCompliant {
		t.Errorf("expected NonCompliant, got %s", result.Status)
	}
	if result.CorrelationID != "corr-1" {
		t.Errorf("expected the supplied correlation id to be preserved")
	}
}

func TestJoinFieldPath(t *testing.T) {
	if got := findings.JoinFieldPath("a", "", "b.c", "*"); got != "a.b.c.*" {
		t.Errorf("got %q", got)
	}
}
