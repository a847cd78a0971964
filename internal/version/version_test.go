// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package version_test

import (
	"testing"

	"github.com/curtisslone/esp/internal/version"
)

func TestCompareSemver(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.2.3", "1.2.3", 0},
		{"1.2.3", "1.2.4", -1},
		{"2.0.0", "1.9.9", 1},
	}
	for _, c := range cases {
		got := version.CompareSemver(version.ParseSemver(c.a), version.ParseSemver(c.b))
		if got != c.want {
			t.Errorf("CompareSemver(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestCompareEVR(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1:2.0-1", "1:2.0-1", 0},
		{"1:2.0-1", "1:2.0-2", -1},
		{"0:1.0-1", "1:0.1-1", -1},
		{"2.0.1-3", "2.0.10-1", -1},
	}
	for _, c := range cases {
		got := version.CompareEVR(version.ParseEVR(c.a), version.ParseEVR(c.b))
		if got != c.want {
			t.Errorf("CompareEVR(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
