// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package version implements ordering for the two ESP version data types:
// `version` (a plain major.minor.patch triple, built on
// github.com/maloquacious/semver, the same package the rest of this module
// uses for its own release numbering) and `evr_string` (an RPM-style
// epoch:version-release string, compared component by component the way
// package managers do it).
package version

import (
	"strconv"
	"strings"

	"github.com/maloquacious/semver"
)

// ParseSemver parses a "major.minor.patch" string into a semver.Version.
// Missing components default to zero; a non-numeric component is treated
// as zero rather than rejected, since field values reaching this layer
// have already passed lexical/semantic validation as `version`-typed.
func ParseSemver(s string) semver.Version {
	parts := strings.SplitN(s, ".", 3)
	get := func(i int) int {
		if i >= len(parts) {
			return 0
		}
		n, _ := strconv.Atoi(strings.TrimSpace(parts[i]))
		return n
	}
	return semver.Version{Major: get(0), Minor: get(1), Patch: get(2)}
}

// CompareSemver orders two semver.Version values: -1 if a < b, 0 if equal,
// 1 if a > b. Build metadata (commit) never participates in ordering.
func CompareSemver(a, b semver.Version) int {
	if a.Major != b.Major {
		return sign(a.Major - b.Major)
	}
	if a.Minor != b.Minor {
		return sign(a.Minor - b.Minor)
	}
	if a.Patch != b.Patch {
		return sign(a.Patch - b.Patch)
	}
	return 0
}

// EVR is a parsed epoch:version-release triple.
type EVR struct {
	Epoch   int
	Version string
	Release string
}

// ParseEVR parses an "[epoch:]version[-release]" string. A missing epoch
// defaults to 0, matching RPM's own convention.
func ParseEVR(s string) EVR {
	evr := EVR{}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		evr.Epoch, _ = strconv.Atoi(s[:i])
		s = s[i+1:]
	}
	if i := strings.LastIndexByte(s, '-'); i >= 0 {
		evr.Version, evr.Release = s[:i], s[i+1:]
	} else {
		evr.Version = s
	}
	return evr
}

// CompareEVR orders two EVR values using RPM's rpmvercmp algorithm: epoch
// first, then version and release compared as alternating runs of digits
// and non-digits, digit runs compared numerically, alpha runs
// lexicographically, with a longer digit run always outranking a shorter
// one of equal leading digits.
func CompareEVR(a, b EVR) int {
	if a.Epoch != b.Epoch {
		return sign(a.Epoch - b.Epoch)
	}
	if c := compareSegment(a.Version, b.Version); c != 0 {
		return c
	}
	return compareSegment(a.Release, b.Release)
}

func compareSegment(a, b string) int {
	for len(a) > 0 || len(b) > 0 {
		a = strings.TrimLeft(a, "~")
		b = strings.TrimLeft(b, "~")

		if len(a) == 0 && len(b) == 0 {
			return 0
		}
		if len(a) == 0 {
			return -1
		}
		if len(b) == 0 {
			return 1
		}

		aDigit := isDigit(a[0])
		bDigit := isDigit(b[0])
		if aDigit != bDigit {
			if aDigit {
				return 1
			}
			return -1
		}

		var aRun, bRun string
		if aDigit {
			aRun, a = takeWhile(a, isDigit)
			bRun, b = takeWhile(b, isDigit)
			aRun = strings.TrimLeft(aRun, "0")
			bRun = strings.TrimLeft(bRun, "0")
			if len(aRun) != len(bRun) {
				return sign(len(aRun) - len(bRun))
			}
			if aRun != bRun {
				if aRun < bRun {
					return -1
				}
				return 1
			}
		} else {
			aRun, a = takeWhile(a, func(c byte) bool { return !isDigit(c) })
			bRun, b = takeWhile(b, func(c byte) bool { return !isDigit(c) })
			if aRun != bRun {
				if aRun < bRun {
					return -1
				}
				return 1
			}
		}
	}
	return 0
}

func takeWhile(s string, pred func(byte) bool) (run, rest string) {
	i := 0
	for i < len(s) && pred(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
