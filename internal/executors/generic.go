// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package executors implements contract.Executor: given a collected value
// and a STATE field's operation/expected value, decide pass or fail. One
// GenericExecutor handles every data type and operation named in the
// language, including record_data dot-path/wildcard walking and the
// entity-check quantifier applied when a field resolves to a collection
// rather than a scalar — grounded on the field-evaluation logic in
// esp_scanner_sdk's rpm_package/json_record executors.
package executors

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/curtisslone/esp/internal/ast"
	"github.com/curtisslone/esp/internal/version"
)

// GenericExecutor evaluates any Field against any collected value.
type GenericExecutor struct{}

// Evaluate implements contract.Executor.
func (GenericExecutor) Evaluate(field ast.Field, actual any) (bool, error) {
	resolved, err := walkPath(actual, field.Name)
	if err != nil {
		return false, err
	}
	if coll, ok := asCollection(resolved); ok {
		return evaluateEntityCheck(field, coll)
	}
	return evaluateScalar(field, resolved)
}

// walkPath descends a dot-separated path (record_data nesting) into v. A
// "*" path segment leaves the remaining collection untouched for the
// caller's entity-check quantifier to range over, rather than indexing
// into one element.
func walkPath(v any, path string) (any, error) {
	if path == "" || !strings.Contains(path, ".") {
		return v, nil
	}
	segments := strings.Split(path, ".")
	cur := v
	for _, seg := range segments[1:] { // first segment is the field's own top-level name, already selected
		if seg == "*" {
			return cur, nil
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("executors: cannot descend into %q: not a record", seg)
		}
		next, present := m[seg]
		if !present {
			return nil, fmt.Errorf("executors: record has no field %q", seg)
		}
		cur = next
	}
	return cur, nil
}

func asCollection(v any) ([]any, bool) {
	switch c := v.(type) {
	case []any:
		return c, true
	case []string:
		out := make([]any, len(c))
		for i, s := range c {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(c))
		for i, s := range c {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func evaluateEntityCheck(field ast.Field, items []any) (bool, error) {
	check := field.EntityCheck
	if !field.HasEntity {
		check = ast.EntityAll
	}
	pass := 0
	for _, item := range items {
		ok, err := evaluateScalar(field, item)
		if err != nil {
			return false, err
		}
		if ok {
			pass++
		}
	}
	switch check {
	case ast.EntityAll:
		return pass == len(items), nil
	case ast.EntityAtLeastOne:
		return pass >= 1, nil
	case ast.EntityNone:
		return pass == 0, nil
	case ast.EntityOnlyOne:
		return pass == 1, nil
	default:
		return pass == len(items), nil
	}
}

func evaluateScalar(field ast.Field, actual any) (bool, error) {
	switch field.Type {
	case ast.TypeEvrString:
		return compareEVR(field.Op, actual, field.Expected.Str)
	case ast.TypeVersion:
		return compareVersion(field.Op, actual, field.Expected.Str)
	case ast.TypeInt:
		return compareNumeric(field.Op, toFloat(actual), float64(field.Expected.Int))
	case ast.TypeFloat:
		return compareNumeric(field.Op, toFloat(actual), field.Expected.Flt)
	case ast.TypeBoolean:
		return compareBool(field.Op, actual, field.Expected.Bool)
	default:
		return compareString(field.Op, fmt.Sprintf("%v", actual), field.Expected.Str)
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}

func compareNumeric(op ast.Operation, a, b float64) (bool, error) {
	switch op {
	case ast.OpEquals:
		return a == b, nil
	case ast.OpNotEqual:
		return a != b, nil
	case ast.OpLess:
		return a < b, nil
	case ast.OpLessEqual:
		return a <= b, nil
	case ast.OpGreater:
		return a > b, nil
	case ast.OpGreaterEqual:
		return a >= b, nil
	default:
		return false, fmt.Errorf("executors: operation %s is not valid for a numeric field", op)
	}
}

func compareBool(op ast.Operation, actual any, expected bool) (bool, error) {
	b, ok := actual.(bool)
	if !ok {
		s := fmt.Sprintf("%v", actual)
		b = s == "true"
	}
	switch op {
	case ast.OpEquals:
		return b == expected, nil
	case ast.OpNotEqual:
		return b != expected, nil
	default:
		return false, fmt.Errorf("executors: operation %s is not valid for a boolean field", op)
	}
}

func compareString(op ast.Operation, a, b string) (bool, error) {
	switch op {
	case ast.OpEquals:
		return a == b, nil
	case ast.OpNotEqual:
		return a != b, nil
	case ast.OpEqualsIC:
		return strings.EqualFold(a, b), nil
	case ast.OpNotEqualIC:
		return !strings.EqualFold(a, b), nil
	case ast.OpContains:
		return strings.Contains(a, b), nil
	case ast.OpNotContains:
		return !strings.Contains(a, b), nil
	case ast.OpStartsWith:
		return strings.HasPrefix(a, b), nil
	case ast.OpNotStartsWith:
		return !strings.HasPrefix(a, b), nil
	case ast.OpEndsWith:
		return strings.HasSuffix(a, b), nil
	case ast.OpNotEndsWith:
		return !strings.HasSuffix(a, b), nil
	case ast.OpLess:
		return a < b, nil
	case ast.OpLessEqual:
		return a <= b, nil
	case ast.OpGreater:
		return a > b, nil
	case ast.OpGreaterEqual:
		return a >= b, nil
	case ast.OpPatternMatch, ast.OpMatches:
		re, err := regexp.Compile(b)
		if err != nil {
			return false, fmt.Errorf("executors: invalid pattern %q: %w", b, err)
		}
		return re.MatchString(a), nil
	case ast.OpSubsetOf, ast.OpSupersetOf:
		return setOperation(op, a, b), nil
	default:
		return false, fmt.Errorf("executors: unsupported operation %s", op)
	}
}

// setOperation treats both sides as comma-separated member lists, the
// representation resolved sets are rendered as once inlined into a field.
func setOperation(op ast.Operation, a, b string) bool {
	left := splitSet(a)
	right := splitSet(b)
	switch op {
	case ast.OpSubsetOf:
		return isSubset(left, right)
	case ast.OpSupersetOf:
		return isSubset(right, left)
	default:
		return false
	}
}

func splitSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out[p] = true
		}
	}
	return out
}

func isSubset(small, big map[string]bool) bool {
	for k := range small {
		if !big[k] {
			return false
		}
	}
	return true
}

func compareEVR(op ast.Operation, actual any, expected string) (bool, error) {
	a := version.ParseEVR(fmt.Sprintf("%v", actual))
	b := version.ParseEVR(expected)
	return compareByOrdering(op, version.CompareEVR(a, b))
}

func compareVersion(op ast.Operation, actual any, expected string) (bool, error) {
	a := version.ParseSemver(fmt.Sprintf("%v", actual))
	b := version.ParseSemver(expected)
	return compareByOrdering(op, version.CompareSemver(a, b))
}

func compareByOrdering(op ast.Operation, cmp int) (bool, error) {
	switch op {
	case ast.OpEquals:
		return cmp == 0, nil
	case ast.OpNotEqual:
		return cmp != 0, nil
	case ast.OpLess:
		return cmp < 0, nil
	case ast.OpLessEqual:
		return cmp <= 0, nil
	case ast.OpGreater:
		return cmp > 0, nil
	case ast.OpGreaterEqual:
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("executors: operation %s is not valid for an ordered version field", op)
	}
}
