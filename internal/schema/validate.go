// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ParseError reports input that is not well-formed JSON. It is distinct
// from ValidationError, which reports well-formed input that does not fit
// the document model.
type ParseError struct {
	// Offset is the byte offset of the syntax error, or -1 when unknown.
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("parsing extraction document at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("parsing extraction document: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Violation is one field that failed validation.
type Violation struct {
	Path   string
	Value  any
	Reason string
}

func (v Violation) String() string {
	path := v.Path
	if path == "" {
		path = "(root)"
	}
	if v.Value == nil {
		return fmt.Sprintf("%s: %s", path, v.Reason)
	}
	return fmt.Sprintf("%s: %s (got %s)", path, v.Reason, describeValue(v.Value))
}

// ValidationError lists every violation found in a document, in document order.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("extraction document failed validation (%d violation(s)): %s",
		len(e.Violations), strings.Join(parts, "; "))
}

// Paths returns the offending field paths.
func (e *ValidationError) Paths() []string {
	paths := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		paths[i] = v.Path
	}
	return paths
}

// Parse decodes raw JSON and validates it. Malformed JSON yields a
// *ParseError; a document that does not fit the model yields a
// *ValidationError.
func Parse(data []byte) (*ExtractionOutput, error) {
	doc, err := decode(data)
	if err != nil {
		return nil, err
	}
	return Validate(doc)
}

func decode(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Offset: -1, Err: errors.New("empty input")}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, newParseError(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ParseError{Offset: dec.InputOffset(), Err: errors.New("unexpected data after document")}
	}
	return doc, nil
}

func newParseError(err error) *ParseError {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		return &ParseError{Offset: syn.Offset, Err: err}
	}
	return &ParseError{Offset: -1, Err: err}
}

// Validate checks an untyped document (maps, slices and scalars as produced
// by encoding/json) against the document model and converts it to an
// ExtractionOutput. Unknown keys at any depth are rejected. Every violation
// is reported, not just the first.
func Validate(doc any) (*ExtractionOutput, error) {
	v := &validator{}
	normalized := v.walk("", extractionOutputSpec, doc)
	if len(v.violations) > 0 {
		return nil, &ValidationError{Violations: v.violations}
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("re-encoding normalized document: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var out ExtractionOutput
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding normalized document: %w", err)
	}
	return &out, nil
}

type validator struct {
	violations []Violation
}

func (v *validator) fail(path string, value any, format string, args ...any) {
	v.violations = append(v.violations, Violation{
		Path:   path,
		Value:  value,
		Reason: fmt.Sprintf(format, args...),
	})
}

// walk validates val against s and returns its normalized form. A null
// field normalizes to nil; required-ness is checked by the enclosing object.
// Array items may not be null.
func (v *validator) walk(path string, s *spec, val any) any {
	if val == nil {
		return nil
	}

	switch s.kind {
	case kindString:
		str, ok := val.(string)
		if !ok {
			v.fail(path, val, "expected string")
			return nil
		}
		return str

	case kindEnum:
		str, ok := val.(string)
		if !ok {
			v.fail(path, val, "expected one of %s", quoteAll(s.enum))
			return nil
		}
		for _, allowed := range s.enum {
			if str == allowed {
				return str
			}
		}
		v.fail(path, val, "expected one of %s", quoteAll(s.enum))
		return nil

	case kindBoolean:
		b, ok := val.(bool)
		if !ok {
			v.fail(path, val, "expected boolean")
			return nil
		}
		return b

	case kindNumber:
		f, ok := toFloat(val)
		if !ok {
			v.fail(path, val, "expected number")
			return nil
		}
		return f

	case kindInteger:
		n, ok := toInt(val)
		if !ok {
			v.fail(path, val, "expected integer")
			return nil
		}
		if s.min != nil && n < *s.min || s.max != nil && n > *s.max {
			v.fail(path, val, "must be between %d and %d", *s.min, *s.max)
			return nil
		}
		return n

	case kindArray:
		items, ok := val.([]any)
		if !ok {
			v.fail(path, val, "expected array")
			return nil
		}
		out := make([]any, 0, len(items))
		for i, item := range items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if item == nil {
				v.fail(itemPath, nil, "null item")
				continue
			}
			out = append(out, v.walk(itemPath, s.items, item))
		}
		return out

	case kindOpenMap:
		m, ok := val.(map[string]any)
		if !ok {
			v.fail(path, val, "expected object")
			return nil
		}
		return m

	case kindObject:
		m, ok := val.(map[string]any)
		if !ok {
			v.fail(path, val, "expected object")
			return nil
		}
		return v.walkObject(path, s, m)
	}

	v.fail(path, val, "no rule for value")
	return nil
}

func (v *validator) walkObject(path string, s *spec, m map[string]any) map[string]any {
	out := make(map[string]any, len(s.fields))
	known := make(map[string]bool, len(s.fields))

	for _, f := range s.fields {
		known[f.name] = true
		fieldPath := joinPath(path, f.name)

		val, present := m[f.name]
		if !present {
			if f.required {
				v.fail(fieldPath, nil, "required field missing")
			}
			continue
		}
		if val == nil && f.required {
			v.fail(fieldPath, nil, "required field is null")
			continue
		}
		if n := v.walk(fieldPath, f.spec, val); n != nil {
			out[f.name] = n
		}
	}

	var unknown []string
	for k := range m {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		v.fail(joinPath(path, k), nil, "unknown field")
	}

	return out
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func toFloat(val any) (float64, bool) {
	var f float64
	switch n := val.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// toInt accepts integers and integral floats such as 5.0 within the int32
// range.
func toInt(val any) (int64, bool) {
	var n int64
	switch x := val.(type) {
	case json.Number:
		i, err := strconv.ParseInt(x.String(), 10, 64)
		if err != nil {
			return integralFloat(val)
		}
		n = i
	case int:
		n = int64(x)
	case int64:
		n = x
	case int32:
		n = int64(x)
	default:
		return integralFloat(val)
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0, false
	}
	return n, true
}

func integralFloat(val any) (int64, bool) {
	f, ok := toFloat(val)
	if !ok || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int64(f), true
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func describeValue(val any) string {
	switch t := val.(type) {
	case string:
		return strconv.Quote(t)
	case json.Number:
		return t.String()
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%v", t)
	}
}
