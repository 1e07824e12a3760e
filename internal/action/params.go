// SPDX-License-Identifier: MPL-2.0

package action

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Params is the named argument set handed to an action. A nil Params behaves as
// an empty set.
//
// Extraction helpers accept a primary name followed by aliases; the first name
// present with a non-nil value wins, and validation errors always report the
// primary name.
type Params map[string]any

// DecodeParams converts a decoded JSON/YAML value into Params. Anything other
// than an object (or nil) is a ValidationError.
func DecodeParams(v any) (Params, error) {
	switch typed := v.(type) {
	case nil:
		return Params{}, nil
	case Params:
		return typed, nil
	case map[string]any:
		return Params(typed), nil
	case map[string]string:
		out := make(Params, len(typed))
		for k, val := range typed {
			out[k] = val
		}
		return out, nil
	default:
		return nil, &ValidationError{Param: "params", Reason: fmt.Sprintf("must be an object, got %T", v)}
	}
}

// DecodeParamsJSON parses data as a JSON object. Empty input is an empty set.
func DecodeParamsJSON(data []byte) (Params, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Params{}, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &ValidationError{Param: "params", Reason: "malformed JSON: " + err.Error()}
	}
	return DecodeParams(v)
}

// Lookup returns the value of the first present, non-nil name.
func (p Params) Lookup(names ...string) (any, bool) {
	for _, n := range names {
		if v, ok := p[n]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether any of names is present with a non-nil value.
func (p Params) Has(names ...string) bool {
	_, ok := p.Lookup(names...)
	return ok
}

// String extracts a required, non-blank string.
func (p Params) String(name string, aliases ...string) (string, error) {
	v, ok := p.Lookup(append([]string{name}, aliases...)...)
	if !ok {
		return "", Invalid(name, "is required")
	}
	s, isString := v.(string)
	if !isString {
		return "", Invalid(name, "must be a string, got %T", v)
	}
	if strings.TrimSpace(s) == "" {
		return "", Invalid(name, "must not be empty")
	}
	return s, nil
}

// OptString extracts an optional string, returning def when absent.
func (p Params) OptString(name, def string, aliases ...string) (string, error) {
	v, ok := p.Lookup(append([]string{name}, aliases...)...)
	if !ok {
		return def, nil
	}
	s, isString := v.(string)
	if !isString {
		return "", Invalid(name, "must be a string, got %T", v)
	}
	return s, nil
}

// Int extracts a required integer. Integral floats (as produced by JSON decoding)
// and numeric strings are accepted.
func (p Params) Int(name string, aliases ...string) (int, error) {
	v, ok := p.Lookup(append([]string{name}, aliases...)...)
	if !ok {
		return 0, Invalid(name, "is required")
	}
	return toInt(name, v)
}

// OptInt extracts an optional integer, returning def when absent.
func (p Params) OptInt(name string, def int, aliases ...string) (int, error) {
	v, ok := p.Lookup(append([]string{name}, aliases...)...)
	if !ok {
		return def, nil
	}
	return toInt(name, v)
}

// Float extracts a required number.
func (p Params) Float(name string, aliases ...string) (float64, error) {
	v, ok := p.Lookup(append([]string{name}, aliases...)...)
	if !ok {
		return 0, Invalid(name, "is required")
	}
	return toFloat(name, v)
}

// OptFloat extracts an optional number, returning def when absent.
func (p Params) OptFloat(name string, def float64, aliases ...string) (float64, error) {
	v, ok := p.Lookup(append([]string{name}, aliases...)...)
	if !ok {
		return def, nil
	}
	return toFloat(name, v)
}

// OptSeconds extracts an optional non-negative duration given in (possibly
// fractional) seconds, returning def when absent. Values past the range of
// time.Duration saturate at its maximum.
func (p Params) OptSeconds(name string, def time.Duration, aliases ...string) (time.Duration, error) {
	v, ok := p.Lookup(append([]string{name}, aliases...)...)
	if !ok {
		return def, nil
	}
	secs, err := toFloat(name, v)
	if err != nil {
		return 0, err
	}
	if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 0, Invalid(name, "must be a non-negative number of seconds, got %v", secs)
	}
	nanos := secs * float64(time.Second)
	if nanos >= math.MaxInt64 {
		return time.Duration(math.MaxInt64), nil
	}
	return time.Duration(nanos), nil
}

// OptBool extracts an optional boolean. The strings "true" and "false" are accepted.
func (p Params) OptBool(name string, def bool, aliases ...string) (bool, error) {
	v, ok := p.Lookup(append([]string{name}, aliases...)...)
	if !ok {
		return def, nil
	}
	switch typed := v.(type) {
	case bool:
		return typed, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(typed))
		if err != nil {
			return false, Invalid(name, "must be a boolean, got %q", typed)
		}
		return b, nil
	default:
		return false, Invalid(name, "must be a boolean, got %T", v)
	}
}

// OptStrings extracts an optional list of strings. A nil result means absent.
func (p Params) OptStrings(name string, aliases ...string) ([]string, error) {
	v, ok := p.Lookup(append([]string{name}, aliases...)...)
	if !ok {
		return nil, nil
	}
	switch typed := v.(type) {
	case []string:
		return typed, nil
	case []any:
		out := make([]string, 0, len(typed))
		for i, item := range typed {
			switch s := item.(type) {
			case string:
				out = append(out, s)
			case float64, int, int64, bool:
				out = append(out, fmt.Sprint(s))
			default:
				return nil, Invalid(name, "element %d must be a string, got %T", i, item)
			}
		}
		return out, nil
	default:
		return nil, Invalid(name, "must be a list of strings, got %T", v)
	}
}

// OptStringMap extracts an optional object whose values are rendered as strings.
func (p Params) OptStringMap(name string, aliases ...string) (map[string]string, error) {
	v, ok := p.Lookup(append([]string{name}, aliases...)...)
	if !ok {
		return nil, nil
	}
	switch typed := v.(type) {
	case map[string]string:
		return typed, nil
	case map[string]any:
		out := make(map[string]string, len(typed))
		for k, item := range typed {
			switch s := item.(type) {
			case string:
				out[k] = s
			case nil:
				out[k] = ""
			default:
				out[k] = fmt.Sprint(s)
			}
		}
		return out, nil
	default:
		return nil, Invalid(name, "must be an object, got %T", v)
	}
}

func toInt(name string, v any) (int, error) {
	switch typed := v.(type) {
	case int:
		return typed, nil
	case int32:
		return int(typed), nil
	case int64:
		return int(typed), nil
	case uint:
		return int(typed), nil
	case float64:
		if typed != math.Trunc(typed) || math.IsInf(typed, 0) || math.IsNaN(typed) {
			return 0, Invalid(name, "must be an integer, got %v", typed)
		}
		return int(typed), nil
	case json.Number:
		n, err := typed.Int64()
		if err != nil {
			return 0, Invalid(name, "must be an integer, got %q", typed.String())
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return 0, Invalid(name, "must be an integer, got %q", typed)
		}
		return n, nil
	default:
		return 0, Invalid(name, "must be an integer, got %T", v)
	}
}

func toFloat(name string, v any) (float64, error) {
	switch typed := v.(type) {
	case float64:
		return typed, nil
	case float32:
		return float64(typed), nil
	case int:
		return float64(typed), nil
	case int64:
		return float64(typed), nil
	case json.Number:
		f, err := typed.Float64()
		if err != nil {
			return 0, Invalid(name, "must be a number, got %q", typed.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, Invalid(name, "must be a number, got %q", typed)
		}
		return f, nil
	default:
		return 0, Invalid(name, "must be a number, got %T", v)
	}
}
