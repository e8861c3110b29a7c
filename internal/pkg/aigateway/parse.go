package aigateway

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the primitive type expected for a structured field.
type Kind int

const (
	String Kind = iota
	Number
	Bool
	// Date is a YYYY-MM-DD string or null.
	Date
)

// Field describes one expected key of a structured reply.
type Field struct {
	Name    string
	Kind    Kind
	Default any
}

// Shape is the ordered set of fields a task expects back.
type Shape []Field

var (
	fenceRe = regexp.MustCompile("```(?:json|JSON)?")
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ParseStructured turns raw model output into a map holding exactly the
// fields of shape. It never fails: a reply that is not valid JSON is mined
// field by field with patterns, and anything missing takes its default.
// The second return reports whether strict JSON decoding succeeded.
func ParseStructured(raw string, shape Shape) (map[string]any, bool) {
	text := cleanReply(raw)

	if obj, ok := decodeObject(text); ok {
		out := make(map[string]any, len(shape))
		for _, f := range shape {
			v, present := obj[f.Name]
			out[f.Name] = coerce(f, v, present)
		}
		return out, true
	}

	out := make(map[string]any, len(shape))
	for _, f := range shape {
		out[f.Name] = extractField(text, f)
	}
	return out, false
}

// Decode parses raw against shape and stores the result in dst, which must be
// a pointer to a struct whose json tags match the shape's field names.
func Decode(raw string, shape Shape, dst any) (strict bool, err error) {
	fields, strict := ParseStructured(raw, shape)
	b, err := json.Marshal(fields)
	if err != nil {
		return strict, fmt.Errorf("encode fields: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return strict, fmt.Errorf("decode fields: %w", err)
	}
	return strict, nil
}

// CleanText tidies a plain-text reply: fences, whitespace and wrapping quotes go.
func CleanText(raw string) string {
	return cleanReply(raw)
}

func cleanReply(raw string) string {
	s := fenceRe.ReplaceAllString(raw, "")
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

func decodeObject(text string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj != nil {
		return obj, true
	}
	// prose around a single object
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err == nil && obj != nil {
		return obj, true
	}
	return nil, false
}

func defaultFor(f Field) any {
	if f.Default != nil {
		return f.Default
	}
	switch f.Kind {
	case Number:
		return 0.0
	case Bool:
		return false
	case Date:
		return nil
	default:
		return ""
	}
}

func coerce(f Field, v any, present bool) any {
	if !present || v == nil {
		return defaultFor(f)
	}

	switch f.Kind {
	case Number:
		switch t := v.(type) {
		case float64:
			return finite(t)
		case string:
			return parseNumber(t)
		default:
			return 0.0
		}

	case Bool:
		switch t := v.(type) {
		case bool:
			return t
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
				return b
			}
		}
		return defaultFor(f)

	case Date:
		if s, ok := v.(string); ok && dateRe.MatchString(strings.TrimSpace(s)) {
			return strings.TrimSpace(s)
		}
		return nil

	default:
		switch t := v.(type) {
		case string:
			return t
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(t)
		default:
			return defaultFor(f)
		}
	}
}

// parseNumber accepts "12", "12.5", "$12" and "1,200"; anything else,
// including "NaN" and "Inf", is 0.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finite(n)
}

// finite maps NaN and infinities to 0 so results always encode as JSON.
func finite(n float64) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

func extractField(text string, f Field) any {
	key := `"` + regexp.QuoteMeta(f.Name) + `"\s*:\s*`

	switch f.Kind {
	case Number:
		re := regexp.MustCompile(key + `"?\$?(-?\d+(?:\.\d+)?)`)
		if m := re.FindStringSubmatch(text); m != nil {
			return parseNumber(m[1])
		}

	case Bool:
		re := regexp.MustCompile(`(?i)` + key + `"?(true|false)`)
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.EqualFold(m[1], "true")
		}

	case Date:
		re := regexp.MustCompile(key + `"(\d{4}-\d{2}-\d{2})"`)
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}

	default:
		re := regexp.MustCompile(key + `"((?:[^"\\]|\\.)*)"`)
		if m := re.FindStringSubmatch(text); m != nil {
			if s, err := strconv.Unquote(`"` + m[1] + `"`); err == nil {
				return s
			}
			return m[1]
		}
	}

	return defaultFor(f)
}
