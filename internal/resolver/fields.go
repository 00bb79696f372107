package resolver

import (
	"strconv"
	"strings"
	"time"
)

// Raw records arrive as map[string]any with drifting field names and link
// shapes (single id, []any of ids, comma-joined string). These helpers parse
// at the resolver boundary so nothing downstream touches the raw maps. Each
// takes candidate field names in priority order.

// fieldStr returns the first non-empty string-ish value among the candidates.
func fieldStr(fields map[string]any, names ...string) string {
	for _, n := range names {
		switch v := fields[n].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case []any:
			if len(v) > 0 {
				if s, ok := v[0].(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
		}
	}
	return ""
}

// fieldStrs collects every string value of the first candidate that has any,
// accepting array and comma-joined representations.
func fieldStrs(fields map[string]any, names ...string) []string {
	for _, n := range names {
		switch v := fields[n].(type) {
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, strings.TrimSpace(s))
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			var out []string
			for _, part := range strings.Split(v, ",") {
				if s := strings.TrimSpace(part); s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

// fieldFirst returns the first element of a link field.
func fieldFirst(fields map[string]any, names ...string) string {
	vals := fieldStrs(fields, names...)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// fieldBoolPtr distinguishes "explicitly set" from "absent": checkbox fields
// only appear when true, but some views export explicit false.
func fieldBoolPtr(fields map[string]any, names ...string) *bool {
	for _, n := range names {
		switch v := fields[n].(type) {
		case bool:
			b := v
			return &b
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "yes", "checked":
				b := true
				return &b
			case "false", "no":
				b := false
				return &b
			}
		}
	}
	return nil
}

// fieldFloat returns the first numeric value among the candidates.
func fieldFloat(fields map[string]any, names ...string) float64 {
	for _, n := range names {
		switch v := fields[n].(type) {
		case float64:
			return v
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f
			}
		}
	}
	return 0
}

// dateFormats covers the shapes date fields arrive in.
var dateFormats = []string{time.RFC3339, "2006-01-02", "2006-01-02T15:04:05"}

// fieldTimePtr parses the first parseable date among the candidates.
func fieldTimePtr(fields map[string]any, names ...string) *time.Time {
	s := fieldStr(fields, names...)
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// containsID reports whether any of the link values equals id.
func containsID(vals []string, id string) bool {
	for _, v := range vals {
		if v == id {
			return true
		}
	}
	return false
}
