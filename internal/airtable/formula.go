package airtable

import (
	"fmt"
	"strings"
)

// Formula helpers for filterByFormula expressions. Link fields drift between
// single ids, multi-value arrays and comma-joined strings, so the resolver
// pairs Equals with the looser ContainsJoined form.

// Escape makes a value safe inside a double-quoted formula string.
func Escape(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return v
}

// Equals builds an exact-match filter: {Field} = "value".
func Equals(field, value string) string {
	return fmt.Sprintf(`{%s} = "%s"`, field, Escape(value))
}

// EqualsFold builds a case-insensitive exact match.
func EqualsFold(field, value string) string {
	return fmt.Sprintf(`LOWER({%s}) = "%s"`, field, strings.ToLower(Escape(value)))
}

// Contains builds a substring filter: FIND("value", {Field}) > 0.
func Contains(field, value string) string {
	return fmt.Sprintf(`FIND("%s", {%s}) > 0`, Escape(value), field)
}

// ContainsJoined matches a value inside a multi-value link field by joining
// it to a single string first.
func ContainsJoined(field, value string) string {
	return fmt.Sprintf(`FIND("%s", ARRAYJOIN({%s})) > 0`, Escape(value), field)
}

// Or combines terms with OR(...).
func Or(terms ...string) string {
	return "OR(" + strings.Join(terms, ", ") + ")"
}

// And combines terms with AND(...).
func And(terms ...string) string {
	return "AND(" + strings.Join(terms, ", ") + ")"
}
