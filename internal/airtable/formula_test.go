package airtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "rec123", "rec123"},
		{"quotes", `say "hi"`, `say \"hi\"`},
		{"backslashes", `a\b`, `a\\b`},
		{"backslash before quote", `\"`, `\\\"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.in))
		})
	}
}

func TestFormulaBuilders(t *testing.T) {
	assert.Equal(t, `{Email} = "a@b.c"`, Equals("Email", "a@b.c"))
	assert.Equal(t, `LOWER({Email}) = "a@b.c"`, EqualsFold("Email", "A@B.C"))
	assert.Equal(t, `FIND("a@b.c", {Email}) > 0`, Contains("Email", "a@b.c"))
	assert.Equal(t, `FIND("rec1", ARRAYJOIN({Cohorts})) > 0`, ContainsJoined("Cohorts", "rec1"))
	assert.Equal(t, `OR({A} = "1", {B} = "2")`, Or(Equals("A", "1"), Equals("B", "2")))
	assert.Equal(t, `AND({A} = "1", {B} = "2")`, And(Equals("A", "1"), Equals("B", "2")))
}
