package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFieldStr(t *testing.T) {
	fields := map[string]any{
		"Email":       "a@b.c",
		"Blank":       "  ",
		"Number":      float64(42),
		"Lookup":      []any{"first", "second"},
		"Email Addr":  "fallback@b.c",
		"Empty Array": []any{},
	}
	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{"plain string", []string{"Email"}, "a@b.c"},
		{"blank falls through to next candidate", []string{"Blank", "Email"}, "a@b.c"},
		{"number renders", []string{"Number"}, "42"},
		{"lookup array takes first", []string{"Lookup"}, "first"},
		{"missing candidates", []string{"Nope", "AlsoNope"}, ""},
		{"priority order", []string{"Email", "Email Addr"}, "a@b.c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fieldStr(fields, tt.names...))
		})
	}
}

func TestFieldStrs(t *testing.T) {
	fields := map[string]any{
		"Links":  []any{"rec1", " rec2 ", ""},
		"Joined": "rec3, rec4,,rec5",
	}
	assert.Equal(t, []string{"rec1", "rec2"}, fieldStrs(fields, "Links"))
	assert.Equal(t, []string{"rec3", "rec4", "rec5"}, fieldStrs(fields, "Joined"))
	assert.Nil(t, fieldStrs(fields, "Missing"))
}

func TestFieldBoolPtr(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name   string
		fields map[string]any
		want   *bool
	}{
		{"bool true", map[string]any{"Flag": true}, &yes},
		{"bool false", map[string]any{"Flag": false}, &no},
		{"string yes", map[string]any{"Flag": "Yes"}, &yes},
		{"string false", map[string]any{"Flag": "false"}, &no},
		{"absent stays nil", map[string]any{}, nil},
		{"unparseable stays nil", map[string]any{"Flag": "maybe"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fieldBoolPtr(tt.fields, "Flag"))
		})
	}
}

func TestFieldTimePtr(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"rfc3339", "2026-03-01T09:00:00Z", "2026-03-01T09:00:00Z"},
		{"date only", "2026-03-01", "2026-03-01T00:00:00Z"},
		{"datetime no zone", "2026-03-01T09:00:00", "2026-03-01T09:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fieldTimePtr(map[string]any{"Date": tt.value}, "Date")
			if assert.NotNil(t, got) {
				assert.Equal(t, tt.want, got.UTC().Format(time.RFC3339))
			}
		})
	}
	assert.Nil(t, fieldTimePtr(map[string]any{"Date": "not a date"}, "Date"))
	assert.Nil(t, fieldTimePtr(map[string]any{}, "Date"))
}

func TestCohortIsCurrent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -2, 0)
	future := now.AddDate(0, 2, 0)
	longPast := now.AddDate(-1, 0, 0)
	yes, no := true, false

	tests := []struct {
		name       string
		flag       *bool
		start, end *time.Time
		want       bool
	}{
		{"flag true overrides stale range", &yes, &longPast, &past, true},
		{"flag false overrides live range", &no, &past, &future, false},
		{"range includes today", nil, &past, &future, true},
		{"range already over", nil, &longPast, &past, false},
		{"start boundary inclusive", nil, &now, &future, true},
		{"end boundary inclusive", nil, &past, &now, true},
		{"missing dates", nil, nil, nil, false},
		{"only start date", nil, &past, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cohortIsCurrent(tt.flag, tt.start, tt.end, now))
		})
	}
}

func TestTypeValidAndTTL(t *testing.T) {
	assert.True(t, TypeProfile.Valid())
	assert.True(t, TypeMilestone.Valid())
	assert.False(t, Type("widget").Valid())

	// Volatile types refresh faster than near-static ones.
	assert.Less(t, DefaultTTL(TypeParticipation), DefaultTTL(TypeProfile))
	assert.Less(t, DefaultTTL(TypeProfile), DefaultTTL(TypeInstitution))
	assert.Equal(t, 10*time.Minute, DefaultTTL(Type("widget")))
}
