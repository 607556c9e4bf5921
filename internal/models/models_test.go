package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWasteCategory(t *testing.T) {
	tests := []struct {
		input string
		want  WasteCategory
		ok    bool
	}{
		{"Recycled", CategoryRecycled, true},
		{"Composted", CategoryComposted, true},
		{"Plastic", CategoryPlastic, true},
		{"recycled", "", false}, // enum is case sensitive
		{"Cardboard", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseWasteCategory(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		if tt.ok {
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestWasteCategoryIsValid(t *testing.T) {
	for _, c := range AllCategories() {
		assert.True(t, c.IsValid(), "category %s should be valid", c)
	}
	assert.False(t, WasteCategory("Trash").IsValid())
}

func TestCategoryLabels(t *testing.T) {
	// Every enum member has a display label; unknown members echo themselves.
	assert.Equal(t, "Paper & Cardboard", CategoryPaper.Label())
	assert.Equal(t, "Recycled", CategoryRecycled.Label())
	assert.Equal(t, "Mystery", WasteCategory("Mystery").Label())
}

func TestPublicProfileStripsCredentials(t *testing.T) {
	u := &User{ID: 1, Name: "eco", Email: "eco@example.com", PasswordHash: "bcrypt$hash"}
	p := u.PublicProfile()
	assert.Empty(t, p.PasswordHash)
	assert.Equal(t, "bcrypt$hash", u.PasswordHash, "original must be untouched")
}
