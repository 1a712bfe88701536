package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		str      string
		expected Mode
		wantErr  bool
	}{
		{"filter", ModeFilter, false},
		{"block_all", ModeBlockAll, false},
		{"allow_all", ModeAllowAll, false},
		{"", ModeFilter, true},
		{"blockall", ModeFilter, true},
	}

	for _, test := range tests {
		m, err := ParseMode(test.str)
		if test.wantErr {
			assert.Error(t, err, "expected error for %q", test.str)
			continue
		}
		assert.NoError(t, err, "unexpected error for %q", test.str)
		assert.Equal(t, test.expected, m)
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "filter", ModeFilter.String())
	assert.Equal(t, "block_all", ModeBlockAll.String())
	assert.Equal(t, "allow_all", ModeAllowAll.String())
	assert.Equal(t, "unknown", Mode(42).String())
}

func TestModeFlag(t *testing.T) {
	f := NewModeFlag(ModeFilter)
	assert.Equal(t, ModeFilter, f.Get())

	f.Set(ModeBlockAll)
	assert.Equal(t, ModeBlockAll, f.Get())

	f.Set(ModeAllowAll)
	assert.Equal(t, ModeAllowAll, f.Get())
}
