package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("user@example.com"))
	assert.True(t, ValidateEmail("first.last+tag@sub.example.co"))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail("missing@domain"))
	assert.False(t, ValidateEmail("spaces in@example.com"))
}

func TestValidatePassword(t *testing.T) {
	require.NoError(t, ValidatePassword("Sunset9Valley"))

	cases := map[string]string{
		"short":        "Ab1",
		"no upper":     "lowercase9only",
		"no lower":     "UPPERCASE9ONLY",
		"no digit":     "NoDigitsHere",
		"common":       "Password123",
		"repeated run": "Aaaaa9bcdef",
	}
	for name, pw := range cases {
		err := ValidatePassword(pw)
		assert.ErrorIs(t, err, ErrWeakPassword, name)
	}
}
