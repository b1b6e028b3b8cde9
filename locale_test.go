package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestNewRuntimeInfo(t *testing.T) {
	tests := []struct {
		locale   string
		decimal  string
		group    string
		currency string
		symbol   string
	}{
		{"en-US", ".", ",", "USD", "$"},
		{"de-DE", ",", ".", "EUR", "€"},
		{"en-GB", ".", ",", "GBP", "£"},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			info, err := NewRuntimeInfo(tt.locale, false)
			require.NoError(t, err)
			assert.Equal(t, tt.locale, info.Locale)
			assert.Equal(t, tt.decimal, info.DecimalSeparator)
			assert.Equal(t, tt.group, info.GroupSeparator)
			assert.Equal(t, tt.currency, info.CurrencyCode)
			assert.Equal(t, tt.symbol, info.CurrencySymbol)
			assert.Equal(t, DateSystem1900, info.DateSystem())
		})
	}
}

func TestRuntimeInfoDetails(t *testing.T) {
	info, err := NewRuntimeInfo("de-DE", true)
	require.NoError(t, err)
	assert.Equal(t, DateSystem1904, info.DateSystem())
	assert.Equal(t, language.MustParse("de-DE"), info.Tag())
	assert.Equal(t, "1.234,5", info.FormatNumber(1234.5))

	_, err = NewRuntimeInfo("not a locale!", false)
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, InvalidArgument, appErr.Code)
}

func TestSeparators(t *testing.T) {
	tests := []struct {
		in             string
		decimal, group string
	}{
		{"1,234,567.5", ".", ","},
		{"1.234.567,5", ",", "."},
		{"1234567,5", ",", ""},
		{"1234567", ".", ""},
		{"1 234 567,5", ",", " "},
	}
	for _, tt := range tests {
		decimal, group := separators(tt.in)
		assert.Equal(t, tt.decimal, decimal, tt.in)
		assert.Equal(t, tt.group, group, tt.in)
	}
}
