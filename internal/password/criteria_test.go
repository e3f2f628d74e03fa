package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLengthInRange(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"too short", "1234567", false},
		{"exactly min", "12345678", true},
		{"exactly max", "12345678901234567890123456789012", true},
		{"one over max", "123456789012345678901234567890123", false},
		{"empty", "", false},
		{"combining marks count once", strings.Repeat("e\u0301", 8), true},
		{"emoji sequence counts once", strings.Repeat("\U0001F468\u200d\U0001F469\u200d\U0001F467", 8), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LengthInRange(tt.input, DefaultMinLength, DefaultMaxLength))
		})
	}
}

func TestCharacterCount(t *testing.T) {
	assert.Equal(t, 0, CharacterCount(""))
	assert.Equal(t, 3, CharacterCount("abc"))
	assert.Equal(t, 1, CharacterCount("e\u0301"))
	assert.Equal(t, 1, CharacterCount("\U0001F1E9\U0001F1EA"))
}

func TestNoWhitespace(t *testing.T) {
	assert.True(t, NoWhitespace("ab"))
	assert.True(t, NoWhitespace("abc"))
	assert.False(t, NoWhitespace("a b"))
	assert.False(t, NoWhitespace("a\tb"))
	assert.False(t, NoWhitespace("a\u00a0b"), "no-break space")
	assert.False(t, NoWhitespace("a\u2003b"), "em space")
}

func TestLengthAndNoWhitespace(t *testing.T) {
	assert.True(t, LengthAndNoWhitespace("12345678", 8, 32))
	assert.False(t, LengthAndNoWhitespace("1234567 8", 8, 32))
	assert.False(t, LengthAndNoWhitespace("1234567", 8, 32))
}

func TestCharacterClasses(t *testing.T) {
	tests := []struct {
		name  string
		check Predicate
		met   []string
		unmet []string
	}{
		{"uppercase", HasUppercase, []string{"A", "zZ", "É"}, []string{"a", "1", "!", ""}},
		{"lowercase", HasLowercase, []string{"a", "Zz", "éz"}, []string{"A", "1", "!", "", "é", "ß", "ñ", "λ"}},
		{"digit", HasDigit, []string{"1", "a0"}, []string{"a", "٣", ""}},
		{"special", HasSpecialChar, []string{"@", "!", "#", "$", "-", "€"}, []string{"a", "A", "1", " ", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, in := range tt.met {
				assert.True(t, tt.check(in), "%q", in)
			}
			for _, in := range tt.unmet {
				assert.False(t, tt.check(in), "%q", in)
			}
		})
	}
}
