package password

import (
	"unicode"

	"github.com/rivo/uniseg"
)

// CriterionName identifies one password rule.
type CriterionName string

// Raw predicates reported by Result.Detail.
const (
	CriterionMinLength     CriterionName = "minLength"
	CriterionMaxLength     CriterionName = "maxLength"
	CriterionLengthInRange CriterionName = "lengthInRange"
	CriterionNoWhitespace  CriterionName = "noWhitespace"
)

// Displayed checklist indicators, in declaration order.
const (
	CriterionLengthAndNoWhitespace CriterionName = "lengthAndNoWhitespace"
	CriterionUppercase             CriterionName = "hasUppercase"
	CriterionLowercase             CriterionName = "hasLowercase"
	CriterionDigit                 CriterionName = "hasDigit"
	CriterionSpecialChar           CriterionName = "hasSpecialChar"
)

// Predicate reports whether a candidate password satisfies a rule.
type Predicate func(string) bool

// Criterion is an immutable named rule. Label is the checklist text shown to
// the user.
type Criterion struct {
	Name  CriterionName
	Label string
	Check Predicate
}

// CharacterCount returns the number of user-visible characters in s
// (extended grapheme clusters), not bytes or runes.
func CharacterCount(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// LengthInRange reports whether minLen <= CharacterCount(s) <= maxLen.
func LengthInRange(s string, minLen, maxLen int) bool {
	n := CharacterCount(s)
	return n >= minLen && n <= maxLen
}

// NoWhitespace reports whether s contains no Unicode whitespace.
func NoWhitespace(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// LengthAndNoWhitespace is the combined first checklist indicator.
func LengthAndNoWhitespace(s string, minLen, maxLen int) bool {
	return NoWhitespace(s) && LengthInRange(s, minLen, maxLen)
}

// HasUppercase reports whether s contains an uppercase letter.
func HasUppercase(s string) bool {
	return containsRune(s, unicode.IsUpper)
}

// HasLowercase reports whether s contains an ASCII lowercase letter a-z.
func HasLowercase(s string) bool {
	return containsRune(s, isASCIILower)
}

// HasDigit reports whether s contains an ASCII digit 0-9.
func HasDigit(s string) bool {
	return containsRune(s, isASCIIDigit)
}

// HasSpecialChar reports whether s contains a punctuation or symbol character.
func HasSpecialChar(s string) bool {
	return containsRune(s, isSpecialCharacter)
}

func containsRune(s string, class func(rune) bool) bool {
	for _, r := range s {
		if class(r) {
			return true
		}
	}
	return false
}

func isASCIILower(r rune) bool {
	return r >= 'a' && r <= 'z'
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isSpecialCharacter(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
