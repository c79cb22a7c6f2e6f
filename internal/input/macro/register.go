package macro

import "unicode"

// Register validation constants.
const (
	MinLetterRegister = 'a'
	MaxLetterRegister = 'z'
	MinDigitRegister  = '0'
	MaxDigitRegister  = '9'

	// UnnamedRegister holds a macro recorded without a name.
	UnnamedRegister = '"'
)

// IsValidRegister reports whether r can hold a macro.
func IsValidRegister(r rune) bool {
	return IsLetterRegister(r) || IsDigitRegister(r) || r == UnnamedRegister
}

// IsLetterRegister reports whether r is a letter register (a-z).
func IsLetterRegister(r rune) bool {
	return r >= MinLetterRegister && r <= MaxLetterRegister
}

// IsDigitRegister reports whether r is a digit register (0-9).
func IsDigitRegister(r rune) bool {
	return r >= MinDigitRegister && r <= MaxDigitRegister
}

// IsAppendRegister reports whether r is an uppercase letter. Recording into
// an uppercase register appends to its lowercase counterpart.
func IsAppendRegister(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

// NormalizeRegister returns the register r refers to, or 0 if r is not a
// macro register.
func NormalizeRegister(r rune) rune {
	if IsAppendRegister(r) {
		return unicode.ToLower(r)
	}
	if IsValidRegister(r) {
		return r
	}
	return 0
}

// parseRegister reads a one-character register name.
func parseRegister(name string) (rune, bool) {
	runes := []rune(name)
	if len(runes) != 1 {
		return 0, false
	}
	return runes[0], NormalizeRegister(runes[0]) != 0
}
