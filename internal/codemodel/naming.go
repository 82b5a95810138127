package codemodel

import (
	"unicode"
	"unicode/utf8"
)

// Classify returns the naming convention of identifier. It is total:
// anything that fits no convention, or mixes signals of several, is
// UndefinedStyle.
//
// Rules are tested in order:
//
//	snake_case  contains '_', no '-', no uppercase letter, at least one lowercase letter
//	kebab-case  contains '-', no '_', no uppercase letter, at least one lowercase letter
//	PascalCase  no separator, starts with an uppercase letter, at least one lowercase letter
//	camelCase   no separator, starts with a lowercase letter, at least one later uppercase letter
//
// Identifiers made of a single lowercase word ("total") or only capitals
// ("TOTAL") therefore classify as UndefinedStyle. Digits are allowed
// anywhere but in first position for the two separator-free styles.
func Classify(identifier string) NamingConvention {
	if identifier == "" {
		return UndefinedStyle
	}

	var underscore, hyphen, upper, lower bool
	for _, r := range identifier {
		switch {
		case r == '_':
			underscore = true
		case r == '-':
			hyphen = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
		default:
			return UndefinedStyle
		}
	}

	switch {
	case underscore && !hyphen && !upper && lower:
		return SnakeCase
	case hyphen && !underscore && !upper && lower:
		return KebabCase
	case underscore || hyphen:
		return UndefinedStyle
	}

	first, _ := utf8.DecodeRuneInString(identifier)
	switch {
	case unicode.IsUpper(first) && lower:
		return PascalCase
	case unicode.IsLower(first) && upper:
		return CamelCase
	}
	return UndefinedStyle
}
