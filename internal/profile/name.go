package profile

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// FallbackFirstName is used when neither the display name nor the email yields a usable token.
	FallbackFirstName = "Friend"
	// DefaultFirstName is shown before anyone has signed in.
	DefaultFirstName = "Alex"
)

// ResolveFirstName derives the name used in "Welcome to CleerSplit, <name>".
//
// The display name wins when it has any non-whitespace content and is returned
// with its original casing. Otherwise the email local part is split on '.', '_'
// and '-' and its first segment is capitalized. "Friend" is returned when both
// sources are missing or unusable.
func ResolveFirstName(displayName, email *string) string {
	if name, ok := firstNameFromDisplayName(displayName); ok {
		return name
	}
	if name, ok := firstNameFromEmail(email); ok {
		return name
	}
	return FallbackFirstName
}

func firstNameFromDisplayName(displayName *string) (string, bool) {
	if displayName == nil {
		return "", false
	}
	parts := strings.Fields(*displayName)
	if len(parts) == 0 {
		return "", false
	}
	return parts[0], true
}

func firstNameFromEmail(email *string) (string, bool) {
	if email == nil {
		return "", false
	}
	local, _, _ := strings.Cut(*email, "@")
	if local == "" {
		return "", false
	}

	for _, segment := range strings.FieldsFunc(local, isLocalPartSeparator) {
		// whitespace never survives into a first name
		segment = strings.TrimSpace(segment)
		if segment != "" {
			return capitalize(segment), true
		}
	}
	return "", false
}

func isLocalPartSeparator(r rune) bool {
	return r == '.' || r == '_' || r == '-'
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return strings.ToLower(s)
	}
	head := string(r)
	if unicode.IsLetter(r) {
		head = strings.ToUpper(head)
	}
	return head + strings.ToLower(s[size:])
}
