package application

import (
	"context"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	defaultFirstName = "User"
	defaultLastName  = "Account"
)

func localPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size == 0 {
		return ""
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// deriveNames turns "jane.doe@x.com" into ("Jane", "Doe"); missing segments
// fall back to "User" and "Account".
func deriveNames(email string) (first, last string) {
	first, last = defaultFirstName, defaultLastName
	parts := strings.Split(localPart(email), ".")
	if len(parts) > 0 && parts[0] != "" {
		first = capitalize(parts[0])
	}
	if len(parts) > 1 && parts[1] != "" {
		last = capitalize(parts[1])
	}
	return first, last
}

// usernameExistsFunc reports whether a username is already taken.
type usernameExistsFunc func(ctx context.Context, username string) (bool, error)

// uniqueUsername returns base, or base followed by the smallest positive
// integer suffix that is not yet taken. Every candidate is rechecked.
func uniqueUsername(ctx context.Context, base string, exists usernameExistsFunc) (string, error) {
	candidate := base
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(n)
	}
}
