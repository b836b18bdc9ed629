package validation

import (
	"regexp"

	"github.com/jrsteele09/go-collab-server/users"
)

// Pattern is a named string rule usable as pattern=<name> in a tag
type Pattern struct {
	Match       func(string) bool
	Description string
}

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// Patterns is the table of named patterns recognised by the pattern tag
var Patterns = map[string]Pattern{
	"username": {
		Match:       usernameRe.MatchString,
		Description: "may only contain letters, numbers, dots, underscores and hyphens",
	},
	"password": {
		Match:       func(s string) bool { return users.ValidatePasswordStrength(s) == nil },
		Description: "must be at least 8 characters and contain upper case, lower case and a number",
	},
}
