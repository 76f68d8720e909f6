// Package logging configures the client logger. Credentials and other
// sensitive values must never reach log output, so the logger installs a
// redaction hook that masks fields whose names suggest secrets.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// sensitive lists field-name fragments whose values are masked.
var sensitive = []string{
	"token", "password", "secret", "credential", "authorization", "bearer",
	"initdata", "phone", "email",
}

// New returns a logger writing JSON to w at the given level.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Nop returns a logger that discards everything. The library default: a
// consumer that wants output injects its own logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// Redact masks value when the field name looks sensitive, otherwise returns
// it unchanged. Event helpers call this before attaching string fields.
func Redact(field, value string) string {
	lower := strings.ToLower(field)
	for _, kw := range sensitive {
		if strings.Contains(lower, kw) {
			return mask(value)
		}
	}
	return value
}

func mask(v string) string {
	if len(v) <= 8 {
		return "***"
	}
	return v[:4] + "..." + "***"
}
