package export

import (
	"strings"
	"time"

	"github.com/planfold/plotd/internal/model"
)

// maxNameLen caps the sanitized project-name prefix.
const maxNameLen = 40

// timestampLayout produces filesystem-safe timestamps (colons replaced by
// hyphens).
const timestampLayout = "2006-01-02T15-04-05"

// Filename builds the download filename for an export:
// {sanitized-project-}{kind}-diagram-{timestamp}.{ext}. The project prefix
// is omitted when the name sanitizes to nothing.
func Filename(projectName string, kind model.DiagramKind, format model.Format, now time.Time) string {
	var b strings.Builder
	if s := Sanitize(projectName); s != "" {
		b.WriteString(s)
		b.WriteByte('-')
	}
	b.WriteString(kind.String())
	b.WriteString("-diagram-")
	b.WriteString(now.Format(timestampLayout))
	b.WriteByte('.')
	b.WriteString(format.Extension())
	return b.String()
}

// Sanitize lowercases a name, collapses every non-alphanumeric run into a
// single hyphen, trims leading/trailing hyphens, and caps the length.
func Sanitize(name string) string {
	name = strings.ToLower(name)

	var b strings.Builder
	lastHyphen := false
	for _, r := range name {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	s := strings.Trim(b.String(), "-")
	if len(s) > maxNameLen {
		s = strings.Trim(s[:maxNameLen], "-")
	}
	return s
}
