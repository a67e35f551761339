// Package filename picks and cleans the name a cleared download is saved under
package filename

import "strings"

// Fallback is the name used when nothing better survives
const Fallback = "download.bin"

var stripChars = strings.NewReplacer(
	`\`, "",
	":", "",
	"*", "",
	"?", "",
	`"`, "",
	"<", "",
	">", "",
	"|", "",
)

// Sanitize reduces name to a bare file name safe for common filesystems.
// Backslashes count as separators, only the last component is kept and
// the characters \ : * ? " < > | are dropped. Never returns a blank name
func Sanitize(name string) string {
	name = Base(name)
	name = stripChars.Replace(name)
	if strings.TrimSpace(name) == "" {
		return Fallback
	}
	return name
}

// Base returns the component after the last '/' or '\'
func Base(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		return name[i+1:]
	}
	return name
}
