package scan

import (
	"strings"
)

// DefaultExcludeTerms name payslip folders and files that sit next to the
// timesheets in employee folders.
var DefaultExcludeTerms = []string{
	"cedolino",
	"cedolini",
	"busta",
	"buste",
	"paga",
	"busta paga",
	"buste paga",
}

// NormalizeTerm lowercases s, turns underscores and hyphens into spaces and
// collapses whitespace.
func NormalizeTerm(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeName lowercases and collapses whitespace in an employee name.
// Empty names normalize to "unknown".
func NormalizeName(s string) string {
	s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	if s == "" {
		return "unknown"
	}
	return s
}

// FolderExcludedBy returns the exclude term equal to the normalized folder
// name, or "" when the folder is kept.
func FolderExcludedBy(name string, terms []string) string {
	n := NormalizeTerm(name)
	for _, t := range terms {
		if t == n {
			return t
		}
	}
	return ""
}

// FileExcludedBy returns the first exclude term contained in the lowercased
// file name, or "" when the file is kept.
func FileExcludedBy(name string, terms []string) string {
	n := strings.ToLower(name)
	for _, t := range terms {
		if strings.Contains(n, t) {
			return t
		}
	}
	return ""
}

var unsafeNameChars = strings.NewReplacer(
	`\`, "_", "/", "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

const maxSafeNameLen = 120

// SafeName makes name usable as a single path segment: path and shell
// special characters become underscores, the result is capped at 120
// characters and an empty name becomes "unnamed".
func SafeName(name string) string {
	name = unsafeNameChars.Replace(strings.TrimSpace(name))
	if r := []rune(name); len(r) > maxSafeNameLen {
		name = string(r[:maxSafeNameLen])
	}
	if name == "" {
		return "unnamed"
	}
	return name
}
