package utils

import (
	"regexp"
	"strings"
)

const (
	maxFilenamePart      = 50
	defaultFilenameName  = "resume"
	defaultFilenameStyle = "ats"
)

var (
	nonASCII         = regexp.MustCompile(`[^\x00-\x7F]`)
	unsafeFilename   = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	filenameSpaceRun = regexp.MustCompile(`\s+`)
)

// SanitizeFilename reduces s to a header-safe filename component: non-ASCII
// stripped, only [a-zA-Z0-9 _-] kept, whitespace runs collapsed to one
// underscore, at most 50 characters.
func SanitizeFilename(s string) string {
	s = nonASCII.ReplaceAllString(s, "")
	s = unsafeFilename.ReplaceAllString(s, "")
	s = filenameSpaceRun.ReplaceAllString(s, "_")
	if len(s) > maxFilenamePart {
		s = s[:maxFilenamePart]
	}
	return s
}

// BuildPDFFilename returns "{name}-{template}.pdf" with each part sanitized and
// defaulted to "resume" and "ats" when nothing survives sanitization.
func BuildPDFFilename(displayName, templateName string) string {
	name := GetStringOrDefault(SanitizeFilename(strings.TrimSpace(displayName)), defaultFilenameName)
	style := GetStringOrDefault(SanitizeFilename(strings.TrimSpace(templateName)), defaultFilenameStyle)
	return name + "-" + style + ".pdf"
}

// ContentDisposition builds an attachment header value for filename
func ContentDisposition(filename string) string {
	return `attachment; filename="` + filename + `"`
}

// InlineDisposition builds a header value that lets browsers display the file
func InlineDisposition(filename string) string {
	return `inline; filename="` + filename + `"`
}
