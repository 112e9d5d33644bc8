package domain

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ArchiveDateLayout is the date prefix of every archived file name.
const ArchiveDateLayout = "02-01-2006"

// illegalPathChars are replaced one-for-one by Sanitize.
var illegalPathChars = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	`"`, "_",
	"/", "_",
	`\`, "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// Sanitize makes text safe to use as a single path segment: each character
// illegal in file names is replaced with an underscore and the result is
// put in Unicode canonical decomposition form.
func Sanitize(text string) string {
	return norm.NFD.String(illegalPathChars.Replace(text))
}

// FormatFilename renders the canonical archive name
// "DD-MM-YYYY - title.ext". Identical inputs always produce identical
// names; archive dedup relies on it.
func FormatFilename(date time.Time, title, ext string) string {
	safeTitle := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return r
		}
		switch r {
		case ' ', '_', '-':
			return r
		}
		return '_'
	}, title)

	return Sanitize(date.Format(ArchiveDateLayout) + " - " + safeTitle + "." + ext)
}

// ScratchName returns the name of the temporary workspace directory used
// while a URL is being downloaded.
func ScratchName(url string) string {
	return Sanitize(url)
}
