package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f\x7f]`)
	multipleSpaces       = regexp.MustCompile(`\s+`)
)

// maxFilenameLength bounds names stored on import runs and audit events.
const maxFilenameLength = 200

// SanitizeFilename cleans a client-supplied upload name for display and
// storage. Directories are dropped, control and reserved characters removed,
// whitespace collapsed and the length capped. The extension survives
// truncation so format detection still works.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, `\`, "/")
	filename = filepath.Base(filename)
	if filename == "." || filename == "/" {
		filename = ""
	}

	filename = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(filename)
	filename = invalidFilenameChars.ReplaceAllString(filename, "")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	if len(filename) > maxFilenameLength {
		ext := filepath.Ext(filename)
		if len(ext) > 10 {
			ext = ""
		}
		stem := strings.TrimSpace(filename[:maxFilenameLength-len(ext)])
		filename = stem + ext
	}

	if filename == "" || strings.HasPrefix(filename, ".") && filepath.Ext(filename) == filename {
		filename = "Untitled" + filename
	}
	return filename
}
