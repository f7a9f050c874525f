package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var instagramHandle = regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`)

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

func MaxRunes(value string, limit int) bool {
	return utf8.RuneCountInString(value) <= limit
}

// InstagramHandle normalizes a handle ("@name" or "name") and reports whether
// it is acceptable. An empty input is valid and clears the handle.
func InstagramHandle(raw string) (string, bool) {
	handle := strings.TrimPrefix(strings.TrimSpace(raw), "@")
	if handle == "" {
		return "", true
	}
	if !instagramHandle.MatchString(handle) {
		return "", false
	}
	return handle, true
}
