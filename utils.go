package shareline

import (
	"fmt"
	"regexp"
	"strings"
)

// storage keys are always ownerID/generatedName with a uuid-derived name,
// optionally carrying the original extension.
var validStorageKeyRegex = regexp.MustCompile(`^[0-9]+/[a-zA-Z0-9._-]+$`)

// extensions embedded in storage keys must stay inside the key alphabet
var validExtensionRegex = regexp.MustCompile(`^\.[a-zA-Z0-9._-]*$`)

// IsValidStorageKey checks that a storage key has the ownerID/generatedName
// shape and cannot resolve outside the storage root. Keys are generated by
// the storage manager; anything else is a malformed or tampered key.
func IsValidStorageKey(key string) bool {
	if !validStorageKeyRegex.MatchString(key) {
		return false
	}
	name := key[strings.IndexByte(key, '/')+1:]
	if name == "." || name == ".." {
		return false
	}
	return true
}

// FileExtension extracts the extension from a client-supplied filename:
// the characters from the last '.' onward, or empty when there is none or
// the name starts with the only dot. The extension must not contain path
// separators; a name like "x.ext/../../etc" is rejected with ErrInvalidInput.
// Any other extension that falls outside the storage key alphabet is
// dropped, so a generated key always passes IsValidStorageKey.
func FileExtension(originalName string) (string, error) {
	if originalName == "" {
		return "", fmt.Errorf("file extension: %w: filename cannot be empty", ErrInvalidInput)
	}

	lastDot := strings.LastIndexByte(originalName, '.')
	if lastDot <= 0 {
		return "", nil
	}

	ext := originalName[lastDot:]
	if strings.ContainsAny(ext, `/\`) {
		return "", fmt.Errorf("file extension %q: %w: path separator in extension", originalName, ErrInvalidInput)
	}
	if !validExtensionRegex.MatchString(ext) {
		return "", nil
	}

	return ext, nil
}
