package plugin

import (
	"os"
	"regexp"
	"strings"
)

// NotInstalled is the version reported when no version can be read.
const NotInstalled = "0.0.0"

var versionPattern = regexp.MustCompile(`// @version:\s*(.*)`)

// ExtractVersion returns the value of the first "// @version: X" marker in
// contents, whitespace-trimmed. ok is false when there is no marker or its
// value is empty.
func ExtractVersion(contents string) (string, bool) {
	m := versionPattern.FindStringSubmatch(contents)
	if m == nil {
		return "", false
	}
	v := strings.TrimSpace(m[1])
	if v == "" {
		return "", false
	}
	return v, true
}

// LocalVersion reads the version marker of the script at path. A script
// without a marker reports NotInstalled; only read failures are errors.
func LocalVersion(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return NotInstalled, err
	}
	if v, ok := ExtractVersion(string(data)); ok {
		return v, nil
	}
	return NotInstalled, nil
}

// ReadVersion is LocalVersion with read failures also reported as
// NotInstalled.
func ReadVersion(path string) string {
	v, _ := LocalVersion(path)
	return v
}
