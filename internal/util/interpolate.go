package util

import "regexp"

var interpolationPattern = regexp.MustCompile(`\$\{[^}]*\}`)

// MaskInterpolation replaces compose ${VAR} interpolations with a placeholder
// value so the YAML can be parsed by a standard YAML parser.
func MaskInterpolation(content string) string {
	return interpolationPattern.ReplaceAllString(content, "PLACEHOLDER")
}
