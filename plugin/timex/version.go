package timex

import (
	"strings"

	"golang.org/x/mod/semver"
)

// GrammarVersion is the version of the TIMEX grammar accepted and produced by this package.
const GrammarVersion = "v1.0.0"

// SupportsGrammar reports whether text written against grammar version v can be parsed.
// Versions sharing the major version are compatible; the "v" prefix is optional.
func SupportsGrammar(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return false
	}
	return semver.Major(v) == semver.Major(GrammarVersion)
}
