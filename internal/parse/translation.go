package parse

import (
	"regexp"
)

const translationNamespace = "__TRANSLATION__."

var (
	translationKeyRe    = regexp.MustCompile(`^__TRANSLATION__\.[A-Z0-9_.!?]+$`)
	translationPrefixRe = regexp.MustCompile(`^__TRANSLATION__\.`)
)

// IsTranslationKey reports whether value is a namespaced translation placeholder
// such as "__TRANSLATION__.HOURS".
func IsTranslationKey(value string) bool {
	return translationKeyRe.MatchString(value)
}

// TrimNamespace strips the translation namespace prefix, if present.
func TrimNamespace(value string) string {
	return translationPrefixRe.ReplaceAllString(value, "")
}
