package generator

import (
	"strings"
	"unicode"
)

// knownAbbreviations maps lowercase abbreviations to their Go-conventional
// uppercase forms.
var knownAbbreviations = map[string]string{
	"id":   "ID",
	"ids":  "IDs",
	"url":  "URL",
	"uri":  "URI",
	"ip":   "IP",
	"api":  "API",
	"http": "HTTP",
	"json": "JSON",
	"uuid": "UUID",
	"sql":  "SQL",
	"html": "HTML",
	"xml":  "XML",
	"ttl":  "TTL",
}

// ToGoName converts a database identifier (e.g. "user_id", "post-status")
// into an exported Go identifier ("UserID", "PostStatus"). Anything that is
// not a letter or digit separates words. A leading digit gets an "X" prefix.
func ToGoName(name string) string {
	var b strings.Builder
	for _, w := range splitWords(name) {
		if upper, ok := knownAbbreviations[strings.ToLower(w)]; ok {
			b.WriteString(upper)
		} else {
			b.WriteString(capitalize(w))
		}
	}
	s := b.String()
	if s == "" {
		return "X"
	}
	if unicode.IsDigit(rune(s[0])) {
		return "X" + s
	}
	return s
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func capitalize(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
