package converter

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// ErrUnknownLanguage is returned when none of the language candidates names
// a known language.
var ErrUnknownLanguage = errors.New("no usable language")

// ResolveLanguage returns the first usable tag of a semicolon-separated list.
// Candidates may be BCP 47 tags ("cs-CZ") or locale names ("cs_CZ.UTF-8").
func ResolveLanguage(candidates string) (language.Tag, error) {
	for _, c := range strings.Split(candidates, ";") {
		if tag, ok := parseLanguage(c); ok {
			return tag, nil
		}
	}
	return language.Und, fmt.Errorf("%q: %w", candidates, ErrUnknownLanguage)
}

func parseLanguage(candidate string) (language.Tag, bool) {
	c := strings.TrimSpace(candidate)
	if i := strings.IndexAny(c, ".@"); i >= 0 {
		c = c[:i]
	}
	c = strings.ReplaceAll(c, "_", "-")
	if c == "" {
		return language.Und, false
	}
	tag, err := language.Parse(c)
	if err != nil {
		return language.Und, false
	}
	if base, conf := tag.Base(); conf == language.No || base.String() == "und" {
		return language.Und, false
	}
	return tag, true
}
