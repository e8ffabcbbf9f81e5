// Package language normalizes target-language codes and renders display
// names for CLI output. Codes are canonical lowercase BCP-47 base tags
// ("es", "pt-BR" stays "pt-BR"); the engine and the snapshot store only
// ever see normalized codes.
package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var namer = display.English.Languages()

// Normalize canonicalizes a language code. Unparseable codes are rejected;
// job creation refuses them before the engine is ever called.
func Normalize(code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", fmt.Errorf("language code is empty")
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("language code %q is not recognized", trimmed)
	}
	return tag.String(), nil
}

// NormalizeList canonicalizes and deduplicates a list of codes, preserving
// first-seen order. Any invalid code fails the whole list.
func NormalizeList(codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		normalized, err := Normalize(code)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out, nil
}

// DisplayName returns a human-readable English name for a language code.
// Unrecognized codes fall back to the uppercased code so tables never show
// a blank cell.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return strings.ToUpper(trimmed)
	}
	if name := namer.Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(trimmed)
}
