package template

import (
	"sort"
	"strings"
)

// Substitute replaces every {name} placeholder that has an entry in tokens.
// Unknown placeholders stay in the text unchanged. Replacement is a single
// pass, so token values containing braces are never expanded again.
func Substitute(tmpl string, tokens TokenMap) string {
	if tmpl == "" || len(tokens) == 0 {
		return tmpl
	}

	keys := make([]string, 0, len(tokens))
	for key := range tokens {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, key := range keys {
		pairs = append(pairs, "{"+key+"}", tokens[key])
	}

	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// Normalize converts line endings to \n, trims every line, keeps at most
// one blank line between paragraphs and trims the result. The output may
// be empty.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	previousBlank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if previousBlank {
				continue
			}
			previousBlank = true
		} else {
			previousBlank = false
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// Render substitutes tokens into tmpl and normalizes the result.
func Render(tmpl string, tokens TokenMap) string {
	return Normalize(Substitute(tmpl, tokens))
}
