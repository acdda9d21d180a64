package order

import (
	"bytes"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var breakPattern = regexp.MustCompile(`(?i)<br\s*/?>`)

// ReplaceBreaks swaps <br>, <br/> and <br /> markers for sep.
func ReplaceBreaks(s, sep string) string {
	return breakPattern.ReplaceAllString(s, sep)
}

// StripTags removes markup, drops script/style bodies, decodes entities and
// trims the result.
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	var out strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	rawDepth := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(out.String())
		case html.StartTagToken:
			if name, _ := tokenizer.TagName(); isRawTextTag(name) {
				rawDepth++
			}
		case html.EndTagToken:
			if name, _ := tokenizer.TagName(); isRawTextTag(name) && rawDepth > 0 {
				rawDepth--
			}
		case html.TextToken:
			if rawDepth == 0 {
				out.Write(tokenizer.Text())
			}
		}
	}
}

func isRawTextTag(name []byte) bool {
	return bytes.Equal(name, []byte("script")) || bytes.Equal(name, []byte("style"))
}
