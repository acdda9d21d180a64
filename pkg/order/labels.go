package order

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var defaultStatusLabels = map[string]string{
	"pending":        "Pending payment",
	"processing":     "Processing",
	"on-hold":        "On hold",
	"completed":      "Completed",
	"cancelled":      "Cancelled",
	"refunded":       "Refunded",
	"failed":         "Failed",
	"checkout-draft": "Draft",
}

// NormalizeStatus lowercases a status slug and drops the "wc-" storage prefix.
func NormalizeStatus(status string) string {
	normalized := strings.ToLower(strings.TrimSpace(status))
	return strings.TrimPrefix(normalized, "wc-")
}

// StatusLabels maps status slugs to human labels. Entries override the
// storefront defaults.
type StatusLabels map[string]string

// Label returns the human label for status. Unknown slugs are title-cased.
func (l StatusLabels) Label(status string) string {
	slug := NormalizeStatus(status)
	if slug == "" {
		return ""
	}
	if label, ok := l[slug]; ok && label != "" {
		return label
	}
	if label, ok := defaultStatusLabels[slug]; ok {
		return label
	}

	return cases.Title(language.Und).String(strings.ReplaceAll(slug, "-", " "))
}
