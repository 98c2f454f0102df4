package domain

import (
	"strings"
	"unicode"
)

// ResolveItemKey prefers an explicit id and falls back to a slug of the name,
// so "Gummy Bears" and "  gummy   bears " both resolve to "gummy-bears".
func ResolveItemKey(id, name string) (ItemKey, error) {
	if id = strings.TrimSpace(id); id != "" {
		return ItemKey(id), nil
	}
	slug := Slugify(name)
	if slug == "" {
		return "", NewValidationError("item", "item id or name is required")
	}
	return ItemKey(slug), nil
}

func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
