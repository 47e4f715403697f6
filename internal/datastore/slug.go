package datastore

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/nabos/fishclub/internal/errors"
)

// maxSlugAttempts bounds the suffix probe in UniqueSlug.
const maxSlugAttempts = 10000

// Slugify lowercases s, folds accents to ASCII, drops punctuation and joins the
// remaining words with hyphens: "Tucunaré Açu" becomes "tucunare-acu" and
// "Guarajuba!" becomes "guarajuba". Only spaces and hyphens separate words.
func Slugify(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingDash = true
		}
	}
	return strings.Trim(b.String(), "-_")
}

// UniqueSlug returns base if it is free, otherwise the first free base-1, base-2, ...
// exists reports whether a candidate is already taken by another record.
func UniqueSlug(base string, exists func(string) (bool, error)) (string, error) {
	if base == "" {
		return "", errors.New(ErrInvalidInput).
			Component("datastore").
			Category(errors.CategoryValidation).
			Context("operation", "unique-slug").
			Build()
	}

	candidate := base
	for i := 1; i <= maxSlugAttempts; i++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}

	return "", errors.Newf("no free slug for %q after %d attempts", base, maxSlugAttempts).
		Component("datastore").
		Category(errors.CategoryLimit).
		Build()
}
