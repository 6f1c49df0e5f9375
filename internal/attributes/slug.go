package attributes

import (
	"hash/fnv"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TaxonomyPrefix is prepended to attribute slugs to form the term taxonomy.
const TaxonomyPrefix = "pa_"

// maxSlugLen keeps "pa_" + slug within a 32 character taxonomy name.
const maxSlugLen = 28

var foldReplacer = strings.NewReplacer(
	"ß", "ss", "æ", "ae", "Æ", "ae", "ø", "o", "Ø", "o",
	"đ", "d", "Đ", "d", "ł", "l", "Ł", "l",
)

// RemoveDiacritics folds accented letters to their base letter.
func RemoveDiacritics(s string) string {
	s = foldReplacer.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// Slug derives the taxonomy slug of an attribute name: diacritics folded,
// lower case, runs of other characters collapsed to "-".
func Slug(name string) string {
	folded := strings.ToLower(RemoveDiacritics(strings.TrimSpace(name)))

	var b strings.Builder
	dash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		slug = "attr-" + nameHash(name, 0)
	}
	return slug
}

// UniqueSlug is Slug with a hash suffix, for names whose slug is taken by a
// taxonomy with another label. attempt varies the suffix.
func UniqueSlug(name string, attempt int) string {
	suffix := "-" + nameHash(name, attempt)
	base := Slug(name)
	if len(base)+len(suffix) > maxSlugLen {
		base = strings.TrimRight(base[:maxSlugLen-len(suffix)], "-")
	}
	return base + suffix
}

func nameHash(name string, attempt int) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	if attempt > 0 {
		h.Write([]byte(strconv.Itoa(attempt)))
	}
	return strconv.FormatUint(uint64(h.Sum32()), 36)
}

// TaxonomyName returns the term taxonomy for an attribute slug.
func TaxonomyName(slug string) string {
	return TaxonomyPrefix + slug
}
