package content

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const fallbackSlug = "wallpaper"

var (
	nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)
	// Letters that carry no combining mark to strip.
	foldedLetters = strings.NewReplacer("đ", "d", "Đ", "D", "ß", "ss", "ø", "o", "Ø", "O", "ł", "l", "Ł", "L")
)

// Slugify derives a URL slug from a title: "Mountain View!" becomes
// "mountain-view".
func Slugify(title string) string {
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(stripper, foldedLetters.Replace(title))
	if err != nil {
		ascii = title
	}

	slug := nonSlugRun.ReplaceAllString(strings.ToLower(ascii), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// SlugCandidate returns the n-th candidate for base: base, base-1, base-2...
func SlugCandidate(base string, n int) string {
	if n <= 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}
