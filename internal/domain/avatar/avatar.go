// Package avatar derives athlete photo file names and fallback initials.
package avatar

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gosimple/slug"
)

// Slug returns the transliterated surname, followed by "-" and the first
// letter of the transliterated first name when there is one.
// "Иванов Иван" becomes "ivanov-i".
func Slug(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	out := slug.Make(parts[0])
	if len(parts) > 1 {
		if first := slug.Make(parts[1]); first != "" {
			out += "-" + first[:1]
		}
	}
	return out
}

// Path returns the image path under prefix, e.g. "img/avatars/ivanov-i.jpg".
func Path(prefix, name string) string {
	s := Slug(name)
	if s == "" {
		return ""
	}
	return path.Join(prefix, s+".jpg")
}

// Initials returns the upper-cased first letters of surname and first name.
func Initials(name string) string {
	var b strings.Builder
	for i, part := range strings.Fields(name) {
		if i == 2 {
			break
		}
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
