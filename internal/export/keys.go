package export

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/matsen/bibscan/internal/reference"
)

// Letters that do not decompose into a base letter plus a combining mark.
var foldSpecial = strings.NewReplacer(
	"ß", "ss",
	"ı", "i",
	"ø", "o", "Ø", "O",
	"ł", "l", "Ł", "L",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
)

// FoldASCII strips diacritics so that "Gödel" and "Godel" produce the same
// key. Characters with no ASCII base are kept as they are.
func FoldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, foldSpecial.Replace(s))
	if err != nil {
		return s
	}
	return folded
}

var (
	nonKeyChars  = regexp.MustCompile(`[^a-z0-9]+`)
	nonWordChars = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
)

// keyStopwords are skipped when picking the title word of a key.
var keyStopwords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true, "by": true,
	"for": true, "from": true, "in": true, "into": true, "of": true, "on": true,
	"or": true, "the": true, "to": true, "with": true, "without": true,
	"via": true, "using": true,
}

func normalizeKeyToken(s string) string {
	return nonKeyChars.ReplaceAllString(strings.ToLower(FoldASCII(s)), "")
}

func firstTitleWord(title string) string {
	for _, tok := range strings.Fields(title) {
		w := nonWordChars.ReplaceAllString(strings.ToLower(FoldASCII(tok)), "")
		if w != "" && !keyStopwords[w] {
			return w
		}
	}
	return "work"
}

// surname reads "Surname, Given" or takes the last token of "Given Surname".
func surname(author string) string {
	a := strings.TrimSpace(author)
	if a == "" {
		return "anon"
	}
	if before, _, ok := strings.Cut(a, ","); ok {
		return normalizeKeyToken(before)
	}
	parts := strings.Fields(a)
	return normalizeKeyToken(parts[len(parts)-1])
}

// KeyRegistry records every key handed out in one batch.
// The zero value is not usable; create one with NewKeyRegistry.
type KeyRegistry struct {
	issued map[string]bool
	next   map[string]int // next suffix to try per base key
}

// NewKeyRegistry returns an empty registry.
func NewKeyRegistry() *KeyRegistry {
	return &KeyRegistry{issued: make(map[string]bool), next: make(map[string]int)}
}

// Claim returns an unused key for base: base itself the first time, then
// base2, base3, ... Suffixed candidates that are already taken, for example
// because another document's base key ends in a digit, are skipped.
func (r *KeyRegistry) Claim(base string) string {
	key := base
	if r.issued[key] {
		n := max(r.next[base], 2)
		for r.issued[base+strconv.Itoa(n)] {
			n++
		}
		r.next[base] = n + 1
		key = base + strconv.Itoa(n)
	}
	r.issued[key] = true
	return key
}

// BaseKey derives the unsuffixed citation key of a document:
// surname + year + first significant title word.
func BaseKey(doc reference.Document) string {
	first := ""
	if len(doc.Authors) > 0 {
		first = doc.Authors[0]
	}
	base := surname(first)
	if base == "" {
		base = "anon"
	}
	y := "nodate"
	if doc.Year != nil {
		y = strconv.Itoa(*doc.Year)
	}

	key := normalizeKeyToken(base + y + firstTitleWord(strings.TrimSpace(doc.Title)))
	if key == "" {
		key = "ref" + y
	}
	return key
}

// BuildKey returns a key for doc that is unique within reg.
func BuildKey(doc reference.Document, reg *KeyRegistry) string {
	return reg.Claim(BaseKey(doc))
}
