package pdf

import (
	"regexp"
	"strings"
)

// doiPattern matches a 10.<registrant>/<suffix> DOI.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// FindDOI returns the first plausible DOI in the given lines, or "".
func FindDOI(lines []string) string {
	for _, ln := range lines {
		if doi := findDOI(ln); doi != "" {
			return doi
		}
	}
	return ""
}

func findDOI(text string) string {
	for _, m := range doiPattern.FindAllString(text, -1) {
		if m = strings.TrimRight(m, ".,;:)"); validDOI(m) {
			return m
		}
	}
	return ""
}

// validDOI wants a registrant prefix and a non-empty suffix.
func validDOI(doi string) bool {
	prefix, suffix, ok := strings.Cut(doi, "/")
	return ok && suffix != "" && strings.HasPrefix(prefix, "10.") && len(doi) >= 10
}
