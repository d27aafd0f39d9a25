package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// MinYear is the earliest publication year accepted from any source.
const MinYear = 1950

// Year scores assigned to raw text lines. Scores act as ceilings: the
// strongest applicable signal wins, signals never add up.
const (
	ScoreRejected  = -999
	ScoreCitation  = 5 // DOI/URL reference lines are weaker than a bare year
	ScoreBase      = 10
	ScoreMonth     = 95
	ScoreVolume    = 85
	ScoreCopyright = 80
)

var yearToken = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)

// now is swapped in tests to pin the current year.
var now = time.Now

// MaxYear is the latest plausible publication year (next year, to allow for
// online-first articles).
func MaxYear() int {
	return now().Year() + 1
}

// ValidYear reports whether y lies in [MinYear, MaxYear()].
func ValidYear(y int) bool {
	return y >= MinYear && y <= MaxYear()
}

// YearCandidates returns every 19xx/20xx token in text that is a plausible
// publication year, in order of appearance.
func YearCandidates(text string) []int {
	if text == "" {
		return nil
	}
	var out []int
	for _, m := range yearToken.FindAllStringSubmatch(text, -1) {
		y, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if ValidYear(y) {
			out = append(out, y)
		}
	}
	return out
}

// ScoredYear is a year together with the confidence of the place it was found.
type ScoredYear struct {
	Year  int
	Score int
}

// PickBestYear returns the year with the highest score. When several years
// share the top score the newest one wins.
func PickBestYear(cands []ScoredYear) (int, bool) {
	if len(cands) == 0 {
		return 0, false
	}
	sorted := make([]ScoredYear, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Year > sorted[j].Year
	})
	return sorted[0].Year, true
}

var months = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// ScoreYearInLine rates how trustworthy year y is given the line it came from.
func ScoreYearInLine(line string, y int) int {
	low := strings.ToLower(line)

	if strings.Contains(low, "downloaded by") {
		return ScoreRejected
	}
	if strings.Contains(low, "doi") && strings.Contains(low, "http") {
		return ScoreCitation
	}

	score := ScoreBase
	if !strings.Contains(low, strconv.Itoa(y)) {
		return score
	}
	if containsAny(low, months...) {
		score = max(score, ScoreMonth)
	}
	if containsAny(low, "vol.", "volume", "no.", "issue") {
		score = max(score, ScoreVolume)
	}
	if containsAny(low, "copyright", "©") {
		score = max(score, ScoreCopyright)
	}
	return score
}

// FallbackYear scores every year found in the given raw text lines and
// returns the best one. Lines whose best score is not positive are ignored.
func FallbackYear(lines []string) (int, bool) {
	best := ScoredYear{Score: -1 << 31}
	found := false
	for _, ln := range lines {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		for _, y := range YearCandidates(ln) {
			s := ScoreYearInLine(ln, y)
			if !found || s > best.Score || (s == best.Score && y > best.Year) {
				best = ScoredYear{Year: y, Score: s}
				found = true
			}
		}
	}
	if !found || best.Score <= 0 {
		return 0, false
	}
	return best.Year, true
}
