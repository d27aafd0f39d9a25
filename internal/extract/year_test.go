package extract

import (
	"testing"
	"time"
)

func pinYear(t *testing.T, year int) {
	t.Helper()
	orig := now
	now = func() time.Time { return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = orig })
}

func TestYearCandidates(t *testing.T) {
	pinYear(t, 2025)

	got := YearCandidates("1949 1950 (2021) 2026 2027 12021 2099")
	want := []int{1950, 2021, 2026}
	if len(got) != len(want) {
		t.Fatalf("YearCandidates() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("YearCandidates()[%d] = %d, want %d", i, got[i], want[i])
		}
	}

	if got := YearCandidates(""); got != nil {
		t.Errorf("YearCandidates(\"\") = %v, want nil", got)
	}
}

func TestScoreYearInLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		year int
		want int
	}{
		{"bare year", "2021", 2021, ScoreBase},
		{"bare year in text", "Report 2019 version two", 2019, ScoreBase},
		{"month", "Published November 2021", 2021, ScoreMonth},
		{"volume", "Vol. 12, No. 3, 2018", 2018, ScoreVolume},
		{"copyright symbol", "© 2021 IEEE", 2021, ScoreCopyright},
		{"copyright word", "Copyright 2020 Elsevier", 2020, ScoreCopyright},
		{"month beats copyright", "Copyright March 2020", 2020, ScoreMonth},
		{"doi line", "https://doi.org/10.1000/abc 2019", 2019, ScoreCitation},
		{"download footer", "Downloaded by Chalmers on 12 May 2023", 2023, ScoreRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreYearInLine(tt.line, tt.year); got != tt.want {
				t.Errorf("ScoreYearInLine(%q, %d) = %d, want %d", tt.line, tt.year, got, tt.want)
			}
		})
	}
}

func TestScoreYearInLine_CitationBelowBase(t *testing.T) {
	cite := ScoreYearInLine("doi: http://dx.doi.org/10.1/x (2019)", 2019)
	bare := ScoreYearInLine("2019", 2019)
	if cite >= bare {
		t.Errorf("citation line score %d should be below bare score %d", cite, bare)
	}
}

func TestPickBestYear(t *testing.T) {
	tests := []struct {
		name   string
		cands  []ScoredYear
		want   int
		wantOK bool
	}{
		{"empty", nil, 0, false},
		{"highest score wins", []ScoredYear{{2019, 90}, {2021, 90}, {2020, 100}}, 2020, true},
		{"newest year breaks tie", []ScoredYear{{2018, 85}, {2021, 85}, {2019, 20}}, 2021, true},
		{"single", []ScoredYear{{1999, 20}}, 1999, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PickBestYear(tt.cands)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("PickBestYear(%v) = (%d, %v), want (%d, %v)", tt.cands, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestPickBestYear_MaxYearAmongTopScore(t *testing.T) {
	pools := [][]ScoredYear{
		{{2001, 5}, {2003, 5}, {2002, 5}},
		{{2010, 40}, {1999, 70}, {2005, 70}, {2020, 20}},
		{{2015, 95}, {2016, 100}, {2011, 100}, {2017, 95}},
	}
	for _, pool := range pools {
		top := pool[0].Score
		for _, c := range pool {
			top = max(top, c.Score)
		}
		want := 0
		for _, c := range pool {
			if c.Score == top {
				want = max(want, c.Year)
			}
		}
		got, _ := PickBestYear(pool)
		if got != want {
			t.Errorf("PickBestYear(%v) = %d, want %d", pool, got, want)
		}
	}
}

func TestFallbackYear(t *testing.T) {
	pinYear(t, 2025)

	tests := []struct {
		name   string
		lines  []string
		want   int
		wantOK bool
	}{
		{"no lines", nil, 0, false},
		{"no years", []string{"A title", "An author"}, 0, false},
		{"copyright wins over bare", []string{"Cited 2019 times", "© 2021 IEEE"}, 2021, true},
		{"download footer only", []string{"Downloaded by Chalmers on 2023"}, 0, false},
		{"citation line still positive", []string{"https://doi.org/10.1/x 2017"}, 2017, true},
		{"tie prefers newer", []string{"Report 2018", "Draft 2020"}, 2020, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FallbackYear(tt.lines)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("FallbackYear(%q) = (%d, %v), want (%d, %v)", tt.lines, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
