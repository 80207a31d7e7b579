package draw

import "testing"

func TestClassify(t *testing.T) {
	t.Parallel()

	winning := []string{"3", "14", "7", "21"}

	cases := []struct {
		name    string
		numbers []string
		want    Tier
	}{
		{"four exact matches", []string{"3", "14", "7", "21"}, TierFirst},
		{"four symbols out of position", []string{"21", "3", "14", "7"}, TierSecond},
		{"three exact one wrong", []string{"3", "14", "7", "22"}, TierThird},
		{"three symbols out of position", []string{"14", "3", "21", "25"}, TierFree},
		{"two exact matches only", []string{"3", "14", "1", "2"}, TierNone},
		{"no matches", []string{"1", "2", "4", "5"}, TierNone},
		{"short sequence", []string{"3", "14"}, TierNone},
		{"empty sequence", nil, TierNone},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tc.numbers, winning); got != tc.want {
				t.Fatalf("Classify(%v) = %s, want %s", tc.numbers, got, tc.want)
			}
		})
	}
}

func TestClassifyExactFourBeatsMultisetFour(t *testing.T) {
	t.Parallel()

	// An identical sequence satisfies both the exact and multiset checks;
	// the exact check ranks first.
	winning := []string{"5", "6", "7", "8"}
	numbers := []string{"5", "6", "7", "8"}
	if got := Classify(numbers, winning); got != TierFirst {
		t.Fatalf("identical sequences must classify first, got %s", got)
	}
}

func TestClassifyRepeatedSymbolsDoNotDoubleCount(t *testing.T) {
	t.Parallel()

	// The winning "9" can only consume one of the ticket's two "9"s.
	winning := []string{"9", "2", "3", "4"}
	numbers := []string{"9", "9", "2", "3"}

	if got := multisetMatches(numbers, winning); got != 3 {
		t.Fatalf("multisetMatches = %d, want 3", got)
	}
	if got := Classify(numbers, winning); got != TierFree {
		t.Fatalf("Classify = %s, want %s", got, TierFree)
	}
}

func TestClassifyDuplicateWinningSymbols(t *testing.T) {
	t.Parallel()

	// Each winning occurrence needs its own ticket symbol to count.
	winning := []string{"4", "4", "4", "4"}
	numbers := []string{"4", "4", "1", "2"}

	if got := multisetMatches(numbers, winning); got != 2 {
		t.Fatalf("multisetMatches = %d, want 2", got)
	}
	if got := Classify(numbers, winning); got != TierNone {
		t.Fatalf("Classify = %s, want %s", got, TierNone)
	}
}
