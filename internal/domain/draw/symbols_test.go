package draw

import "testing"

func TestGenerateSymbols(t *testing.T) {
	t.Parallel()

	symbols, err := GenerateSymbols(SymbolCount)
	if err != nil {
		t.Fatalf("generate symbols failed: %v", err)
	}
	if len(symbols) != SymbolCount {
		t.Fatalf("expected %d symbols, got %d", SymbolCount, len(symbols))
	}
	for _, s := range symbols {
		if !InAlphabet(s) {
			t.Fatalf("symbol %q outside alphabet", s)
		}
	}
}

func TestGenerateSymbolsRejectsNonPositiveCount(t *testing.T) {
	t.Parallel()

	for _, count := range []int{0, -1} {
		if _, err := GenerateSymbols(count); err == nil {
			t.Fatalf("expected error for count %d", count)
		}
	}
}

func TestInAlphabet(t *testing.T) {
	t.Parallel()

	cases := []struct {
		symbol string
		want   bool
	}{
		{"1", true},
		{"25", true},
		{"0", false},
		{"26", false},
		{"", false},
		{"07x", false},
	}
	for _, tc := range cases {
		if got := InAlphabet(tc.symbol); got != tc.want {
			t.Fatalf("InAlphabet(%q) = %t, want %t", tc.symbol, got, tc.want)
		}
	}
}

func TestAlphabetSizeAndBounds(t *testing.T) {
	t.Parallel()

	alphabet := Alphabet()
	if len(alphabet) != AlphabetSize {
		t.Fatalf("alphabet length = %d, want %d", len(alphabet), AlphabetSize)
	}
	if alphabet[0] != "1" || alphabet[len(alphabet)-1] != "25" {
		t.Fatalf("alphabet bounds = %s..%s, want 1..25", alphabet[0], alphabet[len(alphabet)-1])
	}
}
