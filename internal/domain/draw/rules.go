package draw

// SymbolCount is the fixed length of both ticket and winning sequences.
const SymbolCount = 4

// Classify determines the prize tier for one ticket against the winning
// sequence. Tiers are mutually exclusive and checked in priority order:
// four exact positional matches, four multiset matches, three exact
// positional matches, three multiset matches. A ticket with a missing or
// short sequence classifies as TierNone rather than erroring; dynamically
// shaped store documents must never fault the batch.
func Classify(ticketNumbers, winning []string) Tier {
	if len(ticketNumbers) < SymbolCount || len(winning) < SymbolCount {
		return TierNone
	}

	exact := exactMatches(ticketNumbers, winning)
	multiset := multisetMatches(ticketNumbers, winning)

	switch {
	case exact == SymbolCount:
		return TierFirst
	case multiset == SymbolCount:
		return TierSecond
	case exact == SymbolCount-1:
		return TierThird
	case multiset == SymbolCount-1:
		return TierFree
	default:
		return TierNone
	}
}

func exactMatches(ticketNumbers, winning []string) int {
	count := 0
	for i := 0; i < SymbolCount; i++ {
		if ticketNumbers[i] == winning[i] {
			count++
		}
	}
	return count
}

// multisetMatches counts winning symbols present anywhere in the ticket,
// consuming each ticket symbol at most once so repeated symbols cannot
// double-count.
func multisetMatches(ticketNumbers, winning []string) int {
	remaining := make([]string, SymbolCount)
	copy(remaining, ticketNumbers[:SymbolCount])

	count := 0
	for i := 0; i < SymbolCount; i++ {
		for j, candidate := range remaining {
			if candidate == winning[i] {
				count++
				remaining = append(remaining[:j], remaining[j+1:]...)
				break
			}
		}
	}
	return count
}
