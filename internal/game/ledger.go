package game

// Ledger counts merges per tier. The score is always derived from the counts.
type Ledger struct {
	tiers  *TierTable
	counts []int
}

func NewLedger(tiers *TierTable) *Ledger {
	return &Ledger{tiers: tiers, counts: make([]int, tiers.Len())}
}

// RecordMerge counts one merge of two balls of the given tier.
func (l *Ledger) RecordMerge(tier int) {
	if tier < 0 || tier >= len(l.counts) {
		return
	}
	l.counts[tier]++
}

// CurrentScore is Σ count[i] * value[i].
func (l *Ledger) CurrentScore() int {
	score := 0
	for i, n := range l.counts {
		score += n * l.tiers.Value(i)
	}
	return score
}

func (l *Ledger) Reset() {
	for i := range l.counts {
		l.counts[i] = 0
	}
}

// Counts returns a copy of the per-tier merge counts.
func (l *Ledger) Counts() []int {
	out := make([]int, len(l.counts))
	copy(out, l.counts)
	return out
}
