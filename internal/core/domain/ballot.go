package domain

// Selections maps a position ID to the chosen candidate ID. A complete
// ballot has exactly one entry per catalog position.
type Selections map[int]int

func (s Selections) Clone() Selections {
	out := make(Selections, len(s))
	for pos, cand := range s {
		out[pos] = cand
	}
	return out
}
