package engine

/*
Pass 5: global contradiction validation. A cell claimed by both
certainty sets loses both claims, except that a zero-adjacent safe
claim always survives. After pruning, every constraint is audited
against the final sets; any constraint that can no longer be satisfied
proves the turn's deductions unsound as a whole, and they are all
discarded so the caller falls through to probability-based selection.
*/
func (d *deducer) validated() Deductions {
	safe := make(map[Position]string, len(d.safe))
	mines := make(map[Position]string, len(d.mines))
	for p, why := range d.safe {
		safe[p] = why
	}
	for p, why := range d.mines {
		mines[p] = why
	}

	for p := range d.safe {
		if _, both := d.mines[p]; !both {
			continue
		}
		delete(mines, p)
		if !d.zeroSafe[p] {
			delete(safe, p)
		}
	}

	for _, c := range d.board.Constraints {
		if c.FlaggedCount > c.Value {
			return Deductions{Safe: map[Position]string{}, Mines: map[Position]string{}}
		}
		minesIn, safeIn := 0, 0
		for _, p := range c.Cells {
			if _, ok := mines[p]; ok {
				minesIn++
			} else if _, ok := safe[p]; ok {
				safeIn++
			}
		}
		unresolved := len(c.Cells) - minesIn - safeIn
		if minesIn > c.Missing || c.Missing > minesIn+unresolved {
			return Deductions{Safe: map[Position]string{}, Mines: map[Position]string{}}
		}
	}

	return Deductions{Safe: safe, Mines: mines}
}
