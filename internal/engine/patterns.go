package engine

/*
Pass 4: shape-pattern recognition over the revealed numbers
themselves. Everything here is also reachable through the generic
passes eventually; naming the shapes gives each deduction a provenance
a human can check against the board, and the zero rule runs first so
its cells always carry the zero-adjacent provenance.
*/

// Every neighbour of a revealed 0 is safe, unconditionally. Runs
// before any other pass; cells proved here keep their provenance and
// survive duplicate pruning during validation.
func (d *deducer) zeroAdjacencyPass() {
	for _, c := range d.board.Constraints {
		if c.Value != 0 {
			continue
		}
		for _, p := range c.Cells {
			d.classify(p, false, "zero-adjacent "+c.Origin.String())
			d.zeroSafe[p] = true
		}
	}
}

func (d *deducer) patternPass() {
	byOrigin := make(map[Position]*Constraint, len(d.board.Constraints))
	for _, c := range d.board.Constraints {
		if c.Feasible() {
			byOrigin[c.Origin] = c
		}
	}

	d.oneTwoOnePass(byOrigin)
	d.satisfiedPairPass(byOrigin)
	d.exhaustedBorderPass()
}

/*
N,(N+1),N triples along a row or column, outer numbers symmetric
around the centre. The centre owes one more mine than either outer, so
the cells it does not share with an outer must hold that difference;
when they exactly fit it they are all mines, and the outer's own
exclusive cells are all safe. Cells the centre shares with neither
outer are mines whenever they alone can satisfy the centre.
*/
func (d *deducer) oneTwoOnePass(byOrigin map[Position]*Constraint) {
	for origin, left := range byOrigin {
		for _, step := range []Position{{0, 1}, {1, 0}} {
			mid := Position{origin.Row + step.Row, origin.Col + step.Col}
			right := Position{origin.Row + 2*step.Row, origin.Col + 2*step.Col}
			center, ok := byOrigin[mid]
			if !ok || center.Value != left.Value+1 {
				continue
			}
			outer, ok := byOrigin[right]
			if !ok || outer.Value != left.Value {
				continue
			}
			d.applyOneTwoOne(center, left, outer)
		}
	}
}

func (d *deducer) applyOneTwoOne(center *Constraint, outers ...*Constraint) {
	why := "pattern-1-2-1 " + center.Origin.String()

	for _, o := range outers {
		diff := center.Missing - o.Missing
		centerOnly := except(center.Cells, o.Cells)
		if diff > 0 && len(centerOnly) == diff {
			for _, p := range centerOnly {
				d.classify(p, true, why)
			}
			for _, p := range except(o.Cells, center.Cells) {
				d.classify(p, false, why)
			}
		}
	}

	// cells adjacent to the centre number only
	exclusive := center.Cells
	for _, o := range outers {
		exclusive = except(exclusive, o.Cells)
	}
	if len(exclusive) > 0 && len(exclusive) == center.Missing {
		for _, p := range exclusive {
			d.classify(p, true, why)
		}
	}
}

// Adjacent "1-1" pair where one number is already satisfied by a
// flag: the other's mine is forced into its sole exclusive unresolved
// neighbour.
func (d *deducer) satisfiedPairPass(byOrigin map[Position]*Constraint) {
	for origin, a := range byOrigin {
		if a.Value != 1 || a.Missing != 0 {
			continue
		}
		for _, n := range origin.Neighbors(d.board.Size) {
			b, ok := byOrigin[n]
			if !ok || b.Value != 1 || b.Missing != 1 {
				continue
			}
			exclusive := except(b.Cells, a.Cells)
			if len(exclusive) == 1 {
				d.classify(exclusive[0], true, "pattern-1-1 "+n.String())
			}
		}
	}
}

// Corner and edge numbers whose unresolved neighbourhood is exactly
// used up by their remaining mines.
func (d *deducer) exhaustedBorderPass() {
	for _, c := range d.board.Constraints {
		if !c.Feasible() || c.Missing == 0 || c.Missing != len(c.Cells) {
			continue
		}
		var why string
		switch {
		case d.isCorner(c.Origin):
			why = "corner-exhausted " + c.Origin.String()
		case d.isEdge(c.Origin):
			why = "edge-exhausted " + c.Origin.String()
		default:
			continue
		}
		for _, p := range c.Cells {
			d.classify(p, true, why)
		}
	}
}

func (d *deducer) isCorner(p Position) bool {
	lastRow, lastCol := d.board.Size.Rows-1, d.board.Size.Cols-1
	return (p.Row == 0 || p.Row == lastRow) && (p.Col == 0 || p.Col == lastCol)
}

func (d *deducer) isEdge(p Position) bool {
	return p.Row == 0 || p.Row == d.board.Size.Rows-1 ||
		p.Col == 0 || p.Col == d.board.Size.Cols-1
}

// except returns the cells of a that are not in b.
func except(a, b []Position) []Position {
	var out []Position
	for _, p := range a {
		found := false
		for _, q := range b {
			if p == q {
				found = true
				break
			}
		}
		if !found {
			out = append(out, p)
		}
	}
	return out
}
