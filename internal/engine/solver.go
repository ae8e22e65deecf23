package engine

import (
	"sort"
	"strconv"
	"strings"
)

/* ----------------------------------------------------------------------
 * Deduction solver. Works on small localised sets of unresolved cells,
 * each with a mine count, whittling them down as cells become known.
 * Escalates from local counting through pairwise set algebra to
 * bounded brute-force enumeration and shape patterns, then validates
 * the combined result for contradictions before releasing it.
 */

const (
	// cap on the local-counting/pairwise fixed-point loop
	maxFixpointIterations = 64

	// groups larger than this are not enumerated (2^12 assignments max)
	maxGroupCells = 12
)

// Deductions holds the cells proven mined or safe this turn, mapped to
// a provenance note naming the rule that proved them. The two sets are
// disjoint after validation; both empty means nothing could be proven.
type Deductions struct {
	Safe  map[Position]string
	Mines map[Position]string
}

func (d Deductions) Empty() bool {
	return len(d.Safe) == 0 && len(d.Mines) == 0
}

// Deduce extracts every certainty the five solver passes can prove
// from the board model. It never fails: an inconsistent board yields
// empty deductions.
func Deduce(b *Board) Deductions {
	d := newDeducer(b)
	if b.Degenerate() {
		return d.result()
	}

	d.zeroAdjacencyPass()
	d.runFixpoint()
	d.enumerateGroups()
	d.runFixpoint()
	d.patternPass()
	d.runFixpoint()

	return d.validated()
}

/*
A workSet is one live constraint during a solver pass: the unresolved
cells it still covers and the mines unaccounted for among them. Sets
shrink as cells are classified; derived sets produced by subset
splitting join the same pool.
*/
type workSet struct {
	origin  Position
	cells   map[Position]bool
	missing int
}

func (s *workSet) signature() string {
	keys := make([]string, 0, len(s.cells))
	for p := range s.cells {
		keys = append(keys, p.String())
	}
	sort.Strings(keys)
	return strings.Join(keys, ",") + "/" + strconv.Itoa(s.missing)
}

type deducer struct {
	board    *Board
	sets     []*workSet
	seen     map[string]bool
	safe     map[Position]string
	mines    map[Position]string
	zeroSafe map[Position]bool
	changed  bool
}

func newDeducer(b *Board) *deducer {
	d := &deducer{
		board:    b,
		seen:     make(map[string]bool),
		safe:     make(map[Position]string),
		mines:    make(map[Position]string),
		zeroSafe: make(map[Position]bool),
	}
	for _, c := range b.Constraints {
		if !c.Feasible() || len(c.Cells) == 0 {
			// infeasible constraints are left for validation to find
			continue
		}
		s := &workSet{
			origin:  c.Origin,
			cells:   make(map[Position]bool, len(c.Cells)),
			missing: c.Missing,
		}
		for _, p := range c.Cells {
			s.cells[p] = true
		}
		d.sets = append(d.sets, s)
		d.seen[s.signature()] = true
	}
	return d
}

func (d *deducer) result() Deductions {
	return Deductions{Safe: d.safe, Mines: d.mines}
}

// classify records p as a certain mine or certain safe cell. The first
// classification of a cell is propagated into every live set; a
// conflicting second classification is recorded as-is so validation
// can spot the contradiction.
func (d *deducer) classify(p Position, mine bool, why string) bool {
	target, other := d.safe, d.mines
	if mine {
		target, other = d.mines, d.safe
	}
	if _, ok := target[p]; ok {
		return false
	}
	target[p] = why
	if _, dup := other[p]; !dup {
		for _, s := range d.sets {
			if s.cells[p] {
				delete(s.cells, p)
				if mine {
					s.missing--
				}
			}
		}
	}
	d.changed = true
	return true
}

func (d *deducer) addDerived(origin Position, cells []Position, missing int) {
	if len(cells) == 0 || missing < 0 || missing > len(cells) {
		return
	}
	s := &workSet{
		origin:  origin,
		cells:   make(map[Position]bool, len(cells)),
		missing: missing,
	}
	for _, p := range cells {
		s.cells[p] = true
	}
	sig := s.signature()
	if d.seen[sig] {
		return
	}
	d.seen[sig] = true
	d.sets = append(d.sets, s)
	d.changed = true
}

// runFixpoint repeats the local-counting and pairwise passes until
// nothing changes. The iteration cap guards against pathological
// inputs; a consistent board converges long before hitting it.
func (d *deducer) runFixpoint() {
	for range maxFixpointIterations {
		d.changed = false
		d.localCountPass()
		d.pairwisePass()
		if !d.changed {
			break
		}
	}
}

// Pass 1: a set missing no mines is all safe; a set missing as many
// mines as it has cells is all mines.
func (d *deducer) localCountPass() {
	for _, s := range d.sets {
		if len(s.cells) == 0 || s.missing < 0 || s.missing > len(s.cells) {
			continue
		}
		if s.missing == 0 {
			for _, p := range keys(s.cells) {
				d.classify(p, false, "local-count "+s.origin.String())
			}
		} else if s.missing == len(s.cells) {
			for _, p := range keys(s.cells) {
				d.classify(p, true, "local-count "+s.origin.String())
			}
		}
	}
}

/*
Pass 2: pairwise set algebra. For every overlapping pair of sets,
split each into the shared part and the two "wings" unique to either
set, then apply:

  - the wing rule: if one set needs exactly as many extra mines as its
    wing has cells, its wing is all mines and the other wing all safe;
  - subset splitting: a subset's mine count divides the superset,
    producing a derived set over the superset's wing;
  - the solved-intersection case: the pair forms two equations in
    three unknowns (mines per wing plus mines shared); when the
    feasible range for the shared count collapses to a single value,
    every part whose count hits zero or its cardinality is decided.
*/
func (d *deducer) pairwisePass() {
	for i := 0; i < len(d.sets); i++ {
		a := d.sets[i]
		if len(a.cells) == 0 {
			continue
		}
		for j := i + 1; j < len(d.sets); j++ {
			b := d.sets[j]
			if len(b.cells) == 0 {
				continue
			}
			shared, aOnly, bOnly := split(a, b)
			if len(shared) == 0 {
				continue
			}

			if len(aOnly) == a.missing-b.missing {
				for _, p := range aOnly {
					d.classify(p, true, "pairwise "+a.origin.String()+"/"+b.origin.String())
				}
				for _, p := range bOnly {
					d.classify(p, false, "pairwise "+a.origin.String()+"/"+b.origin.String())
				}
				continue
			}
			if len(bOnly) == b.missing-a.missing {
				for _, p := range bOnly {
					d.classify(p, true, "pairwise "+b.origin.String()+"/"+a.origin.String())
				}
				for _, p := range aOnly {
					d.classify(p, false, "pairwise "+b.origin.String()+"/"+a.origin.String())
				}
				continue
			}

			if len(aOnly) == 0 && len(bOnly) > 0 {
				d.addDerived(b.origin, bOnly, b.missing-a.missing)
			} else if len(bOnly) == 0 && len(aOnly) > 0 {
				d.addDerived(a.origin, aOnly, a.missing-b.missing)
			}

			d.solveIntersection(a, b, shared, aOnly, bOnly)
		}
	}
}

func (d *deducer) solveIntersection(a, b *workSet, shared, aOnly, bOnly []Position) {
	zmin := max(0, a.missing-len(aOnly), b.missing-len(bOnly))
	zmax := min(len(shared), a.missing, b.missing)
	if zmin != zmax || zmin < 0 {
		return
	}
	z := zmin
	why := "intersection " + a.origin.String() + "/" + b.origin.String()
	d.decidePart(aOnly, a.missing-z, why)
	d.decidePart(bOnly, b.missing-z, why)
	d.decidePart(shared, z, why)
}

func (d *deducer) decidePart(part []Position, mines int, why string) {
	if len(part) == 0 || mines < 0 || mines > len(part) {
		return
	}
	if mines == 0 {
		for _, p := range part {
			d.classify(p, false, why)
		}
	} else if mines == len(part) {
		for _, p := range part {
			d.classify(p, true, why)
		}
	}
}

func split(a, b *workSet) (shared, aOnly, bOnly []Position) {
	for p := range a.cells {
		if b.cells[p] {
			shared = append(shared, p)
		} else {
			aOnly = append(aOnly, p)
		}
	}
	for p := range b.cells {
		if !a.cells[p] {
			bOnly = append(bOnly, p)
		}
	}
	return
}

func keys(m map[Position]bool) []Position {
	ps := make([]Position, 0, len(m))
	for p := range m {
		ps = append(ps, p)
	}
	return ps
}
