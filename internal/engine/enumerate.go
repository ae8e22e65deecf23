package engine

import (
	"math/bits"
	"sort"
)

/*
Pass 3: bounded brute-force enumeration. Sets that transitively share
unresolved cells form a group; for groups of at most maxGroupCells
cells we try every mine/no-mine assignment, keep the assignments
consistent with every set's count, and classify any cell that is a
mine in all of them or in none of them. Oversized groups are skipped
entirely and left for the probability estimator.
*/
func (d *deducer) enumerateGroups() {
	live := make([]*workSet, 0, len(d.sets))
	for _, s := range d.sets {
		if len(s.cells) > 0 && s.missing >= 0 && s.missing <= len(s.cells) {
			live = append(live, s)
		}
	}
	if len(live) == 0 {
		return
	}

	uf := newUnionFind()
	for _, s := range live {
		var first Position
		i := 0
		for p := range s.cells {
			if i == 0 {
				first = p
			} else {
				uf.union(first, p)
			}
			i++
		}
	}

	groups := make(map[Position][]*workSet)
	for _, s := range live {
		for p := range s.cells {
			root := uf.find(p)
			groups[root] = append(groups[root], s)
			break
		}
	}

	for _, members := range groups {
		d.enumerateGroup(members)
	}
}

func (d *deducer) enumerateGroup(members []*workSet) {
	cellSet := make(map[Position]bool)
	for _, s := range members {
		for p := range s.cells {
			cellSet[p] = true
		}
	}
	if len(cellSet) == 0 || len(cellSet) > maxGroupCells {
		return
	}

	cells := keys(cellSet)
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})
	index := make(map[Position]int, len(cells))
	for i, p := range cells {
		index[p] = i
	}

	type packed struct {
		mask    uint
		missing int
	}
	constraints := make([]packed, 0, len(members))
	for _, s := range members {
		var m uint
		for p := range s.cells {
			m |= 1 << index[p]
		}
		constraints = append(constraints, packed{m, s.missing})
	}

	var (
		consistent int
		alwaysMine = uint(1<<len(cells)) - 1
		neverMine  = uint(1<<len(cells)) - 1
	)
	for mask := uint(0); mask < 1<<len(cells); mask++ {
		ok := true
		for _, c := range constraints {
			if bits.OnesCount(mask&c.mask) != c.missing {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		consistent++
		alwaysMine &= mask
		neverMine &= ^mask
	}
	if consistent == 0 {
		// no assignment satisfies this group; the board is lying to
		// us here, so conclude nothing from it
		return
	}

	for i, p := range cells {
		if alwaysMine&(1<<i) != 0 {
			d.classify(p, true, "enumeration")
		} else if neverMine&(1<<i) != 0 {
			d.classify(p, false, "enumeration")
		}
	}
}

type unionFind struct {
	parent map[Position]Position
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[Position]Position)}
}

func (u *unionFind) find(p Position) Position {
	root, ok := u.parent[p]
	if !ok {
		u.parent[p] = p
		return p
	}
	if root == p {
		return p
	}
	r := u.find(root)
	u.parent[p] = r
	return r
}

func (u *unionFind) union(a, b Position) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}
