package codemodel

import "slices"

// relation is a many-to-many association indexed from both ends. Every
// mutation updates both indexes together, so neither side can observe an
// edge the other side does not hold. Neighbour lists keep insertion order.
type relation[L, R comparable] struct {
	fwd map[L][]R
	bwd map[R][]L
	n   int
}

func newRelation[L, R comparable]() relation[L, R] {
	return relation[L, R]{
		fwd: make(map[L][]R),
		bwd: make(map[R][]L),
	}
}

// link adds l->r. It returns false if the edge already existed.
func (r *relation[L, R]) link(l L, rr R) bool {
	if slices.Contains(r.fwd[l], rr) {
		return false
	}
	r.fwd[l] = append(r.fwd[l], rr)
	r.bwd[rr] = append(r.bwd[rr], l)
	r.n++
	return true
}

// unlink removes l->r. It returns false if the edge did not exist.
func (r *relation[L, R]) unlink(l L, rr R) bool {
	i := slices.Index(r.fwd[l], rr)
	if i < 0 {
		return false
	}
	r.fwd[l] = slices.Delete(r.fwd[l], i, i+1)
	if len(r.fwd[l]) == 0 {
		delete(r.fwd, l)
	}
	j := slices.Index(r.bwd[rr], l)
	r.bwd[rr] = slices.Delete(r.bwd[rr], j, j+1)
	if len(r.bwd[rr]) == 0 {
		delete(r.bwd, rr)
	}
	r.n--
	return true
}

// dropLeft removes every edge leaving l.
func (r *relation[L, R]) dropLeft(l L) {
	for _, rr := range slices.Clone(r.fwd[l]) {
		r.unlink(l, rr)
	}
}

// dropRight removes every edge reaching rr.
func (r *relation[L, R]) dropRight(rr R) {
	for _, l := range slices.Clone(r.bwd[rr]) {
		r.unlink(l, rr)
	}
}

func (r *relation[L, R]) has(l L, rr R) bool {
	return slices.Contains(r.fwd[l], rr)
}

// right returns a copy of the targets of l.
func (r *relation[L, R]) right(l L) []R {
	return slices.Clone(r.fwd[l])
}

// left returns a copy of the sources of rr.
func (r *relation[L, R]) left(rr R) []L {
	return slices.Clone(r.bwd[rr])
}

func (r *relation[L, R]) size() int { return r.n }

// symmetric reports whether both indexes describe the same edge set.
func (r *relation[L, R]) symmetric() bool {
	count := 0
	for l, rs := range r.fwd {
		for _, rr := range rs {
			if !slices.Contains(r.bwd[rr], l) {
				return false
			}
			count++
		}
	}
	back := 0
	for _, ls := range r.bwd {
		back += len(ls)
	}
	return count == back && count == r.n
}
