package timecode

// RangeSet is an ordered set of disjoint, non-empty half-open intervals.
// Insert merges touching ranges; Remove subtracts, splitting as needed.
// The zero value is an empty set ready to use. Not safe for concurrent
// use; callers guard it with their own lock.
type RangeSet struct {
	ivs []Interval
}

// Insert adds iv to the set, merging it with any overlapping or adjacent
// intervals. Empty intervals are ignored.
func (s *RangeSet) Insert(iv Interval) {
	if iv.IsEmpty() {
		return
	}
	out := make([]Interval, 0, len(s.ivs)+1)
	placed := false
	for _, cur := range s.ivs {
		switch {
		case cur.Out.Less(iv.In):
			out = append(out, cur)
		case iv.Out.Less(cur.In):
			if !placed {
				out = append(out, iv)
				placed = true
			}
			out = append(out, cur)
		default:
			// overlapping or adjacent: fold cur into iv
			if cur.In.Less(iv.In) {
				iv.In = cur.In
			}
			if iv.Out.Less(cur.Out) {
				iv.Out = cur.Out
			}
		}
	}
	if !placed {
		out = append(out, iv)
	}
	s.ivs = out
}

// Remove subtracts iv from the set. Intervals partially covered by iv
// shrink; fully covered ones disappear; an interval containing iv splits.
func (s *RangeSet) Remove(iv Interval) {
	if iv.IsEmpty() {
		return
	}
	out := make([]Interval, 0, len(s.ivs)+1)
	for _, cur := range s.ivs {
		if !cur.Overlaps(iv) {
			out = append(out, cur)
			continue
		}
		if cur.In.Less(iv.In) {
			out = append(out, Interval{In: cur.In, Out: iv.In})
		}
		if iv.Out.Less(cur.Out) {
			out = append(out, Interval{In: iv.Out, Out: cur.Out})
		}
	}
	s.ivs = out
}

// Contains reports whether t lies inside any interval of the set.
func (s *RangeSet) Contains(t Rational) bool {
	for _, iv := range s.ivs {
		if iv.Contains(t) {
			return true
		}
		if t.Less(iv.In) {
			break
		}
	}
	return false
}

// First returns the earliest interval of the set.
func (s *RangeSet) First() (Interval, bool) {
	if len(s.ivs) == 0 {
		return Interval{}, false
	}
	return s.ivs[0], true
}

// IsEmpty reports whether the set holds no interval.
func (s *RangeSet) IsEmpty() bool { return len(s.ivs) == 0 }

// Len returns the number of disjoint intervals.
func (s *RangeSet) Len() int { return len(s.ivs) }

// Intervals returns a copy of the set in ascending order.
func (s *RangeSet) Intervals() []Interval {
	out := make([]Interval, len(s.ivs))
	copy(out, s.ivs)
	return out
}
