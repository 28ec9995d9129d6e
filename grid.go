package framecache

import "github.com/unkn0wn-root/framecache/timecode"

// ExpandIntervals produces every timebase-aligned sample instant touched
// by intervals, ascending. Boundaries need not be grid-aligned; the first
// sample backs up one grid step when the nearest instant rounds forward,
// so partially covered samples are still included.
//
// tb must be positive; expansion over a zero timebase would never consume
// the working list.
func ExpandIntervals(intervals []timecode.Interval, tb timecode.Rational) ([]timecode.Rational, error) {
	if tb.Sign() <= 0 {
		return nil, ErrInvalidTimebase
	}

	var work timecode.RangeSet
	for _, iv := range intervals {
		work.Insert(iv)
	}

	var times []timecode.Rational
	for !work.IsEmpty() {
		first, _ := work.First()
		t := first.In

		snapped := timecode.SnapToTimebase(t, tb)
		var next timecode.Rational
		if t.Less(snapped) {
			// rounded forward: the sample before the snap covers t
			next = snapped
			snapped = snapped.Sub(tb)
		} else {
			next = snapped.Add(tb)
		}

		times = append(times, snapped)
		work.Remove(timecode.Interval{In: snapped, Out: next})
	}
	return times, nil
}
