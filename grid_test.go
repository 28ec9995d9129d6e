package framecache

import (
	"testing"

	"github.com/unkn0wn-root/framecache/timecode"
)

func TestExpandIntervals(t *testing.T) {
	one := timecode.FromInt(1)
	ntsc := timecode.New(1001, 30000)

	cases := []struct {
		name      string
		intervals []timecode.Interval
		tb        timecode.Rational
		want      []timecode.Rational
	}{
		{
			name:      "aligned unit range",
			intervals: []timecode.Interval{span(0, 3)},
			tb:        one,
			want:      []timecode.Rational{ri(0), ri(1), ri(2)},
		},
		{
			name: "fragmented ranges merge and sort",
			intervals: []timecode.Interval{
				span(4, 6),
				span(0, 2),
				span(1, 3), // overlaps the second
			},
			tb:   one,
			want: []timecode.Rational{ri(0), ri(1), ri(2), ri(4), ri(5)},
		},
		{
			name: "misaligned start backs up to cover the partial sample",
			intervals: []timecode.Interval{
				{In: timecode.New(5, 2), Out: timecode.New(7, 2)},
			},
			tb:   one,
			want: []timecode.Rational{ri(2), ri(3)},
		},
		{
			name: "fractional timebase",
			intervals: []timecode.Interval{
				{In: timecode.Zero(), Out: timecode.FromInt(1)},
			},
			tb: timecode.New(1, 2),
			want: []timecode.Rational{
				timecode.Zero(),
				timecode.New(1, 2),
			},
		},
		{
			name: "ntsc grid",
			intervals: []timecode.Interval{
				{In: timecode.Zero(), Out: timecode.New(3003, 30000)},
			},
			tb: ntsc,
			want: []timecode.Rational{
				timecode.Zero(),
				timecode.New(1001, 30000),
				timecode.New(2002, 30000),
			},
		},
		{
			name:      "empty input",
			intervals: nil,
			tb:        one,
			want:      nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExpandIntervals(tc.intervals, tc.tb)
			if err != nil {
				t.Fatalf("ExpandIntervals: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("sample %d = %s, want %s (all: %v)", i, got[i], tc.want[i], got)
				}
			}
		})
	}
}

func TestExpandIntervalsRejectsBadTimebase(t *testing.T) {
	ivs := []timecode.Interval{span(0, 1)}
	if _, err := ExpandIntervals(ivs, timecode.Zero()); err != ErrInvalidTimebase {
		t.Fatalf("zero timebase: got %v", err)
	}
	if _, err := ExpandIntervals(ivs, timecode.FromInt(-1)); err != ErrInvalidTimebase {
		t.Fatalf("negative timebase: got %v", err)
	}
}
