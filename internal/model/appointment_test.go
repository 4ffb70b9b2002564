package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)
	at := func(minutes int) time.Time { return base.Add(time.Duration(minutes) * time.Minute) }

	cases := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"identical", at(0), at(60), at(0), at(60), true},
		{"partial overlap", at(0), at(60), at(30), at(90), true},
		{"contained", at(0), at(60), at(15), at(45), true},
		{"containing", at(15), at(45), at(0), at(60), true},
		{"touching end-start", at(0), at(60), at(60), at(120), false},
		{"touching start-end", at(60), at(120), at(0), at(60), false},
		{"disjoint", at(0), at(30), at(90), at(120), false},
		{"one minute overlap", at(0), at(61), at(60), at(120), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.s1, tc.e1, tc.s2, tc.e2))
			assert.Equal(t, tc.want, Overlaps(tc.s2, tc.e2, tc.s1, tc.e1), "overlap must be symmetric")
		})
	}
}
