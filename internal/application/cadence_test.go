package application

import (
	"testing"
	"time"
)

func TestIntervalToCadence(t *testing.T) {
	cases := []struct {
		seconds  int
		want     Cadence
		interval time.Duration
	}{
		{30, Cadence{Unit: CadenceSeconds, N: 30}, 30 * time.Second},
		{59, Cadence{Unit: CadenceSeconds, N: 59}, 59 * time.Second},
		{60, Cadence{Unit: CadenceMinutes, N: 1}, time.Minute},
		{90, Cadence{Unit: CadenceMinutes, N: 1}, time.Minute},
		{1800, Cadence{Unit: CadenceMinutes, N: 30}, 30 * time.Minute},
		{3600, Cadence{Unit: CadenceHours, N: 1}, time.Hour},
		{7200, Cadence{Unit: CadenceHours, N: 2}, 2 * time.Hour},
		{86399, Cadence{Unit: CadenceHours, N: 23}, 23 * time.Hour},
		{86400, Cadence{Unit: CadenceDaily, N: 1}, 24 * time.Hour},
		{200000, Cadence{Unit: CadenceDaily, N: 1}, 24 * time.Hour},
	}
	for _, tc := range cases {
		got := IntervalToCadence(tc.seconds)
		if got != tc.want {
			t.Errorf("IntervalToCadence(%d) = %+v, want %+v", tc.seconds, got, tc.want)
		}
		if got.Interval() != tc.interval {
			t.Errorf("IntervalToCadence(%d).Interval() = %v, want %v", tc.seconds, got.Interval(), tc.interval)
		}
	}
}

func TestIntervalToCadenceDefaultsWhenUnset(t *testing.T) {
	for _, seconds := range []int{0, -5} {
		got := IntervalToCadence(seconds)
		if got.Interval() != time.Hour {
			t.Errorf("IntervalToCadence(%d).Interval() = %v, want %v", seconds, got.Interval(), time.Hour)
		}
	}
}

func TestCadenceString(t *testing.T) {
	if s := IntervalToCadence(45).String(); s != "every 45s" {
		t.Errorf("String() = %q, want %q", s, "every 45s")
	}
	if s := IntervalToCadence(86400).String(); s != "daily" {
		t.Errorf("String() = %q, want %q", s, "daily")
	}
}
