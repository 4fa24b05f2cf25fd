package quota

import "testing"

func TestRates_TextTokens(t *testing.T) {
	r := DefaultRates()
	cases := []struct {
		chars int
		want  int64
	}{
		{0, 0},
		{-1, 0},
		{1, 100},
		{3, 300},
		{1000, 100_000},
		{1001, 100_100},
	}
	for _, tc := range cases {
		if got := r.TextTokens(tc.chars); got != tc.want {
			t.Errorf("TextTokens(%d) = %d, want %d", tc.chars, got, tc.want)
		}
	}

	odd := Rates{TextTokensPer1KChars: 7}
	if got := odd.TextTokens(1); got != 1 {
		t.Errorf("expected rounding up to 1, got %d", got)
	}
}

func TestRates_AudioTokens(t *testing.T) {
	r := DefaultRates()
	cases := []struct {
		secs float64
		want int64
	}{
		{0, 0},
		{-3, 0},
		{30, 20_000},
		{60, 40_000},
		{0.001, 1},
		{90.5, 60_334},
	}
	for _, tc := range cases {
		if got := r.AudioTokens(tc.secs); got != tc.want {
			t.Errorf("AudioTokens(%v) = %d, want %d", tc.secs, got, tc.want)
		}
	}
}
