package marketdata

import (
	"strings"
	"unicode/utf16"
)

// Sparkline returns a deterministic placeholder series for a ticker. The same
// upper-cased ticker always yields the same n points around a base of 50..89.
func Sparkline(ticker string, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	rng := seededRandom(strings.ToUpper(ticker))
	base := 50 + float64(int(rng()*40))
	out := make([]float64, n)
	for i := range out {
		out[i] = base + (rng()-0.5)*6
	}
	return out
}

// seededRandom hashes the seed with FNV-1a over UTF-16 code units and returns
// a mulberry32-style generator in [0, 1].
func seededRandom(seed string) func() float64 {
	h := uint32(2166136261)
	for _, c := range utf16.Encode([]rune(seed)) {
		h = (h ^ uint32(c)) * 16777619
	}
	return func() float64 {
		h += 0x6D2B79F5
		t := (h ^ (h >> 15)) * (1 | h)
		t = (t + (t^(t>>7))*(61|t)) ^ t
		return float64(t^(t>>14)) / 4294967295
	}
}
