package quota

import "math"

// Default conversion ratios from provider units to token-equivalents.
const (
	DefaultTextTokensPer1KChars = 100_000
	DefaultAudioTokensPerMinute = 40_000
)

// Rates converts provider units (characters of text, seconds of audio) into
// the token-equivalents the gate accounts in.
type Rates struct {
	TextTokensPer1KChars int64
	AudioTokensPerMinute int64
}

// DefaultRates returns the stock conversion ratios.
func DefaultRates() Rates {
	return Rates{
		TextTokensPer1KChars: DefaultTextTokensPer1KChars,
		AudioTokensPerMinute: DefaultAudioTokensPerMinute,
	}
}

// TextTokens returns ceil(chars/1000 * rate). Integer math keeps 3 chars at
// exactly 300 tokens with the default rate.
func (r Rates) TextTokens(chars int) int64 {
	if chars <= 0 || r.TextTokensPer1KChars <= 0 {
		return 0
	}
	return (int64(chars)*r.TextTokensPer1KChars + 999) / 1000
}

// AudioTokens returns ceil(seconds/60 * rate).
func (r Rates) AudioTokens(seconds float64) int64 {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) || r.AudioTokensPerMinute <= 0 {
		return 0
	}
	v := seconds * float64(r.AudioTokensPerMinute) / 60
	// Absorb float noise such as 30s -> 20000.000000000004.
	return int64(math.Ceil(v - 1e-9))
}
