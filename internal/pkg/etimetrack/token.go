package etimetrack

import "strconv"

// Vendor record tokens look like "102025$4821": month-year, a literal '$',
// then a per-month record sequence. Ordering within a stream is numeric on
// the sequence component. Parsing is kept here as pure functions because a
// silently mis-parsed token stalls the sync forever.

// TokenSequence extracts the numeric sequence from a vendor token.
// A malformed token (missing '$', non-numeric or negative suffix) parses
// as sequence 0 so it can never win a comparison.
func TokenSequence(token string) int64 {
	for i := 0; i < len(token); i++ {
		if token[i] == '$' {
			seq, err := strconv.ParseInt(token[i+1:], 10, 64)
			if err != nil || seq < 0 {
				return 0
			}
			return seq
		}
	}
	return 0
}

// TokenNewer reports whether candidate is strictly newer than current.
func TokenNewer(candidate, current string) bool {
	return TokenSequence(candidate) > TokenSequence(current)
}

// MaxToken returns the newest token in the batch, or "" for an empty batch.
func MaxToken(tokens []string) string {
	max := ""
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if max == "" || TokenNewer(t, max) {
			max = t
		}
	}
	return max
}
