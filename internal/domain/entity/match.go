package entity

// MatchResult is the outcome of matching one rectified card against the
// reference corpus.
type MatchResult struct {
	Matched    bool   `json:"matched"`
	ScryfallID string `json:"scryfall_id,omitempty"`
	Distance   int    `json:"distance,omitempty"`
	Confidence int    `json:"confidence,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// Confidence rescales a Hamming distance into a 0–100 score. It is a
// monotone rescaling, not a calibrated probability.
func Confidence(distance int) int {
	c := 100 - distance*10
	if c < 0 {
		return 0
	}
	return c
}
