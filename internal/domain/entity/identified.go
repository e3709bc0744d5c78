package entity

// IdentificationConfidence grades how much a vision-provider result can
// be trusted.
type IdentificationConfidence string

const (
	ConfidenceHigh   IdentificationConfidence = "high"   // several providers agree
	ConfidenceMedium IdentificationConfidence = "medium" // one provider, or partial agreement
	ConfidenceLow    IdentificationConfidence = "low"    // fallback pick between disagreeing providers
)

// IdentifiedCard is a card read off a photo by a vision provider. Set and
// CollectorNumber are empty when the provider could not read them.
type IdentifiedCard struct {
	Name            string                   `json:"name"`
	Set             string                   `json:"set,omitempty"`
	CollectorNumber string                   `json:"collector_number,omitempty"`
	Confidence      IdentificationConfidence `json:"confidence"`
}

// HasPrinting reports whether the record pins down a concrete printing.
func (c IdentifiedCard) HasPrinting() bool {
	return c.Set != "" && c.CollectorNumber != ""
}
