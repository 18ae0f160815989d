package domain

// OfferID identifies one of the campaigns a partner can promote.
// Invariant: the value is one of the closed set below.
type OfferID string

const (
	OfferACA      OfferID = "aca"
	OfferRx       OfferID = "rx"
	OfferMedicare OfferID = "medicare"
)

var offers = map[OfferID]struct{}{
	OfferACA:      {},
	OfferRx:       {},
	OfferMedicare: {},
}

// IsValid reports membership in the closed offer set. Matching is exact and
// case-sensitive.
func (o OfferID) IsValid() bool {
	_, ok := offers[o]
	return ok
}

func (o OfferID) String() string { return string(o) }
