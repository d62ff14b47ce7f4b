// Package metadata defines the typed record served to the rendering layer
// and the coercion from untrusted gateway payloads into it.
package metadata

import "fmt"

// EntityKind names the on-chain entity a metadata document belongs to.
type EntityKind string

const (
	KindListing EntityKind = "Listing"
	KindOffer   EntityKind = "Offer"
	KindDispute EntityKind = "Dispute"
)

// OnChainRecord carries the authoritative fields read from the contract.
// Anything economically meaningful (category in particular) comes from
// here, never from the off-chain payload alone.
type OnChainRecord struct {
	Id        uint64     `json:"id"`
	Kind      EntityKind `json:"kind"`
	Category  int        `json:"category"`
	CreatedAt int64      `json:"createdAt"`
	Reference string     `json:"reference,omitempty"`
}

// Budget is the coerced budget/pricing sub-object.
type Budget struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// Metadata is the fully-populated coerced record. No field is ever left
// at an undefined value: strings default to empty, arrays to empty slices,
// the category to the on-chain value.
type Metadata struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Image        string   `json:"image"`
	Category     int      `json:"category"`
	Requirements []string `json:"requirements"`
	Deliverables []string `json:"deliverables"`
	Attachments  []string `json:"attachments"`
	Timeline     string   `json:"timeline"`
	Budget       Budget   `json:"budget"`
}

// SynthesizedTitle is the placeholder title used when the payload carries
// none: "<Kind> #<id>".
func (r OnChainRecord) SynthesizedTitle() string {
	kind := r.Kind
	if kind == "" {
		kind = KindListing
	}
	return fmt.Sprintf("%s #%d", kind, r.Id)
}
