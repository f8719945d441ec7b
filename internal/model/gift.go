// Package model defines the data structures used throughout the application,
// together with the privacy projections that decide which fields a public
// caller gets to see. The projections are pure functions — no I/O, no clock.
package model

import "time"

// Gift represents a single reservable wishlist item.
//
// Reservation state invariant: TakenBy is non-nil exactly when IsTaken is
// true, and HideReserverName is reset to false whenever the gift goes back
// to available. The sqlite repository enforces this on every transition.
type Gift struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	ImagePath        string         `json:"imagePath"`
	ApproximatePrice float64        `json:"approximatePrice"`
	Currency         Currency       `json:"currency"`
	PurchaseLinks    []PurchaseLink `json:"purchaseLinks"`
	IsTaken          bool           `json:"isTaken"`
	TakenBy          *string        `json:"takenBy"`
	HideReserverName bool           `json:"hideReserverName"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// PublicGift is the view of a Gift returned to non-admin callers.
//
// It never carries the HideReserverName flag itself — only the outcome of
// applying it: TakenBy is nil and IsAnonymous is true when the reserver asked
// to stay hidden. Only admins see the raw flag.
type PublicGift struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	ImagePath        string         `json:"imagePath"`
	ApproximatePrice float64        `json:"approximatePrice"`
	Currency         Currency       `json:"currency"`
	PurchaseLinks    []PurchaseLink `json:"purchaseLinks"`
	IsTaken          bool           `json:"isTaken"`
	TakenBy          *string        `json:"takenBy"`
	IsAnonymous      bool           `json:"isAnonymous"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// Public applies the privacy projection to a gift:
//
//	taken, reserver visible → TakenBy set,  IsAnonymous false
//	taken, reserver hidden  → TakenBy nil,  IsAnonymous true
//	available               → TakenBy nil,  IsAnonymous false
func (g Gift) Public() PublicGift {
	p := PublicGift{
		ID:               g.ID,
		Name:             g.Name,
		Description:      g.Description,
		ImagePath:        g.ImagePath,
		ApproximatePrice: RoundAmount(g.ApproximatePrice),
		Currency:         g.Currency,
		PurchaseLinks:    g.PurchaseLinks,
		IsTaken:          g.IsTaken,
		CreatedAt:        g.CreatedAt,
		UpdatedAt:        g.UpdatedAt,
	}

	if g.IsTaken && !g.HideReserverName {
		p.TakenBy = g.TakenBy
	}
	p.IsAnonymous = g.IsTaken && g.HideReserverName

	return p
}
