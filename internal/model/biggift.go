package model

import "time"

// AnonymousContributorName is the display name shown to public callers for a
// contribution whose contributor asked to stay hidden.
const AnonymousContributorName = "Anonymous"

// BigGift is a wishlist item funded by multiple contributions toward a
// target amount.
//
// Ledger invariant: CurrentAmount equals the sum of all contribution amounts
// at every point a reader can observe. The source of truth is the
// contribution ledger — the stored current_amount column is a cache refreshed
// inside the same transaction as each contribution insert, never written from
// a value read earlier.
type BigGift struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	ImagePath     string         `json:"imagePath"`
	TargetAmount  float64        `json:"targetAmount"`
	CurrentAmount float64        `json:"currentAmount"`
	Currency      Currency       `json:"currency"`
	PurchaseLinks []PurchaseLink `json:"purchaseLinks"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`

	// Contributions in recency order (newest first).
	Contributions []Contribution `json:"contributions"`
}

// FullyFunded reports whether the target has been reached. This is always
// derived from the current amounts, never stored — a big gift has no taken
// state of its own.
func (b BigGift) FullyFunded() bool {
	return RoundAmount(b.CurrentAmount) >= RoundAmount(b.TargetAmount)
}

// Contribution is one recorded pledge toward a big gift. Contributions are
// immutable once created and live exactly as long as their big gift
// (cascade delete).
type Contribution struct {
	ID                  string    `json:"id"`
	BigGiftID           string    `json:"bigGiftId"`
	Name                string    `json:"name"`
	Amount              float64   `json:"amount"`
	Email               *string   `json:"email"`
	Message             *string   `json:"message"`
	HideContributorName bool      `json:"hideContributorName"`
	CreatedAt           time.Time `json:"createdAt"`
}

// PublicBigGift is the view of a BigGift returned to non-admin callers.
type PublicBigGift struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	ImagePath     string               `json:"imagePath"`
	TargetAmount  float64              `json:"targetAmount"`
	CurrentAmount float64              `json:"currentAmount"`
	Currency      Currency             `json:"currency"`
	PurchaseLinks []PurchaseLink       `json:"purchaseLinks"`
	FullyFunded   bool                 `json:"fullyFunded"`
	Contributions []PublicContribution `json:"contributions"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// PublicContribution is the view of a Contribution returned to non-admin
// callers. Email and message are not nulled out — the struct simply has no
// such fields, so the keys never appear in a public payload.
type PublicContribution struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Amount      float64   `json:"amount"`
	IsAnonymous bool      `json:"isAnonymous"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Public applies the privacy projection to a contribution: a hidden
// contributor is shown as "Anonymous", everyone keeps the amount visible.
func (c Contribution) Public() PublicContribution {
	name := c.Name
	if c.HideContributorName {
		name = AnonymousContributorName
	}
	return PublicContribution{
		ID:          c.ID,
		Name:        name,
		Amount:      RoundAmount(c.Amount),
		IsAnonymous: c.HideContributorName,
		CreatedAt:   c.CreatedAt,
	}
}

// Public applies the privacy projection to a big gift and each of its
// contributions, preserving contribution order.
func (b BigGift) Public() PublicBigGift {
	contributions := make([]PublicContribution, 0, len(b.Contributions))
	for _, c := range b.Contributions {
		contributions = append(contributions, c.Public())
	}

	return PublicBigGift{
		ID:            b.ID,
		Name:          b.Name,
		Description:   b.Description,
		ImagePath:     b.ImagePath,
		TargetAmount:  RoundAmount(b.TargetAmount),
		CurrentAmount: RoundAmount(b.CurrentAmount),
		Currency:      b.Currency,
		PurchaseLinks: b.PurchaseLinks,
		FullyFunded:   b.FullyFunded(),
		Contributions: contributions,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}
