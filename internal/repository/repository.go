package repository

import (
	"context"

	"github.com/sakif/gift-registry/internal/model"
)

// StatusFilter narrows a gift listing by reservation state.
type StatusFilter string

const (
	FilterNone      StatusFilter = ""
	FilterAvailable StatusFilter = "available"
	FilterTaken     StatusFilter = "taken"
)

// GiftRepository is the persistence boundary for single reservable gifts.
//
// Reserve and Unreserve are the state transitions and must be implemented as
// atomic conditional writes: the precondition (is_taken) is part of the
// UPDATE's WHERE clause, never a separate read. A check-then-act sequence
// would let two concurrent reservations both succeed.
type GiftRepository interface {
	Create(ctx context.Context, gift *model.Gift) error
	GetByID(ctx context.Context, id string) (*model.Gift, error)
	List(ctx context.Context, filter StatusFilter) ([]model.Gift, error)
	Update(ctx context.Context, gift *model.Gift) error
	Delete(ctx context.Context, id string) error

	// Reserve transitions Available → Taken. Returns apperror.ErrNotFound if
	// the gift doesn't exist and apperror.ErrConflict if it is already taken.
	Reserve(ctx context.Context, id, takenBy string, hideReserverName bool) (*model.Gift, error)

	// Unreserve transitions Taken → Available and clears the reserver and the
	// privacy flag. Returns apperror.ErrConflict if the gift is not taken.
	Unreserve(ctx context.Context, id string) (*model.Gift, error)

	// UnreserveBy is Unreserve with the reserver's name as an additional
	// precondition, carried in the same conditional write. A stale claim can
	// never release a reservation that has since changed hands. Returns
	// apperror.ErrForbidden when the gift is held under a different name.
	UnreserveBy(ctx context.Context, id, takenBy string) (*model.Gift, error)
}

// BigGiftRepository is the persistence boundary for pooled gifts and their
// contribution ledger.
//
// AddContribution must insert the contribution row and refresh the stored
// total from the full ledger inside one transaction, so that concurrent
// contributions are all reflected in the final amount. Delete must refuse
// (apperror.ErrConflict) when contributions exist.
type BigGiftRepository interface {
	Create(ctx context.Context, bigGift *model.BigGift) error
	GetByID(ctx context.Context, id string) (*model.BigGift, error)
	List(ctx context.Context) ([]model.BigGift, error)
	Update(ctx context.Context, bigGift *model.BigGift) error
	Delete(ctx context.Context, id string) error

	AddContribution(ctx context.Context, contribution *model.Contribution) (*model.BigGift, error)
}
