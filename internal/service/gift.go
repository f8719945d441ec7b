package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/gift-registry/internal/apperror"
	"github.com/sakif/gift-registry/internal/auth"
	"github.com/sakif/gift-registry/internal/model"
	"github.com/sakif/gift-registry/internal/repository"
)

// Validation constants for gifts.
const (
	MaxGiftNameLength     = 200
	MaxReserverNameLength = 100
)

// GiftService handles business logic for single reservable gifts.
type GiftService struct {
	repo   repository.GiftRepository
	logger *slog.Logger
}

// NewGiftService creates a GiftService. The repository is an interface —
// sqlite in production, an in-memory mock in tests.
func NewGiftService(repo repository.GiftRepository, logger *slog.Logger) *GiftService {
	return &GiftService{
		repo:   repo,
		logger: logger,
	}
}

// GiftInput carries the fields an admin provides when creating a gift.
type GiftInput struct {
	Name             string
	Description      string
	ImagePath        string
	ApproximatePrice float64
	Currency         model.Currency
	PurchaseLinks    []model.PurchaseLink
}

// GiftUpdate carries a partial admin edit. Nil fields are left unchanged;
// PurchaseLinks replaces the whole list when non-nil.
type GiftUpdate struct {
	Name             *string
	Description      *string
	ImagePath        *string
	ApproximatePrice *float64
	Currency         *model.Currency
	PurchaseLinks    []model.PurchaseLink
}

// =========================================================================
// PUBLIC OPERATIONS
// =========================================================================

// ListPublic returns gifts with the privacy projection applied to each.
func (s *GiftService) ListPublic(ctx context.Context, filter repository.StatusFilter) ([]model.PublicGift, error) {
	gifts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, mapRepoErr(s.logger, "listing gifts", err)
	}

	public := make([]model.PublicGift, 0, len(gifts))
	for _, g := range gifts {
		public = append(public, g.Public())
	}
	return public, nil
}

// GetPublic returns one gift with the privacy projection applied.
func (s *GiftService) GetPublic(ctx context.Context, id string) (*model.PublicGift, error) {
	gift, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := gift.Public()
	return &p, nil
}

// Reserve claims an available gift for the named visitor.
//
// The state transition itself happens as one conditional write inside the
// repository, so two racing reservations can't both win; this layer owns
// the input rules only.
func (s *GiftService) Reserve(ctx context.Context, id, reserverName string, hideReserverName bool) (*model.PublicGift, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "gift ID is required")
	}

	reserverName = strings.TrimSpace(reserverName)
	if reserverName == "" {
		return nil, apperror.ValidationFailed("name", "a name is required to reserve a gift")
	}
	if len(reserverName) > MaxReserverNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxReserverNameLength))
	}

	gift, err := s.repo.Reserve(ctx, id, reserverName, hideReserverName)
	if err != nil {
		return nil, mapRepoErr(s.logger, "reserving gift", err)
	}

	s.logger.Info("gift reserved",
		slog.String("id", gift.ID),
		slog.Bool("anonymous", hideReserverName),
	)

	p := gift.Public()
	return &p, nil
}

// UnreserveSelf releases a reservation on the visitor's own claim that they
// made it: the provided name must match the stored reserver. The match is a
// precondition of the repository's conditional write, not a separate read,
// so a stale claim cannot release a reservation that has changed hands in
// the meantime.
//
// This is trust-on-claim — anyone who knows the reserver's name can release
// the reservation; there is no cryptographic proof of identity. The admin
// Unreserve is the authoritative path.
func (s *GiftService) UnreserveSelf(ctx context.Context, id, claimantName string) (*model.PublicGift, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "gift ID is required")
	}
	claimantName = strings.TrimSpace(claimantName)
	if claimantName == "" {
		return nil, apperror.ValidationFailed("name", "a name is required to release a reservation")
	}

	freed, err := s.repo.UnreserveBy(ctx, id, claimantName)
	if err != nil {
		return nil, mapRepoErr(s.logger, "unreserving gift", err)
	}

	s.logger.Info("gift unreserved by reserver", slog.String("id", id))

	p := freed.Public()
	return &p, nil
}

// =========================================================================
// ADMIN OPERATIONS
// =========================================================================

// ListAdmin returns gifts unprojected: the reserver name and the raw
// privacy flag are visible.
func (s *GiftService) ListAdmin(ctx context.Context, admin *auth.AdminSession, filter repository.StatusFilter) ([]model.Gift, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}

	gifts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, mapRepoErr(s.logger, "listing gifts", err)
	}
	return gifts, nil
}

// GetAdmin returns one unprojected gift.
func (s *GiftService) GetAdmin(ctx context.Context, admin *auth.AdminSession, id string) (*model.Gift, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	return s.getByID(ctx, id)
}

// Create validates and saves a new gift.
func (s *GiftService) Create(ctx context.Context, admin *auth.AdminSession, in GiftInput) (*model.Gift, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	if err := validateGiftFields(in.Name, in.Description, in.ImagePath, in.ApproximatePrice, in.Currency, in.PurchaseLinks); err != nil {
		return nil, err
	}

	gift := &model.Gift{
		Name:             strings.TrimSpace(in.Name),
		Description:      strings.TrimSpace(in.Description),
		ImagePath:        strings.TrimSpace(in.ImagePath),
		ApproximatePrice: model.RoundAmount(in.ApproximatePrice),
		Currency:         in.Currency,
		PurchaseLinks:    in.PurchaseLinks,
	}

	if err := s.repo.Create(ctx, gift); err != nil {
		return nil, mapRepoErr(s.logger, "creating gift", err)
	}

	s.logger.Info("gift created",
		slog.String("id", gift.ID),
		slog.String("name", gift.Name),
		slog.String("admin", admin.UserID),
	)

	return gift, nil
}

// Update applies a partial edit to a gift's descriptive fields. Reservation
// state is not editable here: it only moves through the reserve/unreserve
// transitions.
func (s *GiftService) Update(ctx context.Context, admin *auth.AdminSession, id string, in GiftUpdate) (*model.Gift, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}

	gift, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		gift.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		gift.Description = strings.TrimSpace(*in.Description)
	}
	if in.ImagePath != nil {
		gift.ImagePath = strings.TrimSpace(*in.ImagePath)
	}
	if in.ApproximatePrice != nil {
		gift.ApproximatePrice = model.RoundAmount(*in.ApproximatePrice)
	}
	if in.Currency != nil {
		gift.Currency = *in.Currency
	}
	if in.PurchaseLinks != nil {
		gift.PurchaseLinks = in.PurchaseLinks
	}

	if err := validateGiftFields(gift.Name, gift.Description, gift.ImagePath, gift.ApproximatePrice, gift.Currency, gift.PurchaseLinks); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, gift); err != nil {
		return nil, mapRepoErr(s.logger, "updating gift", err)
	}

	s.logger.Info("gift updated",
		slog.String("id", gift.ID),
		slog.String("admin", admin.UserID),
	)

	return gift, nil
}

// Unreserve is the authoritative release of a reservation.
func (s *GiftService) Unreserve(ctx context.Context, admin *auth.AdminSession, id string) (*model.Gift, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "gift ID is required")
	}

	gift, err := s.repo.Unreserve(ctx, id)
	if err != nil {
		return nil, mapRepoErr(s.logger, "unreserving gift", err)
	}

	s.logger.Info("gift unreserved by admin",
		slog.String("id", id),
		slog.String("admin", admin.UserID),
	)

	return gift, nil
}

// Delete removes a gift. Hard delete — nothing references gifts.
func (s *GiftService) Delete(ctx context.Context, admin *auth.AdminSession, id string) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "gift ID is required")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoErr(s.logger, "deleting gift", err)
	}

	s.logger.Info("gift deleted",
		slog.String("id", id),
		slog.String("admin", admin.UserID),
	)
	return nil
}

// =========================================================================
// HELPERS
// =========================================================================

func (s *GiftService) getByID(ctx context.Context, id string) (*model.Gift, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "gift ID is required")
	}

	gift, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(s.logger, "getting gift", err)
	}
	return gift, nil
}

func validateGiftFields(name, description, imagePath string, price float64, currency model.Currency, links []model.PurchaseLink) error {
	if strings.TrimSpace(name) == "" {
		return apperror.ValidationFailed("name", "gift name is required")
	}
	if len(name) > MaxGiftNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("gift name must be %d characters or less", MaxGiftNameLength))
	}
	if strings.TrimSpace(description) == "" {
		return apperror.ValidationFailed("description", "gift description is required")
	}
	if strings.TrimSpace(imagePath) == "" {
		return apperror.ValidationFailed("imagePath", "gift image is required")
	}
	if price <= 0 {
		return apperror.ValidationFailed("approximatePrice", "approximate price must be greater than zero")
	}
	if !currency.Valid() {
		return apperror.ValidationFailed("currency",
			fmt.Sprintf("currency must be one of %v", model.Currencies))
	}
	for i, link := range links {
		if strings.TrimSpace(link.URL) == "" {
			return apperror.ValidationFailed("purchaseLinks",
				fmt.Sprintf("purchase link %d is missing a URL", i+1))
		}
	}
	return nil
}
