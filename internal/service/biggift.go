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

// Validation constants for big gifts and contributions.
const (
	MaxContributorNameLength = 100
	MaxMessageLength         = 500
)

// BigGiftService handles business logic for pooled big gifts and their
// contribution ledgers.
type BigGiftService struct {
	repo   repository.BigGiftRepository
	logger *slog.Logger
}

// NewBigGiftService creates a BigGiftService.
func NewBigGiftService(repo repository.BigGiftRepository, logger *slog.Logger) *BigGiftService {
	return &BigGiftService{
		repo:   repo,
		logger: logger,
	}
}

// BigGiftInput carries the fields an admin provides when creating a big
// gift. The current amount is not among them: a big gift always starts at
// zero and only moves through contributions.
type BigGiftInput struct {
	Name          string
	Description   string
	ImagePath     string
	TargetAmount  float64
	Currency      model.Currency
	PurchaseLinks []model.PurchaseLink
}

// BigGiftUpdate carries a partial admin edit. CurrentAmount deliberately
// has no field here.
type BigGiftUpdate struct {
	Name          *string
	Description   *string
	ImagePath     *string
	TargetAmount  *float64
	Currency      *model.Currency
	PurchaseLinks []model.PurchaseLink
}

// ContributionInput carries what a visitor submits when contributing.
type ContributionInput struct {
	Name                string
	Amount              float64
	Email               *string
	Message             *string
	HideContributorName bool
}

// =========================================================================
// PUBLIC OPERATIONS
// =========================================================================

// ListPublic returns big gifts with the privacy projection applied: hidden
// contributors read "Anonymous", emails and messages are absent.
func (s *BigGiftService) ListPublic(ctx context.Context) ([]model.PublicBigGift, error) {
	bigGifts, err := s.repo.List(ctx)
	if err != nil {
		return nil, mapRepoErr(s.logger, "listing big gifts", err)
	}

	public := make([]model.PublicBigGift, 0, len(bigGifts))
	for _, b := range bigGifts {
		public = append(public, b.Public())
	}
	return public, nil
}

// GetPublic returns one big gift with the privacy projection applied.
func (s *BigGiftService) GetPublic(ctx context.Context, id string) (*model.PublicBigGift, error) {
	bigGift, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := bigGift.Public()
	return &p, nil
}

// AddContribution validates and records a contribution. The insert and the
// total recomputation happen in one repository transaction; the returned
// big gift reflects the new total.
func (s *BigGiftService) AddContribution(ctx context.Context, bigGiftID string, in ContributionInput) (*model.PublicBigGift, error) {
	bigGiftID = strings.TrimSpace(bigGiftID)
	if bigGiftID == "" {
		return nil, apperror.ValidationFailed("id", "big gift ID is required")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "a name is required to contribute")
	}
	if len(name) > MaxContributorNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxContributorNameLength))
	}
	if in.Amount <= 0 {
		return nil, apperror.ValidationFailed("amount", "contribution amount must be greater than zero")
	}
	if in.Message != nil && len(*in.Message) > MaxMessageLength {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("message must be %d characters or less", MaxMessageLength))
	}

	contribution := &model.Contribution{
		BigGiftID:           bigGiftID,
		Name:                name,
		Amount:              model.RoundAmount(in.Amount),
		Email:               normalizeOptional(in.Email),
		Message:             normalizeOptional(in.Message),
		HideContributorName: in.HideContributorName,
	}

	bigGift, err := s.repo.AddContribution(ctx, contribution)
	if err != nil {
		return nil, mapRepoErr(s.logger, "adding contribution", err)
	}

	s.logger.Info("contribution added",
		slog.String("bigGiftID", bigGiftID),
		slog.Float64("amount", contribution.Amount),
		slog.Float64("total", bigGift.CurrentAmount),
		slog.Bool("anonymous", in.HideContributorName),
	)

	p := bigGift.Public()
	return &p, nil
}

// =========================================================================
// ADMIN OPERATIONS
// =========================================================================

// ListAdmin returns big gifts unprojected: contributor names, emails and
// messages are all visible.
func (s *BigGiftService) ListAdmin(ctx context.Context, admin *auth.AdminSession) ([]model.BigGift, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}

	bigGifts, err := s.repo.List(ctx)
	if err != nil {
		return nil, mapRepoErr(s.logger, "listing big gifts", err)
	}
	return bigGifts, nil
}

// GetAdmin returns one unprojected big gift.
func (s *BigGiftService) GetAdmin(ctx context.Context, admin *auth.AdminSession, id string) (*model.BigGift, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	return s.getByID(ctx, id)
}

// Create validates and saves a new big gift with an empty ledger.
func (s *BigGiftService) Create(ctx context.Context, admin *auth.AdminSession, in BigGiftInput) (*model.BigGift, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	if err := validateBigGiftFields(in.Name, in.Description, in.ImagePath, in.TargetAmount, in.Currency, in.PurchaseLinks); err != nil {
		return nil, err
	}

	bigGift := &model.BigGift{
		Name:          strings.TrimSpace(in.Name),
		Description:   strings.TrimSpace(in.Description),
		ImagePath:     strings.TrimSpace(in.ImagePath),
		TargetAmount:  model.RoundAmount(in.TargetAmount),
		Currency:      in.Currency,
		PurchaseLinks: in.PurchaseLinks,
	}

	if err := s.repo.Create(ctx, bigGift); err != nil {
		return nil, mapRepoErr(s.logger, "creating big gift", err)
	}

	s.logger.Info("big gift created",
		slog.String("id", bigGift.ID),
		slog.String("name", bigGift.Name),
		slog.String("admin", admin.UserID),
	)

	return bigGift, nil
}

// Update applies a partial edit to a big gift's descriptive fields and
// target. The accumulated total is ledger-derived and not editable.
func (s *BigGiftService) Update(ctx context.Context, admin *auth.AdminSession, id string, in BigGiftUpdate) (*model.BigGift, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}

	bigGift, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		bigGift.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		bigGift.Description = strings.TrimSpace(*in.Description)
	}
	if in.ImagePath != nil {
		bigGift.ImagePath = strings.TrimSpace(*in.ImagePath)
	}
	if in.TargetAmount != nil {
		bigGift.TargetAmount = model.RoundAmount(*in.TargetAmount)
	}
	if in.Currency != nil {
		bigGift.Currency = *in.Currency
	}
	if in.PurchaseLinks != nil {
		bigGift.PurchaseLinks = in.PurchaseLinks
	}

	if err := validateBigGiftFields(bigGift.Name, bigGift.Description, bigGift.ImagePath, bigGift.TargetAmount, bigGift.Currency, bigGift.PurchaseLinks); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, bigGift); err != nil {
		return nil, mapRepoErr(s.logger, "updating big gift", err)
	}

	s.logger.Info("big gift updated",
		slog.String("id", bigGift.ID),
		slog.String("admin", admin.UserID),
	)

	return bigGift, nil
}

// Delete removes a big gift. The repository refuses when contributions
// exist, so money records are never silently discarded.
func (s *BigGiftService) Delete(ctx context.Context, admin *auth.AdminSession, id string) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "big gift ID is required")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoErr(s.logger, "deleting big gift", err)
	}

	s.logger.Info("big gift deleted",
		slog.String("id", id),
		slog.String("admin", admin.UserID),
	)
	return nil
}

// =========================================================================
// HELPERS
// =========================================================================

func (s *BigGiftService) getByID(ctx context.Context, id string) (*model.BigGift, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "big gift ID is required")
	}

	bigGift, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(s.logger, "getting big gift", err)
	}
	return bigGift, nil
}

// normalizeOptional trims an optional field and collapses empty strings to
// nil, so the database stores NULL rather than "".
func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func validateBigGiftFields(name, description, imagePath string, target float64, currency model.Currency, links []model.PurchaseLink) error {
	if strings.TrimSpace(name) == "" {
		return apperror.ValidationFailed("name", "big gift name is required")
	}
	if len(name) > MaxGiftNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("big gift name must be %d characters or less", MaxGiftNameLength))
	}
	if strings.TrimSpace(description) == "" {
		return apperror.ValidationFailed("description", "big gift description is required")
	}
	if strings.TrimSpace(imagePath) == "" {
		return apperror.ValidationFailed("imagePath", "big gift image is required")
	}
	if target <= 0 {
		return apperror.ValidationFailed("targetAmount", "target amount must be greater than zero")
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
