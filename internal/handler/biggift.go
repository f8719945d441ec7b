package handler

import (
	"net/http"

	"github.com/sakif/gift-registry/internal/auth"
	"github.com/sakif/gift-registry/internal/model"
	"github.com/sakif/gift-registry/internal/service"
)

// BigGiftHandler serves the big-gift endpoints, public and admin.
type BigGiftHandler struct {
	bigGifts *service.BigGiftService
}

// NewBigGiftHandler creates a BigGiftHandler.
func NewBigGiftHandler(bigGifts *service.BigGiftService) *BigGiftHandler {
	return &BigGiftHandler{bigGifts: bigGifts}
}

// =========================================================================
// PUBLIC ENDPOINTS
// =========================================================================

// HandleList returns big gifts with the privacy projection applied:
// anonymous contributors read "Anonymous", emails and messages are absent.
//
// HTTP: GET /api/big-gifts
func (h *BigGiftHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	bigGifts, err := h.bigGifts.ListPublic(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bigGifts)
}

// HandleGet returns one projected big gift.
//
// HTTP: GET /api/big-gifts/{id}
func (h *BigGiftHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	bigGift, err := h.bigGifts.GetPublic(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bigGift)
}

type contributionRequest struct {
	Name                string  `json:"name"`
	Amount              float64 `json:"amount"`
	Email               *string `json:"email"`
	Message             *string `json:"message"`
	HideContributorName bool    `json:"hideContributorName"`
}

// HandleAddContribution records a contribution toward a big gift and
// returns the big gift with its updated total.
//
// HTTP: POST /api/big-gifts/{id}/contributions
// BODY: {"name": "Carol", "amount": 50, "email": "...", "message": "...", "hideContributorName": false}
func (h *BigGiftHandler) HandleAddContribution(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	bigGift, err := h.bigGifts.AddContribution(r.Context(), r.PathValue("id"), service.ContributionInput{
		Name:                req.Name,
		Amount:              req.Amount,
		Email:               req.Email,
		Message:             req.Message,
		HideContributorName: req.HideContributorName,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bigGift)
}

// =========================================================================
// ADMIN ENDPOINTS
// =========================================================================

type bigGiftRequest struct {
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	ImagePath     string               `json:"imagePath"`
	TargetAmount  float64              `json:"targetAmount"`
	Currency      model.Currency       `json:"currency"`
	PurchaseLinks []model.PurchaseLink `json:"purchaseLinks"`
}

type bigGiftUpdateRequest struct {
	Name          *string              `json:"name"`
	Description   *string              `json:"description"`
	ImagePath     *string              `json:"imagePath"`
	TargetAmount  *float64             `json:"targetAmount"`
	Currency      *model.Currency      `json:"currency"`
	PurchaseLinks []model.PurchaseLink `json:"purchaseLinks"`
}

// HandleAdminList returns unprojected big gifts, contributor details
// included.
//
// HTTP: GET /api/admin/big-gifts
func (h *BigGiftHandler) HandleAdminList(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.AdminFromContext(r.Context())
	bigGifts, err := h.bigGifts.ListAdmin(r.Context(), admin)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bigGifts)
}

// HandleAdminGet returns one unprojected big gift.
//
// HTTP: GET /api/admin/big-gifts/{id}
func (h *BigGiftHandler) HandleAdminGet(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.AdminFromContext(r.Context())
	bigGift, err := h.bigGifts.GetAdmin(r.Context(), admin, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bigGift)
}

// HandleCreate adds a big gift with an empty ledger.
//
// HTTP: POST /api/admin/big-gifts
func (h *BigGiftHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req bigGiftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	admin, _ := auth.AdminFromContext(r.Context())
	bigGift, err := h.bigGifts.Create(r.Context(), admin, service.BigGiftInput{
		Name:          req.Name,
		Description:   req.Description,
		ImagePath:     req.ImagePath,
		TargetAmount:  req.TargetAmount,
		Currency:      req.Currency,
		PurchaseLinks: req.PurchaseLinks,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bigGift)
}

// HandleUpdate applies a partial edit. The accumulated amount has no field
// in the request body: it only moves through contributions.
//
// HTTP: PUT /api/admin/big-gifts/{id}
func (h *BigGiftHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req bigGiftUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	admin, _ := auth.AdminFromContext(r.Context())
	bigGift, err := h.bigGifts.Update(r.Context(), admin, r.PathValue("id"), service.BigGiftUpdate{
		Name:          req.Name,
		Description:   req.Description,
		ImagePath:     req.ImagePath,
		TargetAmount:  req.TargetAmount,
		Currency:      req.Currency,
		PurchaseLinks: req.PurchaseLinks,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bigGift)
}

// HandleDelete removes a big gift. One with contributions answers 409 —
// money records are never silently discarded.
//
// HTTP: DELETE /api/admin/big-gifts/{id}
func (h *BigGiftHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.AdminFromContext(r.Context())
	if err := h.bigGifts.Delete(r.Context(), admin, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
