package handler

import (
	"net/http"

	"github.com/sakif/gift-registry/internal/apperror"
	"github.com/sakif/gift-registry/internal/auth"
	"github.com/sakif/gift-registry/internal/model"
	"github.com/sakif/gift-registry/internal/repository"
	"github.com/sakif/gift-registry/internal/service"
)

// GiftHandler serves the gift endpoints, public and admin.
type GiftHandler struct {
	gifts *service.GiftService
}

// NewGiftHandler creates a GiftHandler.
func NewGiftHandler(gifts *service.GiftService) *GiftHandler {
	return &GiftHandler{gifts: gifts}
}

// statusFilterFromQuery parses the optional ?status= query parameter.
func statusFilterFromQuery(r *http.Request) (repository.StatusFilter, error) {
	switch v := r.URL.Query().Get("status"); v {
	case "":
		return repository.FilterNone, nil
	case "available":
		return repository.FilterAvailable, nil
	case "taken":
		return repository.FilterTaken, nil
	default:
		return repository.FilterNone, apperror.ValidationFailed("status",
			"status must be \"available\" or \"taken\"")
	}
}

// =========================================================================
// PUBLIC ENDPOINTS
// =========================================================================

// HandleList returns gifts with the privacy projection applied.
//
// HTTP: GET /api/gifts[?status=available|taken]
func (h *GiftHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := statusFilterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	gifts, err := h.gifts.ListPublic(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gifts)
}

// HandleGet returns one projected gift.
//
// HTTP: GET /api/gifts/{id}
func (h *GiftHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	gift, err := h.gifts.GetPublic(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gift)
}

type reserveRequest struct {
	Name             string `json:"name"`
	HideReserverName bool   `json:"hideReserverName"`
}

// HandleReserve claims an available gift for a visitor.
//
// HTTP: POST /api/gifts/{id}/reserve
// BODY: {"name": "Alice", "hideReserverName": false}
//
// An already-taken gift answers 409.
func (h *GiftHandler) HandleReserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	gift, err := h.gifts.Reserve(r.Context(), r.PathValue("id"), req.Name, req.HideReserverName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gift)
}

type unreserveRequest struct {
	Name string `json:"name"`
}

// HandleUnreserveSelf releases a reservation when the caller supplies the
// name it was made under.
//
// HTTP: POST /api/gifts/{id}/unreserve
// BODY: {"name": "Alice"}
func (h *GiftHandler) HandleUnreserveSelf(w http.ResponseWriter, r *http.Request) {
	var req unreserveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	gift, err := h.gifts.UnreserveSelf(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gift)
}

// =========================================================================
// ADMIN ENDPOINTS
// =========================================================================

type giftRequest struct {
	Name             string               `json:"name"`
	Description      string               `json:"description"`
	ImagePath        string               `json:"imagePath"`
	ApproximatePrice float64              `json:"approximatePrice"`
	Currency         model.Currency       `json:"currency"`
	PurchaseLinks    []model.PurchaseLink `json:"purchaseLinks"`
}

type giftUpdateRequest struct {
	Name             *string              `json:"name"`
	Description      *string              `json:"description"`
	ImagePath        *string              `json:"imagePath"`
	ApproximatePrice *float64             `json:"approximatePrice"`
	Currency         *model.Currency      `json:"currency"`
	PurchaseLinks    []model.PurchaseLink `json:"purchaseLinks"`
}

// HandleAdminList returns unprojected gifts.
//
// HTTP: GET /api/admin/gifts[?status=...]
func (h *GiftHandler) HandleAdminList(w http.ResponseWriter, r *http.Request) {
	filter, err := statusFilterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	admin, _ := auth.AdminFromContext(r.Context())
	gifts, err := h.gifts.ListAdmin(r.Context(), admin, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gifts)
}

// HandleAdminGet returns one unprojected gift.
//
// HTTP: GET /api/admin/gifts/{id}
func (h *GiftHandler) HandleAdminGet(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.AdminFromContext(r.Context())
	gift, err := h.gifts.GetAdmin(r.Context(), admin, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gift)
}

// HandleCreate adds a gift to the registry.
//
// HTTP: POST /api/admin/gifts
func (h *GiftHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req giftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	admin, _ := auth.AdminFromContext(r.Context())
	gift, err := h.gifts.Create(r.Context(), admin, service.GiftInput{
		Name:             req.Name,
		Description:      req.Description,
		ImagePath:        req.ImagePath,
		ApproximatePrice: req.ApproximatePrice,
		Currency:         req.Currency,
		PurchaseLinks:    req.PurchaseLinks,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, gift)
}

// HandleUpdate applies a partial edit. Absent fields keep their value;
// reservation state isn't editable through this endpoint at all.
//
// HTTP: PUT /api/admin/gifts/{id}
func (h *GiftHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req giftUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	admin, _ := auth.AdminFromContext(r.Context())
	gift, err := h.gifts.Update(r.Context(), admin, r.PathValue("id"), service.GiftUpdate{
		Name:             req.Name,
		Description:      req.Description,
		ImagePath:        req.ImagePath,
		ApproximatePrice: req.ApproximatePrice,
		Currency:         req.Currency,
		PurchaseLinks:    req.PurchaseLinks,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gift)
}

// HandleAdminUnreserve force-releases a reservation.
//
// HTTP: POST /api/admin/gifts/{id}/unreserve
func (h *GiftHandler) HandleAdminUnreserve(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.AdminFromContext(r.Context())
	gift, err := h.gifts.Unreserve(r.Context(), admin, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gift)
}

// HandleDelete removes a gift.
//
// HTTP: DELETE /api/admin/gifts/{id}
func (h *GiftHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.AdminFromContext(r.Context())
	if err := h.gifts.Delete(r.Context(), admin, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
