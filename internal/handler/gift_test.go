package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/gift-registry/internal/auth"
	"github.com/sakif/gift-registry/internal/handler"
	"github.com/sakif/gift-registry/internal/model"
	"github.com/sakif/gift-registry/internal/repository/sqlite"
	"github.com/sakif/gift-registry/internal/service"
)

func testAdminSession() *auth.AdminSession {
	return &auth.AdminSession{UserID: auth.AdminUserID, Role: auth.RoleAdmin}
}

// adminRequest clones a request with an admin session in its context, the
// way the RequireAdmin middleware would on a protected route.
func adminRequest(r *http.Request) *http.Request {
	return r.WithContext(auth.ContextWithAdmin(r.Context(), testAdminSession()))
}

// newGiftHandler wires a GiftHandler over a real in-memory database, so the
// tests exercise the full handler → service → repository path.
func newGiftHandler(t *testing.T) (*handler.GiftHandler, *service.GiftService) {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := service.NewGiftService(db.Gifts, logger)
	return handler.NewGiftHandler(svc), svc
}

func seedGift(t *testing.T, svc *service.GiftService) *model.Gift {
	t.Helper()
	gift, err := svc.Create(context.Background(), testAdminSession(), service.GiftInput{
		Name:             "Stand mixer",
		Description:      "For all the bread",
		ImagePath:        "/images/mixer.jpg",
		ApproximatePrice: 399.00,
		Currency:         model.EUR,
	})
	if err != nil {
		t.Fatalf("seeding gift: %v", err)
	}
	return gift
}

func TestGiftHandler_Reserve(t *testing.T) {
	h, svc := newGiftHandler(t)
	gift := seedGift(t, svc)

	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/gifts/"+gift.ID+"/reserve",
			bytes.NewBufferString(`{"name":"Alice","hideReserverName":false}`))
		req.SetPathValue("id", gift.ID)
		rr := httptest.NewRecorder()

		h.HandleReserve(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var res model.PublicGift
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.True(t, res.IsTaken)
		if assert.NotNil(t, res.TakenBy) {
			assert.Equal(t, "Alice", *res.TakenBy)
		}
	})

	t.Run("already taken answers 409", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/gifts/"+gift.ID+"/reserve",
			bytes.NewBufferString(`{"name":"Bob"}`))
		req.SetPathValue("id", gift.ID)
		rr := httptest.NewRecorder()

		h.HandleReserve(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)

		var res handler.ErrorResponse
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "conflict", res.Error)
	})

	t.Run("blank name answers 400", func(t *testing.T) {
		fresh := seedGift(t, svc)
		req := httptest.NewRequest(http.MethodPost, "/api/gifts/"+fresh.ID+"/reserve",
			bytes.NewBufferString(`{"name":"   "}`))
		req.SetPathValue("id", fresh.ID)
		rr := httptest.NewRecorder()

		h.HandleReserve(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("malformed body answers 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/gifts/x/reserve",
			bytes.NewBufferString(`{"name":`))
		req.SetPathValue("id", "x")
		rr := httptest.NewRecorder()

		h.HandleReserve(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown gift answers 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/gifts/nope/reserve",
			bytes.NewBufferString(`{"name":"Alice"}`))
		req.SetPathValue("id", "nope")
		rr := httptest.NewRecorder()

		h.HandleReserve(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestGiftHandler_List(t *testing.T) {
	h, svc := newGiftHandler(t)
	gift := seedGift(t, svc)

	if _, err := svc.Reserve(context.Background(), gift.ID, "Hidden Friend", true); err != nil {
		t.Fatalf("seeding reservation: %v", err)
	}

	t.Run("public list hides anonymous reserver", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/gifts", nil)
		rr := httptest.NewRecorder()

		h.HandleList(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.NotContains(t, body, "Hidden Friend")
		assert.NotContains(t, body, "hideReserverName")
		assert.Contains(t, body, `"isAnonymous":true`)
	})

	t.Run("admin list shows the reserver", func(t *testing.T) {
		req := adminRequest(httptest.NewRequest(http.MethodGet, "/api/admin/gifts", nil))
		rr := httptest.NewRecorder()

		h.HandleAdminList(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Hidden Friend")
	})

	t.Run("bad status filter answers 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/gifts?status=wishful", nil)
		rr := httptest.NewRecorder()

		h.HandleList(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGiftHandler_AdminCreate(t *testing.T) {
	h, _ := newGiftHandler(t)

	t.Run("creates with 201", func(t *testing.T) {
		body := `{"name":"Record player","description":"Belt drive","imagePath":"/images/tt.jpg","approximatePrice":310.555,"currency":"USD"}`
		req := adminRequest(httptest.NewRequest(http.MethodPost, "/api/admin/gifts", bytes.NewBufferString(body)))
		rr := httptest.NewRecorder()

		h.HandleCreate(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var res model.Gift
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.NotEmpty(t, res.ID)
		assert.Equal(t, 310.56, res.ApproximatePrice)
	})

	t.Run("without a session answers 401", func(t *testing.T) {
		body := `{"name":"x","description":"y","imagePath":"/z.jpg","approximatePrice":1,"currency":"EUR"}`
		req := httptest.NewRequest(http.MethodPost, "/api/admin/gifts", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()

		h.HandleCreate(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("invalid currency answers 400", func(t *testing.T) {
		body := `{"name":"x","description":"y","imagePath":"/z.jpg","approximatePrice":1,"currency":"BTC"}`
		req := adminRequest(httptest.NewRequest(http.MethodPost, "/api/admin/gifts", bytes.NewBufferString(body)))
		rr := httptest.NewRecorder()

		h.HandleCreate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGiftHandler_AdminUpdateAndDelete(t *testing.T) {
	h, svc := newGiftHandler(t)
	gift := seedGift(t, svc)

	t.Run("partial update keeps other fields", func(t *testing.T) {
		req := adminRequest(httptest.NewRequest(http.MethodPut, "/api/admin/gifts/"+gift.ID,
			bytes.NewBufferString(`{"name":"Bigger stand mixer"}`)))
		req.SetPathValue("id", gift.ID)
		rr := httptest.NewRecorder()

		h.HandleUpdate(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var res model.Gift
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "Bigger stand mixer", res.Name)
		assert.Equal(t, gift.Description, res.Description)
	})

	t.Run("delete answers 204 then 404", func(t *testing.T) {
		req := adminRequest(httptest.NewRequest(http.MethodDelete, "/api/admin/gifts/"+gift.ID, nil))
		req.SetPathValue("id", gift.ID)
		rr := httptest.NewRecorder()

		h.HandleDelete(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)

		getReq := httptest.NewRequest(http.MethodGet, "/api/gifts/"+gift.ID, nil)
		getReq.SetPathValue("id", gift.ID)
		getRR := httptest.NewRecorder()

		h.HandleGet(getRR, getReq)
		assert.Equal(t, http.StatusNotFound, getRR.Code)
	})
}

func TestGiftHandler_UnreserveSelf(t *testing.T) {
	h, svc := newGiftHandler(t)
	gift := seedGift(t, svc)
	if _, err := svc.Reserve(context.Background(), gift.ID, "Alice", false); err != nil {
		t.Fatalf("seeding reservation: %v", err)
	}

	t.Run("wrong name answers 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/gifts/"+gift.ID+"/unreserve",
			bytes.NewBufferString(`{"name":"Mallory"}`))
		req.SetPathValue("id", gift.ID)
		rr := httptest.NewRecorder()

		h.HandleUnreserveSelf(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("matching name releases", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/gifts/"+gift.ID+"/unreserve",
			bytes.NewBufferString(`{"name":"Alice"}`))
		req.SetPathValue("id", gift.ID)
		rr := httptest.NewRecorder()

		h.HandleUnreserveSelf(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, strings.Contains(rr.Body.String(), `"isTaken":false`))
	})
}
