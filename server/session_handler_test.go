package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/minjispace/web-pet/game"
	"github.com/minjispace/web-pet/pkg/providers"
)

func newTestRouter(t *testing.T, svc *SessionService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewSessionHandler(svc, zerolog.Nop())
	r := gin.New()
	r.POST("/api/pet/stats", h.ChangeStat)
	r.POST("/api/shop/purchase", h.Purchase)
	return r
}

func loggedInService(t *testing.T) (*SessionService, *fakeStore) {
	t.Helper()
	identity := &fakeIdentity{session: &providers.Session{UserID: "u1", DisplayName: "mimi"}}
	store := newFakeStore()
	svc := newTestService(identity, store)
	t.Cleanup(svc.Close)
	if err := svc.Login(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc, store
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChangeStatAcceptsZeroPoints(t *testing.T) {
	svc, _ := loggedInService(t)
	r := newTestRouter(t, svc)

	w := postJSON(t, r, "/api/pet/stats", `{"stat":"happy","points":0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for zero points, got %d: %s", w.Code, w.Body.String())
	}
	if svc.Profile().UserInfo.Happy != 0 {
		t.Errorf("expected happy unchanged, got %d", svc.Profile().UserInfo.Happy)
	}
}

func TestChangeStatRejectsNegativePointsOverHTTP(t *testing.T) {
	svc, _ := loggedInService(t)
	r := newTestRouter(t, svc)

	w := postJSON(t, r, "/api/pet/stats", `{"stat":"happy","points":-20}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative points, got %d: %s", w.Code, w.Body.String())
	}
	if svc.Profile().UserInfo.Happy != 0 {
		t.Errorf("expected happy unchanged, got %d", svc.Profile().UserInfo.Happy)
	}
}

func TestPurchaseFreeItemOverHTTP(t *testing.T) {
	svc, store := loggedInService(t)
	r := newTestRouter(t, svc)

	w := postJSON(t, r, "/api/shop/purchase", `{"item_id":"acc-promo","price":0,"slot":"acc"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for free item, got %d: %s", w.Code, w.Body.String())
	}

	var resp SuccessResponse[PurchaseResponse]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Data.Accepted {
		t.Error("expected free purchase accepted")
	}
	if !svc.Profile().UserInfo.Money.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected money untouched at 100, got %s", svc.Profile().UserInfo.Money)
	}
	if items := store.stored("u1").BoughtItem[game.SlotAcc]; len(items) != 1 || items[0] != "acc-promo" {
		t.Errorf("expected acc inventory persisted, got %v", items)
	}
}
