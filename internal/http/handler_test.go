package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/tender-awards/internal/award"
	"github.com/nurpe/tender-awards/internal/http/middleware"
	"github.com/nurpe/tender-awards/internal/model"
)

func newTestRouter(principal *model.Principal) (*gin.Engine, *Handler) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, zerolog.Nop())
	router := gin.New()
	auth := func(c *gin.Context) {
		if principal != nil {
			middleware.SetPrincipal(c, *principal)
		}
		c.Next()
	}
	h.Register(router, auth)
	return router, h
}

func TestMissingPrincipalIsUnauthorized(t *testing.T) {
	router, _ := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/tenders/"+uuid.NewString()+"/award", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestInvalidTenderID(t *testing.T) {
	principal := model.Principal{UserID: uuid.New(), OrgID: uuid.New(), Role: "BUYER"}
	router, _ := newTestRouter(&principal)

	req := httptest.NewRequest(http.MethodGet, "/tenders/not-a-uuid/award", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid tender id") {
		t.Fatalf("expected invalid tender id error, got %s", rec.Body.String())
	}
}

func TestInitializeAwardRejectsBadBody(t *testing.T) {
	principal := model.Principal{UserID: uuid.New(), OrgID: uuid.New(), Role: "BUYER"}
	router, _ := newTestRouter(&principal)

	tests := []struct {
		name string
		body string
	}{
		{"missing lineItems", `{}`},
		{"malformed json", `{"lineItems": [`},
		{"non-uuid line item", `{"lineItems": ["nope"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost,
				"/tenders/"+uuid.NewString()+"/award/init", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestDistributeRejectsBadSupplierID(t *testing.T) {
	principal := model.Principal{UserID: uuid.New(), OrgID: uuid.New(), Role: "BUYER"}
	router, _ := newTestRouter(&principal)

	body := `{"distribution": [{"supplierId": "nope", "quantity": 10}]}`
	url := "/tenders/" + uuid.NewString() + "/award/line-items/" + uuid.NewString() + "/distribute"
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleErrorMapping(t *testing.T) {
	_, h := newTestRouter(nil)

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", fmt.Errorf("%w: bad distribution", award.ErrValidation), http.StatusBadRequest},
		{"invalid state", fmt.Errorf("%w: tender is DRAFT", award.ErrInvalidState), http.StatusConflict},
		{"conflict", fmt.Errorf("%w: already awarded", award.ErrConflict), http.StatusConflict},
		{"not found", fmt.Errorf("%w: tender", award.ErrNotFound), http.StatusNotFound},
		{"permission denied", award.ErrPermissionDenied, http.StatusForbidden},
		{"data integrity", fmt.Errorf("%w: missing price", award.ErrDataIntegrity), http.StatusInternalServerError},
		{"unknown", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			h.handleError(c, tt.err)
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
		})
	}

	t.Run("unknown errors are not leaked", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		h.handleError(c, fmt.Errorf("dsn=postgres://secret"))
		if strings.Contains(rec.Body.String(), "secret") {
			t.Fatalf("internal error details leaked: %s", rec.Body.String())
		}
	})
}
