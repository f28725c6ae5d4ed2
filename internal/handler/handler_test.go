package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"contapos/internal/model"
	"contapos/internal/service"
	"contapos/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: name is required", service.ErrValidation), http.StatusBadRequest},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrInactiveUser, http.StatusForbidden},
		{service.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("sale %w", service.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: sku exists", service.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: 2 units", service.ErrInsufficientStock), http.StatusUnprocessableEntity},
		{service.ErrUnbalancedEntry, http.StatusUnprocessableEntity},
		{service.ErrPeriodClosed, http.StatusUnprocessableEntity},
		{service.ErrInvalidState, http.StatusUnprocessableEntity},
		{service.ErrDianNotReady, http.StatusUnprocessableEntity},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}

type fakePurchaseService struct {
	service.PurchaseService
	cancelErr  error
	lastReason string
}

func (f *fakePurchaseService) CancelPurchase(ctx context.Context, actorID, id, reason string) (*model.Purchase, error) {
	f.lastReason = reason
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	p := &model.Purchase{PurchaseNumber: "COM-000007", Status: model.PurchaseStatusCancelled}
	p.ID = uuid.MustParse(id)
	return p, nil
}

func (f *fakePurchaseService) ListPurchases(ctx context.Context, page, limit int, params service.PurchaseListParams) ([]model.Purchase, int64, error) {
	return []model.Purchase{{PurchaseNumber: "COM-000001"}}, 41, nil
}

func newPurchaseRouter(svc service.PurchaseService) *gin.Engine {
	h := NewPurchaseHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("userID", "7d0c4a38-0d0e-4b64-9c55-0a3b2f7a9c01") })
	r.GET("/purchases", h.ListPurchases)
	r.POST("/purchases/:id/cancel", h.CancelPurchase)
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var res response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestPurchaseHandler_Cancel(t *testing.T) {
	id := uuid.NewString()

	t.Run("ok", func(t *testing.T) {
		svc := &fakePurchaseService{}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/purchases/"+id+"/cancel", strings.NewReader(`{"reason":"mercancía averiada"}`))
		req.Header.Set("Content-Type", "application/json")
		newPurchaseRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		res := decode(t, w)
		assert.Equal(t, "success", res.Status)
		assert.Equal(t, "mercancía averiada", svc.lastReason)
	})

	t.Run("missing reason", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/purchases/"+id+"/cancel", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		newPurchaseRouter(&fakePurchaseService{}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "error", decode(t, w).Status)
	})

	t.Run("domain rule", func(t *testing.T) {
		svc := &fakePurchaseService{cancelErr: fmt.Errorf("%w: TORN-10 has 1 units, 4 requested", service.ErrInsufficientStock)}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/purchases/"+id+"/cancel", strings.NewReader(`{"reason":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		newPurchaseRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, decode(t, w).Error, "TORN-10")
	})

	t.Run("internal error is hidden", func(t *testing.T) {
		svc := &fakePurchaseService{cancelErr: errors.New("pq: relation purchases does not exist")}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/purchases/"+id+"/cancel", strings.NewReader(`{"reason":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		newPurchaseRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		res := decode(t, w)
		assert.Equal(t, "Internal server error", res.Error)
		assert.NotContains(t, w.Body.String(), "pq:")
	})
}

func TestPurchaseHandler_ListIsPaged(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/purchases?page=2&limit=20", nil)
	newPurchaseRouter(&fakePurchaseService{}).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			Items      []model.Purchase `json:"items"`
			Pagination struct {
				Page       int   `json:"page"`
				Total      int64 `json:"total"`
				TotalPages int   `json:"total_pages"`
			} `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data.Items, 1)
	assert.Equal(t, 2, body.Data.Pagination.Page)
	assert.Equal(t, int64(41), body.Data.Pagination.Total)
	assert.Equal(t, 3, body.Data.Pagination.TotalPages)
}
