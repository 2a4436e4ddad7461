package workshop_api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/broker/messages"
	"github.com/BearBump/WorkshopBox/internal/clock"
	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/BearBump/WorkshopBox/internal/services/activity"
	"github.com/BearBump/WorkshopBox/internal/services/analytics"
	"github.com/BearBump/WorkshopBox/internal/services/callbacks"
	"github.com/BearBump/WorkshopBox/internal/services/customers"
	"github.com/BearBump/WorkshopBox/internal/services/effects"
	"github.com/BearBump/WorkshopBox/internal/services/jobs"
	"github.com/BearBump/WorkshopBox/internal/services/lookup"
	"github.com/BearBump/WorkshopBox/internal/services/orders"
	"github.com/BearBump/WorkshopBox/internal/services/staff"
	"github.com/BearBump/WorkshopBox/internal/services/tasks"
	"github.com/BearBump/WorkshopBox/internal/storage/memstore"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type nopNotifier struct{}

func (nopNotifier) NotifyAssignment(ctx context.Context, msg messages.TaskAssigned) error { return nil }

type testAPI struct {
	h     http.Handler
	store *memstore.Store
	clk   *clock.Fixed
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memstore.New()
	clk := clock.NewFixed(time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	fx := effects.New().WithRetry(1, 0)
	rec := activity.New(store, fx, clk)

	_, err := store.CreateUser(context.Background(), &models.User{Username: "system", FullName: "System"})
	require.NoError(t, err)

	taskSvc := tasks.New(store, store, nopNotifier{}, rec, fx, clk, 1)
	api := New(Services{
		Jobs:      jobs.New(store, rec, fx, clk, 1),
		Tasks:     taskSvc,
		Callbacks: callbacks.New(store, rec, taskSvc, clk, 1),
		Customers: customers.New(store, clk),
		Staff:     staff.New(store),
		Orders:    orders.New(store, clk),
		Analytics: analytics.New(store, clk),
		Lookup:    lookup.New(store),
		Activity:  rec,
	})
	return &testAPI{h: api.Routes(nil), store: store, clk: clk}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestWorkshopAPI_JobFlow(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/customers", map[string]any{"name": "Jane Doe", "email": "jane@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	customer := decodeBody[models.Customer](t, rec)

	rec = api.do(t, http.MethodPost, "/jobs", map[string]any{"customerId": customer.ID, "description": "Mower will not start"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	job := decodeBody[models.Job](t, rec)
	require.Equal(t, models.JobStatusWaitingAssessment, job.Status)

	rec = api.do(t, http.MethodPatch, "/jobs/"+itoa(job.ID), map[string]any{"assignedTo": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, decodeBody[models.Job](t, rec).AssignedTo)
	rec = api.do(t, http.MethodPatch, "/jobs/"+itoa(job.ID), map[string]any{"clearAssignee": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Nil(t, decodeBody[models.Job](t, rec).AssignedTo)

	rec = api.do(t, http.MethodPost, "/jobs/"+itoa(job.ID)+"/status", map[string]any{
		"status": "completed", "note": "Ready for collection", "notePublic": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decodeBody[models.Job](t, rec)
	require.Equal(t, models.JobStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	rec = api.do(t, http.MethodGet, "/jobs/"+itoa(job.ID)+"/updates?public=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody[[]models.JobUpdate](t, rec), 1)

	rec = api.do(t, http.MethodPost, "/lookup/job", map[string]any{"jobId": job.JobID, "email": " JANE@example.com "})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	status := decodeBody[lookup.JobStatus](t, rec)
	require.Equal(t, models.JobStatusCompleted, status.Status)
	require.Len(t, status.Updates, 1)

	rec = api.do(t, http.MethodPost, "/lookup/job", map[string]any{"jobId": job.JobID, "email": "someone@example.com"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWorkshopAPI_ErrorMapping(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/jobs/999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", decodeBody[errorBody](t, rec).Code)

	rec = api.do(t, http.MethodPost, "/jobs", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[errorBody](t, rec)
	require.Equal(t, "validation", body.Code)
	require.Contains(t, body.Fields, "customerId")
	require.Contains(t, body.Fields, "description")

	rec = api.do(t, http.MethodPost, "/jobs", `{"customerId": 1, "colour": "red"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/tasks", `{"title":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/tasks/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeBody[errorBody](t, rec).Fields, "id")

	rec = api.do(t, http.MethodGet, "/activities?limit=0", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/analytics/callbacks?from=2024-06-10&to=2024-06-01", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkshopAPI_CallbackFlow(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/callbacks", map[string]any{
		"customerName": "Sam Smith", "phoneNumber": "0123 456", "subject": "Quote for service",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cb := decodeBody[models.CallbackRequest](t, rec)
	require.NotNil(t, cb.RelatedTaskID)

	rec = api.do(t, http.MethodGet, "/tasks/"+itoa(*cb.RelatedTaskID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Customer Callback Request: Quote for service", decodeBody[models.Task](t, rec).Title)

	rec = api.do(t, http.MethodPost, "/callbacks/"+itoa(cb.ID)+"/complete", map[string]any{"notes": "Left a voicemail"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decodeBody[models.CallbackRequest](t, rec)
	require.Equal(t, models.CallbackStatusCompleted, done.Status)

	rec = api.do(t, http.MethodGet, "/tasks/"+itoa(*cb.RelatedTaskID), nil)
	require.Equal(t, models.TaskStatusCompleted, decodeBody[models.Task](t, rec).Status)

	// a completed callback cannot be soft-deleted
	rec = api.do(t, http.MethodDelete, "/callbacks/"+itoa(cb.ID), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "invalid_state", decodeBody[errorBody](t, rec).Code)

	rec = api.do(t, http.MethodPost, "/callbacks", map[string]any{
		"customerName": "Ann Lee", "phoneNumber": "0999", "subject": "Chainsaw",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	other := decodeBody[models.CallbackRequest](t, rec)

	rec = api.do(t, http.MethodDelete, "/callbacks/"+itoa(other.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.CallbackStatusDeleted, decodeBody[models.CallbackRequest](t, rec).Status)

	rec = api.do(t, http.MethodPost, "/callbacks/"+itoa(other.ID)+"/restore", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, models.CallbackStatusPending, decodeBody[models.CallbackRequest](t, rec).Status)

	rec = api.do(t, http.MethodGet, "/callbacks?status=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody[[]models.CallbackRequest](t, rec), 1)

	rec = api.do(t, http.MethodGet, "/analytics/callbacks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody[analytics.CallbackSummary](t, rec)
	require.Equal(t, 2, summary.Total)
	require.Equal(t, 1, summary.Completed)
}

func TestWorkshopAPI_CompleteCallbackWithoutBody(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/callbacks", map[string]any{
		"customerName": "Sam Smith", "phoneNumber": "0123 456", "subject": "Quote for service",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cb := decodeBody[models.CallbackRequest](t, rec)

	// chunked request with nothing in it: length is unknown (-1), not zero
	req := httptest.NewRequest(http.MethodPost, "/callbacks/"+itoa(cb.ID)+"/complete", io.MultiReader())
	require.EqualValues(t, -1, req.ContentLength)
	rec = httptest.NewRecorder()
	api.h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, models.CallbackStatusCompleted, decodeBody[models.CallbackRequest](t, rec).Status)

	rec = api.do(t, http.MethodGet, "/activities", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var types []models.ActivityType
	for _, a := range decodeBody[[]models.Activity](t, rec) {
		types = append(types, a.ActivityType)
	}
	require.Contains(t, types, models.ActivityTaskCompleted)
	require.Contains(t, types, models.ActivityCallbackCompleted)

	rec = api.do(t, http.MethodPost, "/callbacks", map[string]any{
		"customerName": "Ann Lee", "phoneNumber": "0999", "subject": "Chainsaw",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	other := decodeBody[models.CallbackRequest](t, rec)

	req = httptest.NewRequest(http.MethodPost, "/callbacks/"+itoa(other.ID)+"/complete", io.MultiReader(strings.NewReader(`{"notes":`)))
	rec = httptest.NewRecorder()
	api.h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkshopAPI_OrdersAndStaff(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/orders", map[string]any{
		"customerName":  "Jane Doe",
		"customerEmail": "jane@example.com",
		"supplier":      "Parts Direct",
		"estimatedCost": "40.00",
		"items": []map[string]any{
			{"name": "Spark plug", "quantity": 2, "priceExVat": "10.00", "priceIncVat": "12.00"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID           int64    `json:"id"`
		OrderNumber  string   `json:"orderNumber"`
		DisplayTotal string   `json:"displayTotal"`
		PriceLabels  []string `json:"priceLabels"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.True(t, decimal.RequireFromString(created.DisplayTotal).Equal(decimal.NewFromInt(40)), created.DisplayTotal)
	require.Equal(t, []string{"10.00 ex VAT / 12.00 inc VAT"}, created.PriceLabels)

	rec = api.do(t, http.MethodPost, "/orders/"+itoa(created.ID)+"/status", map[string]any{"status": "arrived", "actualCost": "38.50"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/lookup/order", map[string]any{"orderNumber": created.OrderNumber, "email": "jane@example.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, models.OrderStatusArrived, decodeBody[lookup.OrderStatus](t, rec).Status)

	rec = api.do(t, http.MethodPost, "/staff", map[string]any{"username": "alice", "fullName": "Alice", "email": "alice@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	alice := decodeBody[models.User](t, rec)

	rec = api.do(t, http.MethodPost, "/staff", map[string]any{"username": "alice", "fullName": "Alice Again"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPut, "/staff/"+itoa(alice.ID)+"/notification-preference", `{"enabled": false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.False(t, decodeBody[models.User](t, rec).WantsAssignmentNotifications())
}

func TestMapError_PgCodes(t *testing.T) {
	cases := []struct {
		code   string
		status int
	}{
		{"23505", http.StatusConflict},
		{"23503", http.StatusBadRequest},
		{"23514", http.StatusBadRequest},
		{"22P02", http.StatusBadRequest},
		{"40001", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, body := mapError(errors.Wrap(&pgconn.PgError{Code: tc.code, Message: "secret detail"}, "insert"))
		require.Equal(t, tc.status, status, tc.code)
		require.NotContains(t, body.Message, "secret detail")
	}

	status, body := mapError(errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "internal", body.Code)

	status, _ = mapError(errors.Wrap(apperr.NotFound(models.EntityTask, 7), "get task"))
	require.Equal(t, http.StatusNotFound, status)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
