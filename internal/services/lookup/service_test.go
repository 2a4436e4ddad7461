package lookup

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/BearBump/WorkshopBox/internal/storage/memstore"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*memstore.Store, *models.Job) {
	t.Helper()
	ctx := context.Background()
	st := memstore.New()
	c, err := st.CreateCustomer(ctx, &models.Customer{Name: "Jane Doe", Email: "Jane@Example.com"})
	require.NoError(t, err)
	job, err := st.CreateJob(ctx, &models.Job{JobID: "JOB-20240101-AAAAAA", CustomerID: c.ID, Status: models.JobStatusInProgress, CreatedAt: time.Now()})
	require.NoError(t, err)
	_, err = st.AddJobUpdate(ctx, &models.JobUpdate{JobID: job.ID, Note: "Parts on the way", IsPublic: true})
	require.NoError(t, err)
	_, err = st.AddJobUpdate(ctx, &models.JobUpdate{JobID: job.ID, Note: "customer was rude", IsPublic: false})
	require.NoError(t, err)

	_, err = st.CreateOrder(ctx, &models.Order{OrderNumber: "ORD-1", CustomerID: &c.ID, CustomerName: "Jane Doe", Status: models.OrderStatusOrdered, Supplier: "Parts Ltd"})
	require.NoError(t, err)
	return st, job
}

func TestLookupJob(t *testing.T) {
	st, _ := seed(t)
	svc := New(st)
	ctx := context.Background()

	out, err := svc.LookupJob(ctx, " JOB-20240101-AAAAAA ", "  jane@example.COM")
	require.NoError(t, err)
	require.Equal(t, models.JobStatusInProgress, out.Status)
	require.Len(t, out.Updates, 1)
	require.Equal(t, "Parts on the way", out.Updates[0].Note)

	_, err = svc.LookupJob(ctx, "JOB-20240101-AAAAAA", "someone@else.com")
	require.True(t, apperr.IsNotFound(err))

	_, err = svc.LookupJob(ctx, "JOB-NOPE", "jane@example.com")
	require.True(t, apperr.IsNotFound(err))

	_, err = svc.LookupJob(ctx, "", "")
	require.True(t, apperr.IsValidation(err))
}

func TestLookupOrder_FallsBackToCustomerEmail(t *testing.T) {
	st, _ := seed(t)
	svc := New(st)

	out, err := svc.LookupOrder(context.Background(), "ORD-1", "jane@example.com")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusOrdered, out.Status)
	require.Equal(t, "Parts Ltd", out.Supplier)

	_, err = svc.LookupOrder(context.Background(), "ORD-1", "other@example.com")
	require.True(t, apperr.IsNotFound(err))
}

func TestLookupOrder_NoEmailAnywhere(t *testing.T) {
	st := memstore.New()
	_, err := st.CreateOrder(context.Background(), &models.Order{OrderNumber: "ORD-2", CustomerName: "Walk-in", Status: models.OrderStatusArrived})
	require.NoError(t, err)

	_, err = New(st).LookupOrder(context.Background(), "ORD-2", "x@example.com")
	require.True(t, apperr.IsNotFound(err))
}
