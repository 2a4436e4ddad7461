package pgworkshop

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startStorage(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "workshop_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/workshop_test?sslmode=disable"
	st, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func TestPGWorkshop_RepoFlow(t *testing.T) {
	ctx := context.Background()
	st := startStorage(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	staff, err := st.CreateUser(ctx, &models.User{Username: "mike", FullName: "Mike Fixer", Email: "mike@example.com", Role: "staff"})
	require.NoError(t, err)

	cust, err := st.CreateCustomer(ctx, &models.Customer{Name: "Jane Doe", Email: "jane@example.com", CreatedAt: now})
	require.NoError(t, err)

	// повторный запуск схемы не должен падать
	require.NoError(t, st.initSchema(ctx))

	job, err := st.CreateJob(ctx, &models.Job{
		JobID:      "JOB-20240101-ABCDEF",
		CustomerID: cust.ID,
		AssignedTo: &staff.ID,
		Status:     models.JobStatusWaitingAssessment,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)

	// конкурентная запись: ожидаемый статус уже не тот
	_, err = st.SetJobStatus(ctx, job.ID, models.JobStatusInProgress, models.JobStatusCompleted, &now, now)
	require.True(t, apperr.IsInvalidState(err))

	done, err := st.SetJobStatus(ctx, job.ID, models.JobStatusWaitingAssessment, models.JobStatusCompleted, &now, now)
	require.NoError(t, err)
	require.Equal(t, models.JobStatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	_, err = st.AddJobUpdate(ctx, &models.JobUpdate{JobID: job.ID, Note: "ready", IsPublic: true, CreatedAt: now})
	require.NoError(t, err)
	_, err = st.AddJobUpdate(ctx, &models.JobUpdate{JobID: job.ID, Note: "internal", CreatedAt: now})
	require.NoError(t, err)
	public, err := st.ListJobUpdates(ctx, job.ID, true)
	require.NoError(t, err)
	require.Len(t, public, 1)

	hours := 1.5
	kept, err := st.UpdateJob(ctx, job.ID, models.JobPatch{ActualHours: &hours}, now)
	require.NoError(t, err)
	require.Equal(t, staff.ID, *kept.AssignedTo)
	unassigned, err := st.UpdateJob(ctx, job.ID, models.JobPatch{ClearAssignee: true}, now)
	require.NoError(t, err)
	require.Nil(t, unassigned.AssignedTo)
	require.Equal(t, hours, *unassigned.ActualHours)

	byRef, err := st.GetJobByRef(ctx, "JOB-20240101-ABCDEF")
	require.NoError(t, err)
	require.Equal(t, job.ID, byRef.ID)

	_, err = st.GetJob(ctx, 999999)
	require.True(t, apperr.IsNotFound(err))
}

func TestPGWorkshop_CallbackFlow(t *testing.T) {
	ctx := context.Background()
	st := startStorage(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	cb, task, err := st.CreateCallbackWithTask(ctx, &models.CallbackRequest{
		CustomerName: "Jane Doe",
		PhoneNumber:  "555-0100",
		Subject:      "Boiler",
		Priority:     models.PriorityHigh,
		Status:       models.CallbackStatusPending,
		RequestedAt:  now,
	}, &models.Task{
		Title:     "Customer Callback Request: Boiler",
		Priority:  models.PriorityHigh,
		Status:    models.TaskStatusPending,
		CreatedAt: now,
	})
	require.NoError(t, err)
	require.NotNil(t, cb.RelatedTaskID)
	require.Equal(t, task.ID, *cb.RelatedTaskID)
	require.Equal(t, models.EntityCallback, *task.RelatedEntityType)
	require.Equal(t, cb.ID, *task.RelatedEntityID)

	notes := "called back"
	res, err := st.CompleteCallback(ctx, models.CallbackCompletion{
		ID:          cb.ID,
		Notes:       &notes,
		CompletedAt: now,
		FollowUp:    &models.Task{Title: "Follow-up: Boiler", Priority: models.PriorityHigh, Status: models.TaskStatusPending, CreatedAt: now},
	})
	require.NoError(t, err)
	require.Equal(t, models.CallbackStatusCompleted, res.Callback.Status)
	require.Equal(t, notes, *res.Callback.Notes)
	require.NotNil(t, res.FollowUp)
	require.NotNil(t, res.CompletedTask)
	require.Equal(t, task.ID, res.CompletedTask.ID)
	require.Equal(t, models.TaskStatusCompleted, res.CompletedTask.Status)

	gotTask, err := st.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusCompleted, gotTask.Status)

	_, err = st.CompleteCallback(ctx, models.CallbackCompletion{ID: cb.ID, CompletedAt: now})
	require.True(t, apperr.IsInvalidState(err))

	// soft delete -> restore -> delete -> purge
	second, _, err := st.CreateCallbackWithTask(ctx, &models.CallbackRequest{
		CustomerName: "John", PhoneNumber: "1", Subject: "x",
		Priority: models.PriorityLow, Status: models.CallbackStatusPending, RequestedAt: now,
	}, &models.Task{Title: "t", Priority: models.PriorityLow, Status: models.TaskStatusPending, CreatedAt: now})
	require.NoError(t, err)

	deleted, err := st.SoftDeleteCallback(ctx, second.ID, now, now.Add(models.DeleteGracePeriod))
	require.NoError(t, err)
	require.Equal(t, models.CallbackStatusDeleted, deleted.Status)

	restored, err := st.RestoreCallback(ctx, second.ID)
	require.NoError(t, err)
	require.Nil(t, restored.DeletedAt)
	require.Nil(t, restored.DeleteExpiresAt)

	_, err = st.SoftDeleteCallback(ctx, second.ID, now, now.Add(models.DeleteGracePeriod))
	require.NoError(t, err)

	n, err := st.PurgeExpiredCallbacks(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = st.PurgeExpiredCallbacks(ctx, now.Add(25*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = st.RestoreCallback(ctx, second.ID)
	require.True(t, apperr.IsNotFound(err))
}

func TestPGWorkshop_OrderDecimals(t *testing.T) {
	ctx := context.Background()
	st := startStorage(t)
	now := time.Now().UTC()

	est := decimal.RequireFromString("120.50")
	unit := decimal.RequireFromString("19.99")
	total := decimal.RequireFromString("39.98")
	o, err := st.CreateOrder(ctx, &models.Order{
		OrderNumber:   "ORD-20240101-000001",
		CustomerName:  "Jane Doe",
		Supplier:      "Parts Ltd",
		Status:        models.OrderStatusNotOrdered,
		EstimatedCost: &est,
		CreatedAt:     now,
		UpdatedAt:     now,
		Items:         []models.OrderItem{{Name: "Pump", Quantity: 2, UnitPrice: &unit, TotalPrice: &total}},
	})
	require.NoError(t, err)
	require.Len(t, o.Items, 1)

	actual := decimal.RequireFromString("131.00")
	got, err := st.SetOrderStatus(ctx, o.ID, models.OrderStatusArrived, &actual, now)
	require.NoError(t, err)
	require.True(t, actual.Equal(*got.ActualCost))
	require.True(t, est.Equal(*got.EstimatedCost))
	require.True(t, total.Equal(*got.Items[0].TotalPrice))

	byNumber, err := st.GetOrderByNumber(ctx, "ORD-20240101-000001")
	require.NoError(t, err)
	require.Equal(t, o.ID, byNumber.ID)
}
