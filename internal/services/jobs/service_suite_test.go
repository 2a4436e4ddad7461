package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/clock"
	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/BearBump/WorkshopBox/internal/services/activity"
	"github.com/BearBump/WorkshopBox/internal/services/effects"
	"github.com/BearBump/WorkshopBox/internal/storage/memstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const systemUser int64 = 1

type ServiceSuite struct {
	suite.Suite

	store *memstore.Store
	clk   *clock.Fixed
	svc   *Service

	tech     *models.User
	customer *models.Customer
}

func (s *ServiceSuite) SetupTest() {
	ctx := context.Background()
	s.store = memstore.New()
	s.clk = clock.NewFixed(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	fx := effects.New().WithRetry(1, 0)
	s.svc = New(s.store, activity.New(s.store, fx, s.clk), fx, s.clk, systemUser)

	var err error
	_, err = s.store.CreateUser(ctx, &models.User{Username: "system", FullName: "System"})
	s.Require().NoError(err)
	s.tech, err = s.store.CreateUser(ctx, &models.User{Username: "tech", FullName: "Tech One", Email: "tech@example.com"})
	s.Require().NoError(err)
	s.customer, err = s.store.CreateCustomer(ctx, &models.Customer{Name: "Jane Doe", Email: "jane@example.com"})
	s.Require().NoError(err)
}

func (s *ServiceSuite) newJob(assigned *int64) *models.Job {
	job, err := s.svc.CreateJob(context.Background(), models.JobCreateInput{
		CustomerID:  s.customer.ID,
		AssignedTo:  assigned,
		Description: "Leaking pump",
	}, nil)
	s.Require().NoError(err)
	return job
}

func (s *ServiceSuite) activities() []*models.Activity {
	out, err := s.store.ListActivities(context.Background(), 0)
	s.Require().NoError(err)
	return out
}

func (s *ServiceSuite) TestCreateJob_DefaultsAndActivity() {
	job := s.newJob(&s.tech.ID)

	s.Require().Equal(models.JobStatusWaitingAssessment, job.Status)
	s.Require().Regexp(`^JOB-20240304-[0-9A-F]{6}$`, job.JobID)
	s.Require().Nil(job.CompletedAt)

	acts := s.activities()
	s.Require().Len(acts, 1)
	s.Require().Equal(models.ActivityJobCreated, acts[0].ActivityType)
	s.Require().Equal(s.tech.ID, acts[0].UserID)
}

func (s *ServiceSuite) TestCreateJob_Validation() {
	_, err := s.svc.CreateJob(context.Background(), models.JobCreateInput{}, nil)
	s.Require().True(apperr.IsValidation(err))

	var ae *apperr.Error
	s.Require().True(errors.As(err, &ae))
	s.Require().Contains(ae.Fields, "customerId")
	s.Require().Contains(ae.Fields, "description")
}

func (s *ServiceSuite) TestTransitionJob_CompletedStampsAndClears() {
	job := s.newJob(nil)

	done, err := s.svc.TransitionJob(context.Background(), job.ID, models.JobStatusCompleted, nil, nil)
	s.Require().NoError(err)
	s.Require().NotNil(done.CompletedAt)
	s.Require().Equal(s.clk.Now(), *done.CompletedAt)

	s.clk.Advance(time.Hour)
	reopened, err := s.svc.TransitionJob(context.Background(), job.ID, models.JobStatusInProgress, nil, nil)
	s.Require().NoError(err)
	s.Require().Nil(reopened.CompletedAt)
	s.Require().Equal(models.JobStatusInProgress, reopened.Status)
}

func (s *ServiceSuite) TestTransitionJob_SameStatusIsNoop() {
	job := s.newJob(nil)
	done, err := s.svc.TransitionJob(context.Background(), job.ID, models.JobStatusCompleted, nil, nil)
	s.Require().NoError(err)
	stamped := *done.CompletedAt

	s.clk.Advance(48 * time.Hour)
	again, err := s.svc.TransitionJob(context.Background(), job.ID, models.JobStatusCompleted, nil, nil)
	s.Require().NoError(err)
	s.Require().Equal(stamped, *again.CompletedAt)

	// created + completed only
	s.Require().Len(s.activities(), 2)
}

func (s *ServiceSuite) TestTransitionJob_ActivityPerStatus() {
	job := s.newJob(nil)
	ctx := context.Background()

	for _, st := range []models.JobStatus{
		models.JobStatusInProgress,
		models.JobStatusPartsOrdered,
		models.JobStatusReadyForPickup,
		models.JobStatusCompleted,
		models.JobStatusCancelled,
	} {
		_, err := s.svc.TransitionJob(ctx, job.ID, st, &s.tech.ID, nil)
		s.Require().NoError(err)
	}

	var types []models.ActivityType
	for _, a := range s.activities() {
		types = append(types, a.ActivityType)
	}
	s.Require().Equal([]models.ActivityType{
		models.ActivityJobCompleted,
		models.ActivityJobReceived,
		models.ActivityJobStarted,
		models.ActivityJobCreated,
	}, types)
}

func (s *ServiceSuite) TestTransitionJob_ActorFallsBackToSystemUser() {
	job := s.newJob(nil)
	_, err := s.svc.TransitionJob(context.Background(), job.ID, models.JobStatusInProgress, nil, nil)
	s.Require().NoError(err)
	s.Require().Equal(systemUser, s.activities()[0].UserID)
}

func (s *ServiceSuite) TestTransitionJob_InvalidStatusAndMissingJob() {
	job := s.newJob(nil)

	_, err := s.svc.TransitionJob(context.Background(), job.ID, models.JobStatus("on_fire"), nil, nil)
	s.Require().True(apperr.IsValidation(err))

	got, err := s.svc.GetJob(context.Background(), job.ID)
	s.Require().NoError(err)
	s.Require().Equal(models.JobStatusWaitingAssessment, got.Status)

	_, err = s.svc.TransitionJob(context.Background(), 999, models.JobStatusCompleted, nil, nil)
	s.Require().True(apperr.IsNotFound(err))
}

func (s *ServiceSuite) TestTransitionJob_NoteWritten() {
	job := s.newJob(nil)
	_, err := s.svc.TransitionJob(context.Background(), job.ID, models.JobStatusReadyForPickup, nil, &Note{Text: "Ready to collect", Public: true})
	s.Require().NoError(err)

	ups, err := s.svc.ListJobUpdates(context.Background(), job.ID, true)
	s.Require().NoError(err)
	s.Require().Len(ups, 1)
	s.Require().Equal("Ready to collect", ups[0].Note)
}

func (s *ServiceSuite) TestTransitionJob_SideEffectFailuresDoNotFail() {
	job := s.newJob(nil)
	s.store.FailActivities = errors.New("activity log down")
	s.store.FailJobUpdates = errors.New("notes down")

	out, err := s.svc.TransitionJob(context.Background(), job.ID, models.JobStatusCompleted, nil, &Note{Text: "done"})
	s.Require().NoError(err)
	s.Require().Equal(models.JobStatusCompleted, out.Status)

	got, err := s.svc.GetJob(context.Background(), job.ID)
	s.Require().NoError(err)
	s.Require().Equal(models.JobStatusCompleted, got.Status)
}

func (s *ServiceSuite) TestUpdateJobAndServices() {
	job := s.newJob(nil)
	ctx := context.Background()

	hours := 2.5
	notified := true
	upd, err := s.svc.UpdateJob(ctx, job.ID, models.JobPatch{AssignedTo: &s.tech.ID, ActualHours: &hours, CustomerNotified: &notified})
	s.Require().NoError(err)
	s.Require().Equal(s.tech.ID, *upd.AssignedTo)
	s.Require().True(upd.CustomerNotified)

	negative := -1.0
	_, err = s.svc.UpdateJob(ctx, job.ID, models.JobPatch{ActualHours: &negative})
	s.Require().True(apperr.IsValidation(err))

	_, err = s.svc.UpdateJob(ctx, job.ID, models.JobPatch{ClearAssignee: true, AssignedTo: &s.tech.ID})
	s.Require().True(apperr.IsValidation(err))

	upd, err = s.svc.UpdateJob(ctx, job.ID, models.JobPatch{ClearAssignee: true})
	s.Require().NoError(err)
	s.Require().Nil(upd.AssignedTo)
	s.Require().Equal(hours, *upd.ActualHours)

	sv, err := s.svc.AddService(ctx, job.ID, ServiceInput{Name: "Labour", Price: decimal.RequireFromString("45.00")})
	s.Require().NoError(err)
	s.Require().NotZero(sv.ID)

	list, err := s.svc.ListServices(ctx, job.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)

	_, err = s.svc.AddService(ctx, 999, ServiceInput{Name: "Labour"})
	s.Require().True(apperr.IsNotFound(err))
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}
