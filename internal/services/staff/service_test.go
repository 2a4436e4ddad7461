package staff

import (
	"context"
	"testing"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/BearBump/WorkshopBox/internal/storage/memstore"
	"github.com/stretchr/testify/require"
)

func TestStaff_CreateAndPreference(t *testing.T) {
	ctx := context.Background()
	svc := New(memstore.New())

	u, err := svc.CreateUser(ctx, models.User{Username: "sam", FullName: "Sam", Email: "sam@example.com"})
	require.NoError(t, err)
	require.Equal(t, "staff", u.Role)
	require.True(t, u.WantsAssignmentNotifications())

	_, err = svc.CreateUser(ctx, models.User{Username: "sam", FullName: "Other Sam"})
	require.True(t, apperr.IsInvalidState(err))

	_, err = svc.CreateUser(ctx, models.User{})
	require.True(t, apperr.IsValidation(err))

	off := false
	u, err = svc.SetNotifyOnAssignment(ctx, u.ID, &off)
	require.NoError(t, err)
	require.False(t, u.WantsAssignmentNotifications())

	u, err = svc.SetNotifyOnAssignment(ctx, u.ID, nil)
	require.NoError(t, err)
	require.True(t, u.WantsAssignmentNotifications())

	_, err = svc.SetNotifyOnAssignment(ctx, 404, nil)
	require.True(t, apperr.IsNotFound(err))
}
