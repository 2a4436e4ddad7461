package apperr

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestKinds_SurviveWrapping(t *testing.T) {
	err := errors.Wrap(NotFound("job", int64(5)), "get job")
	require.True(t, IsNotFound(err))
	require.False(t, IsValidation(err))
	require.Contains(t, err.Error(), "job 5 not found")

	err = errors.Wrap(InvalidState("callback", int64(1), "callback is %s", "completed"), "restore")
	require.True(t, IsInvalidState(err))
	require.Contains(t, err.Error(), "callback is completed")

	_, ok := KindOf(errors.New("boom"))
	require.False(t, ok)
}

func TestFields(t *testing.T) {
	f := Fields{}
	require.NoError(t, f.Err())

	f.Require("customerName", "  ")
	f.Require("subject", "ok")
	f.Add("priority", "must be one of low, medium, high, urgent")

	err := f.Err()
	require.True(t, IsValidation(err))
	require.Equal(t, "validation failed: customerName: is required; priority: must be one of low, medium, high, urgent", err.Error())

	var e *Error
	require.ErrorAs(t, err, &e)
	require.Len(t, e.Fields, 2)
}
