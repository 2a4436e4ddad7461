package logmail

import (
	"context"
	"testing"

	"github.com/BearBump/WorkshopBox/internal/integrations/mailer"
	"github.com/stretchr/testify/require"
)

func TestClient_SendAssignment(t *testing.T) {
	c := New()
	require.NoError(t, c.SendAssignment(context.Background(), mailer.AssignmentEmail{To: "a@b.c", TaskID: 1}))
	sent := c.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, int64(1), sent[0].TaskID)
}
