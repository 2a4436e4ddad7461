package httpmail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BearBump/WorkshopBox/internal/integrations/mailer"
	"github.com/stretchr/testify/require"
)

func TestClient_SendAssignment_OK(t *testing.T) {
	var got reqBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	due := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	c := New(srv.URL, "k", "workshop@example.com")
	err := c.SendAssignment(context.Background(), mailer.AssignmentEmail{
		To: "sam@example.com", FullName: "Sam Lee", TaskID: 12, Title: "Call back", DueDate: &due,
	})
	require.NoError(t, err)
	require.Equal(t, "sam@example.com", got.To)
	require.Equal(t, "task_assigned", got.Template)
	require.Equal(t, "12", got.Vars["taskId"])
	require.Equal(t, "2024-03-02", got.Vars["dueDate"])
}

func TestClient_SendAssignment_429(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(429)
	}))
	defer srv.Close()

	c := New(srv.URL, "", "")
	err := c.SendAssignment(context.Background(), mailer.AssignmentEmail{To: "a@b.c"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
	require.False(t, mailer.IsRejected(err))
}

func TestClient_SendAssignment_Rejected(t *testing.T) {
	for _, code := range []int{http.StatusBadRequest, http.StatusUnprocessableEntity} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))

		err := New(srv.URL, "", "").SendAssignment(context.Background(), mailer.AssignmentEmail{To: "not-an-address"})
		srv.Close()
		require.Error(t, err)
		require.True(t, mailer.IsRejected(err), "status %d", code)
	}
}

func TestClient_SendAssignment_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(srv.URL, "", "").SendAssignment(context.Background(), mailer.AssignmentEmail{To: "a@b.c"})
	require.Error(t, err)
	require.False(t, mailer.IsRejected(err))
}

func TestClient_SendAssignment_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	err := New(srv.URL, "", "").SendAssignment(context.Background(), mailer.AssignmentEmail{To: "a@b.c"})
	require.Error(t, err)
	require.False(t, mailer.IsRejected(err))
}
