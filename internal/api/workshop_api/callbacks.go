package workshop_api

import (
	"net/http"
	"time"

	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/BearBump/WorkshopBox/internal/services/callbacks"
)

type createCallbackRequest struct {
	CustomerName string              `json:"customerName"`
	PhoneNumber  string              `json:"phoneNumber"`
	Subject      string              `json:"subject"`
	Details      string              `json:"details"`
	Priority     models.TaskPriority `json:"priority"`
	AssignedTo   *int64              `json:"assignedTo"`
}

func (a *WorkshopAPI) createCallback(w http.ResponseWriter, r *http.Request) {
	var req createCallbackRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cb, err := a.svc.Callbacks.CreateCallback(r.Context(), models.CallbackCreateInput(req), actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cb)
}

func (a *WorkshopAPI) listCallbacks(w http.ResponseWriter, r *http.Request) {
	var f models.CallbackFilter
	var err error
	if f.AssignedTo, err = queryInt64(r, "assignedTo"); err != nil {
		writeError(w, r, err)
		return
	}
	if s := queryString(r, "status"); s != nil {
		st := models.CallbackStatus(*s)
		f.Status = &st
	}
	out, err := a.svc.Callbacks.ListCallbacks(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *WorkshopAPI) getCallback(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cb, err := a.svc.Callbacks.GetCallback(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cb)
}

type completeCallbackRequest struct {
	Notes    *string `json:"notes"`
	FollowUp *struct {
		Title   string     `json:"title"`
		DueDate *time.Time `json:"dueDate"`
	} `json:"followUp"`
}

func (a *WorkshopAPI) completeCallback(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req completeCallbackRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := callbacks.CompleteInput{Notes: req.Notes}
	if req.FollowUp != nil {
		in.FollowUp = &callbacks.FollowUp{Title: req.FollowUp.Title, DueDate: req.FollowUp.DueDate}
	}
	cb, err := a.svc.Callbacks.CompleteCallback(r.Context(), id, in, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cb)
}

func (a *WorkshopAPI) softDeleteCallback(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cb, err := a.svc.Callbacks.SoftDelete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cb)
}

func (a *WorkshopAPI) restoreCallback(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cb, err := a.svc.Callbacks.Restore(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cb)
}
