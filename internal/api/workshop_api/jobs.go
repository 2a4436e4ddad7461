package workshop_api

import (
	"net/http"
	"strconv"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/BearBump/WorkshopBox/internal/services/jobs"
	"github.com/shopspring/decimal"
)

type createJobRequest struct {
	CustomerID     int64    `json:"customerId"`
	EquipmentID    *int64   `json:"equipmentId"`
	AssignedTo     *int64   `json:"assignedTo"`
	Description    string   `json:"description"`
	EstimatedHours *float64 `json:"estimatedHours"`
}

func (a *WorkshopAPI) createJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	job, err := a.svc.Jobs.CreateJob(r.Context(), models.JobCreateInput{
		CustomerID:     req.CustomerID,
		EquipmentID:    req.EquipmentID,
		AssignedTo:     req.AssignedTo,
		Description:    req.Description,
		EstimatedHours: req.EstimatedHours,
	}, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (a *WorkshopAPI) listJobs(w http.ResponseWriter, r *http.Request) {
	var f models.JobFilter
	var err error
	if f.CustomerID, err = queryInt64(r, "customerId"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.AssignedTo, err = queryInt64(r, "assignedTo"); err != nil {
		writeError(w, r, err)
		return
	}
	if s := queryString(r, "status"); s != nil {
		st := models.JobStatus(*s)
		f.Status = &st
	}
	out, err := a.svc.Jobs.ListJobs(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *WorkshopAPI) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	job, err := a.svc.Jobs.GetJob(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type updateJobRequest struct {
	AssignedTo       *int64   `json:"assignedTo"`
	ClearAssignee    bool     `json:"clearAssignee"`
	Description      *string  `json:"description"`
	EstimatedHours   *float64 `json:"estimatedHours"`
	ActualHours      *float64 `json:"actualHours"`
	CustomerNotified *bool    `json:"customerNotified"`
}

func (a *WorkshopAPI) updateJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateJobRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	job, err := a.svc.Jobs.UpdateJob(r.Context(), id, models.JobPatch{
		AssignedTo:       req.AssignedTo,
		ClearAssignee:    req.ClearAssignee,
		Description:      req.Description,
		EstimatedHours:   req.EstimatedHours,
		ActualHours:      req.ActualHours,
		CustomerNotified: req.CustomerNotified,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type transitionJobRequest struct {
	Status     models.JobStatus `json:"status"`
	Note       string           `json:"note"`
	NotePublic bool             `json:"notePublic"`
}

func (a *WorkshopAPI) transitionJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req transitionJobRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var note *jobs.Note
	if req.Note != "" {
		note = &jobs.Note{Text: req.Note, Public: req.NotePublic}
	}
	job, err := a.svc.Jobs.TransitionJob(r.Context(), id, req.Status, actor(r), note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type jobUpdateRequest struct {
	Note     string `json:"note"`
	IsPublic bool   `json:"isPublic"`
}

func (a *WorkshopAPI) addJobUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req jobUpdateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	upd, err := a.svc.Jobs.AddJobUpdate(r.Context(), id, jobs.Note{Text: req.Note, Public: req.IsPublic}, actor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, upd)
}

func (a *WorkshopAPI) listJobUpdates(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	publicOnly := false
	if raw := r.URL.Query().Get("public"); raw != "" {
		if publicOnly, err = strconv.ParseBool(raw); err != nil {
			writeError(w, r, apperr.Validation(map[string]string{"public": "must be a boolean"}))
			return
		}
	}
	out, err := a.svc.Jobs.ListJobUpdates(r.Context(), id, publicOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type serviceRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Hours       *float64        `json:"hours"`
	Price       decimal.Decimal `json:"price"`
}

func (a *WorkshopAPI) addService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req serviceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sv, err := a.svc.Jobs.AddService(r.Context(), id, jobs.ServiceInput{
		Name:        req.Name,
		Description: req.Description,
		Hours:       req.Hours,
		Price:       req.Price,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sv)
}

func (a *WorkshopAPI) listServices(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := a.svc.Jobs.ListServices(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
