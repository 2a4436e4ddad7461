package workshop_api

import (
	"net/http"
	"time"

	"github.com/BearBump/WorkshopBox/internal/models"
)

type createTaskRequest struct {
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Priority          models.TaskPriority `json:"priority"`
	Status            models.TaskStatus   `json:"status"`
	AssignedTo        *int64              `json:"assignedTo"`
	DueDate           *time.Time          `json:"dueDate"`
	RelatedEntityType *string             `json:"relatedEntityType"`
	RelatedEntityID   *int64              `json:"relatedEntityId"`
}

func (a *WorkshopAPI) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := a.svc.Tasks.CreateTask(r.Context(), models.TaskCreateInput(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (a *WorkshopAPI) listTasks(w http.ResponseWriter, r *http.Request) {
	var f models.TaskFilter
	var err error
	if f.AssignedTo, err = queryInt64(r, "assignedTo"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.RelatedEntityID, err = queryInt64(r, "relatedEntityId"); err != nil {
		writeError(w, r, err)
		return
	}
	f.RelatedEntityType = queryString(r, "relatedEntityType")
	if s := queryString(r, "status"); s != nil {
		st := models.TaskStatus(*s)
		f.Status = &st
	}
	out, err := a.svc.Tasks.ListTasks(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *WorkshopAPI) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := a.svc.Tasks.GetTask(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type updateTaskRequest struct {
	Title         *string              `json:"title"`
	Description   *string              `json:"description"`
	Priority      *models.TaskPriority `json:"priority"`
	Status        *models.TaskStatus   `json:"status"`
	AssignedTo    *int64               `json:"assignedTo"`
	ClearAssignee bool                 `json:"clearAssignee"`
	DueDate       *time.Time           `json:"dueDate"`
	ClearDueDate  bool                 `json:"clearDueDate"`
}

func (a *WorkshopAPI) updateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateTaskRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := a.svc.Tasks.UpdateTask(r.Context(), id, models.TaskPatch(req))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type taskStatusRequest struct {
	Status models.TaskStatus `json:"status"`
}

func (a *WorkshopAPI) setTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req taskStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := a.svc.Tasks.SetTaskStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *WorkshopAPI) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.svc.Tasks.DeleteTask(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
