package workshop_api

import "net/http"

type jobLookupRequest struct {
	JobID string `json:"jobId"`
	Email string `json:"email"`
}

type orderLookupRequest struct {
	OrderNumber string `json:"orderNumber"`
	Email       string `json:"email"`
}

func (a *WorkshopAPI) lookupJob(w http.ResponseWriter, r *http.Request) {
	var req jobLookupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := a.svc.Lookup.LookupJob(r.Context(), req.JobID, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *WorkshopAPI) lookupOrder(w http.ResponseWriter, r *http.Request) {
	var req orderLookupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := a.svc.Lookup.LookupOrder(r.Context(), req.OrderNumber, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
