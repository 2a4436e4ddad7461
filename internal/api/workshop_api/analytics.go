package workshop_api

import (
	"net/http"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/services/analytics"
)

func (a *WorkshopAPI) summary(w http.ResponseWriter, r *http.Request) {
	out, err := a.svc.Analytics.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *WorkshopAPI) callbackSummary(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from")
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if from != nil && to != nil && to.Before(*from) {
		writeError(w, r, apperr.Validation(map[string]string{"to": "must not be before from"}))
		return
	}
	out, err := a.svc.Analytics.CallbackSummary(r.Context(), analytics.DateRange{From: from, To: to})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
