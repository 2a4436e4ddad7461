// Package workshop_api is the REST surface consumed by the staff SPA and the
// public status pages.
package workshop_api

import (
	"net/http"

	"github.com/BearBump/WorkshopBox/internal/services/activity"
	"github.com/BearBump/WorkshopBox/internal/services/analytics"
	"github.com/BearBump/WorkshopBox/internal/services/callbacks"
	"github.com/BearBump/WorkshopBox/internal/services/customers"
	"github.com/BearBump/WorkshopBox/internal/services/jobs"
	"github.com/BearBump/WorkshopBox/internal/services/lookup"
	"github.com/BearBump/WorkshopBox/internal/services/orders"
	"github.com/BearBump/WorkshopBox/internal/services/staff"
	"github.com/BearBump/WorkshopBox/internal/services/tasks"
	"github.com/go-chi/chi/v5"
)

type Services struct {
	Jobs      *jobs.Service
	Tasks     *tasks.Service
	Callbacks *callbacks.Service
	Customers *customers.Service
	Staff     *staff.Service
	Orders    *orders.Service
	Analytics *analytics.Service
	Lookup    *lookup.Service
	Activity  *activity.Recorder
}

type WorkshopAPI struct {
	svc Services
}

func New(svc Services) *WorkshopAPI {
	return &WorkshopAPI{svc: svc}
}

// Routes mounts the staff API. lookupLimit wraps the public lookup routes.
func (a *WorkshopAPI) Routes(lookupLimit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Route("/customers", func(r chi.Router) {
		r.Post("/", a.createCustomer)
		r.Get("/", a.listCustomers)
		r.Get("/{id}", a.getCustomer)
		r.Put("/{id}", a.updateCustomer)
		r.Get("/{id}/equipment", a.listCustomerEquipment)
	})
	r.Route("/equipment-types", func(r chi.Router) {
		r.Post("/", a.createEquipmentType)
		r.Get("/", a.listEquipmentTypes)
	})
	r.Route("/equipment", func(r chi.Router) {
		r.Post("/", a.createEquipment)
		r.Get("/", a.listEquipment)
		r.Get("/{id}", a.getEquipment)
	})
	r.Route("/staff", func(r chi.Router) {
		r.Post("/", a.createStaff)
		r.Get("/", a.listStaff)
		r.Get("/{id}", a.getStaff)
		r.Put("/{id}/notification-preference", a.setNotificationPreference)
	})

	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", a.createJob)
		r.Get("/", a.listJobs)
		r.Get("/{id}", a.getJob)
		r.Patch("/{id}", a.updateJob)
		r.Post("/{id}/status", a.transitionJob)
		r.Get("/{id}/updates", a.listJobUpdates)
		r.Post("/{id}/updates", a.addJobUpdate)
		r.Get("/{id}/services", a.listServices)
		r.Post("/{id}/services", a.addService)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", a.createTask)
		r.Get("/", a.listTasks)
		r.Get("/{id}", a.getTask)
		r.Patch("/{id}", a.updateTask)
		r.Delete("/{id}", a.deleteTask)
		r.Post("/{id}/status", a.setTaskStatus)
	})

	r.Route("/callbacks", func(r chi.Router) {
		r.Post("/", a.createCallback)
		r.Get("/", a.listCallbacks)
		r.Get("/{id}", a.getCallback)
		r.Delete("/{id}", a.softDeleteCallback)
		r.Post("/{id}/complete", a.completeCallback)
		r.Post("/{id}/restore", a.restoreCallback)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", a.createOrder)
		r.Get("/", a.listOrders)
		r.Get("/{id}", a.getOrder)
		r.Post("/{id}/status", a.setOrderStatus)
	})

	r.Get("/activities", a.listActivities)
	r.Get("/analytics/summary", a.summary)
	r.Get("/analytics/callbacks", a.callbackSummary)

	r.Group(func(r chi.Router) {
		if lookupLimit != nil {
			r.Use(lookupLimit)
		}
		r.Post("/lookup/job", a.lookupJob)
		r.Post("/lookup/order", a.lookupOrder)
	})

	return r
}
