package workshop_api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/shopspring/decimal"
)

type customerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

func (req customerRequest) model() models.Customer {
	return models.Customer{Name: req.Name, Email: req.Email, Phone: req.Phone, Address: req.Address, Notes: req.Notes}
}

func (a *WorkshopAPI) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.svc.Customers.CreateCustomer(r.Context(), req.model())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *WorkshopAPI) listCustomers(w http.ResponseWriter, r *http.Request) {
	out, err := a.svc.Customers.ListCustomers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *WorkshopAPI) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.svc.Customers.GetCustomer(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *WorkshopAPI) updateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req customerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.svc.Customers.UpdateCustomer(r.Context(), id, req.model())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *WorkshopAPI) listCustomerEquipment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := a.svc.Customers.GetCustomer(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := a.svc.Customers.ListEquipment(r.Context(), &id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type equipmentTypeRequest struct {
	Name string `json:"name"`
}

func (a *WorkshopAPI) createEquipmentType(w http.ResponseWriter, r *http.Request) {
	var req equipmentTypeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	et, err := a.svc.Customers.CreateEquipmentType(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, et)
}

func (a *WorkshopAPI) listEquipmentTypes(w http.ResponseWriter, r *http.Request) {
	out, err := a.svc.Customers.ListEquipmentTypes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type equipmentRequest struct {
	CustomerID   int64  `json:"customerId"`
	TypeID       *int64 `json:"typeId"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	SerialNumber string `json:"serialNumber"`
	Notes        string `json:"notes"`
}

func (a *WorkshopAPI) createEquipment(w http.ResponseWriter, r *http.Request) {
	var req equipmentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := a.svc.Customers.CreateEquipment(r.Context(), models.Equipment{
		CustomerID:   req.CustomerID,
		TypeID:       req.TypeID,
		Make:         req.Make,
		Model:        req.Model,
		SerialNumber: req.SerialNumber,
		Notes:        req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (a *WorkshopAPI) listEquipment(w http.ResponseWriter, r *http.Request) {
	customerID, err := queryInt64(r, "customerId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := a.svc.Customers.ListEquipment(r.Context(), customerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *WorkshopAPI) getEquipment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := a.svc.Customers.GetEquipment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type staffRequest struct {
	Username           string `json:"username"`
	FullName           string `json:"fullName"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	NotifyOnAssignment *bool  `json:"notifyOnAssignment"`
}

func (a *WorkshopAPI) createStaff(w http.ResponseWriter, r *http.Request) {
	var req staffRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := a.svc.Staff.CreateUser(r.Context(), models.User{
		Username:           req.Username,
		FullName:           req.FullName,
		Email:              req.Email,
		Role:               req.Role,
		NotifyOnAssignment: req.NotifyOnAssignment,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (a *WorkshopAPI) listStaff(w http.ResponseWriter, r *http.Request) {
	out, err := a.svc.Staff.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *WorkshopAPI) getStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := a.svc.Staff.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// null resets the preference to the default (enabled).
type notificationPreferenceRequest struct {
	Enabled *bool `json:"enabled"`
}

func (a *WorkshopAPI) setNotificationPreference(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req notificationPreferenceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := a.svc.Staff.SetNotifyOnAssignment(r.Context(), id, req.Enabled)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type orderItemRequest struct {
	Name        string           `json:"name"`
	PartNumber  string           `json:"partNumber"`
	Quantity    int              `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"`
	PriceExVAT  *decimal.Decimal `json:"priceExVat"`
	PriceIncVAT *decimal.Decimal `json:"priceIncVat"`
	TotalPrice  *decimal.Decimal `json:"totalPrice"`
}

type createOrderRequest struct {
	CustomerID        *int64             `json:"customerId"`
	CustomerName      string             `json:"customerName"`
	CustomerEmail     string             `json:"customerEmail"`
	CustomerPhone     string             `json:"customerPhone"`
	Supplier          string             `json:"supplier"`
	SupplierReference string             `json:"supplierReference"`
	EstimatedCost     *decimal.Decimal   `json:"estimatedCost"`
	Deposit           *decimal.Decimal   `json:"deposit"`
	NotifyCustomer    bool               `json:"notifyCustomer"`
	NotifyOnArrival   bool               `json:"notifyOnArrival"`
	Notes             string             `json:"notes"`
	Items             []orderItemRequest `json:"items"`
}

// orderView adds the display fields the SPA renders without recomputing.
type orderView struct {
	*models.Order
	DisplayTotal *decimal.Decimal `json:"displayTotal,omitempty"`
	PriceLabels  []string         `json:"priceLabels,omitempty"`
}

func newOrderView(o *models.Order) orderView {
	v := orderView{Order: o, DisplayTotal: o.DisplayTotal()}
	for _, it := range o.Items {
		v.PriceLabels = append(v.PriceLabels, it.PriceLabel())
	}
	return v
}

func (a *WorkshopAPI) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := models.OrderCreateInput{
		CustomerID:        req.CustomerID,
		CustomerName:      req.CustomerName,
		CustomerEmail:     req.CustomerEmail,
		CustomerPhone:     req.CustomerPhone,
		Supplier:          req.Supplier,
		SupplierReference: req.SupplierReference,
		EstimatedCost:     req.EstimatedCost,
		Deposit:           req.Deposit,
		NotifyCustomer:    req.NotifyCustomer,
		NotifyOnArrival:   req.NotifyOnArrival,
		Notes:             req.Notes,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, models.OrderItem{
			Name:        it.Name,
			PartNumber:  it.PartNumber,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			PriceExVAT:  it.PriceExVAT,
			PriceIncVAT: it.PriceIncVAT,
			TotalPrice:  it.TotalPrice,
		})
	}
	o, err := a.svc.Orders.CreateOrder(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newOrderView(o))
}

func (a *WorkshopAPI) listOrders(w http.ResponseWriter, r *http.Request) {
	var f models.OrderFilter
	var err error
	if f.CustomerID, err = queryInt64(r, "customerId"); err != nil {
		writeError(w, r, err)
		return
	}
	if s := queryString(r, "status"); s != nil {
		st := models.OrderStatus(*s)
		f.Status = &st
	}
	out, err := a.svc.Orders.ListOrders(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]orderView, 0, len(out))
	for _, o := range out {
		views = append(views, newOrderView(o))
	}
	writeJSON(w, http.StatusOK, views)
}

func (a *WorkshopAPI) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := a.svc.Orders.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderView(o))
}

type orderStatusRequest struct {
	Status     models.OrderStatus `json:"status"`
	ActualCost *decimal.Decimal   `json:"actualCost"`
}

func (a *WorkshopAPI) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req orderStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := a.svc.Orders.SetOrderStatus(r.Context(), id, req.Status, req.ActualCost)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderView(o))
}

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

func (a *WorkshopAPI) listActivities(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > maxActivityLimit {
			writeError(w, r, apperr.Validation(map[string]string{"limit": "must be between 1 and 500"}))
			return
		}
		limit = v
	}
	out, err := a.svc.Activity.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
