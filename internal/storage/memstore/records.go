package memstore

import (
	"context"
	"sort"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/models"
)

func cloneUser(u *models.User) *models.User {
	c := *u
	c.NotifyOnAssignment = clonePtr(u.NotifyOnAssignment)
	return &c
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.users {
		if x.Username == u.Username {
			return nil, apperr.InvalidState("user", u.Username, "username %q already exists", u.Username)
		}
	}
	c := cloneUser(u)
	c.ID = s.id()
	s.users[c.ID] = c
	return cloneUser(c), nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user", id)
	}
	return cloneUser(u), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SetNotifyOnAssignment(ctx context.Context, id int64, enabled *bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user", id)
	}
	u.NotifyOnAssignment = clonePtr(enabled)
	return cloneUser(u), nil
}

func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	cp.ID = s.id()
	s.customers[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *Store) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, apperr.NotFound("customer", id)
	}
	out := *c
	return &out, nil
}

func (s *Store) FindCustomerByName(ctx context.Context, name string) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *models.Customer
	for _, c := range s.customers {
		if c.Name == name && (found == nil || c.ID < found.ID) {
			found = c
		}
	}
	if found == nil {
		return nil, apperr.NotFound("customer", name)
	}
	out := *found
	return &out, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[c.ID]; !ok {
		return nil, apperr.NotFound("customer", c.ID)
	}
	cp := *c
	s.customers[c.ID] = &cp
	out := cp
	return &out, nil
}

func (s *Store) CreateEquipmentType(ctx context.Context, name string) (*models.EquipmentType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.equipmentTypes {
		if t.Name == name {
			return nil, apperr.InvalidState("equipment type", name, "equipment type %q already exists", name)
		}
	}
	t := &models.EquipmentType{ID: s.id(), Name: name}
	s.equipmentTypes[t.ID] = t
	out := *t
	return &out, nil
}

func (s *Store) ListEquipmentTypes(ctx context.Context) ([]*models.EquipmentType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.EquipmentType, 0, len(s.equipmentTypes))
	for _, t := range s.equipmentTypes {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) equipmentView(e *models.Equipment) *models.Equipment {
	out := *e
	out.TypeID = clonePtr(e.TypeID)
	out.TypeName = ""
	if e.TypeID != nil {
		if t, ok := s.equipmentTypes[*e.TypeID]; ok {
			out.TypeName = t.Name
		}
	}
	return &out
}

func (s *Store) CreateEquipment(ctx context.Context, e *models.Equipment) (*models.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := apperr.Fields{}
	if _, ok := s.customers[e.CustomerID]; !ok {
		f.Add("customerId", "unknown customer")
	}
	if e.TypeID != nil {
		if _, ok := s.equipmentTypes[*e.TypeID]; !ok {
			f.Add("typeId", "unknown equipment type")
		}
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	cp := *e
	cp.TypeID = clonePtr(e.TypeID)
	cp.ID = s.id()
	s.equipment[cp.ID] = &cp
	return s.equipmentView(&cp), nil
}

func (s *Store) GetEquipment(ctx context.Context, id int64) (*models.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.equipment[id]
	if !ok {
		return nil, apperr.NotFound("equipment", id)
	}
	return s.equipmentView(e), nil
}

func (s *Store) ListEquipment(ctx context.Context, customerID *int64) ([]*models.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Equipment, 0, len(s.equipment))
	for _, e := range s.equipment {
		if customerID != nil && e.CustomerID != *customerID {
			continue
		}
		out = append(out, s.equipmentView(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) AddActivity(ctx context.Context, a *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailActivities != nil {
		return s.FailActivities
	}
	cp := *a
	cp.ID = s.id()
	s.activities = append(s.activities, &cp)
	return nil
}

// ListActivities returns the newest entries first.
func (s *Store) ListActivities(ctx context.Context, limit int) ([]*models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.activities) {
		limit = len(s.activities)
	}
	out := make([]*models.Activity, 0, limit)
	for i := len(s.activities) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.activities[i]
		out = append(out, &cp)
	}
	return out, nil
}
