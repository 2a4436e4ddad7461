package models

import "time"

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	// NotifyOnAssignment is opt-out: nil means notifications are enabled.
	NotifyOnAssignment *bool `json:"notifyOnAssignment,omitempty"`
}

func (u User) WantsAssignmentNotifications() bool {
	return u.NotifyOnAssignment == nil || *u.NotifyOnAssignment
}

type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

type EquipmentType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Equipment struct {
	ID           int64     `json:"id"`
	CustomerID   int64     `json:"customerId"`
	TypeID       *int64    `json:"typeId,omitempty"`
	TypeName     string    `json:"typeName,omitempty"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	SerialNumber string    `json:"serialNumber"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"createdAt"`
}
