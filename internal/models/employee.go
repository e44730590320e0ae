package models

import (
	"time"
)

// Employee represents a personnel record as shown on the bulk-edit screen.
// The record is loaded joined with its company's display name; CompanyName
// and AccessCode are display-only and are never written back.
type Employee struct {
	ID             string  `json:"id"`
	CompanyID      string  `json:"company_id"`
	DocumentNumber string  `json:"document_number"`
	FullName       string  `json:"full_name"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
	AccessCode     *string `json:"access_code"`
	Active         bool    `json:"active"`

	// CompanyName is denormalized from the companies join.
	CompanyName string `json:"company_name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmployeeUpdate carries the mutable subset of an employee row for a
// per-record update. AccessCode and CompanyName are deliberately absent.
type EmployeeUpdate struct {
	ID             string
	DocumentNumber string
	FullName       string
	Phone          *string
	Email          *string
	Active         bool
}

// UpdateOf extracts the writable fields of an employee keyed by its ID.
func UpdateOf(e Employee) EmployeeUpdate {
	return EmployeeUpdate{
		ID:             e.ID,
		DocumentNumber: e.DocumentNumber,
		FullName:       e.FullName,
		Phone:          e.Phone,
		Email:          e.Email,
		Active:         e.Active,
	}
}
