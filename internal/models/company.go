package models

// Company is an owning company as shown in the bulk-edit filter.
// Companies are read-only from this system's perspective.
type Company struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}
