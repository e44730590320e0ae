package bulkedit

import (
	"strings"

	"github.com/nominaops/staffbulk/internal/models"
)

// CompanyAll is the sentinel company-filter value meaning no company
// restriction.
const CompanyAll = "all"

// DeriveVisible derives the visible subset of the source list from the
// selected company and free-text search term. It is a pure function: the
// result inherits the source ordering and calling it twice with unchanged
// inputs yields an identical list.
//
// The term is matched case-insensitively as a substring of the full name,
// document number, and, when present, email and phone. Absent optional
// fields never match. An empty company selection is treated like the
// CompanyAll sentinel.
func DeriveVisible(source []models.Employee, companyID, term string) []models.Employee {
	needle := strings.ToLower(term)

	visible := make([]models.Employee, 0, len(source))
	for _, e := range source {
		if companyID != "" && companyID != CompanyAll && e.CompanyID != companyID {
			continue
		}
		if needle != "" && !matchesTerm(e, needle) {
			continue
		}
		visible = append(visible, e)
	}

	return visible
}

func matchesTerm(e models.Employee, needle string) bool {
	if strings.Contains(strings.ToLower(e.FullName), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(e.DocumentNumber), needle) {
		return true
	}
	if e.Email != nil && strings.Contains(strings.ToLower(*e.Email), needle) {
		return true
	}
	if e.Phone != nil && strings.Contains(strings.ToLower(*e.Phone), needle) {
		return true
	}
	return false
}
