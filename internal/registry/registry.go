// Package registry models national company-registry records keyed by a
// 14-digit tax identifier, the lookup contract used to fetch them, and the
// registry-side risk assessment.
package registry

import (
	"context"
	"strings"
)

// Address is the registered postal address of a company.
type Address struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	FullAddress  string `json:"full_address"`
}

// Partner is a registered company partner.
type Partner struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Record is a canonical company-registration record. Records are produced by
// the registry provider and never mutated by the core.
type Record struct {
	TaxID               string    `json:"tax_id"`
	CompanyName         string    `json:"company_name"`
	TradeName           string    `json:"trade_name,omitempty"`
	LegalNature         string    `json:"legal_nature,omitempty"`
	MainActivity        string    `json:"main_activity,omitempty"`
	SecondaryActivities []string  `json:"secondary_activities,omitempty"`
	RegistrationStatus  string    `json:"registration_status,omitempty"`
	RegistrationDate    string    `json:"registration_date,omitempty"`
	Address             Address   `json:"address"`
	Phone               string    `json:"phone,omitempty"`
	Email               string    `json:"email,omitempty"`
	ShareCapital        string    `json:"share_capital,omitempty"`
	CompanySize         string    `json:"company_size,omitempty"`
	LastUpdate          string    `json:"last_update,omitempty"`
	Partners            []Partner `json:"partners,omitempty"`
}

// Lookup is the registry collaborator contract. A nil record means the
// identifier is unknown, malformed, or the provider was unavailable; callers
// treat all of these as absence, never as a validation fault.
type Lookup interface {
	Fetch(ctx context.Context, taxID string) (*Record, error)
}

// buildFullAddress assembles the single-line registered address the same way
// the registry publishes it: street part, neighborhood, city/state, CEP.
func buildFullAddress(a Address) string {
	var parts []string

	if a.Street != "" {
		street := a.Street
		if a.Number != "" {
			street += ", " + a.Number
		}
		if a.Complement != "" {
			street += ", " + a.Complement
		}
		parts = append(parts, street)
	}

	if a.Neighborhood != "" {
		parts = append(parts, a.Neighborhood)
	}

	if a.City != "" {
		city := a.City
		if a.State != "" {
			city += ", " + a.State
		}
		parts = append(parts, city)
	}

	if a.ZipCode != "" {
		parts = append(parts, "CEP: "+a.ZipCode)
	}

	return strings.Join(parts, " - ")
}
