package registry

import (
	"fmt"
	"strings"
	"time"
)

// registrationDateLayout is the dd/mm/yyyy format the registry publishes.
const registrationDateLayout = "02/01/2006"

// RiskProfile is the registry-side contribution to a merchant's risk
// assessment: an additive score capped at 100 with the factors and
// recommendations that produced it.
type RiskProfile struct {
	Score           int      `json:"risk_score"`
	Factors         []string `json:"risk_factors"`
	Recommendations []string `json:"recommendations"`
}

// AssessRisk derives risk factors from a registration record. A nil record
// short-circuits to the fixed no-data profile; otherwise points accumulate
// per rule and the total is capped at 100.
func AssessRisk(record *Record, now time.Time) RiskProfile {
	if record == nil {
		return RiskProfile{
			Score:           20,
			Factors:         []string{"Registry data not available"},
			Recommendations: []string{"Verify business registration manually"},
		}
	}

	profile := RiskProfile{}

	status := strings.ToUpper(record.RegistrationStatus)
	switch {
	case strings.Contains(status, "BAIXADA") || strings.Contains(status, "SUSPENSA"):
		profile.Score += 40
		profile.Factors = append(profile.Factors, fmt.Sprintf("Company status: %s", status))
	case strings.Contains(status, "INAPTA"):
		profile.Score += 25
		profile.Factors = append(profile.Factors, fmt.Sprintf("Company status: %s", status))
	}

	// Unparseable dates are silently ignored; the date format is the
	// provider's contract, not an error condition.
	if record.RegistrationDate != "" {
		if registered, err := time.Parse(registrationDateLayout, record.RegistrationDate); err == nil {
			monthsSince := now.Sub(registered).Hours() / 24 / 30
			if monthsSince < 6 {
				profile.Score += 15
				profile.Factors = append(profile.Factors, "Recently registered company (< 6 months)")
			}
		}
	}

	if record.Phone == "" {
		profile.Score += 10
		profile.Factors = append(profile.Factors, "No phone number registered")
	}

	if record.Email == "" {
		profile.Score += 5
		profile.Factors = append(profile.Factors, "No email registered")
	}

	if strings.Contains(strings.ToUpper(record.CompanySize), "MEI") {
		profile.Score += 5
		profile.Factors = append(profile.Factors, "Micro Individual Entrepreneur (MEI)")
	}

	// Independent thresholds: both recommendations fire above 50.
	if profile.Score > 30 {
		profile.Recommendations = append(profile.Recommendations, "Enhanced due diligence recommended")
	}
	if profile.Score > 50 {
		profile.Recommendations = append(profile.Recommendations, "Consider additional verification steps")
	}
	if len(profile.Factors) == 0 {
		profile.Recommendations = append(profile.Recommendations, "Registry data appears normal")
	}

	if profile.Score > 100 {
		profile.Score = 100
	}

	return profile
}
