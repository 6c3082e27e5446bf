// Package risk computes the composite fraud/AML risk assessment for one
// merchant validation from directory, address and registry signals.
package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/locusaudit/merchant-validation/internal/directory"
	"github.com/locusaudit/merchant-validation/internal/registry"
)

// Level is the derived risk tier.
type Level string

// Risk levels in ascending severity.
const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// Assessment is the composite result of one risk evaluation. It is built
// once per validation and never mutated afterwards; rerunning the engine
// reconstructs it from scratch.
type Assessment struct {
	Score           int      `json:"risk_score"`
	Level           Level    `json:"risk_level"`
	Factors         []string `json:"risk_factors"`
	Recommendations []string `json:"recommendations"`
}

// AddressSignal carries the outcome of an address comparison into the
// engine.
type AddressSignal struct {
	IsMatch    bool
	Similarity float64 // 0-100
}

// RegistrySignal carries the outcome of a registry comparison into the
// engine.
type RegistrySignal struct {
	TaxIDFound      bool
	RecordAvailable bool
	Profile         registry.RiskProfile
	NameCompared    bool
	NameSimilarity  float64 // best token-set score, 0-1
}

// Input bundles the optional signals of one validation. Absent signals
// simply skip the corresponding rules.
type Input struct {
	Record            *directory.Record
	TransactionAmount *decimal.Decimal
	Address           *AddressSignal
	Registry          *RegistrySignal
}

// Category tag sets with elevated fraud exposure. Multiple matching tags
// compound.
var (
	highRiskTypes   = map[string]bool{"atm": true, "bank": true, "casino": true, "night_club": true, "liquor_store": true}
	mediumRiskTypes = map[string]bool{"gas_station": true, "convenience_store": true, "jewelry_store": true}
)

var (
	highValueThreshold   = decimal.NewFromInt(10000)
	mediumValueThreshold = decimal.NewFromInt(5000)
)

// scoringRule is one entry of the ordered additive rule table. Rules run
// exactly once, in declaration order; mutually exclusive bands live inside a
// single rule so their precedence stays explicit.
type scoringRule struct {
	name  string
	apply func(in Input, a *Assessment)
}

var rules = []scoringRule{
	{name: "business_status", apply: businessStatusRule},
	{name: "review_volume", apply: reviewVolumeRule},
	{name: "rating", apply: ratingRule},
	{name: "category_tags", apply: categoryTagsRule},
	{name: "transaction_amount", apply: transactionAmountRule},
	{name: "missing_contact", apply: missingContactRule},
	{name: "address_mismatch", apply: addressMismatchRule},
	{name: "registry_comparison", apply: registryComparisonRule},
}

// Evaluate runs the composite risk engine: a single accumulation pass over
// the rule table, then clamping and level derivation. An unresolved
// directory record is terminal and skips the table entirely.
func Evaluate(in Input) Assessment {
	if in.Record == nil {
		return Assessment{
			Score:   100,
			Level:   LevelCritical,
			Factors: []string{"Merchant not found in business directory"},
			Recommendations: []string{
				"Investigate merchant existence",
				"Verify transaction legitimacy",
			},
		}
	}

	assessment := Assessment{}
	for _, rule := range rules {
		rule.apply(in, &assessment)
	}

	if assessment.Score > 100 {
		assessment.Score = 100
	}
	if assessment.Score < 0 {
		assessment.Score = 0
	}

	switch {
	case assessment.Score >= 80:
		assessment.Level = LevelCritical
		assessment.Recommendations = append(assessment.Recommendations, "Immediate investigation required")
	case assessment.Score >= 60:
		assessment.Level = LevelHigh
		assessment.Recommendations = append(assessment.Recommendations, "Enhanced monitoring recommended")
	case assessment.Score >= 30:
		assessment.Level = LevelMedium
		assessment.Recommendations = append(assessment.Recommendations, "Standard monitoring sufficient")
	default:
		assessment.Level = LevelLow
		assessment.Recommendations = append(assessment.Recommendations, "Low risk - standard processing")
	}

	return assessment
}

func businessStatusRule(in Input, a *Assessment) {
	switch in.Record.BusinessStatus {
	case directory.StatusClosedPermanently:
		a.Score += 40
		a.Factors = append(a.Factors, "Business permanently closed")
		a.Recommendations = append(a.Recommendations, "Verify if transaction is legitimate for closed business")
	case directory.StatusClosedTemporarily:
		a.Score += 20
		a.Factors = append(a.Factors, "Business temporarily closed")
	}
}

// reviewVolumeRule: the zero-review band wins over the few-review band.
func reviewVolumeRule(in Input, a *Assessment) {
	if in.Record.UserRatingsTotal == nil {
		return
	}

	switch {
	case *in.Record.UserRatingsTotal == 0:
		a.Score += 25
		a.Factors = append(a.Factors, "No customer reviews")
		a.Recommendations = append(a.Recommendations, "Verify business legitimacy due to lack of reviews")
	case *in.Record.UserRatingsTotal < 10:
		a.Score += 15
		a.Factors = append(a.Factors, "Very few customer reviews")
	}
}

func ratingRule(in Input, a *Assessment) {
	if in.Record.Rating != nil && *in.Record.Rating < 3.0 {
		a.Score += 15
		a.Factors = append(a.Factors, "Low customer rating")
	}
}

func categoryTagsRule(in Input, a *Assessment) {
	for _, tag := range in.Record.Types {
		switch {
		case highRiskTypes[tag]:
			a.Score += 10
			a.Factors = append(a.Factors, fmt.Sprintf("High-risk business type: %s", tag))
		case mediumRiskTypes[tag]:
			a.Score += 5
			a.Factors = append(a.Factors, fmt.Sprintf("Medium-risk business type: %s", tag))
		}
	}
}

// transactionAmountRule: the high-value band wins over the medium-value band.
func transactionAmountRule(in Input, a *Assessment) {
	if in.TransactionAmount == nil {
		return
	}

	switch {
	case in.TransactionAmount.GreaterThan(highValueThreshold):
		a.Score += 15
		a.Factors = append(a.Factors, "High-value transaction")
		a.Recommendations = append(a.Recommendations, "Enhanced due diligence for high-value transaction")
	case in.TransactionAmount.GreaterThan(mediumValueThreshold):
		a.Score += 10
		a.Factors = append(a.Factors, "Medium-value transaction")
	}
}

func missingContactRule(in Input, a *Assessment) {
	if in.Record.Phone == "" {
		a.Score += 10
		a.Factors = append(a.Factors, "No phone number available")
	}
	if in.Record.Website == "" {
		a.Score += 5
		a.Factors = append(a.Factors, "No website available")
	}
}

func addressMismatchRule(in Input, a *Assessment) {
	if in.Address == nil || in.Address.IsMatch {
		return
	}

	switch {
	case in.Address.Similarity < 50:
		a.Score += 30
		a.Factors = append(a.Factors, "Address mismatch - significant differences")
		a.Recommendations = append(a.Recommendations, "Verify correct merchant location")
	case in.Address.Similarity < 80:
		a.Score += 15
		a.Factors = append(a.Factors, "Address mismatch - minor differences")
		a.Recommendations = append(a.Recommendations, "Confirm address details with merchant")
	}
}

// registryContributionCap limits how much the registry-side profile can add
// to the composite score.
const registryContributionCap = 40

func registryComparisonRule(in Input, a *Assessment) {
	if in.Registry == nil || !in.Registry.TaxIDFound {
		return
	}

	if !in.Registry.RecordAvailable {
		a.Score += 25
		a.Factors = append(a.Factors, "CNPJ found but data unavailable")
		a.Recommendations = append(a.Recommendations, "Verify CNPJ status manually")
		return
	}

	if in.Registry.Profile.Score > 0 {
		contribution := in.Registry.Profile.Score
		if contribution > registryContributionCap {
			contribution = registryContributionCap
		}
		a.Score += contribution
		a.Factors = append(a.Factors, in.Registry.Profile.Factors...)
		a.Recommendations = append(a.Recommendations, in.Registry.Profile.Recommendations...)
	}

	if in.Registry.NameCompared && in.Registry.NameSimilarity < 0.6 {
		a.Score += 20
		a.Factors = append(a.Factors, "Merchant name doesn't match CNPJ registration")
		a.Recommendations = append(a.Recommendations, "Verify business name with official registration")
	}
}
