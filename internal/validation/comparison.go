package validation

import (
	"fmt"
	"strings"

	"github.com/locusaudit/merchant-validation/internal/normalize"
	"github.com/locusaudit/merchant-validation/internal/registry"
	"github.com/locusaudit/merchant-validation/internal/similarity"
)

// Comparison thresholds. An address pair is a match at 80 of 100; a name
// pair at 0.8 of 1. Token differences are reported below 90.
const (
	addressMatchThreshold  = 80.0
	addressDetailThreshold = 90.0
	nameMatchThreshold     = 0.8
)

// AddressComparison is the immutable outcome of comparing a provided address
// against a reference address.
type AddressComparison struct {
	ProvidedAddress  string   `json:"provided_address"`
	ReferenceAddress string   `json:"reference_address"`
	SimilarityScore  float64  `json:"similarity_score"` // 0-100
	IsMatch          bool     `json:"is_match"`
	Differences      []string `json:"differences"`
}

// NameComparison is the outcome of comparing a merchant name against the
// legal and trade names of a registration record.
type NameComparison struct {
	CompanyNameMatch      bool    `json:"company_name_match"`
	TradeNameMatch        bool    `json:"trade_name_match"`
	CompanyNameSimilarity float64 `json:"company_name_similarity"`
	TradeNameSimilarity   float64 `json:"trade_name_similarity"`
	// CompanyNameEditRatio and TradeNameEditRatio are supplementary
	// edit-distance evidence; matching is decided on token-set similarity.
	CompanyNameEditRatio float64 `json:"company_name_edit_ratio"`
	TradeNameEditRatio   float64 `json:"trade_name_edit_ratio"`
	SimilarityScore      float64 `json:"similarity_score"`
	BestMatch            string  `json:"best_match,omitempty"`
	BestMatchName        string  `json:"best_match_name,omitempty"`
}

// RegistryComparison bundles everything the registry side contributed to a
// validation.
type RegistryComparison struct {
	TaxIDFound        bool                  `json:"tax_id_found"`
	Record            *registry.Record      `json:"record,omitempty"`
	NameComparison    *NameComparison       `json:"name_comparison,omitempty"`
	AddressComparison *AddressComparison    `json:"address_comparison,omitempty"`
	RiskProfile       *registry.RiskProfile `json:"risk_assessment,omitempty"`
}

// CompareAddresses normalizes both addresses and scores their
// character-sequence similarity. When the score stays below 90 the
// word-level differences are reported in both directions.
func CompareAddresses(provided, reference string) *AddressComparison {
	if provided == "" || reference == "" {
		return &AddressComparison{
			ProvidedAddress:  provided,
			ReferenceAddress: reference,
			SimilarityScore:  0.0,
			IsMatch:          false,
			Differences:      []string{"One or both addresses are missing"},
		}
	}

	normProvided := normalize.Address(provided)
	normReference := normalize.Address(reference)

	score := similarity.Sequence(normProvided, normReference)

	var differences []string
	if score < addressDetailThreshold {
		if only := similarity.TokensOnlyIn(normProvided, normReference); len(only) > 0 {
			differences = append(differences, fmt.Sprintf("Only in provided: %s", strings.Join(only, ", ")))
		}
		if only := similarity.TokensOnlyIn(normReference, normProvided); len(only) > 0 {
			differences = append(differences, fmt.Sprintf("Only in reference: %s", strings.Join(only, ", ")))
		}
	}

	return &AddressComparison{
		ProvidedAddress:  provided,
		ReferenceAddress: reference,
		SimilarityScore:  score,
		IsMatch:          score >= addressMatchThreshold,
		Differences:      differences,
	}
}

// CompareNames scores a merchant name against the legal and trade names of a
// registration record using token-set similarity per field. The legal name
// takes the best-match slot only when it strictly beats the trade name; on a
// tie a non-zero trade-name score wins.
func CompareNames(merchantName, companyName, tradeName string) *NameComparison {
	normMerchant := normalize.Name(merchantName)
	normCompany := normalize.Name(companyName)
	normTrade := normalize.Name(tradeName)

	companySimilarity := similarity.TokenSet(normMerchant, normCompany)
	tradeSimilarity := similarity.TokenSet(normMerchant, normTrade)

	comparison := &NameComparison{
		CompanyNameMatch:      companySimilarity >= nameMatchThreshold,
		TradeNameMatch:        tradeSimilarity >= nameMatchThreshold,
		CompanyNameSimilarity: companySimilarity,
		TradeNameSimilarity:   tradeSimilarity,
		CompanyNameEditRatio:  similarity.EditRatio(normMerchant, normCompany),
		TradeNameEditRatio:    similarity.EditRatio(normMerchant, normTrade),
		SimilarityScore:       companySimilarity,
	}
	if tradeSimilarity > comparison.SimilarityScore {
		comparison.SimilarityScore = tradeSimilarity
	}

	if companySimilarity > tradeSimilarity {
		comparison.BestMatch = "company_name"
		comparison.BestMatchName = companyName
	} else if tradeSimilarity > 0 {
		comparison.BestMatch = "trade_name"
		comparison.BestMatchName = tradeName
	}

	return comparison
}
