package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/locusaudit/merchant-validation/internal/directory"
	"github.com/locusaudit/merchant-validation/internal/registry"
)

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

// cleanRecord is a directory listing that triggers no risk factor.
func cleanRecord() *directory.Record {
	return &directory.Record{
		PlaceID:          "place-1",
		Name:             "Corner Bakery",
		Address:          "123 Main Street",
		Phone:            "+1 555 0100",
		Website:          "https://bakery.example",
		Rating:           floatPtr(4.5),
		UserRatingsTotal: intPtr(120),
		BusinessStatus:   directory.StatusOperating,
		Types:            []string{"bakery", "food"},
	}
}

func TestEvaluateNotFound(t *testing.T) {
	got := Evaluate(Input{Record: nil})

	assert.Equal(t, 100, got.Score)
	assert.Equal(t, LevelCritical, got.Level)
	assert.Equal(t, []string{"Merchant not found in business directory"}, got.Factors)
	assert.Equal(t, []string{
		"Investigate merchant existence",
		"Verify transaction legitimacy",
	}, got.Recommendations)
}

func TestEvaluateCleanMerchant(t *testing.T) {
	got := Evaluate(Input{Record: cleanRecord()})

	assert.Equal(t, 0, got.Score)
	assert.Equal(t, LevelLow, got.Level)
	assert.Empty(t, got.Factors)
	assert.Equal(t, []string{"Low risk - standard processing"}, got.Recommendations)
}

func TestBusinessStatusRule(t *testing.T) {
	t.Run("permanently closed adds 40", func(t *testing.T) {
		record := cleanRecord()
		record.BusinessStatus = directory.StatusClosedPermanently
		got := Evaluate(Input{Record: record})
		assert.Equal(t, 40, got.Score)
		assert.Contains(t, got.Factors, "Business permanently closed")
		assert.Contains(t, got.Recommendations, "Verify if transaction is legitimate for closed business")
	})

	t.Run("temporarily closed adds 20", func(t *testing.T) {
		record := cleanRecord()
		record.BusinessStatus = directory.StatusClosedTemporarily
		got := Evaluate(Input{Record: record})
		assert.Equal(t, 20, got.Score)
		assert.Contains(t, got.Factors, "Business temporarily closed")
	})
}

func TestReviewVolumeRule(t *testing.T) {
	t.Run("zero reviews adds 25, not 40", func(t *testing.T) {
		record := cleanRecord()
		record.UserRatingsTotal = intPtr(0)
		got := Evaluate(Input{Record: record})
		assert.Equal(t, 25, got.Score, "the zero-review band must exclude the few-review band")
		assert.Contains(t, got.Factors, "No customer reviews")
	})

	t.Run("few reviews adds 15", func(t *testing.T) {
		record := cleanRecord()
		record.UserRatingsTotal = intPtr(5)
		got := Evaluate(Input{Record: record})
		assert.Equal(t, 15, got.Score)
		assert.Contains(t, got.Factors, "Very few customer reviews")
	})

	t.Run("unknown review count adds nothing", func(t *testing.T) {
		record := cleanRecord()
		record.UserRatingsTotal = nil
		got := Evaluate(Input{Record: record})
		assert.Equal(t, 0, got.Score)
	})
}

func TestRatingRule(t *testing.T) {
	record := cleanRecord()
	record.Rating = floatPtr(2.1)
	got := Evaluate(Input{Record: record})
	assert.Equal(t, 15, got.Score)
	assert.Contains(t, got.Factors, "Low customer rating")
}

func TestCategoryTagsRule(t *testing.T) {
	t.Run("multiple risky tags compound", func(t *testing.T) {
		record := cleanRecord()
		record.Types = []string{"casino", "atm", "gas_station"}
		got := Evaluate(Input{Record: record})
		assert.Equal(t, 25, got.Score, "two high-risk tags and one medium-risk tag")
		assert.Contains(t, got.Factors, "High-risk business type: casino")
		assert.Contains(t, got.Factors, "High-risk business type: atm")
		assert.Contains(t, got.Factors, "Medium-risk business type: gas_station")
	})
}

func TestTransactionAmountRule(t *testing.T) {
	t.Run("high value adds 15, not 25", func(t *testing.T) {
		amount := decimal.NewFromInt(15000)
		got := Evaluate(Input{Record: cleanRecord(), TransactionAmount: &amount})
		assert.Equal(t, 15, got.Score, "the high band must exclude the medium band")
		assert.Contains(t, got.Factors, "High-value transaction")
	})

	t.Run("medium value adds 10", func(t *testing.T) {
		amount := decimal.NewFromInt(7500)
		got := Evaluate(Input{Record: cleanRecord(), TransactionAmount: &amount})
		assert.Equal(t, 10, got.Score)
		assert.Contains(t, got.Factors, "Medium-value transaction")
	})

	t.Run("threshold boundary is exclusive", func(t *testing.T) {
		amount := decimal.NewFromInt(10000)
		got := Evaluate(Input{Record: cleanRecord(), TransactionAmount: &amount})
		assert.Equal(t, 10, got.Score, "exactly 10000 is medium, not high")
	})
}

func TestMissingContactRule(t *testing.T) {
	record := cleanRecord()
	record.Phone = ""
	record.Website = ""
	got := Evaluate(Input{Record: record})
	assert.Equal(t, 15, got.Score)
	assert.Contains(t, got.Factors, "No phone number available")
	assert.Contains(t, got.Factors, "No website available")
}

func TestAddressMismatchRule(t *testing.T) {
	t.Run("significant mismatch adds 30", func(t *testing.T) {
		got := Evaluate(Input{
			Record:  cleanRecord(),
			Address: &AddressSignal{IsMatch: false, Similarity: 35},
		})
		assert.Equal(t, 30, got.Score)
		assert.Contains(t, got.Factors, "Address mismatch - significant differences")
	})

	t.Run("minor mismatch adds 15", func(t *testing.T) {
		got := Evaluate(Input{
			Record:  cleanRecord(),
			Address: &AddressSignal{IsMatch: false, Similarity: 65},
		})
		assert.Equal(t, 15, got.Score)
		assert.Contains(t, got.Factors, "Address mismatch - minor differences")
	})

	t.Run("matching address adds nothing", func(t *testing.T) {
		got := Evaluate(Input{
			Record:  cleanRecord(),
			Address: &AddressSignal{IsMatch: true, Similarity: 95},
		})
		assert.Equal(t, 0, got.Score)
	})
}

func TestRegistryComparisonRule(t *testing.T) {
	t.Run("identifier without data adds 25", func(t *testing.T) {
		got := Evaluate(Input{
			Record:   cleanRecord(),
			Registry: &RegistrySignal{TaxIDFound: true, RecordAvailable: false},
		})
		assert.Equal(t, 25, got.Score)
		assert.Contains(t, got.Factors, "CNPJ found but data unavailable")
	})

	t.Run("registry contribution is capped at 40", func(t *testing.T) {
		got := Evaluate(Input{
			Record: cleanRecord(),
			Registry: &RegistrySignal{
				TaxIDFound:      true,
				RecordAvailable: true,
				Profile: registry.RiskProfile{
					Score:   70,
					Factors: []string{"Company status: BAIXADA"},
				},
			},
		})
		assert.Equal(t, 40, got.Score)
	})

	t.Run("mismatched registered name adds 20", func(t *testing.T) {
		got := Evaluate(Input{
			Record: cleanRecord(),
			Registry: &RegistrySignal{
				TaxIDFound:      true,
				RecordAvailable: true,
				NameCompared:    true,
				NameSimilarity:  0.2,
			},
		})
		assert.Equal(t, 20, got.Score)
		assert.Contains(t, got.Factors, "Merchant name doesn't match CNPJ registration")
	})

	t.Run("no identifier skips the rule entirely", func(t *testing.T) {
		got := Evaluate(Input{
			Record:   cleanRecord(),
			Registry: &RegistrySignal{TaxIDFound: false},
		})
		assert.Equal(t, 0, got.Score)
	})
}

func TestEvaluateLevels(t *testing.T) {
	t.Run("accumulated factors reach CRITICAL", func(t *testing.T) {
		// 40 closed + 25 no reviews + 10 no phone + 5 no website = 80
		record := cleanRecord()
		record.BusinessStatus = directory.StatusClosedPermanently
		record.UserRatingsTotal = intPtr(0)
		record.Phone = ""
		record.Website = ""

		got := Evaluate(Input{Record: record})
		assert.Equal(t, 80, got.Score)
		assert.Equal(t, LevelCritical, got.Level)
		assert.Contains(t, got.Recommendations, "Immediate investigation required")
	})

	t.Run("score is clamped at 100", func(t *testing.T) {
		record := cleanRecord()
		record.BusinessStatus = directory.StatusClosedPermanently
		record.UserRatingsTotal = intPtr(0)
		record.Rating = floatPtr(1.0)
		record.Phone = ""
		record.Website = ""
		record.Types = []string{"casino", "atm", "bank"}
		amount := decimal.NewFromInt(50000)

		got := Evaluate(Input{
			Record:            record,
			TransactionAmount: &amount,
			Address:           &AddressSignal{IsMatch: false, Similarity: 10},
		})
		assert.Equal(t, 100, got.Score)
		assert.Equal(t, LevelCritical, got.Level)
	})

	t.Run("each band maps to its level", func(t *testing.T) {
		cases := []struct {
			name  string
			setup func(*directory.Record)
			score int
			level Level
			rec   string
		}{
			{
				name:  "below 30 is LOW",
				setup: func(r *directory.Record) { r.BusinessStatus = directory.StatusClosedTemporarily },
				score: 20,
				level: LevelLow,
				rec:   "Low risk - standard processing",
			},
			{
				name:  "30 to 59 is MEDIUM",
				setup: func(r *directory.Record) { r.BusinessStatus = directory.StatusClosedPermanently },
				score: 40,
				level: LevelMedium,
				rec:   "Standard monitoring sufficient",
			},
			{
				name: "60 to 79 is HIGH",
				setup: func(r *directory.Record) {
					r.BusinessStatus = directory.StatusClosedPermanently
					r.UserRatingsTotal = intPtr(0)
				},
				score: 65,
				level: LevelHigh,
				rec:   "Enhanced monitoring recommended",
			},
			{
				name: "80 and above is CRITICAL",
				setup: func(r *directory.Record) {
					r.BusinessStatus = directory.StatusClosedPermanently
					r.UserRatingsTotal = intPtr(0)
					r.Phone = ""
					r.Website = ""
				},
				score: 80,
				level: LevelCritical,
				rec:   "Immediate investigation required",
			},
		}
		for _, tc := range cases {
			record := cleanRecord()
			tc.setup(record)
			got := Evaluate(Input{Record: record})
			assert.Equal(t, tc.score, got.Score, tc.name)
			assert.Equal(t, tc.level, got.Level, tc.name)
			assert.Contains(t, got.Recommendations, tc.rec, tc.name)
		}
	})
}
