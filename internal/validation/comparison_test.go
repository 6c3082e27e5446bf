package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareAddresses(t *testing.T) {
	t.Run("abbreviated and expanded forms match", func(t *testing.T) {
		cmp := CompareAddresses("123 Main St", "123 Main Street")
		assert.True(t, cmp.IsMatch)
		assert.InDelta(t, 100.0, cmp.SimilarityScore, 0.001,
			"normalization must make the two forms identical")
		assert.Empty(t, cmp.Differences)
	})

	t.Run("missing address yields the fixed non-match", func(t *testing.T) {
		cmp := CompareAddresses("", "123 Main Street")
		assert.False(t, cmp.IsMatch)
		assert.Equal(t, 0.0, cmp.SimilarityScore)
		assert.Equal(t, []string{"One or both addresses are missing"}, cmp.Differences)
	})

	t.Run("differences reported in both directions below the detail threshold", func(t *testing.T) {
		cmp := CompareAddresses("123 Main Street downtown", "456 Oak Avenue uptown")
		assert.False(t, cmp.IsMatch)
		require.Len(t, cmp.Differences, 2)
		assert.Contains(t, cmp.Differences[0], "Only in provided:")
		assert.Contains(t, cmp.Differences[1], "Only in reference:")
	})

	t.Run("original strings are preserved in the result", func(t *testing.T) {
		cmp := CompareAddresses("123 Main St", "123 Main Street")
		assert.Equal(t, "123 Main St", cmp.ProvidedAddress)
		assert.Equal(t, "123 Main Street", cmp.ReferenceAddress)
	})
}

func TestCompareNames(t *testing.T) {
	t.Run("identical token sets match regardless of order", func(t *testing.T) {
		cmp := CompareNames("Padaria São João", "PADARIA SAO JOAO LTDA", "")
		assert.Greater(t, cmp.CompanyNameSimilarity, 0.7)
		assert.Equal(t, "company_name", cmp.BestMatch)
		assert.Equal(t, "PADARIA SAO JOAO LTDA", cmp.BestMatchName)
	})

	t.Run("trade name can be the best match", func(t *testing.T) {
		cmp := CompareNames("ACME", "JOSE DA SILVA COMERCIO LTDA", "ACME")
		assert.True(t, cmp.TradeNameMatch)
		assert.Equal(t, "trade_name", cmp.BestMatch)
		assert.Equal(t, "ACME", cmp.BestMatchName)
	})

	t.Run("a tie goes to the trade name", func(t *testing.T) {
		cmp := CompareNames("acme", "acme", "acme")
		assert.Equal(t, "trade_name", cmp.BestMatch)
	})

	t.Run("overall score is the maximum of both fields", func(t *testing.T) {
		cmp := CompareNames("ACME", "OTHER NAME ENTIRELY", "ACME")
		assert.InDelta(t, cmp.TradeNameSimilarity, cmp.SimilarityScore, 0.001)
	})

	t.Run("no similarity leaves the best-match slot empty", func(t *testing.T) {
		cmp := CompareNames("ACME", "WHOLLY UNRELATED", "")
		assert.Equal(t, "", cmp.BestMatch)
		assert.Equal(t, "", cmp.BestMatchName)
	})
}
