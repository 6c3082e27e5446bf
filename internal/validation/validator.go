package validation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/locusaudit/merchant-validation/internal/directory"
	"github.com/locusaudit/merchant-validation/internal/metrics"
	"github.com/locusaudit/merchant-validation/internal/registry"
	"github.com/locusaudit/merchant-validation/internal/risk"
	"github.com/locusaudit/merchant-validation/internal/taxid"
)

// Validator runs the full assessment pipeline for one merchant.
type Validator struct {
	directory directory.Lookup
	registry  registry.Lookup
	collector *metrics.Collector
	logger    *slog.Logger
	now       func() time.Time
}

// NewValidator creates a validator. The registry lookup may be nil, in which
// case registry comparison is skipped entirely.
func NewValidator(dir directory.Lookup, reg registry.Lookup, collector *metrics.Collector, logger *slog.Logger) *Validator {
	return &Validator{
		directory: dir,
		registry:  reg,
		collector: collector,
		logger:    logger,
		now:       time.Now,
	}
}

// Validate assesses one merchant. It never returns an error: any fault that
// escapes the pipeline is converted into an ERROR result so a batch run can
// always continue with the remaining items.
func (v *Validator) Validate(ctx context.Context, req Request) (result *Result) {
	start := v.now()
	v.collector.ValidationsTotal.Inc()
	defer v.collector.ObserveValidationDuration(start)

	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("validation panicked",
				slog.String("merchant_name", req.MerchantName),
				slog.Any("panic", r))
			v.collector.ValidationErrors.Inc()
			result = &Result{
				RiskAssessment: risk.Assessment{
					Score:           100,
					Level:           risk.LevelCritical,
					Factors:         []string{fmt.Sprintf("Processing error: %v", r)},
					Recommendations: []string{"Manual review required"},
				},
				Status:    StatusError,
				Timestamp: v.now(),
			}
		}
	}()

	record, searchQuery := v.resolve(ctx, req)

	var addressCmp *AddressComparison
	if record != nil && req.Address != "" && record.Address != "" {
		addressCmp = CompareAddresses(req.Address, record.Address)
	}

	var registryCmp *RegistryComparison
	if v.registry != nil {
		registryCmp = v.compareRegistry(ctx, req)
	}

	assessment := risk.Evaluate(risk.Input{
		Record:            record,
		TransactionAmount: req.TransactionAmount,
		Address:           addressSignal(addressCmp),
		Registry:          registrySignal(registryCmp),
	})

	status := deriveStatus(record, assessment)

	v.collector.RiskScoreHistogram.Observe(float64(assessment.Score))
	if status == StatusSuspicious {
		v.collector.SuspiciousValidations.Inc()
	}

	v.logger.Info("merchant validated",
		slog.String("merchant_name", req.MerchantName),
		slog.String("status", string(status)),
		slog.Int("risk_score", assessment.Score),
		slog.String("risk_level", string(assessment.Level)))

	return &Result{
		MerchantRecord:     record,
		RiskAssessment:     assessment,
		AddressComparison:  addressCmp,
		RegistryComparison: registryCmp,
		Status:             status,
		Timestamp:          v.now(),
		SearchQuery:        searchQuery,
	}
}

// resolve finds the directory record for the request. An explicit place
// identifier is tried first; when it resolves to nothing the name+address
// text search runs as a fallback, so a stale identifier does not invalidate
// a merchant that is still findable by name. The returned query string
// records the strategy that produced the record (or the last one tried).
func (v *Validator) resolve(ctx context.Context, req Request) (*directory.Record, string) {
	if req.PlaceID != "" {
		record, err := v.directory.ResolveByID(ctx, req.PlaceID)
		if err != nil {
			v.collector.DirectoryLookupErrors.Inc()
			v.logger.Warn("directory lookup by id failed",
				slog.String("place_id", req.PlaceID),
				slog.Any("error", err))
			record = nil
		}
		if record != nil {
			return record, fmt.Sprintf("place_id: %s", req.PlaceID)
		}
	}

	query := strings.TrimSpace(req.MerchantName + " " + req.Address)
	record, err := v.directory.ResolveByQuery(ctx, query)
	if err != nil {
		v.collector.DirectoryLookupErrors.Inc()
		v.logger.Warn("directory lookup by query failed",
			slog.String("query", query),
			slog.Any("error", err))
		record = nil
	}

	searchQuery := fmt.Sprintf("name: %s", req.MerchantName)
	if req.Address != "" {
		searchQuery += fmt.Sprintf(", address: %s", req.Address)
	}
	return record, searchQuery
}

// compareRegistry extracts a tax identifier from the request text and, when
// one is present, compares the registered company against the merchant.
// Provider faults are treated as record absence, never as validation faults.
func (v *Validator) compareRegistry(ctx context.Context, req Request) *RegistryComparison {
	id, ok := taxid.ExtractFromText(req.MerchantName + " " + req.Address)
	if !ok {
		return nil
	}

	cmp := &RegistryComparison{TaxIDFound: true}

	record, err := v.registry.Fetch(ctx, id)
	if err != nil {
		v.collector.RegistryLookupErrors.Inc()
		v.logger.Warn("registry lookup failed",
			slog.String("tax_id", id),
			slog.Any("error", err))
		record = nil
	}
	if record == nil {
		profile := registry.AssessRisk(nil, v.now())
		cmp.RiskProfile = &profile
		return cmp
	}

	cmp.Record = record
	cmp.NameComparison = CompareNames(req.MerchantName, record.CompanyName, record.TradeName)
	if req.Address != "" && record.Address.FullAddress != "" {
		cmp.AddressComparison = CompareAddresses(req.Address, record.Address.FullAddress)
	}
	profile := registry.AssessRisk(record, v.now())
	cmp.RiskProfile = &profile
	return cmp
}

func addressSignal(cmp *AddressComparison) *risk.AddressSignal {
	if cmp == nil {
		return nil
	}
	return &risk.AddressSignal{
		IsMatch:    cmp.IsMatch,
		Similarity: cmp.SimilarityScore,
	}
}

func registrySignal(cmp *RegistryComparison) *risk.RegistrySignal {
	if cmp == nil {
		return nil
	}
	sig := &risk.RegistrySignal{
		TaxIDFound:      cmp.TaxIDFound,
		RecordAvailable: cmp.Record != nil,
	}
	if cmp.RiskProfile != nil {
		sig.Profile = *cmp.RiskProfile
	}
	if cmp.NameComparison != nil {
		sig.NameCompared = true
		sig.NameSimilarity = cmp.NameComparison.SimilarityScore
	}
	return sig
}
