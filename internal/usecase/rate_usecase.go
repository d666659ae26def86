package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/infrastructure/metrics"
)

// RateUseCase maintains the exchange rate table and answers as-of lookups.
type RateUseCase struct {
	txManager   TransactionManager
	companyRepo CompanyRepository
	rateRepo    RateRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	cache       Cache
	idGen       IDGenerator
	cacheTTL    time.Duration
	metrics     *metrics.Metrics
}

// NewRateUseCase creates a new RateUseCase. cache and metrics may be nil.
func NewRateUseCase(
	txManager TransactionManager,
	companyRepo CompanyRepository,
	rateRepo RateRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	cache Cache,
	idGen IDGenerator,
	cacheTTL time.Duration,
	metrics *metrics.Metrics,
) *RateUseCase {
	if cacheTTL <= 0 {
		cacheTTL = DefaultRateCacheTTL
	}

	return &RateUseCase{
		txManager:   txManager,
		companyRepo: companyRepo,
		rateRepo:    rateRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		cache:       cache,
		idGen:       idGen,
		cacheTTL:    cacheTTL,
		metrics:     metrics,
	}
}

// SetRateInput represents input for recording a rate.
type SetRateInput struct {
	// CompanyID scopes the rate to one company; empty records a shared rate.
	CompanyID string
	Currency  string
	Date      time.Time
	Rate      decimal.Decimal
}

// RateAsOf returns the rate of currency for the company as of date.
// The company home currency always has rate 1.
func (uc *RateUseCase) RateAsOf(ctx context.Context, companyID, currency string, date time.Time) (decimal.Decimal, error) {
	currency = domain.NormalizeCurrency(currency)

	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return decimal.Zero, err
	}

	if currency == company.Currency {
		return decimal.NewFromInt(1), nil
	}

	rates, err := uc.rates(ctx, companyID, currency)
	if err != nil {
		return decimal.Zero, err
	}

	rate, ok := domain.RateAsOf(rates, date)
	if !ok {
		return decimal.Zero, &domain.MissingRateError{Currency: currency, Date: domain.TruncateDate(date)}
	}

	return rate.Rate, nil
}

// ListRates returns the rates of currency visible to the company, newest first.
func (uc *RateUseCase) ListRates(ctx context.Context, companyID, currency string) ([]domain.Rate, error) {
	currency = domain.NormalizeCurrency(currency)
	if err := domain.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	rates, err := uc.rates(ctx, companyID, currency)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Rate, len(rates))
	copy(out, rates)
	domain.SortRates(out)

	return out, nil
}

// SetRate records the rate of a currency on a date, replacing any rate with the same scope and date.
func (uc *RateUseCase) SetRate(ctx context.Context, input SetRateInput) (*domain.Rate, error) {
	currency := domain.NormalizeCurrency(input.Currency)
	if err := domain.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	if err := domain.ValidateRate(input.Rate); err != nil {
		return nil, err
	}

	if input.CompanyID != "" {
		if _, err := uc.companyRepo.GetByID(ctx, input.CompanyID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	rate := &domain.Rate{
		ID:        uc.idGen.Generate(),
		Currency:  currency,
		CompanyID: input.CompanyID,
		Date:      domain.TruncateDate(input.Date),
		Rate:      input.Rate,
		CreatedAt: now,
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(txCtx)

	if err := uc.rateRepo.Upsert(txCtx, tx, rate); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   rate.ID,
		AggregateType: domain.AggregateTypeRate,
		EventType:     domain.EventTypeRateSet,
		Payload: map[string]any{
			"company_id": rate.CompanyID,
			"currency":   rate.Currency,
			"date":       rate.Date.Format(time.DateOnly),
			"rate":       rate.Rate.String(),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if uc.auditRepo != nil {
		auditLog := &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       domain.ActorID(ctx, SystemActor),
			Action:       string(domain.AuditActionRateSet),
			ResourceType: domain.AggregateTypeRate,
			ResourceID:   rate.ID,
			AfterState:   domain.MarshalState(rate),
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    now,
		}
		if err := uc.auditRepo.CreateTx(txCtx, tx, auditLog); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.invalidate(ctx, rate.Currency)

	if uc.metrics != nil {
		uc.metrics.RatesSet.Inc()
	}

	return rate, nil
}

type cachedRate struct {
	ID        string          `json:"id"`
	CompanyID string          `json:"company_id,omitempty"`
	Date      time.Time       `json:"date"`
	Rate      decimal.Decimal `json:"rate"`
}

func rateCacheKey(currency string) string {
	return "rates:" + currency
}

// rates returns the shared rates of currency plus those scoped to companyID.
func (uc *RateUseCase) rates(ctx context.Context, companyID, currency string) ([]domain.Rate, error) {
	all, err := uc.currencyRates(ctx, currency)
	if err != nil {
		return nil, err
	}

	visible := make([]domain.Rate, 0, len(all))
	for _, r := range all {
		if r.CompanyID == "" || r.CompanyID == companyID {
			visible = append(visible, r)
		}
	}

	return visible, nil
}

func (uc *RateUseCase) currencyRates(ctx context.Context, currency string) ([]domain.Rate, error) {
	key := rateCacheKey(currency)

	if uc.cache != nil {
		data, err := uc.cache.Get(ctx, key)
		switch {
		case err == nil:
			var cached []cachedRate
			if jerr := json.Unmarshal(data, &cached); jerr == nil {
				uc.recordLookup("hit")
				return fromCached(cached, currency), nil
			}
		case !errors.Is(err, ErrCacheMiss):
			zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("rate cache unavailable")
		}
		uc.recordLookup("miss")
	}

	rates, err := uc.rateRepo.ListByCurrency(ctx, currency)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(toCached(rates)); err == nil {
			if err := uc.cache.Set(ctx, key, data, uc.cacheTTL); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to cache rates")
			}
		}
	}

	return rates, nil
}

func (uc *RateUseCase) invalidate(ctx context.Context, currency string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, rateCacheKey(currency)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("currency", currency).Msg("failed to invalidate rate cache")
	}
}

func (uc *RateUseCase) recordLookup(result string) {
	if uc.metrics != nil {
		uc.metrics.RateCacheLookup.WithLabelValues(result).Inc()
	}
}

func toCached(rates []domain.Rate) []cachedRate {
	out := make([]cachedRate, 0, len(rates))
	for _, r := range rates {
		out = append(out, cachedRate{ID: r.ID, CompanyID: r.CompanyID, Date: r.Date, Rate: r.Rate})
	}
	return out
}

func fromCached(cached []cachedRate, currency string) []domain.Rate {
	out := make([]domain.Rate, 0, len(cached))
	for _, c := range cached {
		out = append(out, domain.Rate{ID: c.ID, CompanyID: c.CompanyID, Currency: currency, Date: c.Date, Rate: c.Rate})
	}
	return out
}
