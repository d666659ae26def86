package mocks

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/usecase"
)

// MockCompanyRepository is a mock implementation of CompanyRepository.
type MockCompanyRepository struct {
	mu        sync.RWMutex
	companies map[string]*domain.Company

	GetByIDFunc        func(ctx context.Context, id string) (*domain.Company, error)
	UpdateSettingsFunc func(ctx context.Context, tx usecase.Transaction, id string, settings domain.RevaluationSettings, updatedAt time.Time) error
}

func NewMockCompanyRepository(companies ...*domain.Company) *MockCompanyRepository {
	m := &MockCompanyRepository{companies: make(map[string]*domain.Company)}
	for _, c := range companies {
		m.companies[c.ID] = c
	}
	return m
}

func (m *MockCompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.companies[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, domain.ErrCompanyNotFound
}

func (m *MockCompanyRepository) UpdateSettings(ctx context.Context, tx usecase.Transaction, id string, settings domain.RevaluationSettings, updatedAt time.Time) error {
	if m.UpdateSettingsFunc != nil {
		return m.UpdateSettingsFunc(ctx, tx, id, settings, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return domain.ErrCompanyNotFound
	}
	c.RevaluationSettings = settings
	c.UpdatedAt = updatedAt
	return nil
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	GetByIDFunc        func(ctx context.Context, id string) (*domain.Account, error)
	ListRevaluableFunc func(ctx context.Context, tx usecase.Transaction, companyID string) ([]*domain.Account, error)
	SetRevaluationFunc func(ctx context.Context, id string, enabled bool, updatedAt time.Time) error
}

func NewMockAccountRepository(accounts ...*domain.Account) *MockAccountRepository {
	m := &MockAccountRepository{accounts: make(map[string]*domain.Account)}
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
	return m
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.accounts[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Account
	for _, id := range ids {
		if a, ok := m.accounts[id]; ok {
			copied := *a
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockAccountRepository) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Account
	for _, a := range m.accounts {
		if a.CompanyID == companyID {
			copied := *a
			result = append(result, &copied)
		}
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockAccountRepository) ListRevaluable(ctx context.Context, tx usecase.Transaction, companyID string) ([]*domain.Account, error) {
	if m.ListRevaluableFunc != nil {
		return m.ListRevaluableFunc(ctx, tx, companyID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Account
	for _, a := range m.accounts {
		if a.CompanyID == companyID && a.CurrencyRevaluation {
			copied := *a
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockAccountRepository) SetRevaluation(ctx context.Context, id string, enabled bool, updatedAt time.Time) error {
	if m.SetRevaluationFunc != nil {
		return m.SetRevaluationFunc(ctx, id, enabled, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.CurrencyRevaluation = enabled
	a.UpdatedAt = updatedAt
	return nil
}

// MockJournalRepository is a mock implementation of JournalRepository.
type MockJournalRepository struct {
	journals map[string]*domain.Journal

	GetByIDFunc func(ctx context.Context, id string) (*domain.Journal, error)
}

func NewMockJournalRepository(journals ...*domain.Journal) *MockJournalRepository {
	m := &MockJournalRepository{journals: make(map[string]*domain.Journal)}
	for _, j := range journals {
		m.journals[j.ID] = j
	}
	return m
}

func (m *MockJournalRepository) GetByID(ctx context.Context, id string) (*domain.Journal, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	if j, ok := m.journals[id]; ok {
		return j, nil
	}
	return nil, domain.ErrJournalNotFound
}

// MockRateProvider is a mock implementation of RateProvider backed by a fixed table.
type MockRateProvider struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal

	RateAsOfFunc func(ctx context.Context, companyID, currency string, date time.Time) (decimal.Decimal, error)
	Calls        int
}

func NewMockRateProvider() *MockRateProvider {
	return &MockRateProvider{rates: make(map[string]decimal.Decimal)}
}

// Set fixes the rate returned for currency.
func (m *MockRateProvider) Set(currency string, rate decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[currency] = rate
}

func (m *MockRateProvider) RateAsOf(ctx context.Context, companyID, currency string, date time.Time) (decimal.Decimal, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.RateAsOfFunc != nil {
		return m.RateAsOfFunc(ctx, companyID, currency, date)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.rates[currency]; ok {
		return r, nil
	}
	return decimal.Zero, &domain.MissingRateError{Currency: currency, Date: domain.TruncateDate(date)}
}

// MockOutboxRepository records created events.
type MockOutboxRepository struct {
	mu     sync.Mutex
	Events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published && len(result) < limit {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			e.Published = true
			at := publishedAt
			e.PublishedAt = &at
		}
	}
	return nil
}

func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.OutboxEvent
	for _, e := range m.Events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return nil
}

// MockAuditRepository records created audit logs.
type MockAuditRepository struct {
	mu   sync.Mutex
	Logs []*domain.AuditLog
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, log)
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.AuditLog
	for _, l := range m.Logs {
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		result = append(result, l)
	}
	return result, nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	mu  sync.Mutex
	Txs []*MockTransaction

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	tx := &MockTransaction{}
	m.mu.Lock()
	m.Txs = append(m.Txs, tx)
	m.mu.Unlock()
	return tx, nil
}

// Committed returns how many transactions were committed.
func (m *MockTransactionManager) Committed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, tx := range m.Txs {
		if tx.Committed {
			n++
		}
	}
	return n
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	Committed  bool
	RolledBack bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	if !m.Committed {
		m.RolledBack = true
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "mock-id-" + strconv.Itoa(m.counter)
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	ReleaseFunc     func(ctx context.Context, key string) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Get returns the stored value of key.
func (m *MockIdempotencyStore) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}
