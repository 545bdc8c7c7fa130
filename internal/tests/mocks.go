package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"rental/internal/domain"
	"rental/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu     sync.RWMutex
	trips  map[int64]*domain.Trip
	nextID int64

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{trips: make(map[int64]*domain.Trip)}
}

// AddTrip adds a trip to the mock repository, assigning an id if unset.
func (m *MockTripRepository) AddTrip(trip *domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if trip.ID == 0 {
		m.nextID++
		trip.ID = m.nextID
	} else if trip.ID > m.nextID {
		m.nextID = trip.ID
	}
	m.trips[trip.ID] = trip
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	trip.ID = m.nextID
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id int64) (*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) List(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0)
	for _, t := range m.trips {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.Location != "" && t.Location != filter.Location {
			continue
		}
		if filter.Party != "" && t.GuestID != filter.Party && t.HostID != filter.Party {
			continue
		}
		if !filter.From.IsZero() && t.ScheduledStart.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && t.ScheduledEnd.After(filter.To) {
			continue
		}
		if filter.Settled != nil {
			settled := t.Payment.HostEarningsSettled > 0
			if settled != *filter.Settled {
				continue
			}
		}
		copy := *t
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *MockTripRepository) ListActiveByCar(ctx context.Context, carID string) ([]*domain.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Trip, 0)
	for _, t := range m.trips {
		if t.CarID == carID && t.Active() {
			copy := *t
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// GetTrip returns the stored trip for test assertions.
func (m *MockTripRepository) GetTrip(id int64) *domain.Trip {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// CountTrips returns the number of stored trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

// ──────────────────────────────────────────────
// MOCK CLAIM REPOSITORY
// ──────────────────────────────────────────────

// MockClaimRepository is a mock implementation of ClaimRepository.
type MockClaimRepository struct {
	mu     sync.RWMutex
	claims map[string]*domain.Claim
	order  []string

	CreateCallCount int32
	UpdateCallCount int32

	CreateError error
	UpdateError error
}

// NewMockClaimRepository creates a new mock claim repository.
func NewMockClaimRepository() *MockClaimRepository {
	return &MockClaimRepository{claims: make(map[string]*domain.Claim)}
}

func (m *MockClaimRepository) Create(ctx context.Context, claim *domain.Claim) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *claim
	m.claims[claim.ID] = &copy
	m.order = append(m.order, claim.ID)
	return nil
}

func (m *MockClaimRepository) GetByID(ctx context.Context, id string) (*domain.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	claim, ok := m.claims[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *claim
	return &copy, nil
}

func (m *MockClaimRepository) Update(ctx context.Context, claim *domain.Claim) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.claims[claim.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *claim
	m.claims[claim.ID] = &copy
	return nil
}

func (m *MockClaimRepository) List(ctx context.Context, filter repository.ClaimFilter) ([]*domain.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Claim, 0)
	for i := len(m.order) - 1; i >= 0; i-- {
		c := m.claims[m.order[i]]
		if filter.TripID != 0 && c.TripID != filter.TripID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		copy := *c
		result = append(result, &copy)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}

// GetClaim returns the stored claim for test assertions.
func (m *MockClaimRepository) GetClaim(id string) *domain.Claim {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.claims[id]
}

// ──────────────────────────────────────────────
// MOCK PROMO REPOSITORY
// ──────────────────────────────────────────────

// MockPromoRepository is a mock implementation of PromoRepository.
type MockPromoRepository struct {
	mu          sync.RWMutex
	codes       map[string]*domain.PromoCode
	redemptions map[string]int64 // code|account -> tripID

	ConsumeCallCount int32
	RedeemCallCount  int32
}

// NewMockPromoRepository creates a new mock promo repository.
func NewMockPromoRepository() *MockPromoRepository {
	return &MockPromoRepository{
		codes:       make(map[string]*domain.PromoCode),
		redemptions: make(map[string]int64),
	}
}

// AddCode adds a promo code to the mock repository.
func (m *MockPromoRepository) AddCode(code *domain.PromoCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[code.Code] = code
}

func (m *MockPromoRepository) CreateBatch(ctx context.Context, codes []*domain.PromoCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range codes {
		copy := *c
		m.codes[c.Code] = &copy
	}
	return nil
}

func (m *MockPromoRepository) GetByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	promo, ok := m.codes[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *promo
	return &copy, nil
}

func (m *MockPromoRepository) ConsumeSingleUse(ctx context.Context, code string) (bool, error) {
	atomic.AddInt32(&m.ConsumeCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	promo, ok := m.codes[code]
	if !ok || promo.RemainingUses <= 0 {
		return false, nil
	}
	promo.RemainingUses--
	return true, nil
}

func (m *MockPromoRepository) RecordRedemption(ctx context.Context, code, accountID string, tripID int64) (bool, error) {
	atomic.AddInt32(&m.RedeemCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	key := code + "|" + accountID
	if _, ok := m.redemptions[key]; ok {
		return false, nil
	}
	m.redemptions[key] = tripID
	return true, nil
}

func (m *MockPromoRepository) HasRedeemed(ctx context.Context, code, accountID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.redemptions[code+"|"+accountID]
	return ok, nil
}

func (m *MockPromoRepository) Deactivate(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	promo, ok := m.codes[code]
	if !ok {
		return repository.ErrNotFound
	}
	promo.Active = false
	return nil
}

// GetCode returns the stored code for test assertions.
func (m *MockPromoRepository) GetCode(code string) *domain.PromoCode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.codes[code]
}

// ──────────────────────────────────────────────
// MOCK REFERRAL REPOSITORY
// ──────────────────────────────────────────────

// MockReferralRepository is a mock implementation of ReferralRepository.
type MockReferralRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.ReferralAccount
	byHash   map[string]string
}

// NewMockReferralRepository creates a new mock referral repository.
func NewMockReferralRepository() *MockReferralRepository {
	return &MockReferralRepository{
		accounts: make(map[string]*domain.ReferralAccount),
		byHash:   make(map[string]string),
	}
}

func (m *MockReferralRepository) Create(ctx context.Context, acct *domain.ReferralAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *acct
	m.accounts[acct.AccountID] = &copy
	m.byHash[acct.Hash] = acct.AccountID
	return nil
}

func (m *MockReferralRepository) GetByAccount(ctx context.Context, accountID string) (*domain.ReferralAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.accounts[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *acct
	return &copy, nil
}

func (m *MockReferralRepository) GetByHash(ctx context.Context, hash string) (*domain.ReferralAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byHash[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *m.accounts[id]
	return &copy, nil
}

func (m *MockReferralRepository) AddPending(ctx context.Context, hash string, points int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byHash[hash]
	if !ok {
		return repository.ErrNotFound
	}
	m.accounts[id].PendingPoints += points
	return nil
}

func (m *MockReferralRepository) SettlePending(ctx context.Context, accountID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[accountID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	moved := acct.PendingPoints
	acct.SettledPoints += moved
	acct.PendingPoints = 0
	return moved, nil
}

// GetAccount returns the stored referral record for test assertions.
func (m *MockReferralRepository) GetAccount(accountID string) *domain.ReferralAccount {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accounts[accountID]
}

// ──────────────────────────────────────────────
// MOCK AUTOMATION REPOSITORY
// ──────────────────────────────────────────────

type automationKey struct {
	tripID int64
	action domain.AutomationAction
}

// MockAutomationRepository is a mock implementation of AutomationRepository.
type MockAutomationRepository struct {
	mu      sync.RWMutex
	entries map[automationKey]*domain.AutomationEntry

	CreateCallCount int32
	DeleteCallCount int32
}

// NewMockAutomationRepository creates a new mock automation repository.
func NewMockAutomationRepository() *MockAutomationRepository {
	return &MockAutomationRepository{entries: make(map[automationKey]*domain.AutomationEntry)}
}

func (m *MockAutomationRepository) Create(ctx context.Context, entry *domain.AutomationEntry) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *entry
	m.entries[automationKey{entry.TripID, entry.Action}] = &copy
	return nil
}

func (m *MockAutomationRepository) Delete(ctx context.Context, tripID int64, action domain.AutomationAction) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, automationKey{tripID, action})
	return nil
}

func (m *MockAutomationRepository) DeleteAllForTrip(ctx context.Context, tripID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if key.tripID == tripID {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *MockAutomationRepository) ListDue(ctx context.Context, now time.Time) ([]*domain.AutomationEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.AutomationEntry, 0)
	for _, e := range m.entries {
		if !e.ActivateAt.After(now) {
			copy := *e
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ActivateAt.Before(result[j].ActivateAt) })
	return result, nil
}

// GetEntry returns the stored entry for test assertions, nil when absent.
func (m *MockAutomationRepository) GetEntry(tripID int64, action domain.AutomationAction) *domain.AutomationEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[automationKey{tripID, action}]
}

// CountEntries returns the number of scheduled entries.
func (m *MockAutomationRepository) CountEntries() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// ──────────────────────────────────────────────
// MOCK ESCROW REPOSITORY
// ──────────────────────────────────────────────

// MockEscrowRepository is a mock implementation of EscrowRepository. Balances
// are keyed by account and currency; the ledger is an append-only slice.
type MockEscrowRepository struct {
	mu       sync.RWMutex
	balances map[string]int64
	entries  []*domain.EscrowEntry

	AppendCallCount int32
	AdjustCallCount int32

	AppendError error
	AdjustError error
}

// NewMockEscrowRepository creates a new mock escrow repository.
func NewMockEscrowRepository() *MockEscrowRepository {
	return &MockEscrowRepository{balances: make(map[string]int64)}
}

func balanceKey(account, currency string) string {
	return account + "|" + currency
}

// SetBalance seeds an account balance.
func (m *MockEscrowRepository) SetBalance(account, currency string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[balanceKey(account, currency)] = amount
}

func (m *MockEscrowRepository) Append(ctx context.Context, entry *domain.EscrowEntry) error {
	atomic.AddInt32(&m.AppendCallCount, 1)
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *entry
	m.entries = append(m.entries, &copy)
	return nil
}

func (m *MockEscrowRepository) ListByTrip(ctx context.Context, tripID int64) ([]*domain.EscrowEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.EscrowEntry, 0)
	for _, e := range m.entries {
		if e.TripID == tripID {
			copy := *e
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockEscrowRepository) Balance(ctx context.Context, account, currency string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[balanceKey(account, currency)], nil
}

func (m *MockEscrowRepository) AdjustBalance(ctx context.Context, account, currency string, delta int64) (int64, error) {
	atomic.AddInt32(&m.AdjustCallCount, 1)
	if m.AdjustError != nil {
		return 0, m.AdjustError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := balanceKey(account, currency)
	m.balances[key] += delta
	return m.balances[key], nil
}

// BalanceOf returns a balance for test assertions.
func (m *MockEscrowRepository) BalanceOf(account, currency string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[balanceKey(account, currency)]
}

// EntriesFor returns the ledger rows for a trip.
func (m *MockEscrowRepository) EntriesFor(tripID int64) []*domain.EscrowEntry {
	entries, _ := m.ListByTrip(context.Background(), tripID)
	return entries
}

// ──────────────────────────────────────────────
// MOCK STORE
// ──────────────────────────────────────────────

// MockStore is a mock implementation of repository.Store. Atomically runs the
// callback against the same repositories; rollback is not simulated, so tests
// asserting on partial state must use error injection before any write.
type MockStore struct {
	repos repository.Repos

	AtomicallyCallCount int32
	AtomicallyError     error
}

// NewMockStore creates a MockStore over fresh mock repositories.
func NewMockStore() (*MockStore, *MockTripRepository, *MockEscrowRepository, *MockAutomationRepository) {
	trips := NewMockTripRepository()
	escrow := NewMockEscrowRepository()
	automation := NewMockAutomationRepository()
	store := &MockStore{
		repos: repository.Repos{
			Trips:      trips,
			Claims:     NewMockClaimRepository(),
			Promos:     NewMockPromoRepository(),
			Referrals:  NewMockReferralRepository(),
			Automation: automation,
			Escrow:     escrow,
		},
	}
	return store, trips, escrow, automation
}

func (m *MockStore) Repos() repository.Repos {
	return m.repos
}

func (m *MockStore) Atomically(ctx context.Context, fn func(r repository.Repos) error) error {
	atomic.AddInt32(&m.AtomicallyCallCount, 1)
	if m.AtomicallyError != nil {
		return m.AtomicallyError
	}
	return fn(m.repos)
}

// Claims returns the underlying mock claim repository.
func (m *MockStore) Claims() *MockClaimRepository {
	return m.repos.Claims.(*MockClaimRepository)
}

// Promos returns the underlying mock promo repository.
func (m *MockStore) Promos() *MockPromoRepository {
	return m.repos.Promos.(*MockPromoRepository)
}

// Referrals returns the underlying mock referral repository.
func (m *MockStore) Referrals() *MockReferralRepository {
	return m.repos.Referrals.(*MockReferralRepository)
}

// ──────────────────────────────────────────────
// MOCK IDENTITY SERVICE
// ──────────────────────────────────────────────

// MockIdentityService is a mock implementation of IdentityService.
type MockIdentityService struct {
	mu    sync.RWMutex
	roles map[string]domain.Role
	kyc   map[string]bool

	RoleOfError error
	KYCError    error
}

// NewMockIdentityService creates a new mock identity service.
func NewMockIdentityService() *MockIdentityService {
	return &MockIdentityService{
		roles: make(map[string]domain.Role),
		kyc:   make(map[string]bool),
	}
}

// AddAccount registers an account with a role and KYC status.
func (m *MockIdentityService) AddAccount(accountID string, role domain.Role, kyc bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[accountID] = role
	m.kyc[accountID] = kyc
}

func (m *MockIdentityService) RoleOf(ctx context.Context, accountID string) (domain.Role, error) {
	if m.RoleOfError != nil {
		return domain.RoleNone, m.RoleOfError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	role, ok := m.roles[accountID]
	if !ok {
		return domain.RoleNone, nil
	}
	return role, nil
}

func (m *MockIdentityService) HasValidKYC(ctx context.Context, accountID string) (bool, error) {
	if m.KYCError != nil {
		return false, m.KYCError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.kyc[accountID], nil
}

// ──────────────────────────────────────────────
// MOCK CAR CATALOG
// ──────────────────────────────────────────────

// MockCarCatalog is a mock implementation of CarCatalog.
type MockCarCatalog struct {
	mu   sync.RWMutex
	cars map[string]*domain.CarSnapshot

	CarError error
}

// NewMockCarCatalog creates a new mock car catalog.
func NewMockCarCatalog() *MockCarCatalog {
	return &MockCarCatalog{cars: make(map[string]*domain.CarSnapshot)}
}

// AddCar adds a car snapshot to the catalog.
func (m *MockCarCatalog) AddCar(car *domain.CarSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cars[car.ID] = car
}

func (m *MockCarCatalog) Car(ctx context.Context, carID string) (*domain.CarSnapshot, error) {
	if m.CarError != nil {
		return nil, m.CarError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	car, ok := m.cars[carID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *car
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of the car lock store.
type MockLockStore struct {
	mu   sync.Mutex
	held map[string]bool

	AcquireCallCount int32
	ReleaseCallCount int32

	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{held: make(map[string]bool)}
}

func (m *MockLockStore) AcquireCarLock(ctx context.Context, carID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[carID] {
		return false, nil
	}
	m.held[carID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseCarLock(ctx context.Context, carID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, carID)
	return nil
}

// HoldLock marks a car lock as already taken by another process.
func (m *MockLockStore) HoldLock(carID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held[carID] = true
}
