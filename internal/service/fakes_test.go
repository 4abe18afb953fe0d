package service

import (
	"context"
	"sync"

	"github.com/vaultline/account-service/internal/domain"
	"github.com/vaultline/account-service/internal/lock"
	"github.com/vaultline/account-service/internal/repository"
)

// fakeStore is an in-memory stand-in for all three repositories. Every method
// hands out copies so that, like the real store, nothing is persisted until
// SaveWithBalance or Create runs.
type fakeStore struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*domain.AccountUser
	accounts map[string]*domain.Account
	records  []*domain.Transaction
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[int64]*domain.AccountUser),
		accounts: make(map[string]*domain.Account),
	}
}

func (f *fakeStore) addUser(id int64, name string) {
	f.users[id] = &domain.AccountUser{ID: id, Name: name}
}

func (f *fakeStore) addAccount(account domain.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	account.ID = f.nextID
	f.accounts[account.AccountNumber] = &account
}

func (f *fakeStore) addRecord(record domain.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	record.ID = f.nextID
	f.records = append(f.records, &record)
}

func (f *fakeStore) balanceOf(accountNumber string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[accountNumber].Balance
}

func (f *fakeStore) recordCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// --- UserStore ---

func (f *fakeStore) FindByID(ctx context.Context, id int64) (*domain.AccountUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := *user
	return &u, nil
}

// --- AccountStore ---

func (f *fakeStore) FindByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[accountNumber]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a := *account
	return &a, nil
}

func (f *fakeStore) FindByUserID(ctx context.Context, userID int64) ([]domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var accounts []domain.Account
	for _, account := range f.accounts {
		if account.UserID == userID {
			accounts = append(accounts, *account)
		}
	}
	return accounts, nil
}

func (f *fakeStore) CountByUserID(ctx context.Context, userID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, account := range f.accounts {
		if account.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) LatestAccountNumber(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest string
	var latestID int64
	for _, account := range f.accounts {
		if account.ID > latestID {
			latestID = account.ID
			latest = account.AccountNumber
		}
	}
	if latest == "" {
		return "", repository.ErrNotFound
	}
	return latest, nil
}

func (f *fakeStore) Create(ctx context.Context, account *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	account.ID = f.nextID
	stored := *account
	f.accounts[account.AccountNumber] = &stored
	return nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, account *domain.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.accounts[account.AccountNumber]
	stored.Status = account.Status
	stored.UnregisteredAt = account.UnregisteredAt
	return nil
}

// --- TransactionStore ---

func (f *fakeStore) Append(ctx context.Context, record *domain.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	record.ID = f.nextID
	stored := *record
	f.records = append(f.records, &stored)
	return nil
}

func (f *fakeStore) SaveWithBalance(ctx context.Context, account *domain.Account, record *domain.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[account.AccountNumber].Balance = account.Balance
	f.nextID++
	record.ID = f.nextID
	stored := *record
	f.records = append(f.records, &stored)
	return nil
}

func (f *fakeStore) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.records {
		if record.TransactionID == transactionID {
			r := *record
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) ExistsCancelFor(ctx context.Context, transactionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.records {
		if record.OriginalTransactionID == transactionID {
			return true, nil
		}
	}
	return false, nil
}

// keyLocker gives real per-key mutual exclusion in-process, standing in for
// the Redis-backed manager.
type keyLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyLocker() *keyLocker {
	return &keyLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *keyLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

// timeoutLocker simulates an account locked by someone else for the whole
// wait window.
type timeoutLocker struct{}

func (timeoutLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return lock.ErrLockTimeout
}

type publishedEvent struct {
	stream    string
	eventType string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{stream: stream, eventType: eventType})
	return nil
}
