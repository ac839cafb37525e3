package coinhouse

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"stallworks/internal/persona"
	"stallworks/pkg/platform/sentinel"
)

// MemoryStore is the in-memory Store used by tests and single-process
// deployments. For shared deployments use PostgresStore instead.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[uuid.UUID]Account)}
}

func (s *MemoryStore) EnsureAccount(ctx context.Context, acct Account) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.accounts[acct.ID]; ok {
		return existing, nil
	}
	s.accounts[acct.ID] = acct
	return acct, nil
}

func (s *MemoryStore) GetAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[id]
	if !ok {
		return Account{}, sentinel.ErrNotFound
	}
	return acct, nil
}

func (s *MemoryStore) GetAccountByPersona(ctx context.Context, p persona.ID, coinhouseTag string) (Account, error) {
	return s.GetAccount(ctx, persona.AccountID(p, coinhouseTag))
}

func (s *MemoryStore) AdjustBalance(ctx context.Context, id uuid.UUID, delta int64) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return Account{}, sentinel.ErrNotFound
	}
	if acct.Balance+delta < 0 {
		return Account{}, sentinel.ErrInvalidState
	}
	acct.Balance += delta
	acct.LastAccessedAt = time.Now().UTC()
	s.accounts[id] = acct
	return acct, nil
}

// MemoryTransactionLog keeps transactions in insertion order.
type MemoryTransactionLog struct {
	mu   sync.RWMutex
	txns []Transaction
}

func NewMemoryTransactionLog() *MemoryTransactionLog {
	return &MemoryTransactionLog{}
}

func (l *MemoryTransactionLog) Append(ctx context.Context, txn Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.txns = append(l.txns, txn)
	return nil
}

func (l *MemoryTransactionLog) ListByPersona(ctx context.Context, p persona.ID, limit int) ([]Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Transaction
	for _, txn := range l.txns {
		if txn.From == p || txn.To == p {
			out = append(out, txn)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len reports the total number of appended transactions; test helper.
func (l *MemoryTransactionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.txns)
}
