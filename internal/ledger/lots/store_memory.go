package lots

import (
	"context"
	"sync"
	"time"

	"carbonledger/internal/ledger"
	"carbonledger/pkg/domain"
	dErrors "carbonledger/pkg/domain-errors"
	"carbonledger/pkg/platform/sentinel"
)

// InMemoryStore keeps lots in an arena keyed by lot id plus a per-owner index
// of lot ids. Owner indexes stay in ascending id order because ids come from
// a monotonic counter and entries are only ever appended.
type InMemoryStore struct {
	mu      sync.RWMutex
	lots    map[domain.LotID]ledger.Lot
	byOwner map[domain.AccountID][]domain.LotID
	lastID  domain.LotID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		lots:    make(map[domain.LotID]ledger.Lot),
		byOwner: make(map[domain.AccountID][]domain.LotID),
	}
}

func (s *InMemoryStore) CreateLot(_ context.Context, owner domain.AccountID, projectID domain.ProjectID, vintage domain.Vintage, amount domain.Amount, issuedAt time.Time) (ledger.Lot, error) {
	if amount <= 0 {
		return ledger.Lot{}, dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lot := s.mint(owner, projectID, vintage, amount, issuedAt, false)
	return lot, nil
}

// mint allocates the next lot id and inserts the lot. Callers hold s.mu.
func (s *InMemoryStore) mint(owner domain.AccountID, projectID domain.ProjectID, vintage domain.Vintage, amount domain.Amount, issuedAt time.Time, retired bool) ledger.Lot {
	s.lastID = s.lastID.Next()
	lot := ledger.Lot{
		ID:        s.lastID,
		ProjectID: projectID,
		Amount:    amount,
		Owner:     owner,
		IssuedAt:  issuedAt,
		Vintage:   vintage,
		Retired:   retired,
	}
	s.lots[lot.ID] = lot
	s.byOwner[owner] = append(s.byOwner[owner], lot.ID)
	return lot
}

func (s *InMemoryStore) LotsOf(_ context.Context, owner domain.AccountID) ([]ledger.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byOwner[owner]
	result := make([]ledger.Lot, 0, len(ids))
	for _, id := range ids {
		result = append(result, s.lots[id])
	}
	return result, nil
}

func (s *InMemoryStore) ActiveBalance(_ context.Context, owner domain.AccountID) (domain.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeBalanceLocked(owner)
}

func (s *InMemoryStore) activeBalanceLocked(owner domain.AccountID) (domain.Amount, error) {
	var balance domain.Amount
	for _, id := range s.byOwner[owner] {
		lot := s.lots[id]
		if !lot.Active() {
			continue
		}
		sum, err := balance.Add(lot.Amount)
		if err != nil {
			return 0, err
		}
		balance = sum
	}
	return balance, nil
}

func (s *InMemoryStore) Consume(_ context.Context, owner domain.AccountID, amount domain.Amount, sel Selector) ([]ledger.Consumption, error) {
	if sel != FIFO {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported selector: "+string(sel))
	}
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Plan first so a shortfall leaves the store untouched.
	remaining := amount
	var plan []ledger.Consumption
	for _, id := range s.byOwner[owner] {
		if remaining == 0 {
			break
		}
		lot := s.lots[id]
		if !lot.Active() {
			continue
		}
		take := lot.Amount
		if take > remaining {
			take = remaining
		}
		plan = append(plan, ledger.Consumption{LotID: id, Amount: take})
		remaining -= take
	}
	if remaining > 0 {
		return nil, dErrors.New(dErrors.CodeInsufficientBalance, "insufficient balance")
	}

	for _, c := range plan {
		lot := s.lots[c.LotID]
		lot.Amount -= c.Amount
		s.lots[c.LotID] = lot
	}
	return plan, nil
}

func (s *InMemoryStore) ApplyTransfer(_ context.Context, consumed []ledger.Consumption, to domain.AccountID) ([]ledger.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	minted := make([]ledger.Lot, 0, len(consumed))
	for _, c := range consumed {
		source, ok := s.lots[c.LotID]
		if !ok {
			return nil, sentinel.ErrNotFound
		}
		minted = append(minted, s.mint(to, source.ProjectID, source.Vintage, c.Amount, source.IssuedAt, false))
	}
	return minted, nil
}

func (s *InMemoryStore) ApplyRetire(_ context.Context, consumed []ledger.Consumption) ([]ledger.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	minted := make([]ledger.Lot, 0, len(consumed))
	for _, c := range consumed {
		source, ok := s.lots[c.LotID]
		if !ok {
			return nil, sentinel.ErrNotFound
		}
		minted = append(minted, s.mint(source.Owner, source.ProjectID, source.Vintage, c.Amount, source.IssuedAt, true))
	}
	return minted, nil
}
