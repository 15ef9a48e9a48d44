package gateway

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// Stub is an in-memory Gateway for development and tests. Charges succeed
// with a fixed code unless ChargeErr is set; statuses are looked up in
// Statuses and default to pending.
type Stub struct {
	mu        sync.Mutex
	ChargeErr error
	Charges   []string
	Statuses  map[string]Status
	StatusErr error
}

func NewStub() *Stub {
	return &Stub{Statuses: make(map[string]Status)}
}

func (s *Stub) CreateCharge(ctx context.Context, amount decimal.Decimal, reference string) (*Charge, error) {
	if err := checkMinimum(amount); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ChargeErr != nil {
		return nil, s.ChargeErr
	}
	s.Charges = append(s.Charges, reference)
	return &Charge{
		ChargeCode:    "00020126stub" + reference,
		TransactionID: "tx-" + reference,
	}, nil
}

func (s *Stub) GetStatus(ctx context.Context, transactionID string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.StatusErr != nil {
		return StatusUnknown, s.StatusErr
	}
	if st, ok := s.Statuses[transactionID]; ok {
		return st, nil
	}
	return StatusPending, nil
}

// SetStatus marks a transaction's settlement state for later lookups.
func (s *Stub) SetStatus(transactionID string, st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Statuses[transactionID] = st
}
