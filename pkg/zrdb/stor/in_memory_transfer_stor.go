package stor

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-uuid"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/zrmodel"
)

// InMemoryTransferStor is used in tests and when simulating store failures.
type InMemoryTransferStor struct {
	mu        sync.Mutex
	transfers map[int]*zrmodel.Transfer
	nextID    int
	err       error
}

func NewInMemoryTransferStor() *InMemoryTransferStor {
	return &InMemoryTransferStor{
		transfers: make(map[int]*zrmodel.Transfer),
		nextID:    1,
	}
}

// SetError makes every subsequent call fail with err, simulating an
// unreachable store. Pass nil to clear.
func (s *InMemoryTransferStor) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *InMemoryTransferStor) CreateTransfer(transfer *zrmodel.Transfer) (*zrmodel.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	var err error
	if transfer.UUID, err = uuid.GenerateUUID(); err != nil {
		return nil, err
	}

	transfer.ID = s.nextID
	s.nextID++
	transfer.Status = zrmodel.TransferStatusPending
	transfer.ZenodoResponse = ""
	if transfer.CreatedAt.IsZero() {
		transfer.CreatedAt = time.Now()
	}

	saved := *transfer
	s.transfers[transfer.ID] = &saved

	return transfer, nil
}

func (s *InMemoryTransferStor) GetTransferByID(id int) (*zrmodel.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	transfer, ok := s.transfers[id]
	if !ok {
		return nil, fmt.Errorf("no such transfer: %d", id)
	}

	t := *transfer
	return &t, nil
}

func (s *InMemoryTransferStor) UpdateTransferStatus(id int, status, zenodoResponse string) (*zrmodel.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	transfer, ok := s.transfers[id]
	if !ok {
		return nil, fmt.Errorf("no such transfer: %d", id)
	}

	if !statusTransitionAllowed(transfer.Status, status) {
		return nil, ErrInvalidStateTransition
	}

	transfer.Status = status
	transfer.ZenodoResponse = zenodoResponse
	transfer.UpdatedAt = time.Now()

	t := *transfer
	return &t, nil
}

func (s *InMemoryTransferStor) GetTransfersForUser(username string) ([]zrmodel.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	var transfers []zrmodel.Transfer
	for _, t := range s.transfers {
		if t.Username == username {
			transfers = append(transfers, *t)
		}
	}

	sort.Slice(transfers, func(i, j int) bool {
		return transfers[i].CreatedAt.After(transfers[j].CreatedAt)
	})

	return transfers, nil
}

func (s *InMemoryTransferStor) GetStalePendingTransfers(olderThan time.Duration) ([]zrmodel.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	cutoff := time.Now().Add(-olderThan)

	var transfers []zrmodel.Transfer
	for _, t := range s.transfers {
		if t.Status == zrmodel.TransferStatusPending && t.CreatedAt.Before(cutoff) {
			transfers = append(transfers, *t)
		}
	}

	sort.Slice(transfers, func(i, j int) bool {
		return transfers[i].CreatedAt.After(transfers[j].CreatedAt)
	})

	return transfers, nil
}

// Count returns the number of transfers in the store.
func (s *InMemoryTransferStor) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transfers)
}
