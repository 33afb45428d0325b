package stor

import (
	"time"

	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/zrmodel"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ErrInvalidStateTransition is returned when a status update would move a
// transfer backwards, eg re-opening a completed transfer.
var ErrInvalidStateTransition = errors.New("invalid transfer state transition")

type TransferStor interface {
	CreateTransfer(transfer *zrmodel.Transfer) (*zrmodel.Transfer, error)
	GetTransferByID(id int) (*zrmodel.Transfer, error)
	UpdateTransferStatus(id int, status, zenodoResponse string) (*zrmodel.Transfer, error)
	GetTransfersForUser(username string) ([]zrmodel.Transfer, error)
	GetStalePendingTransfers(olderThan time.Duration) ([]zrmodel.Transfer, error)
}

type Stors struct {
	TransferStor TransferStor
}

func NewGormStors(db *gorm.DB) *Stors {
	return &Stors{
		TransferStor: NewGormTransferStor(db),
	}
}

func IsRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// statusTransitionAllowed encodes the forward-only lifecycle for a transfer:
// pending -> in_progress -> completed|failed. Re-marking an in_progress
// transfer as in_progress is allowed so a redelivered task can restart a
// run that died mid-flight.
func statusTransitionAllowed(current, next string) bool {
	switch next {
	case zrmodel.TransferStatusInProgress:
		return current == zrmodel.TransferStatusPending || current == zrmodel.TransferStatusInProgress
	case zrmodel.TransferStatusCompleted, zrmodel.TransferStatusFailed:
		return current == zrmodel.TransferStatusInProgress
	default:
		return false
	}
}
