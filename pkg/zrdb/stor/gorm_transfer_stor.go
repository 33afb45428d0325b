package stor

import (
	"time"

	"github.com/hashicorp/go-uuid"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/zrmodel"
	"gorm.io/gorm"
)

type GormTransferStor struct {
	db *gorm.DB
}

func NewGormTransferStor(db *gorm.DB) *GormTransferStor {
	return &GormTransferStor{db: db}
}

// CreateTransfer creates a new Transfer in the pending state, filling in the ID and
// UUID for the transfer passed in.
func (s *GormTransferStor) CreateTransfer(transfer *zrmodel.Transfer) (*zrmodel.Transfer, error) {
	var err error

	if transfer.UUID, err = uuid.GenerateUUID(); err != nil {
		return nil, err
	}

	transfer.Status = zrmodel.TransferStatusPending
	transfer.ZenodoResponse = ""

	err = WithTxRetry(s.db, func(tx *gorm.DB) error {
		return tx.Create(transfer).Error
	})
	if err != nil {
		return nil, err
	}

	return transfer, nil
}

func (s *GormTransferStor) GetTransferByID(id int) (*zrmodel.Transfer, error) {
	var transfer zrmodel.Transfer
	if err := s.db.First(&transfer, id).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

// UpdateTransferStatus moves a transfer to status, storing zenodoResponse alongside
// it. Updates that would move the transfer backwards are rejected with
// ErrInvalidStateTransition.
func (s *GormTransferStor) UpdateTransferStatus(id int, status, zenodoResponse string) (*zrmodel.Transfer, error) {
	err := WithTxRetry(s.db, func(tx *gorm.DB) error {
		var transfer zrmodel.Transfer
		if err := tx.First(&transfer, id).Error; err != nil {
			return err
		}

		if !statusTransitionAllowed(transfer.Status, status) {
			return ErrInvalidStateTransition
		}

		return tx.Model(&zrmodel.Transfer{}).Where("id = ?", id).
			Updates(map[string]interface{}{"status": status, "zenodo_response": zenodoResponse}).Error
	})

	if err != nil {
		return nil, err
	}

	return s.GetTransferByID(id)
}

func (s *GormTransferStor) GetTransfersForUser(username string) ([]zrmodel.Transfer, error) {
	var transfers []zrmodel.Transfer
	err := s.db.Where("username = ?", username).Order("created_at desc").Find(&transfers).Error
	return transfers, err
}

// GetStalePendingTransfers returns transfers that have sat in pending longer than
// olderThan. A submission that created its record but failed to publish its task
// shows up here; it is the operator's signal to resubmit.
func (s *GormTransferStor) GetStalePendingTransfers(olderThan time.Duration) ([]zrmodel.Transfer, error) {
	var transfers []zrmodel.Transfer
	cutoff := time.Now().Add(-olderThan)
	err := s.db.Where("status = ? and created_at < ?", zrmodel.TransferStatusPending, cutoff).
		Order("created_at desc").
		Find(&transfers).Error
	return transfers, err
}
