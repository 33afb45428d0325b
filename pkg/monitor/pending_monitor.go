// Package monitor watches for transfers stuck in pending. A transfer whose
// record was created but whose task never made it onto the queue sits in
// pending forever; the monitor is how operators find those orphans.
package monitor

import (
	"context"
	"time"

	"github.com/apex/log"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/stor"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/zrmodel"
)

type StalePendingHandlerFN func(transfers []zrmodel.Transfer)

type PendingMonitorOptionFN func(*PendingMonitor)

type PendingMonitor struct {
	transferStor        stor.TransferStor
	checkInterval       time.Duration
	allowedPendingAge   time.Duration
	stalePendingHandler StalePendingHandlerFN
}

func NewPendingMonitor(optFNs ...PendingMonitorOptionFN) *PendingMonitor {
	m := &PendingMonitor{
		checkInterval:       time.Minute,
		allowedPendingAge:   15 * time.Minute,
		stalePendingHandler: logStalePendingTransfers,
	}

	for _, optfn := range optFNs {
		optfn(m)
	}

	return m
}

func WithTransferStor(transferStor stor.TransferStor) PendingMonitorOptionFN {
	return func(m *PendingMonitor) {
		m.transferStor = transferStor
	}
}

func WithCheckInterval(interval time.Duration) PendingMonitorOptionFN {
	return func(m *PendingMonitor) {
		m.checkInterval = interval
	}
}

func WithAllowedPendingAge(age time.Duration) PendingMonitorOptionFN {
	return func(m *PendingMonitor) {
		m.allowedPendingAge = age
	}
}

func WithStalePendingHandler(f StalePendingHandlerFN) PendingMonitorOptionFN {
	return func(m *PendingMonitor) {
		m.stalePendingHandler = f
	}
}

func (m *PendingMonitor) Run(c context.Context) {
	for {
		m.checkForStalePendingTransfers()
		select {
		case <-c.Done():
			return
		case <-time.After(m.checkInterval):
		}
	}
}

func (m *PendingMonitor) checkForStalePendingTransfers() {
	transfers, err := m.transferStor.GetStalePendingTransfers(m.allowedPendingAge)
	if err != nil {
		// Problem reaching the database. Log and wait for the next sweep,
		// giving the system time to recover.
		log.Errorf("Failed retrieving stale pending transfers: %s", err)
		return
	}

	if len(transfers) == 0 {
		return
	}

	m.stalePendingHandler(transfers)
}

func logStalePendingTransfers(transfers []zrmodel.Transfer) {
	for _, t := range transfers {
		log.Warnf("Transfer %d (user %s, file %s) pending since %s; its upload task was likely never published",
			t.ID, t.Username, t.FilePath, t.CreatedAt.Format(time.RFC3339))
	}
}
