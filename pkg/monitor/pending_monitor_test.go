package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/stor"
	"github.com/openresearchdata/zenodo-relay/pkg/zrdb/zrmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingMonitorFlagsStaleTransfers(t *testing.T) {
	transferStor := stor.NewInMemoryTransferStor()

	stale, err := transferStor.CreateTransfer(&zrmodel.Transfer{
		Username:  "pdzierzak",
		FilePath:  "/data/res/stale",
		Filename:  "stale.csv",
		CreatedAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	_, err = transferStor.CreateTransfer(&zrmodel.Transfer{Username: "pdzierzak", FilePath: "/data/res/fresh", Filename: "fresh.csv"})
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		flagged []zrmodel.Transfer
	)

	m := NewPendingMonitor(
		WithTransferStor(transferStor),
		WithCheckInterval(10*time.Millisecond),
		WithAllowedPendingAge(30*time.Minute),
		WithStalePendingHandler(func(transfers []zrmodel.Transfer) {
			mu.Lock()
			defer mu.Unlock()
			flagged = append(flagged, transfers...)
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(flagged) > 0
	}, 5*time.Second, 10*time.Millisecond, "monitor never flagged the stale transfer")

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, stale.ID, flagged[0].ID)
	for _, tr := range flagged {
		assert.Equal(t, stale.ID, tr.ID, "only the stale transfer should be flagged")
	}
}
