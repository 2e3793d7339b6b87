package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestEvictorEnforcesBoundPeriodically(t *testing.T) {
	mgr, ft, idx, _ := newTestManager(t, newFakeDurable(), ManagerConfig{MaxUserCount: 2})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 4; i++ {
		user := fmt.Sprintf("user-%d", i)
		require.NoError(t, ft.Push(ctx, user, testRecord(user, i+1)))
		require.NoError(t, idx.Touch(ctx, user, float64(i+1)))
	}

	ev := NewEvictor(mgr, time.Hour, zerolog.Nop())
	done := make(chan struct{})
	go func() {
		_ = ev.Run(ctx)
		close(done)
	}()

	// The evictor runs an immediate pass on start.
	waitForCount(t, idx, 2)
	cancel()
	<-done
}
