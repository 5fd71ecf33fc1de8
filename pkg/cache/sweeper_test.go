package cache

import (
	"context"
	"testing"
	"time"

	"github.com/ErikPlachta/sheetpipe/internal/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeper_Lifecycle(t *testing.T) {
	store := newTestStore(t)

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	sweeper := NewSweeper(log, store, &Config{DefaultTTLMs: 900000, SweepIntervalSeconds: 60})
	require.NoError(t, sweeper.Start())
	require.NoError(t, sweeper.Stop())

	// Stop without Start is a no-op
	assert.NoError(t, (&Sweeper{}).Stop())
}

func TestSweeper_SweepRemovesExpired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }
	require.NoError(t, store.Put(ctx, "sales-summary", nil, testutil.SampleRows(1), time.Minute))

	store.now = func() time.Time { return base.Add(10 * time.Minute) }

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	sweeper := NewSweeper(log, store, &Config{DefaultTTLMs: 900000, SweepIntervalSeconds: 60})
	sweeper.sweep()

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
}
