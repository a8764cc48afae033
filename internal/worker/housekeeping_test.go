package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pratik-mahalle/leafdoctor/internal/config"
	"github.com/pratik-mahalle/leafdoctor/internal/pkg/logger"
	"github.com/pratik-mahalle/leafdoctor/internal/uploads"
)

var testSchedules = config.HousekeepingConfig{
	Enabled:                true,
	UploadSweepSchedule:    "0 30 3 * * *",
	LimiterCleanupSchedule: "0 */5 * * * *",
}

type countingCleaner struct {
	idle  time.Duration
	calls int
}

func (c *countingCleaner) Cleanup(idle time.Duration) int {
	c.idle = idle
	c.calls++
	return 2
}

func TestHousekeeper_SweepUploads(t *testing.T) {
	dir := t.TempDir()
	store, err := uploads.NewLocalStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	old := uploads.NewName("old.png", "image/png")
	fresh := uploads.NewName("fresh.png", "image/png")
	require.NoError(t, store.Save(ctx, old, "image/png", []byte("old")))
	require.NoError(t, store.Save(ctx, fresh, "image/png", []byte("fresh")))

	longAgo := time.Now().Add(-45 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, old), longAgo, longAgo))

	h := NewHousekeeper(testSchedules, store, 30, time.Minute, logger.Nop())
	assert.Equal(t, 1, h.SweepUploads(ctx))

	_, err = os.Stat(filepath.Join(dir, old))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, fresh))
	assert.NoError(t, err)
}

func TestHousekeeper_SweepDisabled(t *testing.T) {
	store, err := uploads.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	h := NewHousekeeper(testSchedules, store, 0, time.Minute, logger.Nop())
	assert.Equal(t, 0, h.SweepUploads(context.Background()))
}

func TestHousekeeper_CleanupLimiters(t *testing.T) {
	a, b := &countingCleaner{}, &countingCleaner{}
	h := NewHousekeeper(testSchedules, nil, 0, 10*time.Minute, logger.Nop(), a, b)

	assert.Equal(t, 4, h.CleanupLimiters())
	assert.Equal(t, 10*time.Minute, a.idle)
	assert.Equal(t, 1, b.calls)
}

func TestHousekeeper_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	store, err := uploads.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	h := NewHousekeeper(testSchedules, store, 30, time.Minute, logger.Nop(), &countingCleaner{})

	require.NoError(t, h.Start(context.Background()))
	assert.Error(t, h.Start(context.Background()))
	h.Stop()
	h.Stop()
}

func TestHousekeeper_InvalidSchedule(t *testing.T) {
	store, err := uploads.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	cfg := testSchedules
	cfg.UploadSweepSchedule = "every night"

	h := NewHousekeeper(cfg, store, 30, time.Minute, logger.Nop())
	assert.Error(t, h.Start(context.Background()))
}
