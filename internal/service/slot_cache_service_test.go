package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"clinic-scheduling/internal/domain/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestSlotCache(t *testing.T) (*SlotCacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewSlotCacheService(client, quietLogger(), time.UTC)
	t.Cleanup(svc.Stop)
	return svc, mr
}

func tomorrow() string {
	return time.Now().UTC().AddDate(0, 0, 1).Format(entity.DateLayout)
}

func TestSlotCacheReadThrough(t *testing.T) {
	svc, mr := newTestSlotCache(t)
	ctx := context.Background()
	doctorID := uuid.New()
	date := tomorrow()

	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"09:00-10:00", "14:00-15:00"}, nil
	}

	first, err := svc.GetOrLoad(ctx, doctorID, date, load)
	require.NoError(t, err)
	second, err := svc.GetOrLoad(ctx, doctorID, date, load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists(dataKey(doctorID, date)))
}

func TestSlotCacheInvalidateDay(t *testing.T) {
	svc, mr := newTestSlotCache(t)
	ctx := context.Background()
	doctorID := uuid.New()
	date := tomorrow()

	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"09:00-10:00"}, nil
	}

	_, err := svc.GetOrLoad(ctx, doctorID, date, load)
	require.NoError(t, err)

	svc.InvalidateDay(ctx, doctorID, date)
	assert.False(t, mr.Exists(dataKey(doctorID, date)))

	_, err = svc.GetOrLoad(ctx, doctorID, date, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSlotCacheInvalidateSurvivesCancelledRequest(t *testing.T) {
	svc, _ := newTestSlotCache(t)
	doctorID := uuid.New()
	date := tomorrow()

	_, err := svc.GetOrLoad(context.Background(), doctorID, date, func(context.Context) ([]string, error) {
		return []string{"09:00-10:00", "10:00-11:00"}, nil
	})
	require.NoError(t, err)

	// the client went away right after the booking committed
	gone, cancel := context.WithCancel(context.Background())
	cancel()
	svc.InvalidateDay(gone, doctorID, date)

	slots, err := svc.GetOrLoad(context.Background(), doctorID, date, func(context.Context) ([]string, error) {
		return []string{"10:00-11:00"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00-11:00"}, slots)
}

func TestSlotCacheInvalidateDoctorSurvivesCancelledRequest(t *testing.T) {
	svc, mr := newTestSlotCache(t)
	doctorID := uuid.New()
	date := tomorrow()

	_, err := svc.GetOrLoad(context.Background(), doctorID, date, func(context.Context) ([]string, error) {
		return []string{"09:00-10:00"}, nil
	})
	require.NoError(t, err)

	gone, cancel := context.WithCancel(context.Background())
	cancel()
	svc.InvalidateDoctor(gone, doctorID)

	assert.False(t, mr.Exists(dataKey(doctorID, date)))
}

func TestSlotCacheSkipsWriteWhenInvalidatedDuringLoad(t *testing.T) {
	svc, mr := newTestSlotCache(t)
	ctx := context.Background()
	doctorID := uuid.New()
	date := tomorrow()

	racing := func(ctx context.Context) ([]string, error) {
		// a booking commits while the stale list is being computed
		svc.InvalidateDay(ctx, doctorID, date)
		return []string{"09:00-10:00"}, nil
	}

	slots, err := svc.GetOrLoad(ctx, doctorID, date, racing)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00-10:00"}, slots)
	assert.False(t, mr.Exists(dataKey(doctorID, date)))
}

func TestSlotCacheInvalidateDoctor(t *testing.T) {
	svc, mr := newTestSlotCache(t)
	ctx := context.Background()
	doctorID := uuid.New()
	other := uuid.New()
	day1 := tomorrow()
	day2 := time.Now().UTC().AddDate(0, 0, 2).Format(entity.DateLayout)

	load := func(context.Context) ([]string, error) { return []string{"09:00-10:00"}, nil }
	for _, d := range []string{day1, day2} {
		_, err := svc.GetOrLoad(ctx, doctorID, d, load)
		require.NoError(t, err)
	}
	_, err := svc.GetOrLoad(ctx, other, day1, load)
	require.NoError(t, err)

	svc.InvalidateDoctor(ctx, doctorID)

	assert.False(t, mr.Exists(dataKey(doctorID, day1)))
	assert.False(t, mr.Exists(dataKey(doctorID, day2)))
	assert.True(t, mr.Exists(dataKey(other, day1)))
}

func TestSlotCacheFallsBackWhenRedisDown(t *testing.T) {
	svc, mr := newTestSlotCache(t)
	mr.Close()

	slots, err := svc.GetOrLoad(context.Background(), uuid.New(), tomorrow(), func(context.Context) ([]string, error) {
		return []string{"10:00-11:00"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00-11:00"}, slots)
}

func TestSlotCachePropagatesLoadError(t *testing.T) {
	svc, _ := newTestSlotCache(t)
	boom := errors.New("db down")

	_, err := svc.GetOrLoad(context.Background(), uuid.New(), tomorrow(), func(context.Context) ([]string, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestCalculateTTL(t *testing.T) {
	svc, _ := newTestSlotCache(t)

	assert.Equal(t, time.Minute, svc.calculateTTL("2001-01-01"))
	assert.Equal(t, time.Minute, svc.calculateTTL("not-a-date"))
	assert.Equal(t, slotCacheMaxTTL, svc.calculateTTL(time.Now().UTC().AddDate(0, 0, 5).Format(entity.DateLayout)))
}
