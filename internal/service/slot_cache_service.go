package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"clinic-scheduling/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// setIfVersionScript stores a computed free-slot list only if neither the
// day version nor the doctor generation moved since the computation started.
//
// KEYS[1] data key, KEYS[2] day version key, KEYS[3] doctor generation key
// ARGV[1] expected day version, ARGV[2] expected generation,
// ARGV[3] payload, ARGV[4] ttl in milliseconds
var setIfVersionScript = redis.NewScript(`
	local dayVersion = redis.call('GET', KEYS[2]) or '0'
	local generation = redis.call('GET', KEYS[3]) or '0'
	if dayVersion ~= ARGV[1] or generation ~= ARGV[2] then
		return 0
	end
	redis.call('SET', KEYS[1], ARGV[3], 'PX', ARGV[4])
	return 1
`)

const (
	slotCacheKeyPrefix      = "slots:free:"
	slotVersionKeyPrefix    = "slots:ver:"
	slotGenerationKeyPrefix = "slots:gen:"

	slotCacheMaxTTL = time.Hour

	mutexCleanupInterval = 10 * time.Minute
	mutexStaleThreshold  = 10 * time.Minute

	scanBatchSize = 200

	invalidateTimeout = 5 * time.Second
)

// SlotLoader computes the free slots of one doctor-day from storage.
type SlotLoader func(ctx context.Context) ([]string, error)

type SlotCache interface {
	GetOrLoad(ctx context.Context, doctorID uuid.UUID, date string, load SlotLoader) ([]string, error)
	InvalidateDay(ctx context.Context, doctorID uuid.UUID, dates ...string)
	InvalidateDoctor(ctx context.Context, doctorID uuid.UUID)
}

// SlotCacheService is a read-through Redis cache of free slots keyed by
// doctor and calendar day. Redis failures never fail a request; the loader
// result is returned uncached instead.
//
// Lock ordering: the per-key mutex is taken before any Redis call.
type SlotCacheService struct {
	redisClient *redis.Client
	log         *logrus.Logger
	location    *time.Location

	keyMu sync.Map // map[string]*mutexWithTimestamp

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

type mutexWithTimestamp struct {
	mu       sync.Mutex
	lastUsed atomic.Int64 // Unix timestamp
}

// NewSlotCacheService starts a background goroutine that drops idle
// per-key mutexes. Call Stop() during shutdown.
func NewSlotCacheService(redisClient *redis.Client, log *logrus.Logger, location *time.Location) *SlotCacheService {
	svc := &SlotCacheService{
		redisClient: redisClient,
		log:         log,
		location:    location,
		stopChan:    make(chan struct{}),
	}

	svc.wg.Add(1)
	go svc.cleanupMutexMapLoop()

	return svc
}

// Stop is safe to call multiple times.
func (s *SlotCacheService) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
		s.wg.Wait()
		s.log.Info("SlotCacheService stopped")
	}
}

func dataKey(doctorID uuid.UUID, date string) string {
	return fmt.Sprintf("%s%s:%s", slotCacheKeyPrefix, doctorID, date)
}

func versionKey(doctorID uuid.UUID, date string) string {
	return fmt.Sprintf("%s%s:%s", slotVersionKeyPrefix, doctorID, date)
}

func generationKey(doctorID uuid.UUID) string {
	return slotGenerationKeyPrefix + doctorID.String()
}

func (s *SlotCacheService) GetOrLoad(ctx context.Context, doctorID uuid.UUID, date string, load SlotLoader) ([]string, error) {
	key := dataKey(doctorID, date)

	mt := s.getKeyMutex(key)
	mt.mu.Lock()
	defer mt.mu.Unlock()

	if cached, err := s.redisClient.Get(ctx, key).Bytes(); err == nil {
		var slots []string
		if err := json.Unmarshal(cached, &slots); err == nil {
			return slots, nil
		}
		s.log.Warnf("Discarding malformed cache entry %s", key)
	} else if err != redis.Nil {
		s.log.Warnf("Failed to read slot cache %s: %+v", key, err)
		return load(ctx)
	}

	versions, err := s.redisClient.MGet(ctx, versionKey(doctorID, date), generationKey(doctorID)).Result()
	if err != nil {
		s.log.Warnf("Failed to read slot cache versions for %s: %+v", key, err)
		return load(ctx)
	}

	slots, err := load(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(slots)
	if err != nil {
		return slots, nil
	}

	ttl := s.calculateTTL(date)
	stored, err := setIfVersionScript.Run(ctx, s.redisClient,
		[]string{key, versionKey(doctorID, date), generationKey(doctorID)},
		counterValue(versions[0]), counterValue(versions[1]), payload, ttl.Milliseconds(),
	).Int()
	if err != nil {
		s.log.Warnf("Failed to store slot cache %s: %+v", key, err)
		return slots, nil
	}
	if stored == 0 {
		s.log.Debugf("Skipped slot cache write for %s: invalidated during load", key)
	}

	return slots, nil
}

// detach keeps invalidation running after the caller's request is gone.
// The write it follows has already committed.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
}

// InvalidateDay bumps the version of each doctor-day and drops its entry.
func (s *SlotCacheService) InvalidateDay(ctx context.Context, doctorID uuid.UUID, dates ...string) {
	if len(dates) == 0 {
		return
	}

	ctx, cancel := detach(ctx)
	defer cancel()

	pipe := s.redisClient.TxPipeline()
	for _, date := range dates {
		verKey := versionKey(doctorID, date)
		pipe.Incr(ctx, verKey)
		pipe.Expire(ctx, verKey, s.calculateTTL(date))
		pipe.Del(ctx, dataKey(doctorID, date))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warnf("Failed to invalidate slot cache for doctor %s: %+v", doctorID, err)
		return
	}
	s.log.Debugf("Invalidated slot cache for doctor %s on %v", doctorID, dates)
}

// InvalidateDoctor drops every cached day of a doctor, used when the
// doctor's slot labels change.
func (s *SlotCacheService) InvalidateDoctor(ctx context.Context, doctorID uuid.UUID) {
	ctx, cancel := detach(ctx)
	defer cancel()

	if err := s.redisClient.Incr(ctx, generationKey(doctorID)).Err(); err != nil {
		s.log.Warnf("Failed to bump slot cache generation for doctor %s: %+v", doctorID, err)
		return
	}

	pattern := fmt.Sprintf("%s%s:*", slotCacheKeyPrefix, doctorID)
	iter := s.redisClient.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.log.Warnf("Failed to scan slot cache for doctor %s: %+v", doctorID, err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.redisClient.Del(ctx, keys...).Err(); err != nil {
		s.log.Warnf("Failed to delete slot cache for doctor %s: %+v", doctorID, err)
		return
	}
	s.log.Debugf("Dropped %d cached days for doctor %s", len(keys), doctorID)
}

func counterValue(v interface{}) string {
	if str, ok := v.(string); ok {
		return str
	}
	return "0"
}

func (s *SlotCacheService) getKeyMutex(key string) *mutexWithTimestamp {
	mt, _ := s.keyMu.LoadOrStore(key, &mutexWithTimestamp{})
	result := mt.(*mutexWithTimestamp)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

func (s *SlotCacheService) cleanupMutexMapLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(mutexCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanupStaleMutexes()
		}
	}
}

// cleanupStaleMutexes checks lastUsed under the lock so a mutex picked up
// concurrently is never dropped.
func (s *SlotCacheService) cleanupStaleMutexes() {
	cutoffTime := time.Now().Add(-mutexStaleThreshold).Unix()
	var cleaned int

	s.keyMu.Range(func(key, value any) bool {
		mt, ok := value.(*mutexWithTimestamp)
		if !ok {
			return true
		}
		if mt.mu.TryLock() {
			if mt.lastUsed.Load() < cutoffTime {
				s.keyMu.Delete(key)
				cleaned++
			}
			mt.mu.Unlock()
		}
		return true
	})

	if cleaned > 0 {
		s.log.Debugf("Cleaned up %d stale slot cache mutexes", cleaned)
	}
}

// calculateTTL keeps entries until the day is over, capped at
// slotCacheMaxTTL. Past days get a short TTL.
func (s *SlotCacheService) calculateTTL(date string) time.Duration {
	day, err := time.ParseInLocation(entity.DateLayout, date, s.location)
	if err != nil {
		return time.Minute
	}

	ttl := time.Until(day.AddDate(0, 0, 1))
	if ttl <= 0 {
		return time.Minute
	}
	if ttl > slotCacheMaxTTL {
		return slotCacheMaxTTL
	}
	return ttl
}
