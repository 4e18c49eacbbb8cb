package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// AllocationLock serializes the first registration of a student for a TP so
// that two concurrent requests do not both sample and upload a dataset. The
// lock is best effort: when Redis is unavailable the caller proceeds and the
// unique constraint on assigned_classes settles the race.
type AllocationLock struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewAllocationLock constructs an AllocationLock. A nil client disables
// locking entirely.
func NewAllocationLock(client *redis.Client, ttl time.Duration, logger *zap.Logger) *AllocationLock {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &AllocationLock{client: client, ttl: ttl, logger: logger}
}

func allocationKey(tpID int, studentID string) string {
	return fmt.Sprintf("allocation_lock:%d:%s", tpID, studentID)
}

// Acquire attempts to take the lock for (tpID, studentID). It returns true
// when the lock was taken or locking is disabled, false when another request
// already holds it.
func (l *AllocationLock) Acquire(ctx context.Context, tpID int, studentID string) bool {
	if l.client == nil {
		return true
	}
	ok, err := l.client.SetNX(ctx, allocationKey(tpID, studentID), "1", l.ttl).Result()
	if err != nil {
		l.logger.Warn("allocation lock unavailable, proceeding without it",
			zap.Int("tp_id", tpID),
			zap.String("student_id", studentID),
			zap.Error(err))
		return true
	}
	return ok
}

// Release drops the lock. Safe to call after a failed Acquire.
func (l *AllocationLock) Release(ctx context.Context, tpID int, studentID string) {
	if l.client == nil {
		return
	}
	if err := l.client.Del(ctx, allocationKey(tpID, studentID)).Err(); err != nil {
		l.logger.Warn("allocation lock release failed",
			zap.Int("tp_id", tpID),
			zap.String("student_id", studentID),
			zap.Error(err))
	}
}
