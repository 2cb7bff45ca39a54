package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockPrefix      = "contractreview:lock:contract:"
	lockTTL         = 10 * time.Second
	lockRetryDelay  = 50 * time.Millisecond
	lockAcquireWait = 5 * time.Second
)

// ContractLocker serializes version creation per contract across instances.
// Version numbers are assigned max+1, so two writers for the same contract
// must not interleave; the DB unique constraint remains as the backstop.
type ContractLocker struct {
	client  *redis.Client
	ownerID string
}

func NewContractLocker(client *redis.Client) *ContractLocker {
	hostname, _ := os.Hostname()
	return &ContractLocker{
		client:  client,
		ownerID: fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), uuid.New().String()[:8]),
	}
}

// Acquire blocks until the per-contract lock is held or ctx/wait expires.
func (l *ContractLocker) Acquire(ctx context.Context, contractID uuid.UUID) error {
	key := lockPrefix + contractID.String()
	deadline := time.Now().Add(lockAcquireWait)

	for {
		ok, err := l.client.SetNX(ctx, key, l.ownerID, lockTTL).Result()
		if err != nil {
			return fmt.Errorf("acquire contract lock: %w", err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("acquire contract lock: timed out waiting for contract %s", contractID)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
}

// releaseScript deletes the lock only when held by this owner, so an expired
// lock re-acquired by another instance is never released from here.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Release releases the per-contract lock if this instance still holds it.
// Safe to call after expiry.
func (l *ContractLocker) Release(ctx context.Context, contractID uuid.UUID) error {
	key := lockPrefix + contractID.String()
	_, err := releaseScript.Run(ctx, l.client, []string{key}, l.ownerID).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("release contract lock: %w", err)
	}
	return nil
}
