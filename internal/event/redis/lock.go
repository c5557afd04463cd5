package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis guards a card/order pair while a promotion batch runs against it.
// Two concurrent batches on the same card or the same order would race on
// the ledger writes; the SetNX locks serialize them.
type Redis struct {
	Client  *redis.Client
	LockTTL time.Duration
}

func NewRedis(client *redis.Client, lockTTL time.Duration) *Redis {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &Redis{Client: client, LockTTL: lockTTL}
}

func cardKey(cardID int64) string {
	return fmt.Sprintf("akce_lock:card:%d", cardID)
}

func orderKey(orderID int64) string {
	return fmt.Sprintf("akce_lock:order:%d", orderID)
}

// LockCardAndOrder takes both locks, holder-tagged so only the owning batch
// can release them. Returns false if either is already held; the partially
// taken lock is rolled back.
func (r *Redis) LockCardAndOrder(ctx context.Context, cardID, orderID int64, holder string) (bool, error) {
	ok, err := r.Client.SetNX(ctx, cardKey(cardID), holder, r.LockTTL).Result()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	ok, err = r.Client.SetNX(ctx, orderKey(orderID), holder, r.LockTTL).Result()
	if err != nil {
		_ = r.unlock(ctx, cardKey(cardID), holder)
		return false, err
	}
	if !ok {
		_ = r.unlock(ctx, cardKey(cardID), holder)
		return false, nil
	}

	return true, nil
}

// UnlockCardAndOrder releases both locks if this holder still owns them.
func (r *Redis) UnlockCardAndOrder(ctx context.Context, cardID, orderID int64, holder string) error {
	cardErr := r.unlock(ctx, cardKey(cardID), holder)
	orderErr := r.unlock(ctx, orderKey(orderID), holder)
	if cardErr != nil {
		return cardErr
	}
	return orderErr
}

func (r *Redis) unlock(ctx context.Context, key, holder string) error {
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // lock expired, nothing to release
	}
	if err != nil {
		return err
	}
	if val == holder {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}
