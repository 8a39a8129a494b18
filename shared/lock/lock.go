package lock

//go:generate go run go.uber.org/mock/mockgen -source=./lock.go -destination=./mocks/lock_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goRedis "github.com/redis/go-redis/v9"

	"innkeeper/config"
	"innkeeper/infras/otel"
	"innkeeper/shared/constant"
)

const otelLockNameAttribute = "lock.name"

// Locker serializes critical sections across instances. Booking creation
// holds a per-room mutex for the duration of the availability check and
// the insert, so two concurrent requests cannot both pass the overlap check.
type Locker interface {
	Acquire(ctx context.Context, name string) (release func(), err error)
}

type redisLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
	otel   otel.Otel
}

func NewRedisLocker(client *goRedis.Client, cfg *config.Config, ot otel.Otel) Locker {
	pool := goredis.NewPool(client)

	return &redisLocker{
		rs:     redsync.New(pool),
		expiry: time.Duration(cfg.App.Booking.LockExpirySeconds) * time.Second,
		otel:   ot,
	}
}

func (l *redisLocker) Acquire(ctx context.Context, name string) (release func(), err error) {
	ctx, scope := l.otel.NewScope(ctx, constant.OtelLockScopeName, constant.OtelLockScopeName+".Acquire")
	defer scope.End()
	defer scope.TraceIfError(err)

	scope.SetAttribute(otelLockNameAttribute, name)

	mutex := l.rs.NewMutex(name, redsync.WithExpiry(l.expiry))

	if err = mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}

	release = func() {
		// Unlock uses a background context so a cancelled request still
		// releases the mutex instead of waiting out the expiry.
		if _, unlockErr := mutex.UnlockContext(context.WithoutCancel(ctx)); unlockErr != nil {
			scope.TraceError(unlockErr)
		}
	}

	return release, nil
}
