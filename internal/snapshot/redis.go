package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yola1107/twisted/pkg/xredis"
)

const redisKeyPrefix = "twisted:snapshot:"

type redisRepo struct {
	rdb *redis.Client
}

func NewRedisRepo(ctx context.Context, addr, password string, db int) (Repo, error) {
	rdb := xredis.NewClient(
		xredis.WithAddress(addr),
		xredis.WithPassword(password),
		xredis.WithDB(db),
	)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisRepoFromClient(rdb), nil
}

func NewRedisRepoFromClient(rdb *redis.Client) Repo {
	return &redisRepo{rdb: rdb}
}

func redisKey(id uuid.UUID) string {
	return redisKeyPrefix + id.String()
}

func (r *redisRepo) Put(ctx context.Context, id uuid.UUID, data []byte) error {
	return r.rdb.Set(ctx, redisKey(id), data, 0).Err()
}

func (r *redisRepo) Get(ctx context.Context, id uuid.UUID) ([]byte, error) {
	data, err := r.rdb.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotExist
	}
	return data, err
}

func (r *redisRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.rdb.Del(ctx, redisKey(id)).Err()
}

func (r *redisRepo) Close() error {
	return r.rdb.Close()
}
