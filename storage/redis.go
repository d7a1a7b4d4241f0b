package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/mtblock/errs"
	"github.com/arloliu/mtblock/mapblock"
	"github.com/go-redis/redis/v8"
)

// RedisOptions locates the hash holding a world's blocks.
type RedisOptions struct {
	Address  string
	Hash     string
	Password string
	DB       int
}

// RedisStore keeps blocks as fields of one redis hash. Field names are the
// decimal text of the block's integer key.
type RedisStore struct {
	client *redis.Client
	hash   string
}

var _ Store = (*RedisStore)(nil)

// OpenRedis connects to the server and checks it answers.
func OpenRedis(ctx context.Context, o RedisOptions) (*RedisStore, error) {
	if o.Hash == "" {
		return nil, errors.New("open redis store: missing hash name")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     o.Address,
		Password: o.Password,
		DB:       o.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("open redis store %s: %w", o.Address, err)
	}

	return NewRedisStore(client, o.Hash), nil
}

// NewRedisStore wraps a connected client. The store takes ownership of client.
func NewRedisStore(client *redis.Client, hash string) *RedisStore {
	return &RedisStore{client: client, hash: hash}
}

func (s *RedisStore) Get(ctx context.Context, pos mapblock.BlockPos) ([]byte, error) {
	if err := pos.Check(); err != nil {
		return nil, err
	}

	data, err := s.client.HGet(ctx, s.hash, blockKey(pos)).Bytes()
	if err != nil {
		return nil, redisError(fmt.Sprintf("get block %s", pos), err)
	}

	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, pos mapblock.BlockPos, data []byte) error {
	if err := pos.Check(); err != nil {
		return err
	}

	if err := s.client.HSet(ctx, s.hash, blockKey(pos), data).Err(); err != nil {
		return redisError(fmt.Sprintf("set block %s", pos), err)
	}

	return nil
}

func (s *RedisStore) Delete(ctx context.Context, pos mapblock.BlockPos) error {
	if err := pos.Check(); err != nil {
		return err
	}

	if err := s.client.HDel(ctx, s.hash, blockKey(pos)).Err(); err != nil {
		return redisError(fmt.Sprintf("delete block %s", pos), err)
	}

	return nil
}

// List reads every field name of the hash. Fields that are not block
// positions are skipped.
func (s *RedisStore) List(ctx context.Context) ([]mapblock.BlockPos, error) {
	keys, err := s.client.HKeys(ctx, s.hash).Result()
	if err != nil {
		return nil, redisError("list blocks", err)
	}

	return positionsFromKeys(keys), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func positionsFromKeys(keys []string) []mapblock.BlockPos {
	positions := make([]mapblock.BlockPos, 0, len(keys))
	for _, key := range keys {
		pos, err := parseBlockKey(key)
		if err != nil {
			continue
		}
		positions = append(positions, pos)
	}
	sortPositions(positions)

	return positions
}

func redisError(op string, err error) error {
	switch {
	case errors.Is(err, redis.Nil):
		return errs.ErrBlockNotFound
	case errors.Is(err, redis.ErrClosed):
		return errs.ErrStoreClosed
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
