package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/arloliu/mtblock/errs"
	"github.com/arloliu/mtblock/internal/options"
)

// Database file names inside a world directory.
const (
	SQLiteFile  = "map.sqlite"
	LevelDBFile = "map.db"
)

type openConfig struct {
	backend string
	redis   *RedisOptions
}

// OpenOption configures Open.
type OpenOption = options.Option[*openConfig]

// WithBackend overrides the backend named in world.mt.
func WithBackend(name string) OpenOption {
	return options.NoError(func(cfg *openConfig) {
		cfg.backend = name
	})
}

// WithRedis overrides the redis settings of world.mt. Empty fields keep the
// world.mt value.
func WithRedis(o RedisOptions) OpenOption {
	return options.NoError(func(cfg *openConfig) {
		cfg.redis = &o
	})
}

// Open opens the map database of the world directory dir.
//
// The backend is taken from world.mt, defaulting to sqlite3 when the file or
// the setting is missing.
func Open(ctx context.Context, dir string, opts ...OpenOption) (Store, error) {
	cfg, err := options.Build(&openConfig{}, opts...)
	if err != nil {
		return nil, err
	}

	mt, err := LoadWorldMT(dir)
	if errors.Is(err, fs.ErrNotExist) {
		mt = WorldMT{}
	} else if err != nil {
		return nil, err
	}

	backend := cfg.backend
	if backend == "" {
		backend = mt.Backend()
	}

	var (
		store Store
		oerr  error
	)
	switch backend {
	case BackendSQLite3:
		store, oerr = asStore(OpenSQLite(ctx, filepath.Join(dir, SQLiteFile)))
	case BackendLevelDB:
		store, oerr = asStore(OpenLevelDB(filepath.Join(dir, LevelDBFile)))
	case BackendRedis:
		ro, err := mt.RedisOptions()
		if err != nil {
			return nil, err
		}
		store, oerr = asStore(OpenRedis(ctx, mergeRedisOptions(ro, cfg.redis)))
	case BackendDummy:
		store = NewMemoryStore()
	default:
		oerr = fmt.Errorf("%w: %q", errs.ErrUnsupportedBackend, backend)
	}
	if oerr != nil {
		return nil, oerr
	}

	return store, nil
}

// asStore keeps a failed open from returning a non-nil Store holding a nil pointer.
func asStore(s Store, err error) (Store, error) {
	if err != nil {
		return nil, err
	}

	return s, nil
}

func mergeRedisOptions(base RedisOptions, override *RedisOptions) RedisOptions {
	if override == nil {
		return base
	}
	if override.Address != "" {
		base.Address = override.Address
	}
	if override.Hash != "" {
		base.Hash = override.Hash
	}
	if override.Password != "" {
		base.Password = override.Password
	}
	if override.DB != 0 {
		base.DB = override.DB
	}

	return base
}
