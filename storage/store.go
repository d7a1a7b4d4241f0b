// Package storage reads and writes the map database of a Luanti world.
//
// Every backend keeps the stored form of each block, as produced by
// mapblock.Marshal, under its block position. The engine's sqlite3, leveldb
// and redis layouts are supported, plus an in-memory store.
package storage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/arloliu/mtblock/errs"
	"github.com/arloliu/mtblock/mapblock"
)

// Backend names as written to world.mt.
const (
	BackendSQLite3 = "sqlite3"
	BackendLevelDB = "leveldb"
	BackendRedis   = "redis"
	BackendDummy   = "dummy"
)

// Store is a block database.
//
// Get returns errs.ErrBlockNotFound for a position with no block. Set replaces
// any existing block and is durable once it returns. Get, Set and Delete
// reject positions outside the world with errs.ErrOutOfRange, since the
// integer key of such a position would alias another block.
type Store interface {
	Get(ctx context.Context, pos mapblock.BlockPos) ([]byte, error)
	Set(ctx context.Context, pos mapblock.BlockPos, data []byte) error
	Delete(ctx context.Context, pos mapblock.BlockPos) error
	// List returns every stored position, ordered by their integer key.
	List(ctx context.Context) ([]mapblock.BlockPos, error)
	Close() error
}

// blockKey is the decimal text of the position's integer key, used by the
// leveldb and redis layouts.
func blockKey(pos mapblock.BlockPos) string {
	return strconv.FormatInt(pos.Int64(), 10)
}

func parseBlockKey(key string) (mapblock.BlockPos, error) {
	v, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return mapblock.BlockPos{}, fmt.Errorf("%w: %q", errs.ErrInvalidBlockKey, key)
	}

	return mapblock.BlockPosFromInt64(v), nil
}

func sortPositions(positions []mapblock.BlockPos) {
	slices.SortFunc(positions, func(a, b mapblock.BlockPos) int {
		return cmp.Compare(a.Int64(), b.Int64())
	})
}
