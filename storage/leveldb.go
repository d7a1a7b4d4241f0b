package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/mtblock/errs"
	"github.com/arloliu/mtblock/mapblock"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDBStore is the engine's map.db database. Keys are the decimal text of
// the block's integer key.
type LevelDBStore struct {
	db *leveldb.DB
}

var _ Store = (*LevelDBStore)(nil)

var syncWrite = &opt.WriteOptions{Sync: true}

// OpenLevelDB opens or creates the database directory at path.
func OpenLevelDB(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb database %s: %w", path, err)
	}

	return NewLevelDBStore(db), nil
}

// NewLevelDBStore wraps an open database. The store takes ownership of db.
func NewLevelDBStore(db *leveldb.DB) *LevelDBStore {
	return &LevelDBStore{db: db}
}

func (s *LevelDBStore) Get(ctx context.Context, pos mapblock.BlockPos) ([]byte, error) {
	if err := pos.Check(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.db.Get([]byte(blockKey(pos)), nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return nil, errs.ErrBlockNotFound
	case errors.Is(err, leveldb.ErrClosed):
		return nil, errs.ErrStoreClosed
	case err != nil:
		return nil, fmt.Errorf("get block %s: %w", pos, err)
	}

	return data, nil
}

func (s *LevelDBStore) Set(ctx context.Context, pos mapblock.BlockPos, data []byte) error {
	if err := pos.Check(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	batch.Put([]byte(blockKey(pos)), data)
	if err := s.db.Write(batch, syncWrite); err != nil {
		if errors.Is(err, leveldb.ErrClosed) {
			return errs.ErrStoreClosed
		}

		return fmt.Errorf("set block %s: %w", pos, err)
	}

	return nil
}

func (s *LevelDBStore) Delete(ctx context.Context, pos mapblock.BlockPos) error {
	if err := pos.Check(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.db.Delete([]byte(blockKey(pos)), syncWrite); err != nil {
		if errors.Is(err, leveldb.ErrClosed) {
			return errs.ErrStoreClosed
		}

		return fmt.Errorf("delete block %s: %w", pos, err)
	}

	return nil
}

// List walks every key. Keys that are not block positions are skipped.
func (s *LevelDBStore) List(ctx context.Context) ([]mapblock.BlockPos, error) {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	var positions []mapblock.BlockPos
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pos, err := parseBlockKey(string(iter.Key()))
		if err != nil {
			continue
		}
		positions = append(positions, pos)
	}
	if err := iter.Error(); err != nil {
		if errors.Is(err, leveldb.ErrClosed) {
			return nil, errs.ErrStoreClosed
		}

		return nil, fmt.Errorf("list blocks: %w", err)
	}
	sortPositions(positions)

	return positions, nil
}

func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
