package storage

import (
	"bytes"
	"context"
	"sync"

	"github.com/arloliu/mtblock/errs"
	"github.com/arloliu/mtblock/mapblock"
)

// MemoryStore keeps blocks in a map. It backs the engine's "dummy" backend.
//
// MemoryStore is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	blocks map[mapblock.BlockPos][]byte
	closed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blocks: make(map[mapblock.BlockPos][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, pos mapblock.BlockPos) ([]byte, error) {
	if err := pos.Check(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errs.ErrStoreClosed
	}
	data, ok := s.blocks[pos]
	if !ok {
		return nil, errs.ErrBlockNotFound
	}

	return bytes.Clone(data), nil
}

func (s *MemoryStore) Set(ctx context.Context, pos mapblock.BlockPos, data []byte) error {
	if err := pos.Check(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errs.ErrStoreClosed
	}
	s.blocks[pos] = bytes.Clone(data)

	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, pos mapblock.BlockPos) error {
	if err := pos.Check(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errs.ErrStoreClosed
	}
	delete(s.blocks, pos)

	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]mapblock.BlockPos, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errs.ErrStoreClosed
	}
	positions := make([]mapblock.BlockPos, 0, len(s.blocks))
	for pos := range s.blocks {
		positions = append(positions, pos)
	}
	sortPositions(positions)

	return positions, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.blocks = nil

	return nil
}
