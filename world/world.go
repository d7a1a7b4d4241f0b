// Package world edits the nodes of a Luanti world through its map database.
//
// A World reads the block holding a node, changes it and writes it back.
// Edits to several nodes are grouped so that each block is read and written
// once. There is no transaction across blocks: a failure part way through
// leaves earlier blocks written.
package world

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/arloliu/mtblock/compress"
	"github.com/arloliu/mtblock/errs"
	"github.com/arloliu/mtblock/internal/options"
	"github.com/arloliu/mtblock/mapblock"
	"github.com/arloliu/mtblock/storage"
	"github.com/prometheus/client_golang/prometheus"
)

// Node is the content of one node.
type Node struct {
	Name   string
	Param1 uint8
	Param2 uint8
}

// Edit places Node at Pos.
type Edit struct {
	Pos  mapblock.NodePos
	Node Node
}

type config struct {
	logger     *slog.Logger
	compressor compress.Compressor
	registerer prometheus.Registerer
	fill       string
}

// Option configures a World.
type Option = options.Option[*config]

// WithLogger sets the logger. Decode and encode warnings are logged at warn level.
func WithLogger(l *slog.Logger) Option {
	return options.New(func(cfg *config) error {
		if l == nil {
			return errors.New("nil logger")
		}
		cfg.logger = l

		return nil
	})
}

// WithCompressor replaces the zstd compressor used when writing blocks.
func WithCompressor(c compress.Compressor) Option {
	return options.New(func(cfg *config) error {
		if c == nil {
			return errors.New("nil compressor")
		}
		cfg.compressor = c

		return nil
	})
}

// WithMetrics registers the world's metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return options.NoError(func(cfg *config) {
		cfg.registerer = reg
	})
}

// WithCreateMissing makes reads of positions with no stored block return an
// empty block filled with fill instead of errs.ErrBlockNotFound.
func WithCreateMissing(fill string) Option {
	return options.New(func(cfg *config) error {
		if fill == "" {
			return errors.New("empty fill node name")
		}
		cfg.fill = fill

		return nil
	})
}

// World edits nodes stored in a Store. It is not safe for concurrent edits of
// the same block.
type World struct {
	store      storage.Store
	logger     *slog.Logger
	compressor compress.Compressor
	metrics    *Metrics
	fill       string
}

// New returns a World over store. The World takes ownership of store.
func New(store storage.Store, opts ...Option) (*World, error) {
	cfg, err := options.Build(&config{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		compressor: compress.NewZstdCompressor(),
	}, opts...)
	if err != nil {
		return nil, err
	}

	w := &World{
		store:      store,
		logger:     cfg.logger,
		compressor: cfg.compressor,
		fill:       cfg.fill,
	}
	if cfg.registerer != nil {
		if w.metrics, err = NewMetrics(cfg.registerer); err != nil {
			return nil, fmt.Errorf("register world metrics: %w", err)
		}
	}

	return w, nil
}

// Store returns the underlying store.
func (w *World) Store() storage.Store {
	return w.store
}

// ReadBlock loads and decodes the block at pos.
func (w *World) ReadBlock(ctx context.Context, pos mapblock.BlockPos) (*mapblock.Block, error) {
	data, err := w.store.Get(ctx, pos)
	if errors.Is(err, errs.ErrBlockNotFound) && w.fill != "" {
		w.logger.Debug("creating missing block", slog.String("block", pos.String()), slog.String("fill", w.fill))
		if w.metrics != nil {
			w.metrics.blocksCreated.Inc()
		}

		return mapblock.New(w.fill), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read block %s: %w", pos, err)
	}

	start := time.Now()
	block, warnings, err := mapblock.Decode(data)
	if w.metrics != nil {
		w.metrics.blocksRead.Inc()
		w.metrics.decodeSeconds.Observe(time.Since(start).Seconds())
	}
	w.logWarnings(ctx, pos, "decode", warnings)
	if err != nil {
		return nil, fmt.Errorf("read block %s: %w", pos, err)
	}

	return block, nil
}

// WriteBlock encodes, compresses and stores block at pos.
func (w *World) WriteBlock(ctx context.Context, pos mapblock.BlockPos, block *mapblock.Block) error {
	data, warnings, err := mapblock.Marshal(block, mapblock.WithCompressor(w.compressor))
	w.logWarnings(ctx, pos, "encode", warnings)
	if err != nil {
		return fmt.Errorf("write block %s: %w", pos, err)
	}

	if err := w.store.Set(ctx, pos, data); err != nil {
		return fmt.Errorf("write block %s: %w", pos, err)
	}
	if w.metrics != nil {
		w.metrics.blocksWritten.Inc()
	}

	return nil
}

// GetNode returns the node at pos.
func (w *World) GetNode(ctx context.Context, pos mapblock.NodePos) (Node, error) {
	bp, local, err := pos.Split()
	if err != nil {
		return Node{}, err
	}

	block, err := w.ReadBlock(ctx, bp)
	if err != nil {
		return Node{}, err
	}

	v, err := block.Voxel(local)
	if err != nil {
		return Node{}, err
	}
	name, err := block.NodeName(local)
	if err != nil {
		return Node{}, fmt.Errorf("node %s: %w", pos, err)
	}

	return Node{Name: name, Param1: v.Param1, Param2: v.Param2}, nil
}

// SetNode replaces the node at pos.
func (w *World) SetNode(ctx context.Context, pos mapblock.NodePos, node Node) error {
	_, err := w.SetNodes(ctx, []Edit{{Pos: pos, Node: node}})
	return err
}

// SetNodes applies edits in order and returns the number of blocks written.
// Edits are grouped by block; each block is read and written once, in the
// order its first edit appears. Later edits of the same node win. An edit
// outside the world fails the call before any block is written.
func (w *World) SetNodes(ctx context.Context, edits []Edit) (int, error) {
	type localEdit struct {
		pos  mapblock.Pos
		node Node
		at   mapblock.NodePos
	}

	var order []mapblock.BlockPos
	groups := make(map[mapblock.BlockPos][]localEdit)
	for _, e := range edits {
		bp, local, err := e.Pos.Split()
		if err != nil {
			return 0, fmt.Errorf("set node: %w", err)
		}
		if _, ok := groups[bp]; !ok {
			order = append(order, bp)
		}
		groups[bp] = append(groups[bp], localEdit{pos: local, node: e.Node, at: e.Pos})
	}

	written := 0
	for _, bp := range order {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		block, err := w.ReadBlock(ctx, bp)
		if err != nil {
			return written, err
		}

		for _, e := range groups[bp] {
			if _, err := block.SetVoxel(e.pos, e.node.Name, e.node.Param1, e.node.Param2); err != nil {
				return written, fmt.Errorf("set node %s: %w", e.at, err)
			}
		}

		if err := w.WriteBlock(ctx, bp, block); err != nil {
			return written, err
		}
		written++
		if w.metrics != nil {
			w.metrics.nodesSet.Add(float64(len(groups[bp])))
		}
		w.logger.Debug("block updated", slog.String("block", bp.String()), slog.Int("nodes", len(groups[bp])))
	}

	return written, nil
}

// Blocks lists the positions of every stored block.
func (w *World) Blocks(ctx context.Context) ([]mapblock.BlockPos, error) {
	return w.store.List(ctx)
}

// Close closes the underlying store.
func (w *World) Close() error {
	return w.store.Close()
}

func (w *World) logWarnings(ctx context.Context, pos mapblock.BlockPos, op string, warnings mapblock.Warnings) {
	for _, warn := range warnings {
		if w.metrics != nil {
			w.metrics.warnings.WithLabelValues(warn.Code.String()).Inc()
		}
		w.logger.LogAttrs(ctx, slog.LevelWarn, "map block "+op+" warning",
			slog.String("block", pos.String()),
			slog.String("code", warn.Code.String()),
			slog.String("field", warn.Field),
			slog.String("detail", warn.String()),
		)
	}
}
