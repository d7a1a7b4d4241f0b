package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arloliu/mtblock/errs"
	"github.com/arloliu/mtblock/mapblock"

	_ "modernc.org/sqlite"
)

const createBlocksTable = `
	CREATE TABLE IF NOT EXISTS blocks (
		x    INTEGER,
		y    INTEGER,
		z    INTEGER,
		data BLOB NOT NULL,
		PRIMARY KEY (x, z, y)
	)`

// SQLiteStore is the engine's map.sqlite database.
//
// Older worlds key blocks by a single integer column (blocks(pos, data));
// newer worlds use blocks(x, y, z, data). Both are detected on open.
type SQLiteStore struct {
	db     *sql.DB
	legacy bool
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the database at path. A database without a
// blocks table gets the current schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}

	s := &SQLiteStore{db: db}
	if err := s.detectSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}

	return s, nil
}

func (s *SQLiteStore) detectSchema(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info('blocks')`)
	if err != nil {
		return fmt.Errorf("read blocks schema: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("read blocks schema: %w", err)
		}
		columns[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read blocks schema: %w", err)
	}

	switch {
	case len(columns) == 0:
		if _, err := s.db.ExecContext(ctx, createBlocksTable); err != nil {
			return fmt.Errorf("create blocks table: %w", err)
		}
	case columns["pos"]:
		s.legacy = true
	case !columns["x"] || !columns["y"] || !columns["z"]:
		return errors.New("unrecognized blocks table schema")
	}

	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, pos mapblock.BlockPos) ([]byte, error) {
	if err := pos.Check(); err != nil {
		return nil, err
	}

	var row *sql.Row
	if s.legacy {
		row = s.db.QueryRowContext(ctx, `SELECT data FROM blocks WHERE pos = ?`, pos.Int64())
	} else {
		row = s.db.QueryRowContext(ctx, `SELECT data FROM blocks WHERE x = ? AND y = ? AND z = ?`, pos.X, pos.Y, pos.Z)
	}

	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrBlockNotFound
		}

		return nil, fmt.Errorf("get block %s: %w", pos, err)
	}

	return data, nil
}

func (s *SQLiteStore) Set(ctx context.Context, pos mapblock.BlockPos, data []byte) error {
	if err := pos.Check(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set block %s: begin: %w", pos, err)
	}
	defer tx.Rollback() //nolint: errcheck

	if s.legacy {
		_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO blocks (pos, data) VALUES (?, ?)`, pos.Int64(), data)
	} else {
		_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO blocks (x, y, z, data) VALUES (?, ?, ?, ?)`, pos.X, pos.Y, pos.Z, data)
	}
	if err != nil {
		return fmt.Errorf("set block %s: %w", pos, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set block %s: commit: %w", pos, err)
	}

	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, pos mapblock.BlockPos) error {
	if err := pos.Check(); err != nil {
		return err
	}

	var err error
	if s.legacy {
		_, err = s.db.ExecContext(ctx, `DELETE FROM blocks WHERE pos = ?`, pos.Int64())
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM blocks WHERE x = ? AND y = ? AND z = ?`, pos.X, pos.Y, pos.Z)
	}
	if err != nil {
		return fmt.Errorf("delete block %s: %w", pos, err)
	}

	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]mapblock.BlockPos, error) {
	query := `SELECT x, y, z FROM blocks`
	if s.legacy {
		query = `SELECT pos FROM blocks`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	var positions []mapblock.BlockPos
	for rows.Next() {
		var pos mapblock.BlockPos
		if s.legacy {
			var key int64
			if err := rows.Scan(&key); err != nil {
				return nil, fmt.Errorf("list blocks: %w", err)
			}
			pos = mapblock.BlockPosFromInt64(key)
		} else if err := rows.Scan(&pos.X, &pos.Y, &pos.Z); err != nil {
			return nil, fmt.Errorf("list blocks: %w", err)
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	sortPositions(positions)

	return positions, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
