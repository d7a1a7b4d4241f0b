package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleWorldMT = `enable_damage = true
creative_mode = false
# comment
gameid = minetest

backend = leveldb
player_backend = sqlite3
redis_address = cache.local
redis_port = 6380
redis_hash = world1
`

func TestParseWorldMT(t *testing.T) {
	mt, err := ParseWorldMT(strings.NewReader(sampleWorldMT))
	require.NoError(t, err)

	assert.Equal(t, "leveldb", mt.Backend())
	assert.Equal(t, "minetest", mt["gameid"])
	assert.Len(t, mt, 8)

	ro, err := mt.RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, RedisOptions{Address: "cache.local:6380", Hash: "world1"}, ro)
}

func TestParseWorldMT_Errors(t *testing.T) {
	_, err := ParseWorldMT(strings.NewReader("backend sqlite3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")

	mt, err := ParseWorldMT(strings.NewReader("redis_port = abc\n"))
	require.NoError(t, err)
	_, err = mt.RedisOptions()
	require.Error(t, err)
}

func TestWorldMT_Defaults(t *testing.T) {
	mt := WorldMT{}
	assert.Equal(t, BackendSQLite3, mt.Backend())

	ro, err := mt.RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", ro.Address)
}

func TestWorldMT_WriteTo(t *testing.T) {
	mt := WorldMT{"backend": "sqlite3", "gameid": "minetest"}

	var buf bytes.Buffer
	n, err := mt.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "backend = sqlite3\ngameid = minetest\n", buf.String())

	parsed, err := ParseWorldMT(&buf)
	require.NoError(t, err)
	assert.Equal(t, mt, parsed)
}

func TestLoadWorldMT(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, WorldMTFile), []byte(sampleWorldMT), 0o600))

	mt, err := LoadWorldMT(dir)
	require.NoError(t, err)
	assert.Equal(t, "world1", mt["redis_hash"])

	_, err = LoadWorldMT(t.TempDir())
	require.ErrorIs(t, err, os.ErrNotExist)
}
