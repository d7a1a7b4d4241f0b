package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/mtblock"
	"github.com/arloliu/mtblock/config"
	"github.com/arloliu/mtblock/errs"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvPath, "")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()

	out, err := run(t, args...)
	require.NoError(t, err, "mtblock %s", strings.Join(args, " "))

	return out
}

func TestSetNodeGetNode(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "--world", dir, "getnode", "(5,5,5)")
	require.ErrorIs(t, err, errs.ErrBlockNotFound)

	out := mustRun(t, "--world", dir, "setnode", "--create-missing", "air", "--param2", "3", "(-1,17,0)", "default:goldblock")
	assert.Equal(t, "set 1 nodes in 1 blocks\n", out)

	out = mustRun(t, "--world", dir, "getnode", "(-1,17,0)")
	assert.Equal(t, "(-1,17,0)\tdefault:goldblock\tparam1=0\tparam2=3\n", out)

	out = mustRun(t, "--world", dir, "getnode", "(-2,17,0)")
	assert.Equal(t, "(-2,17,0)\tair\tparam1=0\tparam2=0\n", out)

	out = mustRun(t, "--world", dir, "list")
	assert.Equal(t, "(-1,1,0)\t4095\n", out)
}

func TestSetNode_EditsFile(t *testing.T) {
	dir := t.TempDir()
	edits := filepath.Join(t.TempDir(), "edits.yaml")
	require.NoError(t, os.WriteFile(edits, []byte(`
- pos: "(0,0,0)"
  name: default:goldblock
- pos: "(15,0,0)"
  name: default:torch
  param2: 1
- pos: "(16,0,0)"
  name: default:stone
`), 0o600))

	out := mustRun(t, "--world", dir, "setnode", "--create-missing", "air", "--edits", edits)
	assert.Equal(t, "set 3 nodes in 2 blocks\n", out)

	out = mustRun(t, "--world", dir, "list", "--count")
	assert.Equal(t, "2\n", out)

	out = mustRun(t, "--world", dir, "getnode", "(15,0,0)")
	assert.Equal(t, "(15,0,0)\tdefault:torch\tparam1=0\tparam2=1\n", out)
}

func TestSetNode_Usage(t *testing.T) {
	_, err := run(t, "--world", t.TempDir(), "setnode", "(0,0,0)")
	require.Error(t, err)

	_, err = run(t, "--world", t.TempDir(), "setnode", "(0,0)", "default:stone")
	require.Error(t, err)

	_, err = run(t, "--world", t.TempDir(), "setnode", "--create-missing", "air", "(1048576,0,0)", "default:stone")
	require.ErrorIs(t, err, errs.ErrOutOfRange)

	_, err = run(t, "--world", t.TempDir(), "inspect", "(3000,0,0)")
	require.ErrorIs(t, err, errs.ErrOutOfRange)
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, "--world", dir, "setnode", "--create-missing", "air", "(1,2,3)", "default:goldblock")

	out := mustRun(t, "--world", dir, "inspect", "(0,0,0)")

	var summary blockSummary
	require.NoError(t, yaml.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "(0,0,0)", summary.Position)
	assert.Equal(t, uint8(29), summary.Version)
	assert.Equal(t, "compressed", summary.Compression)
	assert.Equal(t, []nodeCount{
		{ID: 0, Name: "air", Count: 4095},
		{ID: 1, Name: "default:goldblock", Count: 1},
	}, summary.Nodes)
	assert.Empty(t, summary.Warnings)
}

func TestInspect_File(t *testing.T) {
	blob, err := mtblock.NewBlock("default:stone")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "block.bin")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	out := mustRun(t, "inspect", "--file", path)
	assert.Contains(t, out, "name: default:stone")
	assert.Contains(t, out, "count: 4096")
	assert.NotContains(t, out, "position:")

	_, err = run(t, "inspect")
	require.Error(t, err)
}

func TestExportImport(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	mustRun(t, "--world", src, "setnode", "--create-missing", "air", "(0,0,0)", "default:mese")
	mustRun(t, "--world", src, "setnode", "--create-missing", "air", "(100,-40,7)", "default:dirt")

	file := filepath.Join(t.TempDir(), "world.mtba")
	mustRun(t, "--world", src, "export", "--compression", "s2", file)
	mustRun(t, "--world", dst, "import", file)

	assert.Equal(t, mustRun(t, "--world", src, "list"), mustRun(t, "--world", dst, "list"))

	out := mustRun(t, "--world", dst, "getnode", "(100,-40,7)")
	assert.Equal(t, "(100,-40,7)\tdefault:dirt\tparam1=0\tparam2=0\n", out)

	_, err := run(t, "--world", src, "export", "--compression", "brotli", file)
	require.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	metrics := filepath.Join(t.TempDir(), "mtblock.prom")
	cfgPath := filepath.Join(t.TempDir(), "mtblock.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("world: "+dir+"\ncreate_missing: air\nlog:\n  format: json\n"), 0o600))

	mustRun(t, "--config", cfgPath, "--metrics-textfile", metrics, "setnode", "(0,0,0)", "default:glass")

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mtblock_nodes_set_total 1")
	assert.Contains(t, string(data), "mtblock_blocks_created_total 1")
	assert.Contains(t, string(data), "mtblock_blocks_written_total 1")
}

func TestInvalidFlags(t *testing.T) {
	_, err := run(t, "--log-level", "chatty", "list")
	require.Error(t, err)

	_, err = run(t, "--backend", "postgresql", "list")
	require.Error(t, err)
}
