package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// WorldMTFile is the name of a world's settings file.
const WorldMTFile = "world.mt"

// WorldMT holds the settings of a world.mt file.
type WorldMT map[string]string

// ParseWorldMT reads "key = value" lines. Blank lines and lines starting with
// '#' are ignored; a later key replaces an earlier one.
func ParseWorldMT(r io.Reader) (WorldMT, error) {
	mt := make(WorldMT)

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("world.mt line %d: missing '='", lineNo)
		}
		mt[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read world.mt: %w", err)
	}

	return mt, nil
}

// LoadWorldMT reads the world.mt file of the world directory dir.
func LoadWorldMT(dir string) (WorldMT, error) {
	f, err := os.Open(filepath.Join(dir, WorldMTFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseWorldMT(f)
}

// Backend returns the map backend name, sqlite3 when unset.
func (mt WorldMT) Backend() string {
	if b := mt["backend"]; b != "" {
		return b
	}

	return BackendSQLite3
}

// RedisOptions returns the redis settings of the world. The engine stores
// host and port separately; the port defaults to 6379.
func (mt WorldMT) RedisOptions() (RedisOptions, error) {
	host := mt["redis_address"]
	if host == "" {
		host = "localhost"
	}
	port := 6379
	if p, ok := mt["redis_port"]; ok && p != "" {
		v, err := strconv.Atoi(p)
		if err != nil {
			return RedisOptions{}, fmt.Errorf("world.mt redis_port %q: %w", p, err)
		}
		port = v
	}

	return RedisOptions{
		Address:  fmt.Sprintf("%s:%d", host, port),
		Hash:     mt["redis_hash"],
		Password: mt["redis_password"],
	}, nil
}

// WriteTo writes the settings in sorted key order.
func (mt WorldMT) WriteTo(w io.Writer) (int64, error) {
	keys := make([]string, 0, len(mt))
	for k := range mt {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var n int64
	for _, k := range keys {
		m, err := fmt.Fprintf(w, "%s = %s\n", k, mt[k])
		n += int64(m)
		if err != nil {
			return n, err
		}
	}

	return n, nil
}
