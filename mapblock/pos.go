package mapblock

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/mtblock/errs"
)

// Pos is a node position inside a block. Each axis must be in [0,16).
type Pos struct {
	X, Y, Z int
}

// Valid reports whether every axis lies in [0,16).
func (p Pos) Valid() bool {
	return p.X >= 0 && p.X < BlockSize &&
		p.Y >= 0 && p.Y < BlockSize &&
		p.Z >= 0 && p.Z < BlockSize
}

// Index returns the voxel array index z*256 + y*16 + x. The result is only
// meaningful for a valid position.
func (p Pos) Index() int {
	return p.Z*BlockSize*BlockSize + p.Y*BlockSize + p.X
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// PosFromIndex is the inverse of Pos.Index.
func PosFromIndex(i int) Pos {
	return Pos{
		X: i % BlockSize,
		Y: (i / BlockSize) % BlockSize,
		Z: i / (BlockSize * BlockSize),
	}
}

func checkPos(p Pos) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %s", errs.ErrOutOfRange, p)
	}

	return nil
}

// Block axis limits. The engine packs each axis into 12 signed bits.
const (
	MinBlockCoord = -2048
	MaxBlockCoord = 2047
)

// BlockPos is the position of a block in the world, in block units.
type BlockPos struct {
	X, Y, Z int16
}

// Valid reports whether every axis lies in [MinBlockCoord, MaxBlockCoord].
func (p BlockPos) Valid() bool {
	return blockAxisValid(int64(p.X)) && blockAxisValid(int64(p.Y)) && blockAxisValid(int64(p.Z))
}

// Check returns errs.ErrOutOfRange for a position outside the world.
func (p BlockPos) Check() error {
	if !p.Valid() {
		return fmt.Errorf("%w: block %s", errs.ErrOutOfRange, p)
	}

	return nil
}

func blockAxisValid(v int64) bool {
	return v >= MinBlockCoord && v <= MaxBlockCoord
}

// Int64 packs the position into the integer key used by the storage backends.
// Only valid positions round-trip through BlockPosFromInt64.
func (p BlockPos) Int64() int64 {
	return int64(p.Z)*0x1000000 + int64(p.Y)*0x1000 + int64(p.X)
}

func (p BlockPos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// BlockPosFromInt64 unpacks a storage key produced by BlockPos.Int64.
func BlockPosFromInt64(i int64) BlockPos {
	x := signed12(floorMod(i, 4096))
	i = (i - int64(x)) / 4096
	y := signed12(floorMod(i, 4096))
	i = (i - int64(y)) / 4096
	z := signed12(floorMod(i, 4096))

	return BlockPos{X: x, Y: y, Z: z}
}

// ParseBlockPos parses "x,y,z", with optional parentheses and spaces.
func ParseBlockPos(s string) (BlockPos, error) {
	x, y, z, err := parseTriple(s, 16)
	if err != nil {
		return BlockPos{}, fmt.Errorf("invalid block position %q: %w", s, err)
	}

	bp := BlockPos{X: int16(x), Y: int16(y), Z: int16(z)}
	if err := bp.Check(); err != nil {
		return BlockPos{}, err
	}

	return bp, nil
}

func floorMod(i, m int64) int64 {
	r := i % m
	if r < 0 {
		r += m
	}

	return r
}

func signed12(u int64) int16 {
	if u < 2048 {
		return int16(u)
	}

	return int16(u - 4096)
}

// NodePos is an absolute node position in the world.
type NodePos struct {
	X, Y, Z int
}

func (p NodePos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Split returns the block containing p and p's position inside it, or
// errs.ErrOutOfRange when that block lies outside the world.
func (p NodePos) Split() (BlockPos, Pos, error) {
	return SplitNodePos(p.X, p.Y, p.Z)
}

// ParseNodePos parses "x,y,z", with optional parentheses and spaces.
func ParseNodePos(s string) (NodePos, error) {
	x, y, z, err := parseTriple(s, 32)
	if err != nil {
		return NodePos{}, fmt.Errorf("invalid node position %q: %w", s, err)
	}

	np := NodePos{X: int(x), Y: int(y), Z: int(z)}
	if _, _, err := np.Split(); err != nil {
		return NodePos{}, err
	}

	return np, nil
}

// SplitNodePos splits an absolute node position into its block position and
// the position inside that block. Negative coordinates round toward negative
// infinity, so node -1 lives at 15 in block -1. Nodes whose block lies
// outside [MinBlockCoord, MaxBlockCoord] yield errs.ErrOutOfRange.
func SplitNodePos(x, y, z int) (BlockPos, Pos, error) {
	bx, by, bz := int64(x>>4), int64(y>>4), int64(z>>4)
	if !blockAxisValid(bx) || !blockAxisValid(by) || !blockAxisValid(bz) {
		return BlockPos{}, Pos{}, fmt.Errorf("%w: node (%d,%d,%d)", errs.ErrOutOfRange, x, y, z)
	}

	bp := BlockPos{X: int16(bx), Y: int16(by), Z: int16(bz)}

	return bp, Pos{X: x & 0xf, Y: y & 0xf, Z: z & 0xf}, nil
}

func parseTriple(s string, bits int) (int64, int64, int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("want 3 comma separated values, got %d", len(parts))
	}

	var out [3]int64
	for i, part := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(part), 10, bits)
		if err != nil {
			return 0, 0, 0, err
		}
		out[i] = v
	}

	return out[0], out[1], out[2], nil
}
