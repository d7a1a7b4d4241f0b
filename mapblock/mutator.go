package mapblock

import (
	"fmt"
	"math"

	"github.com/arloliu/mtblock/errs"
)

// SetVoxel places the content named name at pos.
//
// An existing mapping for name is reused; otherwise the smallest id not yet
// mapped is allocated and appended to NameIDMappings. The block is changed in
// place and returned for chaining. On error the block is left untouched.
func (b *Block) SetVoxel(pos Pos, name string, param1, param2 uint8) (*Block, error) {
	if err := checkPos(pos); err != nil {
		return b, err
	}

	id, ok := b.LookupID(name)
	if !ok {
		var err error
		if id, err = b.freeID(); err != nil {
			return b, fmt.Errorf("map %q: %w", name, err)
		}
		b.NameIDMappings = append(b.NameIDMappings, NameIDMapping{ID: id, Name: name})
	}

	b.Voxels[pos.Index()] = Voxel{Content: id, Param1: param1, Param2: param2}

	return b, nil
}

// freeID returns the smallest id with no mapping.
func (b *Block) freeID() (uint16, error) {
	used := make(map[uint16]struct{}, len(b.NameIDMappings))
	for _, m := range b.NameIDMappings {
		used[m.ID] = struct{}{}
	}

	for id := 0; id <= math.MaxUint16; id++ {
		if _, ok := used[uint16(id)]; !ok {
			return uint16(id), nil
		}
	}

	return 0, errs.ErrIDOverflow
}

// LookupID returns the id mapped to name.
func (b *Block) LookupID(name string) (uint16, bool) {
	for _, m := range b.NameIDMappings {
		if m.Name == name {
			return m.ID, true
		}
	}

	return 0, false
}

// ContentName returns the name mapped to id.
func (b *Block) ContentName(id uint16) (string, bool) {
	for _, m := range b.NameIDMappings {
		if m.ID == id {
			return m.Name, true
		}
	}

	return "", false
}

// Voxel returns the voxel at pos.
func (b *Block) Voxel(pos Pos) (Voxel, error) {
	if err := checkPos(pos); err != nil {
		return Voxel{}, err
	}

	return b.Voxels[pos.Index()], nil
}

// NodeName returns the content name of the voxel at pos.
func (b *Block) NodeName(pos Pos) (string, error) {
	v, err := b.Voxel(pos)
	if err != nil {
		return "", err
	}

	name, ok := b.ContentName(v.Content)
	if !ok {
		return "", fmt.Errorf("%w: id %d at %s", errs.ErrUnknownContent, v.Content, pos)
	}

	return name, nil
}
