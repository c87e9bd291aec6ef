package linker

import (
	"debug/elf"
	"math"

	"github.com/objectx/lld/pkg/utils"
)

// InputSection is one section contributed by an object file, already parsed
// by the reader. The layout engine only aggregates it: Offset is the position
// within the owning output section and stays undefined until that section has
// been finalized.
type InputSection struct {
	Name     string
	Type     uint32
	Flags    uint64
	P2Align  uint8
	ShSize   uint64
	Contents []byte

	Offset        uint64
	OutputSection *OutputSection
}

func NewInputSection(name string, typ uint32, flags uint64, p2align uint8,
	contents []byte) *InputSection {
	return &InputSection{
		Name:     name,
		Type:     typ,
		Flags:    flags,
		P2Align:  p2align,
		ShSize:   uint64(len(contents)),
		Contents: contents,
		Offset:   math.MaxUint64,
	}
}

// NewZeroFillSection makes a SHT_NOBITS input section: it reserves ShSize
// bytes of address space but contributes no file bytes.
func NewZeroFillSection(name string, flags uint64, p2align uint8,
	size uint64) *InputSection {
	s := NewInputSection(name, uint32(elf.SHT_NOBITS), flags, p2align, nil)
	s.ShSize = size
	return s
}

func (i *InputSection) AddrAlign() uint64 {
	return uint64(1) << i.P2Align
}

func (i *InputSection) GetAddr() uint64 {
	utils.Assert(i.OutputSection != nil && i.Offset != math.MaxUint64)
	return i.OutputSection.Shdr.Addr + i.Offset
}

func (i *InputSection) WriteTo(buf []byte) {
	if i.Type == uint32(elf.SHT_NOBITS) || i.ShSize == 0 {
		return
	}
	copy(buf, i.Contents)
}
