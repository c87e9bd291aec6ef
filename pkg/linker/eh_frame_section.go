package linker

import (
	"debug/elf"
	"math"

	"github.com/objectx/lld/pkg/utils"
)

// CieRecord is one deduplicated CIE. FDEs referencing equal CIEs from
// different object files share a single record.
type CieRecord struct {
	Contents []byte
	Offset   uint64
	Fdes     []*FdeRecord
}

type FdeRecord struct {
	Contents []byte
	Cie      *CieRecord
	Offset   uint64
}

// EhFrameSection holds unwind-table records. This is container management
// only: records arrive already split by the eh_frame reader and their bytes
// are not rewritten here.
type EhFrameSection struct {
	OutputSectionBase
	Cies   []*CieRecord
	cieMap map[string]*CieRecord
}

func NewEhFrameSection() *EhFrameSection {
	e := &EhFrameSection{
		OutputSectionBase: NewOutputSectionBase(".eh_frame"),
		cieMap:            make(map[string]*CieRecord),
	}
	e.Shdr.Type = uint32(elf.SHT_PROGBITS)
	e.Shdr.Flags = uint64(elf.SHF_ALLOC)
	e.Shdr.AddrAlign = 8
	return e
}

func (e *EhFrameSection) Kind() SectionKind {
	return KindEhFrame
}

// AddCie registers a CIE, reusing an existing record with equal contents.
func (e *EhFrameSection) AddCie(contents []byte) *CieRecord {
	e.requireAddable()
	if cie, ok := e.cieMap[string(contents)]; ok {
		return cie
	}
	cie := &CieRecord{Contents: contents, Offset: math.MaxUint64}
	e.cieMap[string(contents)] = cie
	e.Cies = append(e.Cies, cie)
	return cie
}

func (e *EhFrameSection) AddFde(contents []byte, cie *CieRecord) *FdeRecord {
	e.requireAddable()
	fde := &FdeRecord{Contents: contents, Cie: cie, Offset: math.MaxUint64}
	cie.Fdes = append(cie.Fdes, fde)
	return fde
}

// Finalize lays out each surviving CIE followed by its FDEs. Record order is
// CIE first-seen order, so output is stable for a given input sequence.
func (e *EhFrameSection) Finalize(ctx *Context) {
	offset := uint64(0)
	for _, cie := range e.Cies {
		offset = utils.AlignTo(offset, e.Shdr.AddrAlign)
		cie.Offset = offset
		offset += uint64(len(cie.Contents))
		for _, fde := range cie.Fdes {
			fde.Offset = offset
			offset += uint64(len(fde.Contents))
		}
	}
	e.Shdr.Size = offset
	e.markFinalized()
}

func (e *EhFrameSection) AssignOffsets(ctx *Context) {
	e.markOffsetsAssigned()
}

func (e *EhFrameSection) WriteTo(ctx *Context) {
	e.markWritten()
	base := ctx.Buf[e.Shdr.Offset:]
	for _, cie := range e.Cies {
		copy(base[cie.Offset:], cie.Contents)
		for _, fde := range cie.Fdes {
			copy(base[fde.Offset:], fde.Contents)
		}
	}
}
