package linker

import (
	"debug/elf"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/objectx/lld/pkg/utils"
)

// OutputSection is the member-bearing kind: it owns the aggregation order of
// its input sections, not their backing storage.
type OutputSection struct {
	OutputSectionBase
	Members []*InputSection
	Idx     uint32 // the index in ctx.OutputSections
}

func NewOutputSection(name string, typ uint32, flags uint64,
	idx uint32) *OutputSection {
	o := &OutputSection{OutputSectionBase: NewOutputSectionBase(name)}
	o.Shdr.Type = typ
	o.Shdr.Flags = flags
	o.Idx = idx
	return o
}

func (o *OutputSection) Kind() SectionKind {
	return KindRegular
}

func (o *OutputSection) AddSection(isec *InputSection) {
	o.requireAddable()
	isec.OutputSection = o
	o.Members = append(o.Members, isec)
	o.UpdateAlignment(isec.AddrAlign())
	// provisional size; Finalize recomputes it from the final member order
	o.Shdr.Size = utils.AlignTo(o.Shdr.Size, isec.AddrAlign()) + isec.ShSize
}

// Finalize lays the members out in their current order and fixes the section
// size. Pure function of the member list, so running it again changes
// nothing.
func (o *OutputSection) Finalize(ctx *Context) {
	offset := uint64(0)
	for _, isec := range o.Members {
		offset = utils.AlignTo(offset, isec.AddrAlign())
		isec.Offset = offset
		offset += isec.ShSize
	}
	o.Shdr.Size = offset
	o.markFinalized()
}

func (o *OutputSection) AssignOffsets(ctx *Context) {
	o.markOffsetsAssigned()
}

func (o *OutputSection) WriteTo(ctx *Context) {
	o.markWritten()
	if o.Shdr.Type == uint32(elf.SHT_NOBITS) {
		return
	}

	base := ctx.Buf[o.Shdr.Offset:]
	for _, isec := range o.Members {
		isec.WriteTo(base[isec.Offset:])
	}
}

// Sort reorders the members by a caller-supplied rank. Ties keep their
// original relative order so merges stay deterministic across runs.
func (o *OutputSection) Sort(order func(isec *InputSection) int) {
	o.requireAddable()
	sort.SliceStable(o.Members, func(i, j int) bool {
		return order(o.Members[i]) < order(o.Members[j])
	})
}

// readPriority extracts the numeric run-order suffix from names like
// ".init_array.100". Malformed or absent suffixes mean "no priority".
func readPriority(name string) (int, bool) {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return 0, false
	}
	prio, err := strconv.Atoi(name[idx+1:])
	if err != nil {
		return 0, false
	}
	return prio, true
}

// SortInitFini orders .init_array/.fini_array style members: ascending
// priority suffix, then the unprioritized ones in their original order.
func (o *OutputSection) SortInitFini() {
	o.Sort(func(isec *InputSection) int {
		if prio, ok := readPriority(isec.Name); ok {
			return prio
		}
		return math.MaxInt
	})
}

// SortCtorsDtors orders legacy .ctors/.dtors members by descending priority
// suffix, unprioritized last. The direction is the opposite of SortInitFini;
// the two runtime contracts differ and both must be kept.
func (o *OutputSection) SortCtorsDtors() {
	o.Sort(func(isec *InputSection) int {
		if prio, ok := readPriority(isec.Name); ok {
			return -prio
		}
		return math.MaxInt
	})
}
