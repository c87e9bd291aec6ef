package linker

import (
	"debug/elf"

	"github.com/objectx/lld/pkg/utils"
)

// segment is one program header being assembled: its members are indices
// into ctx.Chunks, so no chunk holds an aliased reference to another.
type segment struct {
	Type     uint32
	Flags    uint32
	MinAlign uint64
	Members  []int
}

// OutputPhdrsWriter reserves and writes the program-header table. Segment
// grouping runs before offset assignment, because the first section of every
// PT_LOAD anchors the offset/address congruence of the rest; the header
// records themselves are only filled in once addresses are final.
type OutputPhdrsWriter struct {
	OutputSectionBase
	Segments []segment
}

func NewOutputPhdrsWriter() *OutputPhdrsWriter {
	o := &OutputPhdrsWriter{OutputSectionBase: NewOutputSectionBase("phdr")}
	o.Shdr.Flags = uint64(elf.SHF_ALLOC)
	o.Shdr.AddrAlign = 8
	return o
}

func toPhdrFlags(chunk iOutputSection) uint32 {
	ret := uint32(elf.PF_R)
	if chunk.GetShdr().Flags&uint64(elf.SHF_WRITE) != 0 {
		ret |= uint32(elf.PF_W)
	}
	if chunk.GetShdr().Flags&uint64(elf.SHF_EXECINSTR) != 0 {
		ret |= uint32(elf.PF_X)
	}
	return ret
}

func isAlloc(chunk iOutputSection) bool {
	return chunk.GetShdr().Flags&uint64(elf.SHF_ALLOC) != 0
}

func isBss(chunk iOutputSection) bool {
	return chunk.GetShdr().Type == uint32(elf.SHT_NOBITS)
}

func isTls(chunk iOutputSection) bool {
	return chunk.GetShdr().Flags&uint64(elf.SHF_TLS) != 0
}

func isNote(chunk iOutputSection) bool {
	return chunk.GetShdr().Type == uint32(elf.SHT_NOTE)
}

// check if is thread bss section
func isTbss(chunk iOutputSection) bool {
	return isBss(chunk) && isTls(chunk)
}

// CreateSegments groups the ordered chunk list into program headers and
// marks every PT_LOAD member with the index of its segment's first section.
// Must run before AssignOffsets.
func (o *OutputPhdrsWriter) CreateSegments(ctx *Context) {
	o.Segments = o.Segments[:0]

	define := func(typ, flags uint32, minAlign uint64, idx int) {
		o.Segments = append(o.Segments, segment{
			Type:     typ,
			Flags:    flags,
			MinAlign: minAlign,
			Members:  []int{idx},
		})
	}
	push := func(idx int) {
		seg := &o.Segments[len(o.Segments)-1]
		seg.Members = append(seg.Members, idx)
	}
	chunkIdx := func(target iOutputSection) int {
		for i, chunk := range ctx.Chunks {
			if chunk == target {
				return i
			}
		}
		utils.Fatal("phdr writer is not in the chunk list")
		return -1
	}

	// PT_PHDR covers the table itself
	define(uint32(elf.PT_PHDR), uint32(elf.PF_R), 8, chunkIdx(o))

	// PT_NOTE runs of equal flags
	for i := 0; i < len(ctx.Chunks); i++ {
		if !isNote(ctx.Chunks[i]) {
			continue
		}
		flags := toPhdrFlags(ctx.Chunks[i])
		define(uint32(elf.PT_NOTE), flags, ctx.Chunks[i].GetShdr().AddrAlign, i)
		for i+1 < len(ctx.Chunks) && isNote(ctx.Chunks[i+1]) &&
			toPhdrFlags(ctx.Chunks[i+1]) == flags {
			i++
			push(i)
		}
	}

	// PT_LOAD: runs of alloc chunks with equal phdr flags, non-bss members
	// first and a bss tail. tbss takes no space anywhere and is skipped.
	loadable := make([]int, 0, len(ctx.Chunks))
	for i, chunk := range ctx.Chunks {
		if isAlloc(chunk) && !isTbss(chunk) {
			loadable = append(loadable, i)
		}
	}

	for i := 0; i < len(loadable); {
		first := loadable[i]
		flags := toPhdrFlags(ctx.Chunks[first])
		define(uint32(elf.PT_LOAD), flags, ctx.Args.PageSize, first)
		ctx.Chunks[first].Base().PageAlign = true
		ctx.Chunks[first].Base().FirstInSegment = first
		i++

		member := func(idx int) {
			push(idx)
			ctx.Chunks[idx].Base().FirstInSegment = first
		}
		for i < len(loadable) && !isBss(ctx.Chunks[loadable[i]]) &&
			toPhdrFlags(ctx.Chunks[loadable[i]]) == flags {
			member(loadable[i])
			i++
		}
		for i < len(loadable) && isBss(ctx.Chunks[loadable[i]]) &&
			toPhdrFlags(ctx.Chunks[loadable[i]]) == flags {
			member(loadable[i])
			i++
		}
	}

	// PT_TLS
	for i := 0; i < len(ctx.Chunks); i++ {
		if !isTls(ctx.Chunks[i]) {
			continue
		}
		define(uint32(elf.PT_TLS), toPhdrFlags(ctx.Chunks[i]), 1, i)
		for i+1 < len(ctx.Chunks) && isTls(ctx.Chunks[i+1]) {
			i++
			push(i)
		}
	}

	o.Shdr.Size = uint64(len(o.Segments)) * uint64(ctx.ElfClass().PhdrSize)
}

// FinalizePhdrs fills in the program-header records from the now-final
// section addresses and offsets. Runs after AssignOffsets.
func (o *OutputPhdrsWriter) FinalizePhdrs(ctx *Context) {
	ctx.Phdrs = make([]Phdr, 0, len(o.Segments))

	for _, seg := range o.Segments {
		first := ctx.Chunks[seg.Members[0]].GetShdr()
		phdr := Phdr{
			Type:   seg.Type,
			Flags:  seg.Flags,
			Align:  seg.MinAlign,
			Offset: first.Offset,
			VAddr:  first.Addr,
			PAddr:  ctx.Chunks[seg.Members[0]].Base().GetLMA(),
		}

		for _, idx := range seg.Members {
			shdr := ctx.Chunks[idx].GetShdr()
			if phdr.Align < shdr.AddrAlign {
				phdr.Align = shdr.AddrAlign
			}
			if shdr.Type != uint32(elf.SHT_NOBITS) {
				phdr.FileSize = shdr.Addr + shdr.Size - phdr.VAddr
			}
			phdr.MemSize = shdr.Addr + shdr.Size - phdr.VAddr
		}

		ctx.Phdrs = append(ctx.Phdrs, phdr)
		if seg.Type == uint32(elf.PT_TLS) {
			ctx.Out.TlsPhdr = &ctx.Phdrs[len(ctx.Phdrs)-1]
		}
	}
}

func (o *OutputPhdrsWriter) WriteTo(ctx *Context) {
	o.markWritten()
	class := ctx.ElfClass()
	base := ctx.Buf[o.Shdr.Offset:]
	for i := range ctx.Phdrs {
		class.WritePhdr(base[i*class.PhdrSize:], &ctx.Phdrs[i])
	}
}
