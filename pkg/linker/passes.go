package linker

import (
	"debug/elf"
	"math"
	"sort"

	"github.com/objectx/lld/pkg/utils"
)

// The passes below run in this fixed order across the whole chunk list; a
// phase never starts for one section while another section is still in the
// previous phase. Layout is the reference driver sequence.
func Layout(ctx *Context) {
	CollectOutputSections(ctx)
	CreateSyntheticSections(ctx)
	FindWellKnownSections(ctx)
	SortOutputSections(ctx)
	FinalizeSections(ctx)
	CreateSegments(ctx)
	fileSize := AssignOffsets(ctx)
	FinalizeSegments(ctx)

	ctx.Buf = make([]byte, fileSize)
	WriteSections(ctx)
}

// CollectOutputSections moves every non-empty section into the chunk list.
// Dropping empty ones here keeps the section table free of zero-size noise.
func CollectOutputSections(ctx *Context) {
	for _, osec := range ctx.OutputSections {
		if len(osec.Members) > 0 {
			ctx.Chunks = append(ctx.Chunks, osec)
		}
	}
	for _, osec := range ctx.MergedSections {
		if len(osec.Map) > 0 {
			ctx.Chunks = append(ctx.Chunks, osec)
		}
	}
	if ctx.EhFrame != nil && len(ctx.EhFrame.Cies) > 0 {
		ctx.Chunks = append(ctx.Chunks, ctx.EhFrame)
	}
}

// CreateSyntheticSections materializes the linker-made sections. A raw
// binary dump has no container at all, so none of them exist in that mode.
func CreateSyntheticSections(ctx *Context) {
	if ctx.Args.OFormatBinary {
		return
	}

	push := func(chunk iOutputSection) iOutputSection {
		ctx.Chunks = append(ctx.Chunks, chunk)
		return chunk
	}

	ctx.Ehdr = push(NewOutputEhdrWriter(ctx.ElfClass())).(*OutputEhdrWriter)
	ctx.Phdr = push(NewOutputPhdrsWriter()).(*OutputPhdrsWriter)
	ctx.Shdr = push(NewOutputShdrsWriter()).(*OutputShdrsWriter)
	ctx.Out.Shstrtab = push(NewShstrtabSection()).(*ShstrtabSection)

	ctx.Out.ElfHeader = ctx.Ehdr
	ctx.Out.ProgramHeaders = ctx.Phdr
}

// FindWellKnownSections fills the registry slots other subsystems look up by
// purpose. Populated exactly once, before offsets are assigned; a nil slot
// means the output simply has no such section.
func FindWellKnownSections(ctx *Context) {
	findRegular := func(name string) *OutputSection {
		for _, osec := range ctx.OutputSections {
			if osec.Name == name && len(osec.Members) > 0 {
				return osec
			}
		}
		return nil
	}
	findChunk := func(name string) iOutputSection {
		for _, chunk := range ctx.Chunks {
			if chunk.GetName() == name {
				return chunk
			}
		}
		return nil
	}

	ctx.Out.Bss = findRegular(".bss")
	ctx.Out.BssRelRo = findRegular(".bss.rel.ro")
	ctx.Out.PreinitArray = findRegular(".preinit_array")
	ctx.Out.InitArray = findRegular(".init_array")
	ctx.Out.FiniArray = findRegular(".fini_array")
	ctx.Out.Opd = findChunk(".opd")
	ctx.Out.DebugInfo = findChunk(".debug_info")
}

// SortOutputSections fixes the final section order: headers first, then
// alloc sections grouped so that each PT_LOAD is contiguous (read-only,
// executable, writable, tls, bss), then non-alloc, then the section table.
func SortOutputSections(ctx *Context) {
	rank := func(chunk iOutputSection) int32 {
		typ := chunk.GetShdr().Type
		flags := chunk.GetShdr().Flags

		if ctx.Ehdr != nil && chunk == ctx.Ehdr {
			return 0
		}
		if ctx.Phdr != nil && chunk == ctx.Phdr {
			return 1
		}
		if ctx.Shdr != nil && chunk == ctx.Shdr {
			return math.MaxInt32
		}
		if flags&uint64(elf.SHF_ALLOC) == 0 {
			return math.MaxInt32 - 1
		}
		if typ == uint32(elf.SHT_NOTE) {
			return 2
		}

		b2i := func(b bool) int32 {
			if b {
				return 1
			}
			return 0
		}

		writeable := b2i(flags&uint64(elf.SHF_WRITE) != 0)
		notExec := b2i(flags&uint64(elf.SHF_EXECINSTR) == 0)
		notTls := b2i(flags&uint64(elf.SHF_TLS) == 0)
		isBss := b2i(typ == uint32(elf.SHT_NOBITS))

		return writeable<<7 | notExec<<6 | notTls<<5 | isBss<<4
	}

	sort.SliceStable(ctx.Chunks, func(i, j int) bool {
		return rank(ctx.Chunks[i]) < rank(ctx.Chunks[j])
	})
}

// FinalizeSections runs the Finalize phase over the whole list, then hands
// out section-header table indices.
func FinalizeSections(ctx *Context) {
	for _, chunk := range ctx.Chunks {
		chunk.Finalize(ctx)
	}

	idx := uint32(1)
	for _, chunk := range ctx.Chunks {
		if chunk.GetShdr().Type == uint32(elf.SHT_NULL) {
			continue
		}
		chunk.Base().SectionIndex = idx
		idx++
	}

	if ctx.Shdr != nil {
		ctx.Shdr.UpdateSize(ctx)
	}
}

func CreateSegments(ctx *Context) {
	if ctx.Phdr != nil {
		ctx.Phdr.CreateSegments(ctx)
	}
}

// AssignOffsets gives every section its virtual address and file offset and
// returns the resulting file size. The first section of a load segment picks
// its offset freely; everyone else in the segment derives it from
// Off = Off_first + VA - VA_first, which is what lets the loader mmap the
// segment in one piece.
func AssignOffsets(ctx *Context) uint64 {
	addr := ctx.Args.ImageBase
	for _, chunk := range ctx.Chunks {
		if !isAlloc(chunk) {
			continue
		}
		shdr := chunk.GetShdr()
		if chunk.Base().PageAlign {
			addr = utils.AlignTo(addr, ctx.Args.PageSize)
		}
		addr = utils.AlignTo(addr, shdr.AddrAlign)
		shdr.Addr = addr
		if !isTbss(chunk) {
			addr += shdr.Size
		}
	}

	fileOff := uint64(0)
	for i, chunk := range ctx.Chunks {
		shdr := chunk.GetShdr()
		base := chunk.Base()

		if isAlloc(chunk) && base.FirstInSegment >= 0 && base.FirstInSegment != i {
			first := ctx.Chunks[base.FirstInSegment].GetShdr()
			shdr.Offset = first.Offset + (shdr.Addr - first.Addr)
		} else {
			if base.PageAlign {
				fileOff = utils.AlignTo(fileOff, ctx.Args.PageSize)
			}
			fileOff = utils.AlignTo(fileOff, shdr.AddrAlign)
			shdr.Offset = fileOff
		}

		if shdr.Type != uint32(elf.SHT_NOBITS) {
			if end := shdr.Offset + shdr.Size; end > fileOff {
				fileOff = end
			}
		}

		chunk.AssignOffsets(ctx)
	}

	checkSegmentCongruence(ctx)
	return fileOff
}

// A congruence violation here is a bug in the assignment above, not a user
// error.
func checkSegmentCongruence(ctx *Context) {
	for _, chunk := range ctx.Chunks {
		base := chunk.Base()
		if base.FirstInSegment < 0 {
			continue
		}
		first := ctx.Chunks[base.FirstInSegment].GetShdr()
		shdr := chunk.GetShdr()
		utils.Assert(shdr.Offset-first.Offset == shdr.Addr-first.Addr)
	}
}

func FinalizeSegments(ctx *Context) {
	if ctx.Phdr != nil {
		ctx.Phdr.FinalizePhdrs(ctx)
	}
}

// GetFileSize is the high-water mark of the assigned file offsets.
func GetFileSize(ctx *Context) uint64 {
	fileSize := uint64(0)
	for _, chunk := range ctx.Chunks {
		shdr := chunk.GetShdr()
		if shdr.Type == uint32(elf.SHT_NOBITS) {
			continue
		}
		if end := shdr.Offset + shdr.Size; end > fileSize {
			fileSize = end
		}
	}
	return fileSize
}

// WriteSections copies every section's bytes to its pre-computed position in
// ctx.Buf.
func WriteSections(ctx *Context) {
	for _, chunk := range ctx.Chunks {
		chunk.WriteTo(ctx)
	}
}
