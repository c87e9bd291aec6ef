package linker

import "debug/elf"

// OutputEhdrWriter reserves and writes the ELF file header. It is a
// linker-synthesized section: no members, no entry in the section table.
type OutputEhdrWriter struct {
	OutputSectionBase
}

func NewOutputEhdrWriter(class ElfClass) *OutputEhdrWriter {
	o := &OutputEhdrWriter{OutputSectionBase: NewOutputSectionBase("ehdr")}
	o.Shdr.Flags = uint64(elf.SHF_ALLOC)
	o.Shdr.Size = uint64(class.EhdrSize)
	o.Shdr.AddrAlign = 8
	return o
}

func getEntryAddress(ctx *Context) uint64 {
	for _, osec := range ctx.OutputSections {
		if osec.Name == ".text" {
			return osec.Shdr.Addr
		}
	}
	return 0
}

func (o *OutputEhdrWriter) WriteTo(ctx *Context) {
	o.markWritten()
	class := ctx.ElfClass()

	ehdr := &Ehdr{}
	WriteMagic(ehdr.Ident[:])
	ehdr.Ident[elf.EI_CLASS] = uint8(class.Class)
	ehdr.Ident[elf.EI_DATA] = uint8(class.Data())
	ehdr.Ident[elf.EI_VERSION] = uint8(elf.EV_CURRENT)
	ehdr.Ident[elf.EI_OSABI] = 0
	ehdr.Ident[elf.EI_ABIVERSION] = 0
	ehdr.Type = uint16(elf.ET_EXEC)
	ehdr.Machine = uint16(ctx.Args.Emulation.ElfMachine())
	ehdr.Version = uint32(elf.EV_CURRENT)
	ehdr.Entry = getEntryAddress(ctx)
	ehdr.EhSize = uint16(class.EhdrSize)

	if ctx.Phdr != nil {
		ehdr.PhOff = ctx.Phdr.Shdr.Offset
		ehdr.PhEntSize = uint16(class.PhdrSize)
		ehdr.PhNum = uint16(ctx.Phdr.Shdr.Size / uint64(class.PhdrSize))
	}
	if ctx.Shdr != nil {
		ehdr.ShOff = ctx.Shdr.Shdr.Offset
		ehdr.ShEntSize = uint16(class.ShdrSize)
		ehdr.ShNum = uint16(ctx.Shdr.Shdr.Size / uint64(class.ShdrSize))
	}
	if ctx.Out.Shstrtab != nil {
		ehdr.ShStrndx = uint16(ctx.Out.Shstrtab.SectionIndex)
	}

	class.WriteEhdr(ctx.Buf[o.Shdr.Offset:], ehdr)
}
