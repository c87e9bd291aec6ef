package linker

import "debug/elf"

// ShstrtabSection holds the section-name string table. Its contents exist
// only so the section-header records have name offsets to point at.
type ShstrtabSection struct {
	OutputSectionBase
	Contents []byte
}

func NewShstrtabSection() *ShstrtabSection {
	s := &ShstrtabSection{OutputSectionBase: NewOutputSectionBase(".shstrtab")}
	s.Shdr.Type = uint32(elf.SHT_STRTAB)
	s.Shdr.AddrAlign = 1
	return s
}

// Finalize collects the names of every section that appears in the header
// table and records each one's string-table offset in its Shdr.Name.
func (s *ShstrtabSection) Finalize(ctx *Context) {
	s.Contents = []byte{0}
	for _, chunk := range ctx.Chunks {
		if chunk.GetShdr().Type == uint32(elf.SHT_NULL) {
			continue
		}
		chunk.GetShdr().Name = uint32(len(s.Contents))
		s.Contents = append(s.Contents, chunk.GetName()...)
		s.Contents = append(s.Contents, 0)
	}
	s.Shdr.Size = uint64(len(s.Contents))
	s.markFinalized()
}

func (s *ShstrtabSection) WriteTo(ctx *Context) {
	s.markWritten()
	copy(ctx.Buf[s.Shdr.Offset:], s.Contents)
}
