package linker

// OutputShdrsWriter reserves and writes the section-header table: one null
// record plus one record per section that got a table index.
type OutputShdrsWriter struct {
	OutputSectionBase
}

func NewOutputShdrsWriter() *OutputShdrsWriter {
	o := &OutputShdrsWriter{OutputSectionBase: NewOutputSectionBase("shdr")}
	o.Shdr.AddrAlign = 8
	return o
}

// UpdateSize needs the section indices, so it runs after they are assigned.
func (o *OutputShdrsWriter) UpdateSize(ctx *Context) {
	n := uint64(0)
	for _, chunk := range ctx.Chunks {
		if idx := chunk.Base().SectionIndex; uint64(idx) > n {
			n = uint64(idx)
		}
	}
	o.Shdr.Size = (n + 1) * uint64(ctx.ElfClass().ShdrSize)
}

func (o *OutputShdrsWriter) WriteTo(ctx *Context) {
	o.markWritten()
	class := ctx.ElfClass()
	base := ctx.Buf[o.Shdr.Offset:]
	class.WriteShdr(base, &Shdr{})

	for _, chunk := range ctx.Chunks {
		if idx := chunk.Base().SectionIndex; idx > 0 {
			chunk.Base().WriteHeaderTo(class,
				base[int(idx)*class.ShdrSize:])
		}
	}
}
