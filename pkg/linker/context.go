package linker

const (
	ImageBase uint64 = 0x200000
	PageSize  uint64 = 4096
)

type Args struct {
	Output    string
	Emulation MachineType

	// raw binary dump: no ELF header, no program headers, no section table
	OFormatBinary bool

	ImageBase uint64
	PageSize  uint64

	// flag bits excluded from section keys, see DefaultKeyFlagsIgnored
	KeyFlagsIgnored uint64
}

// Out holds the sections the linker handles specially. The layout passes
// populate it before AssignOffsets runs; afterwards it is read-only. Nil
// slots are legitimate, e.g. TlsPhdr stays nil when there is no thread-local
// data.
type Out struct {
	Bss            *OutputSection
	BssRelRo       *OutputSection
	Opd            iOutputSection
	DebugInfo      iOutputSection
	ElfHeader      iOutputSection
	ProgramHeaders iOutputSection
	PreinitArray   *OutputSection
	InitArray      *OutputSection
	FiniArray      *OutputSection
	Shstrtab       *ShstrtabSection
	TlsPhdr        *Phdr
}

// Context is one link invocation. All state lives here; two contexts in one
// process never share anything.
type Context struct {
	Args Args
	Buf  []byte

	Out Out

	OutputSections []*OutputSection
	MergedSections []*MergedSection
	EhFrame        *EhFrameSection

	// every section of the output in final order, including synthetic ones
	Chunks []iOutputSection

	Ehdr *OutputEhdrWriter
	Phdr *OutputPhdrsWriter
	Shdr *OutputShdrsWriter

	Phdrs []Phdr
}

func NewContext() *Context {
	return &Context{
		Args: Args{
			Output:          "a.out",
			Emulation:       MachineTypeRISCV64,
			ImageBase:       ImageBase,
			PageSize:        PageSize,
			KeyFlagsIgnored: DefaultKeyFlagsIgnored,
		},
	}
}

func (ctx *Context) ElfClass() ElfClass {
	return ctx.Args.Emulation.ElfClass()
}

// GetHeaderSize is the space reserved at the start of the file for the ELF
// header and the program-header table. A raw binary dump has neither.
func GetHeaderSize(ctx *Context) uint64 {
	if ctx.Args.OFormatBinary {
		return 0
	}
	return ctx.Out.ElfHeader.GetShdr().Size + ctx.Out.ProgramHeaders.GetShdr().Size
}
