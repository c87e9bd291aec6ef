package linker

import "debug/elf"

// SectionKey decides whether two input sections land in the same output
// section. It is a plain comparable value used as a map key; exact equality
// on all three fields.
type SectionKey struct {
	Name      string
	Flags     uint64
	Alignment uint64
}

// DefaultKeyFlagsIgnored lists the flag bits excluded from the key because
// they do not affect layout compatibility. The exact set is policy, not
// logic: it lives in Args so a driver can widen or narrow it.
const DefaultKeyFlagsIgnored = uint64(elf.SHF_GROUP) |
	uint64(elf.SHF_MERGE) | uint64(elf.SHF_STRINGS) |
	uint64(elf.SHF_COMPRESSED) | uint64(elf.SHF_LINK_ORDER)

// OutputSectionFactory maps section keys to output sections. The first input
// section seen for a key creates the output section and appends it to the
// context's shared list, so absent a script the output order is first-seen
// order and is reproducible for a given input sequence.
type OutputSectionFactory struct {
	ctx *Context
	m   map[SectionKey]*OutputSection
}

func NewOutputSectionFactory(ctx *Context) *OutputSectionFactory {
	return &OutputSectionFactory{
		ctx: ctx,
		m:   make(map[SectionKey]*OutputSection),
	}
}

// AddInputSec merges isec into the output section named outsecName, creating
// it on first sight of the key. The operation is total: any input section,
// however odd, lands somewhere.
func (f *OutputSectionFactory) AddInputSec(isec *InputSection,
	outsecName string) *OutputSection {
	flags := isec.Flags &^ f.ctx.Args.KeyFlagsIgnored
	key := SectionKey{
		Name:      outsecName,
		Flags:     flags,
		Alignment: isec.AddrAlign(),
	}

	osec, ok := f.m[key]
	if !ok {
		osec = NewOutputSection(outsecName, isec.Type, flags,
			uint32(len(f.ctx.OutputSections)))
		f.ctx.OutputSections = append(f.ctx.OutputSections, osec)
		f.m[key] = osec
	}

	osec.AddSection(isec)
	return osec
}
