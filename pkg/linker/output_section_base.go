package linker

import (
	"fmt"

	"github.com/objectx/lld/pkg/utils"
)

// SectionKind is a closed tag over the output-section variants. Call sites
// dispatch on the tag, never on the section name.
type SectionKind uint8

const (
	KindBase SectionKind = iota
	KindRegular
	KindMerge
	KindEhFrame
)

func (k SectionKind) String() string {
	switch k {
	case KindBase:
		return "base"
	case KindRegular:
		return "regular"
	case KindMerge:
		return "merge"
	case KindEhFrame:
		return "eh_frame"
	}
	return "unknown"
}

type sectionPhase uint8

const (
	phaseAccumulate sectionPhase = iota
	phaseFinalized
	phaseOffsetsAssigned
	phaseWritten
)

func (p sectionPhase) String() string {
	switch p {
	case phaseAccumulate:
		return "AddSection"
	case phaseFinalized:
		return "Finalize"
	case phaseOffsetsAssigned:
		return "AssignOffsets"
	case phaseWritten:
		return "WriteTo"
	}
	return "unknown"
}

// iOutputSection is the lifecycle every output section implements. The
// phases run in this fixed order: AddSection (repeatable) -> Finalize ->
// AssignOffsets -> WriteTo.
type iOutputSection interface {
	Kind() SectionKind
	GetName() string
	GetShdr() *Shdr
	Base() *OutputSectionBase
	AddSection(isec *InputSection)
	Finalize(ctx *Context)
	AssignOffsets(ctx *Context)
	WriteTo(ctx *Context)
}

// OutputSectionBase carries the section-header fields shared by every kind
// plus the load-segment bookkeeping. Shdr.Size is undefined before Finalize;
// Shdr.Addr and Shdr.Offset are undefined before AssignOffsets. Reading them
// earlier is caller misuse and the phase counter turns it into a fatal
// diagnostic rather than a silent wrong address.
type OutputSectionBase struct {
	Name string
	Shdr Shdr

	// Index into the section header table; 0 means not a real section.
	SectionIndex uint32

	// If true this section starts on a page boundary, typically because it
	// is the first section of a PT_LOAD segment.
	PageAlign bool

	// Index into ctx.Chunks of the first section in the PT_LOAD segment
	// this section resides in, or -1 if it is in no load segment. Used only
	// for offset arithmetic: within one segment,
	// Off = Off_first + VA - VA_first.
	FirstInSegment int

	// Load-address delta for "load here, run there" images.
	LMAOffset uint64

	phase sectionPhase
}

func NewOutputSectionBase(name string) OutputSectionBase {
	return OutputSectionBase{
		Name:           name,
		Shdr:           Shdr{AddrAlign: 1},
		FirstInSegment: -1,
	}
}

func (o *OutputSectionBase) Kind() SectionKind {
	return KindBase
}

func (o *OutputSectionBase) GetName() string {
	return o.Name
}

func (o *OutputSectionBase) GetShdr() *Shdr {
	return &o.Shdr
}

func (o *OutputSectionBase) Base() *OutputSectionBase {
	return o
}

func (o *OutputSectionBase) GetLMA() uint64 {
	return o.Shdr.Addr + o.LMAOffset
}

// UpdateAlignment keeps the larger of the current and newly seen alignment.
// Alignment only ever grows.
func (o *OutputSectionBase) UpdateAlignment(alignment uint64) {
	if alignment > o.Shdr.AddrAlign {
		o.Shdr.AddrAlign = alignment
	}
}

func (o *OutputSectionBase) AddSection(isec *InputSection) {
	utils.Fatal(fmt.Sprintf("%s: AddSection on a %s section", o.Name, o.Kind()))
}

func (o *OutputSectionBase) Finalize(ctx *Context) {
	o.markFinalized()
}

func (o *OutputSectionBase) AssignOffsets(ctx *Context) {
	o.markOffsetsAssigned()
}

func (o *OutputSectionBase) WriteTo(ctx *Context) {
	o.markWritten()
}

// WriteHeaderTo emits the section-header record in the class's field order
// and widths.
func (o *OutputSectionBase) WriteHeaderTo(class ElfClass, buf []byte) {
	o.requireAtLeast(phaseOffsetsAssigned, "WriteHeaderTo")
	class.WriteShdr(buf, &o.Shdr)
}

// Phase bookkeeping. Finalize may run any number of times (it must be
// idempotent); AssignOffsets and WriteTo run exactly once, in order.

func (o *OutputSectionBase) requireAddable() {
	if o.phase != phaseAccumulate {
		utils.Fatal(fmt.Sprintf("%s: AddSection after %s", o.Name, o.phase))
	}
}

func (o *OutputSectionBase) markFinalized() {
	if o.phase > phaseFinalized {
		utils.Fatal(fmt.Sprintf("%s: Finalize after %s", o.Name, o.phase))
	}
	o.phase = phaseFinalized
}

func (o *OutputSectionBase) markOffsetsAssigned() {
	if o.phase != phaseFinalized {
		utils.Fatal(fmt.Sprintf(
			"%s: AssignOffsets called while in phase %s, want Finalize",
			o.Name, o.phase))
	}
	o.phase = phaseOffsetsAssigned
}

func (o *OutputSectionBase) markWritten() {
	if o.phase != phaseOffsetsAssigned {
		utils.Fatal(fmt.Sprintf(
			"%s: WriteTo called while in phase %s, want AssignOffsets",
			o.Name, o.phase))
	}
	o.phase = phaseWritten
}

func (o *OutputSectionBase) requireAtLeast(p sectionPhase, op string) {
	if o.phase < p {
		utils.Fatal(fmt.Sprintf("%s: %s called before %s", o.Name, op, p))
	}
}
