package linker

import (
	"sort"

	"github.com/objectx/lld/pkg/utils"
)

// MergedSection deduplicates constant pieces (typically strings) by their
// contents: equal pieces from different object files share one fragment.
type MergedSection struct {
	OutputSectionBase
	Map map[string]*SectionFragment
}

func NewMergedSection(name string, flags uint64, typ uint32) *MergedSection {
	m := &MergedSection{
		OutputSectionBase: NewOutputSectionBase(name),
		Map:               make(map[string]*SectionFragment),
	}
	m.Shdr.Flags = flags
	m.Shdr.Type = typ
	return m
}

// GetMergedSectionInstance returns the merged section for the given key,
// creating and registering it on first sight, same dedup rule as the
// factory's.
func GetMergedSectionInstance(ctx *Context, name string, typ uint32,
	flags uint64) *MergedSection {
	flags = flags &^ ctx.Args.KeyFlagsIgnored

	for _, osec := range ctx.MergedSections {
		if name == osec.Name && flags == osec.Shdr.Flags &&
			typ == osec.Shdr.Type {
			return osec
		}
	}

	osec := NewMergedSection(name, flags, typ)
	ctx.MergedSections = append(ctx.MergedSections, osec)
	return osec
}

func (m *MergedSection) Kind() SectionKind {
	return KindMerge
}

func (m *MergedSection) Insert(key string, p2align uint8) *SectionFragment {
	m.requireAddable()
	frag, ok := m.Map[key]
	if !ok {
		frag = NewSectionFragment(m)
		m.Map[key] = frag
	}

	if frag.P2Align < p2align {
		frag.P2Align = p2align
	}
	return frag
}

// Finalize assigns fragment offsets. The map is unordered, so fragments are
// sorted by (alignment, length, contents) first to keep the layout
// independent of input file order.
func (m *MergedSection) Finalize(ctx *Context) {
	type fragment struct {
		Key string
		Val *SectionFragment
	}
	fragments := make([]fragment, 0, len(m.Map))
	for key, val := range m.Map {
		fragments = append(fragments, fragment{Key: key, Val: val})
	}

	sort.Slice(fragments, func(i, j int) bool {
		x := fragments[i]
		y := fragments[j]
		if x.Val.P2Align != y.Val.P2Align {
			return x.Val.P2Align < y.Val.P2Align
		}
		if len(x.Key) != len(y.Key) {
			return len(x.Key) < len(y.Key)
		}
		return x.Key < y.Key
	})

	offset := uint64(0)
	p2align := uint8(0)
	for _, frag := range fragments {
		offset = utils.AlignTo(offset, uint64(1)<<frag.Val.P2Align)
		frag.Val.Offset = offset
		offset += uint64(len(frag.Key))
		if p2align < frag.Val.P2Align {
			p2align = frag.Val.P2Align
		}
	}

	m.Shdr.Size = utils.AlignTo(offset, uint64(1)<<p2align)
	m.UpdateAlignment(uint64(1) << p2align)
	m.markFinalized()
}

func (m *MergedSection) AssignOffsets(ctx *Context) {
	m.markOffsetsAssigned()
}

func (m *MergedSection) WriteTo(ctx *Context) {
	m.markWritten()
	base := ctx.Buf[m.Shdr.Offset:]
	// offsets were fixed by Finalize, so the map order does not matter here
	for key, frag := range m.Map {
		copy(base[frag.Offset:], key)
	}
}
