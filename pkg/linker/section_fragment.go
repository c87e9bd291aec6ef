package linker

import "math"

// SectionFragment is one deduplicated piece of a merged section. Offset is
// undefined until the owning section has been finalized.
type SectionFragment struct {
	OutputSection *MergedSection
	Offset        uint64
	P2Align       uint8
	IsAlive       bool
}

func NewSectionFragment(m *MergedSection) *SectionFragment {
	return &SectionFragment{
		OutputSection: m,
		Offset:        math.MaxUint64,
	}
}

func (s *SectionFragment) GetAddr() uint64 {
	return s.OutputSection.Shdr.Addr + s.Offset
}
