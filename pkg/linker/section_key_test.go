package linker

import (
	"debug/elf"
	"testing"
)

func progbits(name string, flags uint64, p2align uint8, size int) *InputSection {
	return NewInputSection(name, uint32(elf.SHT_PROGBITS), flags, p2align,
		make([]byte, size))
}

func TestAddInputSecMergesEqualKeys(t *testing.T) {
	ctx := NewContext()
	f := NewOutputSectionFactory(ctx)

	a := progbits(".text.a", uint64(elf.SHF_ALLOC|elf.SHF_EXECINSTR), 2, 8)
	b := progbits(".text.b", uint64(elf.SHF_ALLOC|elf.SHF_EXECINSTR), 2, 4)

	osecA := f.AddInputSec(a, ".text")
	osecB := f.AddInputSec(b, ".text")

	if osecA != osecB {
		t.Fatal("equal keys must map to the same output section")
	}
	if len(osecA.Members) != 2 || osecA.Members[0] != a || osecA.Members[1] != b {
		t.Error("members must keep first-AddSection order")
	}
	if a.OutputSection != osecA || b.OutputSection != osecA {
		t.Error("input sections must point back at their output section")
	}
}

func TestAddInputSecIgnoresMergeabilityFlags(t *testing.T) {
	ctx := NewContext()
	f := NewOutputSectionFactory(ctx)

	plain := progbits(".rodata.a", uint64(elf.SHF_ALLOC), 0, 4)
	merged := progbits(".rodata.b",
		uint64(elf.SHF_ALLOC|elf.SHF_MERGE|elf.SHF_STRINGS), 0, 4)

	if f.AddInputSec(plain, ".rodata") != f.AddInputSec(merged, ".rodata") {
		t.Error("mergeability-irrelevant flag bits must not split sections")
	}
}

func TestAddInputSecSeparatesAlignments(t *testing.T) {
	ctx := NewContext()
	f := NewOutputSectionFactory(ctx)

	a := progbits(".data.a", uint64(elf.SHF_ALLOC|elf.SHF_WRITE), 2, 4)
	b := progbits(".data.b", uint64(elf.SHF_ALLOC|elf.SHF_WRITE), 4, 4)

	if f.AddInputSec(a, ".data") == f.AddInputSec(b, ".data") {
		t.Error("alignment is part of the section key")
	}
	if len(ctx.OutputSections) != 2 {
		t.Errorf("got %d output sections, want 2", len(ctx.OutputSections))
	}
}

func TestAddInputSecOddRequestsStillSucceed(t *testing.T) {
	ctx := NewContext()
	f := NewOutputSectionFactory(ctx)

	odd := progbits("", 0, 0, 0)
	osec := f.AddInputSec(odd, "")
	if osec == nil || len(osec.Members) != 1 {
		t.Fatal("a structurally odd request must still produce a section")
	}
}

func TestFactoryDeterminism(t *testing.T) {
	feed := func(ctx *Context) {
		f := NewOutputSectionFactory(ctx)
		f.AddInputSec(progbits(".text.x", uint64(elf.SHF_ALLOC|elf.SHF_EXECINSTR), 2, 8), ".text")
		f.AddInputSec(progbits(".data.x", uint64(elf.SHF_ALLOC|elf.SHF_WRITE), 3, 8), ".data")
		f.AddInputSec(progbits(".text.y", uint64(elf.SHF_ALLOC|elf.SHF_EXECINSTR), 2, 4), ".text")
		f.AddInputSec(NewZeroFillSection(".bss.x", uint64(elf.SHF_ALLOC|elf.SHF_WRITE), 3, 16), ".bss")
	}

	ctx1 := NewContext()
	ctx2 := NewContext()
	feed(ctx1)
	feed(ctx2)

	if len(ctx1.OutputSections) != len(ctx2.OutputSections) {
		t.Fatal("independent runs produced different section counts")
	}
	for i := range ctx1.OutputSections {
		a := ctx1.OutputSections[i]
		b := ctx2.OutputSections[i]
		if a.Name != b.Name || len(a.Members) != len(b.Members) {
			t.Errorf("section %d differs: %s/%d vs %s/%d",
				i, a.Name, len(a.Members), b.Name, len(b.Members))
		}
		for j := range a.Members {
			if a.Members[j].Name != b.Members[j].Name {
				t.Errorf("section %s member %d differs", a.Name, j)
			}
		}
	}
}
