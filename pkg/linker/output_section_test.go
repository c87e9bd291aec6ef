package linker

import (
	"debug/elf"
	"testing"
)

func memberNames(o *OutputSection) []string {
	names := make([]string, 0, len(o.Members))
	for _, isec := range o.Members {
		names = append(names, isec.Name)
	}
	return names
}

func expectOrder(t *testing.T, o *OutputSection, want []string) {
	t.Helper()
	got := memberNames(o)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestAlignmentMonotonicity(t *testing.T) {
	osec := NewOutputSection(".data", uint32(elf.SHT_PROGBITS),
		uint64(elf.SHF_ALLOC|elf.SHF_WRITE), 0)

	osec.AddSection(progbits(".data.a", osec.Shdr.Flags, 0, 1))
	osec.AddSection(progbits(".data.b", osec.Shdr.Flags, 4, 1))
	if osec.Shdr.AddrAlign != 16 {
		t.Errorf("alignment = %d, want 16", osec.Shdr.AddrAlign)
	}

	osec.AddSection(progbits(".data.c", osec.Shdr.Flags, 2, 1))
	if osec.Shdr.AddrAlign != 16 {
		t.Errorf("alignment shrank to %d", osec.Shdr.AddrAlign)
	}

	osec.UpdateAlignment(8)
	if osec.Shdr.AddrAlign != 16 {
		t.Errorf("UpdateAlignment shrank to %d", osec.Shdr.AddrAlign)
	}
}

func TestFinalizeLaysOutMembers(t *testing.T) {
	ctx := NewContext()
	osec := NewOutputSection(".data", uint32(elf.SHT_PROGBITS),
		uint64(elf.SHF_ALLOC|elf.SHF_WRITE), 0)

	a := progbits(".data.a", osec.Shdr.Flags, 0, 3)
	b := progbits(".data.b", osec.Shdr.Flags, 3, 8)
	osec.AddSection(a)
	osec.AddSection(b)
	osec.Finalize(ctx)

	if a.Offset != 0 || b.Offset != 8 {
		t.Errorf("offsets = %d, %d, want 0, 8", a.Offset, b.Offset)
	}
	if osec.Shdr.Size != 16 {
		t.Errorf("size = %d, want 16", osec.Shdr.Size)
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	ctx := NewContext()
	osec := NewOutputSection(".data", uint32(elf.SHT_PROGBITS),
		uint64(elf.SHF_ALLOC|elf.SHF_WRITE), 0)
	osec.AddSection(progbits(".data.a", osec.Shdr.Flags, 2, 5))
	osec.AddSection(progbits(".data.b", osec.Shdr.Flags, 3, 9))

	osec.Finalize(ctx)
	size := osec.Shdr.Size
	link, info := osec.Shdr.Link, osec.Shdr.Info

	osec.Finalize(ctx)
	if osec.Shdr.Size != size || osec.Shdr.Link != link || osec.Shdr.Info != info {
		t.Error("second Finalize changed the result")
	}
}

func TestSortIsStable(t *testing.T) {
	osec := NewOutputSection(".text", uint32(elf.SHT_PROGBITS),
		uint64(elf.SHF_ALLOC|elf.SHF_EXECINSTR), 0)
	for _, name := range []string{".text.a", ".text.b", ".text.c"} {
		osec.AddSection(progbits(name, osec.Shdr.Flags, 0, 1))
	}

	osec.Sort(func(isec *InputSection) int { return 0 })
	expectOrder(t, osec, []string{".text.a", ".text.b", ".text.c"})
}

func initFiniSection(t *testing.T, name string) *OutputSection {
	t.Helper()
	osec := NewOutputSection(name, uint32(elf.SHT_INIT_ARRAY),
		uint64(elf.SHF_ALLOC|elf.SHF_WRITE), 0)
	for _, suffix := range []string{".100", ".050", ""} {
		osec.AddSection(progbits(name+suffix, osec.Shdr.Flags, 3, 8))
	}
	return osec
}

func TestSortInitFini(t *testing.T) {
	osec := initFiniSection(t, ".init_array")
	osec.SortInitFini()
	expectOrder(t, osec, []string{
		".init_array.050", ".init_array.100", ".init_array"})
}

func TestSortCtorsDtors(t *testing.T) {
	osec := initFiniSection(t, ".ctors")
	osec.SortCtorsDtors()
	expectOrder(t, osec, []string{".ctors.100", ".ctors.050", ".ctors"})
}

func TestSortInitFiniMalformedSuffix(t *testing.T) {
	osec := NewOutputSection(".init_array", uint32(elf.SHT_INIT_ARRAY),
		uint64(elf.SHF_ALLOC|elf.SHF_WRITE), 0)
	for _, name := range []string{".init_array.abc", ".init_array.7", ".init_array.xyz"} {
		osec.AddSection(progbits(name, osec.Shdr.Flags, 3, 8))
	}

	osec.SortInitFini()
	expectOrder(t, osec, []string{
		".init_array.7", ".init_array.abc", ".init_array.xyz"})
}

func TestReadPriority(t *testing.T) {
	tests := []struct {
		name string
		prio int
		ok   bool
	}{
		{".init_array.100", 100, true},
		{".ctors.050", 50, true},
		{".init_array", 0, false},
		{".init_array.", 0, false},
		{".init_array.12a", 0, false},
		{"noperiod", 0, false},
	}
	for _, tt := range tests {
		prio, ok := readPriority(tt.name)
		if prio != tt.prio || ok != tt.ok {
			t.Errorf("readPriority(%q) = %d, %v, want %d, %v",
				tt.name, prio, ok, tt.prio, tt.ok)
		}
	}
}

func TestGetLMA(t *testing.T) {
	osec := NewOutputSection(".data", uint32(elf.SHT_PROGBITS),
		uint64(elf.SHF_ALLOC|elf.SHF_WRITE), 0)
	osec.Shdr.Addr = 0x80000000
	osec.LMAOffset = 0x10000000
	if got := osec.GetLMA(); got != 0x90000000 {
		t.Errorf("GetLMA() = %#x, want 0x90000000", got)
	}
}
