package linker

import (
	"bytes"
	"testing"
)

func TestEhFrameCieDedup(t *testing.T) {
	e := NewEhFrameSection()

	cie1 := e.AddCie([]byte("cie-one"))
	cie2 := e.AddCie([]byte("cie-one"))
	if cie1 != cie2 {
		t.Fatal("identical CIEs from different objects must merge")
	}
	if e.AddCie([]byte("cie-two")) == cie1 {
		t.Error("distinct CIEs must not merge")
	}
	if len(e.Cies) != 2 {
		t.Errorf("got %d CIEs, want 2", len(e.Cies))
	}
}

func TestEhFrameLayout(t *testing.T) {
	ctx := NewContext()
	e := NewEhFrameSection()

	cie := e.AddCie([]byte("cie-record-"))
	fde1 := e.AddFde([]byte("fde-one-"), cie)
	fde2 := e.AddFde([]byte("fde-two-"), cie)

	e.Finalize(ctx)

	if cie.Offset != 0 {
		t.Errorf("CIE at %d, want 0", cie.Offset)
	}
	if fde1.Offset != 11 || fde2.Offset != 19 {
		t.Errorf("FDEs at %d, %d, want 11, 19", fde1.Offset, fde2.Offset)
	}
	if e.Shdr.Size != 27 {
		t.Errorf("size = %d, want 27", e.Shdr.Size)
	}

	e.AssignOffsets(ctx)
	ctx.Buf = make([]byte, e.Shdr.Size)
	e.WriteTo(ctx)
	if !bytes.Equal(ctx.Buf[:11], []byte("cie-record-")) ||
		!bytes.Equal(ctx.Buf[11:19], []byte("fde-one-")) {
		t.Error("records not written at their assigned offsets")
	}
}
