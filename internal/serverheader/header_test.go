package serverheader

import (
	"testing"

	"github.com/vmdkcore/vmdkcore/internal/sectormath"
)

func TestNewHeaderLayout(t *testing.T) {
	h := NewHeader(512 * sectormath.OneMiB)
	if h.GdOffset != 4 {
		t.Fatalf("GdOffset = %d, want 4", h.GdOffset)
	}
	wantGDEntries := sectormath.Ceil(512*sectormath.OneMiB, 2*sectormath.OneMiB)
	if h.NumGDEntries != wantGDEntries {
		t.Fatalf("NumGDEntries = %d, want %d", h.NumGDEntries, wantGDEntries)
	}
	wantFree := h.GdOffset + sectormath.Ceil(wantGDEntries*4, sectormath.Sector)
	if h.FreeSector != wantFree {
		t.Fatalf("FreeSector = %d, want %d", h.FreeSector, wantFree)
	}
}

func TestSerializeParseRoundTrip(t *testing.T) {
	h := NewHeader(100 * sectormath.OneMiB)
	buf := h.Serialize()
	if len(buf) != HeaderSize {
		t.Fatalf("len = %d, want %d", len(buf), HeaderSize)
	}
	got, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}
