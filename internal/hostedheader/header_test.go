package hostedheader

import (
	"errors"
	"testing"

	"github.com/vmdkcore/vmdkcore/vmdkerr"
)

func TestSerializeParseRoundTrip(t *testing.T) {
	h := Header{
		Version:          1,
		Flags:            FlagValidLineDetectionTest | FlagRedundantGrainTable,
		Capacity:         204800,
		GrainSize:        128,
		DescriptorOffset: 1,
		DescriptorSize:   20,
		NumGTEsPerGT:     512,
		RgdOffset:        21,
		GdOffset:         100,
		Overhead:         200,
	}

	buf := h.Serialize()
	if len(buf) != HeaderSize {
		t.Fatalf("serialized length = %d, want %d", len(buf), HeaderSize)
	}

	got, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestParseBadMagic(t *testing.T) {
	buf := make([]byte, HeaderSize)
	_, err := Parse(buf)
	if !errors.Is(err, vmdkerr.ErrNotAVmdk) {
		t.Fatalf("err = %v, want ErrNotAVmdk", err)
	}
}

func TestSerializeZeroPadsTail(t *testing.T) {
	h := Header{NumGTEsPerGT: 512}
	buf := h.Serialize()
	for i := offDoubleEndLineChar2 + 1; i < HeaderSize; i++ {
		if buf[i] != 0 {
			t.Fatalf("byte %d = %x, want 0", i, buf[i])
		}
	}
}
