package geometry

import (
	"testing"

	"github.com/vmdkcore/vmdkcore/internal/sectormath"
)

func TestHeuristicBuckets(t *testing.T) {
	cases := []struct {
		capacity  uint64
		wantHeads uint32
		wantSPT   uint32
	}{
		{500 * sectormath.OneMiB, 64, 32},
		{1500 * sectormath.OneMiB, 128, 32},
		{10 * sectormath.OneGiB, 255, 63},
	}
	for _, c := range cases {
		g := Heuristic(c.capacity)
		if g.Heads != c.wantHeads || g.Sectors != c.wantSPT {
			t.Errorf("Heuristic(%d) = %+v, want heads=%d sectors=%d", c.capacity, g, c.wantHeads, c.wantSPT)
		}
	}
}

func TestHeuristicCylinders(t *testing.T) {
	capacity := uint64(100) * sectormath.OneMiB
	g := Heuristic(capacity)
	want := uint32(capacity / (uint64(g.Heads) * uint64(g.Sectors) * sectormath.Sector))
	if g.Cylinders != want {
		t.Fatalf("Cylinders = %d, want %d", g.Cylinders, want)
	}
}
