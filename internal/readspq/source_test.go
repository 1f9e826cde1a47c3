package readspq

import (
	"strings"
	"testing"

	"github.com/locusdb/locus/locus"
)

func segmentRead(name, group, referenceName string, position int64, seqLen int) *locus.ReadAlignment {
	return &locus.ReadAlignment{
		FragmentName: name,
		ReadGroupID:  group,
		Alignment: &locus.LinearAlignment{
			Position:       &locus.Position{ReferenceName: referenceName, Position: position},
			MappingQuality: 60,
		},
		AlignedSequence: strings.Repeat("A", seqLen),
	}
}

func unmappedMate(name, group, mateReference string, matePosition int64) *locus.ReadAlignment {
	return &locus.ReadAlignment{
		FragmentName:     name,
		ReadGroupID:      group,
		NextMatePosition: &locus.Position{ReferenceName: mateReference, Position: matePosition},
		AlignedSequence:  "AAAA",
	}
}

func seedSegment(t *testing.T, referenceName string, reads []*locus.ReadAlignment) *ReadSource {
	t.Helper()
	data, err := EncodeAlignments(reads)
	if err != nil {
		t.Fatalf("EncodeAlignments error: %v", err)
	}
	store := locus.NewMemoryStore()
	if err := store.Seed(segmentPath("ds/rgs", referenceName), data); err != nil {
		t.Fatalf("Seed error: %v", err)
	}
	return NewReadSource(store, "ds/rgs")
}

func collectReads(t *testing.T, scan locus.Scan[*locus.ReadAlignment], err error) []*locus.ReadAlignment {
	t.Helper()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	defer func() { _ = scan.Close() }()
	var out []*locus.ReadAlignment
	for {
		r, ok, err := scan.Next()
		if err != nil {
			t.Fatalf("Next error: %v", err)
		}
		if !ok {
			return out
		}
		out = append(out, r)
	}
}

func TestReadSource_Reads_RoundTrip(t *testing.T) {
	source := seedSegment(t, "1", []*locus.ReadAlignment{
		segmentRead("frag1", "rg1", "1", 100, 10),
		segmentRead("frag2", "rg2", "1", 120, 10),
	})
	scan, err := source.Reads("1", nil, 0, 1000)
	reads := collectReads(t, scan, err)
	if len(reads) != 2 {
		t.Fatalf("got %d reads, want 2", len(reads))
	}
	r := reads[0]
	if r.FragmentName != "frag1" || r.ReadGroupID != "rg1" {
		t.Errorf("read = %q group %q, want frag1 in rg1", r.FragmentName, r.ReadGroupID)
	}
	if r.Alignment == nil || r.Alignment.Position.Position != 100 {
		t.Errorf("alignment = %+v, want position 100", r.Alignment)
	}
	if r.Alignment.MappingQuality != 60 {
		t.Errorf("mapping quality = %d, want 60", r.Alignment.MappingQuality)
	}
}

func TestReadSource_Reads_GroupFilter(t *testing.T) {
	source := seedSegment(t, "1", []*locus.ReadAlignment{
		segmentRead("frag1", "rg1", "1", 100, 10),
		segmentRead("frag2", "rg2", "1", 120, 10),
		segmentRead("frag3", "rg1", "1", 140, 10),
	})
	scan, err := source.Reads("1", []string{"rg1"}, 0, 1000)
	reads := collectReads(t, scan, err)
	if len(reads) != 2 {
		t.Fatalf("got %d reads, want rg1's 2", len(reads))
	}
	for _, r := range reads {
		if r.ReadGroupID != "rg1" {
			t.Errorf("read %q group = %q, want rg1", r.FragmentName, r.ReadGroupID)
		}
	}
}

func TestReadSource_Reads_IntervalOverlap(t *testing.T) {
	source := seedSegment(t, "1", []*locus.ReadAlignment{
		segmentRead("before", "rg1", "1", 50, 10), // ends at 60
		segmentRead("spans", "rg1", "1", 95, 10),  // ends at 105
		segmentRead("inside", "rg1", "1", 110, 10),
		segmentRead("after", "rg1", "1", 200, 10),
	})
	scan, err := source.Reads("1", nil, 100, 150)
	reads := collectReads(t, scan, err)
	if len(reads) != 2 || reads[0].FragmentName != "spans" || reads[1].FragmentName != "inside" {
		t.Fatalf("reads = %v, want [spans inside]", fragmentNames(reads))
	}
}

func TestReadSource_Reads_UnmappedMateAtMatePosition(t *testing.T) {
	// An unmapped read with a mapped mate sits in the mate's segment at the
	// mate's position, so it surfaces in interval queries there.
	source := seedSegment(t, "1", []*locus.ReadAlignment{
		segmentRead("mapped", "rg1", "1", 100, 10),
		unmappedMate("lost-mate", "rg1", "1", 130),
	})
	scan, err := source.Reads("1", nil, 125, 140)
	reads := collectReads(t, scan, err)
	if len(reads) != 1 || reads[0].FragmentName != "lost-mate" {
		t.Fatalf("reads = %v, want just lost-mate", fragmentNames(reads))
	}
	r := reads[0]
	if r.Alignment != nil {
		t.Errorf("unmapped read carries an alignment: %+v", r.Alignment)
	}
	if r.NextMatePosition == nil || r.NextMatePosition.Position != 130 {
		t.Errorf("mate position = %+v, want 130", r.NextMatePosition)
	}
}

func TestReadSource_Reads_MissingSegment_Empty(t *testing.T) {
	source := NewReadSource(locus.NewMemoryStore(), "ds/rgs")
	scan, err := source.Reads("17", nil, 0, 1000)
	reads := collectReads(t, scan, err)
	if len(reads) != 0 {
		t.Errorf("got %d reads from a missing segment, want 0", len(reads))
	}
}

func TestReadSource_Reads_StopsPastEnd(t *testing.T) {
	source := seedSegment(t, "1", []*locus.ReadAlignment{
		segmentRead("frag1", "rg1", "1", 100, 10),
		segmentRead("frag2", "rg1", "1", 500, 10),
	})
	scan, err := source.Reads("1", nil, 0, 200)
	reads := collectReads(t, scan, err)
	if len(reads) != 1 || reads[0].FragmentName != "frag1" {
		t.Fatalf("reads = %v, want just frag1", fragmentNames(reads))
	}
}

func fragmentNames(reads []*locus.ReadAlignment) []string {
	names := make([]string, len(reads))
	for i, r := range reads {
		names[i] = r.FragmentName
	}
	return names
}
