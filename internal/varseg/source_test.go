package varseg

import (
	"errors"
	"testing"

	"github.com/locusdb/locus/locus"
)

func variantFixture(start int64, md5 string, calls ...*locus.Call) VariantRecord {
	return NewVariantRecord(&locus.Variant{
		ReferenceName:  "1",
		Start:          start,
		End:            start + 1,
		ReferenceBases: "A",
		AlternateBases: []string{"T"},
		MD5:            md5,
		Calls:          calls,
	})
}

func seedVariantSegment(t *testing.T, comp Compressor, records []VariantRecord) *VariantSource {
	t.Helper()
	data, err := EncodeRecords(comp, records)
	if err != nil {
		t.Fatalf("EncodeRecords error: %v", err)
	}
	store := locus.NewMemoryStore()
	if err := store.Seed(segmentPath("ds/vs", "1", comp), data); err != nil {
		t.Fatalf("Seed error: %v", err)
	}
	return NewVariantSource(store, "ds/vs", comp)
}

func collectVariants(t *testing.T, scan locus.Scan[*locus.Variant], err error) []*locus.Variant {
	t.Helper()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	defer func() { _ = scan.Close() }()
	var out []*locus.Variant
	for {
		v, ok, err := scan.Next()
		if err != nil {
			t.Fatalf("Next error: %v", err)
		}
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func TestVariantSource_Variants_RoundTrip_AllCompressors(t *testing.T) {
	records := []VariantRecord{
		variantFixture(100, "md5-a"),
		variantFixture(110, "md5-b"),
		variantFixture(120, "md5-c"),
	}
	compressors := []Compressor{NewGzipCompressor(), NewZstdCompressor(), NewNoOpCompressor()}
	for _, comp := range compressors {
		t.Run(comp.Name(), func(t *testing.T) {
			source := seedVariantSegment(t, comp, records)
			scan, err := source.Variants("1", 0, 1000, nil)
			variants := collectVariants(t, scan, err)
			if len(variants) != 3 {
				t.Fatalf("got %d variants, want 3", len(variants))
			}
			for i, v := range variants {
				if v.Start != records[i].Start || v.MD5 != records[i].MD5 {
					t.Errorf("variant %d = (%d, %q), want (%d, %q)",
						i, v.Start, v.MD5, records[i].Start, records[i].MD5)
				}
			}
		})
	}
}

func TestVariantSource_Variants_MD5SurvivesSegment(t *testing.T) {
	// The wire form withholds the checksum; the segment form must carry it
	// so decoration can derive compound IDs after a round trip.
	source := seedVariantSegment(t, NewNoOpCompressor(), []VariantRecord{
		variantFixture(100, "d41d8cd9"),
	})
	scan, err := source.Variants("1", 0, 1000, nil)
	variants := collectVariants(t, scan, err)
	if len(variants) != 1 || variants[0].MD5 != "d41d8cd9" {
		t.Fatalf("variants = %+v, want one with its checksum restored", variants)
	}
}

func TestVariantSource_Variants_IntervalOverlap(t *testing.T) {
	source := seedVariantSegment(t, NewZstdCompressor(), []VariantRecord{
		variantFixture(100, "a"),
		variantFixture(110, "b"),
		variantFixture(120, "c"),
		variantFixture(130, "d"),
	})
	scan, err := source.Variants("1", 105, 125, nil)
	variants := collectVariants(t, scan, err)
	if len(variants) != 2 || variants[0].MD5 != "b" || variants[1].MD5 != "c" {
		t.Fatalf("got %d variants, want b and c", len(variants))
	}
}

func TestVariantSource_Variants_CallNameRestriction(t *testing.T) {
	source := seedVariantSegment(t, NewZstdCompressor(), []VariantRecord{
		variantFixture(100, "a",
			&locus.Call{CallSetName: "NA1", Genotype: []int32{0, 1}},
			&locus.Call{CallSetName: "NA2", Genotype: []int32{1, 1}},
		),
	})
	scan, err := source.Variants("1", 0, 1000, []string{"NA2"})
	variants := collectVariants(t, scan, err)
	if len(variants) != 1 {
		t.Fatalf("got %d variants, want 1", len(variants))
	}
	calls := variants[0].Calls
	if len(calls) != 1 || calls[0].CallSetName != "NA2" {
		t.Errorf("calls = %+v, want only NA2", calls)
	}
}

func TestVariantSource_Variants_MissingSegment_Empty(t *testing.T) {
	source := NewVariantSource(locus.NewMemoryStore(), "ds/vs", NewZstdCompressor())
	scan, err := source.Variants("17", 0, 1000, nil)
	variants := collectVariants(t, scan, err)
	if len(variants) != 0 {
		t.Errorf("got %d variants from a missing segment, want 0", len(variants))
	}
}

func TestVariantSource_Variant_ExactMatch(t *testing.T) {
	source := seedVariantSegment(t, NewGzipCompressor(), []VariantRecord{
		variantFixture(100, "md5-a"),
		variantFixture(100, "md5-b"),
	})
	v, err := source.Variant("1", 100, "md5-b")
	if err != nil {
		t.Fatalf("Variant error: %v", err)
	}
	if v.MD5 != "md5-b" {
		t.Errorf("got checksum %q, want %q", v.MD5, "md5-b")
	}

	if _, err := source.Variant("1", 100, "no-such"); !errors.Is(err, locus.ErrNotFound) {
		t.Errorf("unknown checksum: error = %v, want ErrNotFound", err)
	}
	if _, err := source.Variant("1", 999, "md5-a"); !errors.Is(err, locus.ErrNotFound) {
		t.Errorf("unknown position: error = %v, want ErrNotFound", err)
	}
}

func TestVariantSource_Variants_CorruptSegment_Error(t *testing.T) {
	store := locus.NewMemoryStore()
	comp := NewNoOpCompressor()
	if err := store.Seed(segmentPath("ds/vs", "1", comp), []byte("{broken")); err != nil {
		t.Fatal(err)
	}
	source := NewVariantSource(store, "ds/vs", comp)
	scan, err := source.Variants("1", 0, 1000, nil)
	if err != nil {
		t.Fatalf("Variants error: %v", err)
	}
	defer func() { _ = scan.Close() }()
	if _, _, err := scan.Next(); err == nil {
		t.Error("Next on a corrupt segment: want error")
	}
}

func TestAnnotationSource_Annotations_StopsPastEnd(t *testing.T) {
	comp := NewZstdCompressor()
	annotations := []*locus.VariantAnnotation{
		{ID: "a", ReferenceName: "1", Start: 100, End: 101},
		{ID: "b", ReferenceName: "1", Start: 110, End: 111},
		{ID: "c", ReferenceName: "1", Start: 200, End: 201},
	}
	data, err := EncodeRecords(comp, annotations)
	if err != nil {
		t.Fatalf("EncodeRecords error: %v", err)
	}
	store := locus.NewMemoryStore()
	if err := store.Seed(segmentPath("ds/as", "1", comp), data); err != nil {
		t.Fatal(err)
	}
	source := NewAnnotationSource(store, "ds/as", comp)

	scan, err := source.Annotations("1", 0, 150)
	if err != nil {
		t.Fatalf("Annotations error: %v", err)
	}
	defer func() { _ = scan.Close() }()
	var ids []string
	for {
		ann, ok, err := scan.Next()
		if err != nil {
			t.Fatalf("Next error: %v", err)
		}
		if !ok {
			break
		}
		ids = append(ids, ann.ID)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("ids = %v, want [a b]", ids)
	}
}

func TestAnnotationSource_MissingSegment_Empty(t *testing.T) {
	source := NewAnnotationSource(locus.NewMemoryStore(), "ds/as", NewZstdCompressor())
	scan, err := source.Annotations("1", 0, 1000)
	if err != nil {
		t.Fatalf("Annotations error: %v", err)
	}
	if _, ok, _ := scan.Next(); ok {
		t.Error("missing segment yielded an annotation")
	}
}
