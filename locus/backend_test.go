package locus

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// testFixture wires a small repository through a backend: one dataset with a
// variant set (two call sets, one annotation set), two read group sets, a
// feature set, and one reference set with a single reference.
type testFixture struct {
	backend *Backend

	dataset       *Dataset
	variantSet    *VariantSet
	callSets      []*CallSet
	annotationSet *VariantAnnotationSet
	readGroupSet  *ReadGroupSet
	otherRGS      *ReadGroupSet
	featureSet    *FeatureSet
	referenceSet  *ReferenceSet
	reference     *Reference
}

func newTestFixture(opts ...BackendOption) *testFixture {
	f := &testFixture{}

	variants := NewMemoryVariantSource()
	for i := 0; i < 5; i++ {
		start := int64(100 + 10*(i/2)) // pairs share a start
		variants.Add(&Variant{
			ReferenceName:  "1",
			Start:          start,
			End:            start + 1,
			ReferenceBases: "A",
			AlternateBases: []string{"T"},
			MD5:            fmt.Sprintf("md5-%02d", i),
			Calls: []*Call{
				{CallSetName: "NA1", Genotype: []int32{0, 1}},
				{CallSetName: "NA2", Genotype: []int32{1, 1}},
			},
		})
	}

	annotations := NewMemoryAnnotationSource(
		&VariantAnnotation{ID: "ann1", ReferenceName: "1", Start: 100, End: 101,
			TranscriptEffects: []*TranscriptEffect{
				{Effects: []*OntologyTerm{{ID: "SO:0001583", Term: "missense_variant"}}},
			}},
		&VariantAnnotation{ID: "ann2", ReferenceName: "1", Start: 110, End: 111,
			TranscriptEffects: []*TranscriptEffect{
				{Effects: []*OntologyTerm{{ID: "SO:0001819", Term: "synonymous_variant"}}},
			}},
	)

	reads := NewMemoryReadSource()
	reads.Add("rg1",
		mappedRead("frag1", "1", 100, 10),
		mappedRead("frag3", "1", 140, 10),
	)
	reads.Add("rg2",
		mappedRead("frag2", "1", 120, 10),
		unmappedMateRead("frag4", "1", 130),
	)

	otherReads := NewMemoryReadSource()
	otherReads.Add("rgX", mappedRead("fragX", "1", 100, 10))

	features := NewMemoryFeatureStore(
		&Feature{ID: "gene1", ReferenceName: "1", Start: 100, End: 200,
			FeatureType: &OntologyTerm{Term: "gene"}},
		&Feature{ID: "exon1", ParentID: "gene1", ReferenceName: "1", Start: 100, End: 150,
			FeatureType: &OntologyTerm{Term: "exon"}},
		&Feature{ID: "exon2", ParentID: "gene1", ReferenceName: "1", Start: 160, End: 200,
			FeatureType: &OntologyTerm{Term: "exon"}},
	)

	f.dataset = NewDataset("1kg")
	f.variantSet = NewVariantSet(f.dataset, "phase3", variants)
	f.callSets = []*CallSet{
		f.variantSet.AddCallSet("NA1", "sample1"),
		f.variantSet.AddCallSet("NA2", "sample2"),
	}
	f.dataset.AddVariantSet(f.variantSet)

	f.annotationSet = NewVariantAnnotationSet(f.variantSet, "vep", annotations)
	f.dataset.AddVariantAnnotationSet(f.annotationSet)

	f.referenceSet = NewReferenceSet("GRCh38")
	f.referenceSet.SetMD5Checksum("rsmd5")
	f.referenceSet.SetAssemblyID("GCA_000001405")
	f.referenceSet.SetSourceAccessions([]string{"GCA_000001405.15"})
	f.reference = NewReference(f.referenceSet, "1", 64, "refmd5",
		NewMemoryBasesSource(strings.Repeat("ACGT", 16)))
	f.reference.SetSourceAccessions([]string{"CM000663.2"})
	f.referenceSet.AddReference(f.reference)

	f.readGroupSet = NewReadGroupSet(f.dataset, "NA12878", reads)
	f.readGroupSet.AddReadGroup("rg1", "sample1")
	f.readGroupSet.AddReadGroup("rg2", "sample2")
	f.readGroupSet.SetReferenceSet(f.referenceSet)
	f.dataset.AddReadGroupSet(f.readGroupSet)

	f.otherRGS = NewReadGroupSet(f.dataset, "NA12891", otherReads)
	f.otherRGS.AddReadGroup("rgX", "sampleX")
	f.otherRGS.SetReferenceSet(f.referenceSet)
	f.dataset.AddReadGroupSet(f.otherRGS)

	f.featureSet = NewFeatureSet(f.dataset, "gencode", features)
	f.dataset.AddFeatureSet(f.featureSet)

	repository := NewRepository()
	repository.AddDataset(f.dataset)
	repository.AddReferenceSet(f.referenceSet)
	f.backend = NewBackend(repository, opts...)
	return f
}

func mappedRead(name, referenceName string, position int64, seqLen int) *ReadAlignment {
	return &ReadAlignment{
		FragmentName: name,
		Alignment: &LinearAlignment{
			Position: &Position{ReferenceName: referenceName, Position: position},
		},
		AlignedSequence: strings.Repeat("A", seqLen),
	}
}

func unmappedMateRead(name, referenceName string, matePosition int64) *ReadAlignment {
	return &ReadAlignment{
		FragmentName:     name,
		NextMatePosition: &Position{ReferenceName: referenceName, Position: matePosition},
		AlignedSequence:  "AAAA",
	}
}

func marshalRequest(t *testing.T, req any) []byte {
	t.Helper()
	body, err := jsonCodec.Marshal(req)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	return body
}

func unmarshalResponse(t *testing.T, raw []byte, resp any) {
	t.Helper()
	if err := jsonCodec.Unmarshal(raw, resp); err != nil {
		t.Fatalf("response does not parse: %v\n%s", err, raw)
	}
}

func pageSizeOf(n int32) *int32 { return &n }

// -----------------------------------------------------------------------------
// Variants
// -----------------------------------------------------------------------------

func TestBackend_SearchVariants_PaginatesToCompletion(t *testing.T) {
	f := newTestFixture()
	type page struct {
		Variants      []*Variant `json:"variants"`
		NextPageToken string     `json:"nextPageToken"`
	}
	var all []*Variant
	pageToken := ""
	pages := 0
	for {
		body := marshalRequest(t, SearchVariantsRequest{
			VariantSetID:  f.variantSet.ID(),
			ReferenceName: "1",
			Start:         0,
			End:           1000,
			PageRequest:   PageRequest{PageToken: pageToken, PageSize: pageSizeOf(2)},
		})
		raw, err := f.backend.RunSearchVariants(body)
		if err != nil {
			t.Fatalf("RunSearchVariants error: %v", err)
		}
		var p page
		unmarshalResponse(t, raw, &p)
		if len(p.Variants) > 2 {
			t.Fatalf("page holds %d variants, page size is 2", len(p.Variants))
		}
		all = append(all, p.Variants...)
		pages++
		if p.NextPageToken == "" {
			break
		}
		pageToken = p.NextPageToken
	}
	if len(all) != 5 || pages != 3 {
		t.Fatalf("got %d variants over %d pages, want 5 over 3", len(all), pages)
	}
	seen := map[string]bool{}
	for _, v := range all {
		if v.ID == "" || seen[v.ID] {
			t.Errorf("missing or duplicate variant id %q", v.ID)
		}
		seen[v.ID] = true
		if v.VariantSetID != f.variantSet.ID() {
			t.Errorf("variantSetId = %q, want %q", v.VariantSetID, f.variantSet.ID())
		}
		if _, err := ParseCompoundID(VariantIDSchema, v.ID); err != nil {
			t.Errorf("variant id %q does not parse: %v", v.ID, err)
		}
		for _, call := range v.Calls {
			if call.CallSetID == "" {
				t.Errorf("variant %q call %q has no callSetId", v.ID, call.CallSetName)
			}
		}
	}
}

func TestBackend_SearchVariants_MissingReferenceName_Error(t *testing.T) {
	f := newTestFixture()
	body := marshalRequest(t, SearchVariantsRequest{VariantSetID: f.variantSet.ID()})
	_, err := f.backend.RunSearchVariants(body)
	var badRequest *BadRequestError
	if !errors.As(err, &badRequest) {
		t.Fatalf("error = %v, want BadRequestError", err)
	}
}

func TestBackend_SearchVariants_BadPageSize_Error(t *testing.T) {
	f := newTestFixture()
	for _, size := range []int32{0, -5} {
		body := marshalRequest(t, SearchVariantsRequest{
			VariantSetID:  f.variantSet.ID(),
			ReferenceName: "1",
			PageRequest:   PageRequest{PageSize: pageSizeOf(size)},
		})
		_, err := f.backend.RunSearchVariants(body)
		var badSize *BadPageSizeError
		if !errors.As(err, &badSize) {
			t.Errorf("pageSize %d: error = %v, want BadPageSizeError", size, err)
		}
	}
}

func TestBackend_SearchVariants_UnknownVariantSet_NotFound(t *testing.T) {
	f := newTestFixture()
	other := MustCompoundID(DatasetIDSchema, nil, "nope")
	unknown := MustCompoundID(VariantSetIDSchema, &other, "missing")
	body := marshalRequest(t, SearchVariantsRequest{
		VariantSetID:  unknown.String(),
		ReferenceName: "1",
	})
	_, err := f.backend.RunSearchVariants(body)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
}

func TestBackend_SearchVariants_CallSetFilter(t *testing.T) {
	f := newTestFixture()
	type page struct {
		Variants []*Variant `json:"variants"`
	}
	body := marshalRequest(t, SearchVariantsRequest{
		VariantSetID:  f.variantSet.ID(),
		ReferenceName: "1",
		End:           1000,
		CallSetIDs:    []string{f.callSets[0].ID()},
	})
	raw, err := f.backend.RunSearchVariants(body)
	if err != nil {
		t.Fatalf("RunSearchVariants error: %v", err)
	}
	var p page
	unmarshalResponse(t, raw, &p)
	for _, v := range p.Variants {
		if len(v.Calls) != 1 || v.Calls[0].CallSetID != f.callSets[0].ID() {
			t.Errorf("variant %q calls = %+v, want only %q", v.ID, v.Calls, f.callSets[0].ID())
		}
	}
}

func TestBackend_SearchVariants_ForeignCallSetID_NotFound(t *testing.T) {
	f := newTestFixture()
	ds := MustCompoundID(DatasetIDSchema, nil, "other")
	vs := MustCompoundID(VariantSetIDSchema, &ds, "other")
	foreign := MustCompoundID(CallSetIDSchema, &vs, "NA1")
	body := marshalRequest(t, SearchVariantsRequest{
		VariantSetID:  f.variantSet.ID(),
		ReferenceName: "1",
		End:           1000,
		CallSetIDs:    []string{foreign.String()},
	})
	_, err := f.backend.RunSearchVariants(body)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
}

func TestBackend_InvalidJSON_Error(t *testing.T) {
	f := newTestFixture()
	_, err := f.backend.RunSearchVariants([]byte("{not json"))
	var invalid *InvalidJSONError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v, want InvalidJSONError", err)
	}
}

// -----------------------------------------------------------------------------
// Containers
// -----------------------------------------------------------------------------

func TestBackend_SearchDatasets(t *testing.T) {
	f := newTestFixture()
	raw, err := f.backend.RunSearchDatasets(marshalRequest(t, SearchDatasetsRequest{}))
	if err != nil {
		t.Fatalf("RunSearchDatasets error: %v", err)
	}
	var p struct {
		Datasets []*DatasetMessage `json:"datasets"`
	}
	unmarshalResponse(t, raw, &p)
	if len(p.Datasets) != 1 || p.Datasets[0].ID != f.dataset.ID() {
		t.Fatalf("datasets = %+v, want the fixture dataset", p.Datasets)
	}
}

func TestBackend_SearchVariantSets(t *testing.T) {
	f := newTestFixture()
	raw, err := f.backend.RunSearchVariantSets(marshalRequest(t,
		SearchVariantSetsRequest{DatasetID: f.dataset.ID()}))
	if err != nil {
		t.Fatalf("RunSearchVariantSets error: %v", err)
	}
	var p struct {
		VariantSets []*VariantSetMessage `json:"variantSets"`
	}
	unmarshalResponse(t, raw, &p)
	if len(p.VariantSets) != 1 || p.VariantSets[0].ID != f.variantSet.ID() {
		t.Fatalf("variantSets = %+v, want the fixture set", p.VariantSets)
	}
}

func TestBackend_SearchCallSets_NameFilter(t *testing.T) {
	f := newTestFixture()
	type page struct {
		CallSets      []*CallSetMessage `json:"callSets"`
		NextPageToken string            `json:"nextPageToken"`
	}

	raw, err := f.backend.RunSearchCallSets(marshalRequest(t,
		SearchCallSetsRequest{VariantSetID: f.variantSet.ID(), Name: "NA2"}))
	if err != nil {
		t.Fatalf("RunSearchCallSets error: %v", err)
	}
	var p page
	unmarshalResponse(t, raw, &p)
	if len(p.CallSets) != 1 || p.CallSets[0].Name != "NA2" {
		t.Fatalf("callSets = %+v, want only NA2", p.CallSets)
	}
	if p.NextPageToken != "" {
		t.Errorf("name-filtered search carries token %q", p.NextPageToken)
	}

	raw, err = f.backend.RunSearchCallSets(marshalRequest(t,
		SearchCallSetsRequest{VariantSetID: f.variantSet.ID(), Name: "nobody"}))
	if err != nil {
		t.Fatalf("RunSearchCallSets error: %v", err)
	}
	p = page{}
	unmarshalResponse(t, raw, &p)
	if len(p.CallSets) != 0 {
		t.Errorf("unknown name returned %+v", p.CallSets)
	}
}

func TestBackend_SearchReadGroupSets_NameFilter(t *testing.T) {
	f := newTestFixture()
	raw, err := f.backend.RunSearchReadGroupSets(marshalRequest(t,
		SearchReadGroupSetsRequest{DatasetID: f.dataset.ID(), Name: "NA12878"}))
	if err != nil {
		t.Fatalf("RunSearchReadGroupSets error: %v", err)
	}
	var p struct {
		ReadGroupSets []*ReadGroupSetMessage `json:"readGroupSets"`
	}
	unmarshalResponse(t, raw, &p)
	if len(p.ReadGroupSets) != 1 || p.ReadGroupSets[0].ID != f.readGroupSet.ID() {
		t.Fatalf("readGroupSets = %+v, want the fixture set", p.ReadGroupSets)
	}
	if len(p.ReadGroupSets[0].ReadGroups) != 2 {
		t.Errorf("read groups = %+v, want 2", p.ReadGroupSets[0].ReadGroups)
	}
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

func TestBackend_SearchReads_SingleGroup_Filters(t *testing.T) {
	f := newTestFixture()
	rg1 := f.readGroupSet.ReadGroups()[0]
	raw, err := f.backend.RunSearchReads(marshalRequest(t, SearchReadsRequest{
		ReadGroupIDs: []string{rg1.ID()},
		ReferenceID:  f.reference.ID(),
		Start:        0,
		End:          1000,
	}))
	if err != nil {
		t.Fatalf("RunSearchReads error: %v", err)
	}
	var p struct {
		Alignments []*ReadAlignment `json:"alignments"`
	}
	unmarshalResponse(t, raw, &p)
	if len(p.Alignments) != 2 {
		t.Fatalf("got %d alignments, want rg1's 2", len(p.Alignments))
	}
	for _, r := range p.Alignments {
		if r.ReadGroupID != rg1.ID() {
			t.Errorf("read %q readGroupId = %q, want %q", r.FragmentName, r.ReadGroupID, rg1.ID())
		}
	}
}

func TestBackend_SearchReads_AllGroups_IncludesUnmappedMate(t *testing.T) {
	f := newTestFixture()
	raw, err := f.backend.RunSearchReads(marshalRequest(t, SearchReadsRequest{
		ReadGroupIDs: f.readGroupSet.ReadGroupIDs(),
		ReferenceID:  f.reference.ID(),
		Start:        0,
		End:          1000,
	}))
	if err != nil {
		t.Fatalf("RunSearchReads error: %v", err)
	}
	var p struct {
		Alignments []*ReadAlignment `json:"alignments"`
	}
	unmarshalResponse(t, raw, &p)
	if len(p.Alignments) != 4 {
		t.Fatalf("got %d alignments, want all 4", len(p.Alignments))
	}
	var unmapped *ReadAlignment
	for _, r := range p.Alignments {
		if r.FragmentName == "frag4" {
			unmapped = r
		}
	}
	if unmapped == nil {
		t.Fatal("unmapped read with mapped mate missing from results")
	}
	if unmapped.Alignment != nil || unmapped.NextMatePosition == nil {
		t.Errorf("frag4 alignment = %+v, mate = %+v", unmapped.Alignment, unmapped.NextMatePosition)
	}
}

func TestBackend_SearchReads_Validation_Errors(t *testing.T) {
	f := newTestFixture()
	rg1 := f.readGroupSet.ReadGroups()[0]
	rg2 := f.readGroupSet.ReadGroups()[1]
	rgX := f.otherRGS.ReadGroups()[0]

	tests := []struct {
		name string
		req  SearchReadsRequest
	}{
		{"missing referenceId", SearchReadsRequest{
			ReadGroupIDs: []string{rg1.ID()},
		}},
		{"no readGroupIds", SearchReadsRequest{
			ReferenceID: f.reference.ID(),
		}},
		{"groups from two sets", SearchReadsRequest{
			ReadGroupIDs: []string{rg1.ID(), rgX.ID()},
			ReferenceID:  f.reference.ID(),
		}},
		{"strict subset larger than one", SearchReadsRequest{
			ReadGroupIDs: []string{rg1.ID(), rg2.ID(), rg1.ID()},
			ReferenceID:  f.reference.ID(),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.backend.RunSearchReads(marshalRequest(t, tt.req))
			var badRequest *BadRequestError
			if !errors.As(err, &badRequest) {
				t.Fatalf("error = %v, want BadRequestError", err)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// References
// -----------------------------------------------------------------------------

func TestBackend_SearchReferenceSets_Filters(t *testing.T) {
	f := newTestFixture()
	type page struct {
		ReferenceSets []*ReferenceSetMessage `json:"referenceSets"`
	}
	tests := []struct {
		name string
		req  SearchReferenceSetsRequest
		want int
	}{
		{"no filter", SearchReferenceSetsRequest{}, 1},
		{"matching md5", SearchReferenceSetsRequest{MD5Checksum: "rsmd5"}, 1},
		{"wrong md5", SearchReferenceSetsRequest{MD5Checksum: "nope"}, 0},
		{"matching assembly", SearchReferenceSetsRequest{AssemblyID: "GCA_000001405"}, 1},
		{"matching accession", SearchReferenceSetsRequest{Accession: "GCA_000001405.15"}, 1},
		{"wrong accession", SearchReferenceSetsRequest{Accession: "nope"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := f.backend.RunSearchReferenceSets(marshalRequest(t, tt.req))
			if err != nil {
				t.Fatalf("RunSearchReferenceSets error: %v", err)
			}
			var p page
			unmarshalResponse(t, raw, &p)
			if len(p.ReferenceSets) != tt.want {
				t.Errorf("got %d reference sets, want %d", len(p.ReferenceSets), tt.want)
			}
		})
	}
}

func TestBackend_SearchReferences_Filter(t *testing.T) {
	f := newTestFixture()
	raw, err := f.backend.RunSearchReferences(marshalRequest(t, SearchReferencesRequest{
		ReferenceSetID: f.referenceSet.ID(),
		MD5Checksum:    "refmd5",
	}))
	if err != nil {
		t.Fatalf("RunSearchReferences error: %v", err)
	}
	var p struct {
		References []*ReferenceMessage `json:"references"`
	}
	unmarshalResponse(t, raw, &p)
	if len(p.References) != 1 || p.References[0].ID != f.reference.ID() {
		t.Fatalf("references = %+v, want the fixture reference", p.References)
	}
}

// -----------------------------------------------------------------------------
// Features
// -----------------------------------------------------------------------------

func TestBackend_SearchFeatures_TypeFilter(t *testing.T) {
	f := newTestFixture()
	raw, err := f.backend.RunSearchFeatures(marshalRequest(t, SearchFeaturesRequest{
		FeatureSetID:  f.featureSet.ID(),
		ReferenceName: "1",
		Start:         0,
		End:           1000,
		FeatureTypes:  []string{"exon"},
	}))
	if err != nil {
		t.Fatalf("RunSearchFeatures error: %v", err)
	}
	var p struct {
		Features []*Feature `json:"features"`
	}
	unmarshalResponse(t, raw, &p)
	if len(p.Features) != 2 {
		t.Fatalf("got %d features, want the 2 exons", len(p.Features))
	}
	for _, feat := range p.Features {
		if feat.FeatureSetID != f.featureSet.ID() {
			t.Errorf("feature %q featureSetId = %q, want %q", feat.ID, feat.FeatureSetID, f.featureSet.ID())
		}
		if _, err := ParseCompoundID(FeatureIDSchema, feat.ParentID); err != nil {
			t.Errorf("feature %q parentId %q does not parse: %v", feat.ID, feat.ParentID, err)
		}
	}
}

func TestBackend_SearchFeatures_ParentIDOnly(t *testing.T) {
	// The feature set is derived from the parent's compound ID, and a parent
	// query does not need a reference name.
	f := newTestFixture()
	parent := f.featureSet.CompoundID()
	parentID := MustCompoundID(FeatureIDSchema, &parent, "gene1").String()
	raw, err := f.backend.RunSearchFeatures(marshalRequest(t, SearchFeaturesRequest{
		ParentID: parentID,
	}))
	if err != nil {
		t.Fatalf("RunSearchFeatures error: %v", err)
	}
	var p struct {
		Features []*Feature `json:"features"`
	}
	unmarshalResponse(t, raw, &p)
	if len(p.Features) != 2 {
		t.Fatalf("got %d features, want gene1's 2 children", len(p.Features))
	}
	for _, feat := range p.Features {
		if feat.ParentID != parentID {
			t.Errorf("feature %q parentId = %q, want %q", feat.ID, feat.ParentID, parentID)
		}
	}
}

func TestBackend_SearchFeatures_Validation_Errors(t *testing.T) {
	f := newTestFixture()
	otherDS := NewDataset("other")
	otherParentBase := MustCompoundID(FeatureSetIDSchema, ptrCompoundID(otherDS.CompoundID()), "otherset")
	otherParent := MustCompoundID(FeatureIDSchema, &otherParentBase, "gene1")

	tests := []struct {
		name string
		req  SearchFeaturesRequest
	}{
		{"no featureSetId or parentId", SearchFeaturesRequest{ReferenceName: "1"}},
		{"no referenceName without parent", SearchFeaturesRequest{FeatureSetID: f.featureSet.ID()}},
		{"parent of a different feature set", SearchFeaturesRequest{
			FeatureSetID: f.featureSet.ID(),
			ParentID:     otherParent.String(),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.backend.RunSearchFeatures(marshalRequest(t, tt.req))
			var badRequest *BadRequestError
			if !errors.As(err, &badRequest) {
				t.Fatalf("error = %v, want BadRequestError", err)
			}
		})
	}
}

func ptrCompoundID(id CompoundID) *CompoundID { return &id }

// -----------------------------------------------------------------------------
// Annotations
// -----------------------------------------------------------------------------

func TestBackend_SearchVariantAnnotationSets(t *testing.T) {
	f := newTestFixture()
	raw, err := f.backend.RunSearchVariantAnnotationSets(marshalRequest(t,
		SearchVariantAnnotationSetsRequest{VariantSetID: f.variantSet.ID()}))
	if err != nil {
		t.Fatalf("RunSearchVariantAnnotationSets error: %v", err)
	}
	var p struct {
		VariantAnnotationSets []*VariantAnnotationSetMessage `json:"variantAnnotationSets"`
	}
	unmarshalResponse(t, raw, &p)
	if len(p.VariantAnnotationSets) != 1 || p.VariantAnnotationSets[0].ID != f.annotationSet.ID() {
		t.Fatalf("annotation sets = %+v, want the fixture set", p.VariantAnnotationSets)
	}
}

func TestBackend_SearchVariantAnnotations_EffectFilter(t *testing.T) {
	f := newTestFixture()
	raw, err := f.backend.RunSearchVariantAnnotations(marshalRequest(t,
		SearchVariantAnnotationsRequest{
			VariantAnnotationSetID: f.annotationSet.ID(),
			ReferenceName:          "1",
			Start:                  0,
			End:                    1000,
			Effects:                []*OntologyTerm{{ID: "SO:0001583"}},
		}))
	if err != nil {
		t.Fatalf("RunSearchVariantAnnotations error: %v", err)
	}
	var p struct {
		VariantAnnotations []*VariantAnnotation `json:"variantAnnotations"`
	}
	unmarshalResponse(t, raw, &p)
	if len(p.VariantAnnotations) != 1 || p.VariantAnnotations[0].ID != "ann1" {
		t.Fatalf("annotations = %+v, want only ann1", p.VariantAnnotations)
	}
	if p.VariantAnnotations[0].VariantAnnotationSetID != f.annotationSet.ID() {
		t.Errorf("annotation set id = %q, want %q",
			p.VariantAnnotations[0].VariantAnnotationSetID, f.annotationSet.ID())
	}
}

// -----------------------------------------------------------------------------
// Gets
// -----------------------------------------------------------------------------

func TestBackend_Gets_RoundTrip(t *testing.T) {
	f := newTestFixture()
	rg1 := f.readGroupSet.ReadGroups()[0]
	fsParent := f.featureSet.CompoundID()
	featureID := MustCompoundID(FeatureIDSchema, &fsParent, "gene1").String()

	tests := []struct {
		name string
		id   string
		run  func(string) ([]byte, error)
	}{
		{"dataset", f.dataset.ID(), f.backend.RunGetDataset},
		{"variantSet", f.variantSet.ID(), f.backend.RunGetVariantSet},
		{"callSet", f.callSets[0].ID(), f.backend.RunGetCallSet},
		{"readGroupSet", f.readGroupSet.ID(), f.backend.RunGetReadGroupSet},
		{"readGroup", rg1.ID(), f.backend.RunGetReadGroup},
		{"referenceSet", f.referenceSet.ID(), f.backend.RunGetReferenceSet},
		{"reference", f.reference.ID(), f.backend.RunGetReference},
		{"featureSet", f.featureSet.ID(), f.backend.RunGetFeatureSet},
		{"feature", featureID, f.backend.RunGetFeature},
		{"variantAnnotationSet", f.annotationSet.ID(), f.backend.RunGetVariantAnnotationSet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := tt.run(tt.id)
			if err != nil {
				t.Fatalf("get error: %v", err)
			}
			var obj struct {
				ID string `json:"id"`
			}
			unmarshalResponse(t, raw, &obj)
			if obj.ID != tt.id {
				t.Errorf("returned id = %q, want %q", obj.ID, tt.id)
			}
		})
	}
}

func TestBackend_GetVariant_FromSearchResultID(t *testing.T) {
	f := newTestFixture()
	body := marshalRequest(t, SearchVariantsRequest{
		VariantSetID:  f.variantSet.ID(),
		ReferenceName: "1",
		End:           1000,
		PageRequest:   PageRequest{PageSize: pageSizeOf(1)},
	})
	raw, err := f.backend.RunSearchVariants(body)
	if err != nil {
		t.Fatalf("RunSearchVariants error: %v", err)
	}
	var p struct {
		Variants []*Variant `json:"variants"`
	}
	unmarshalResponse(t, raw, &p)
	if len(p.Variants) != 1 {
		t.Fatalf("got %d variants, want 1", len(p.Variants))
	}
	got, err := f.backend.RunGetVariant(p.Variants[0].ID)
	if err != nil {
		t.Fatalf("RunGetVariant error: %v", err)
	}
	var v Variant
	unmarshalResponse(t, got, &v)
	if v.ID != p.Variants[0].ID || v.Start != p.Variants[0].Start {
		t.Errorf("got variant %q at %d, want %q at %d", v.ID, v.Start, p.Variants[0].ID, p.Variants[0].Start)
	}
}

func TestBackend_GetVariant_UnknownChecksum_NotFound(t *testing.T) {
	f := newTestFixture()
	parent := f.variantSet.CompoundID()
	id := MustCompoundID(VariantIDSchema, &parent, "1", "100", "no-such-md5").String()
	_, err := f.backend.RunGetVariant(id)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
	if notFound.Kind != "variant" {
		t.Errorf("kind = %q, want %q", notFound.Kind, "variant")
	}
}

func TestBackend_GetFeature_Unknown_NotFound(t *testing.T) {
	f := newTestFixture()
	parent := f.featureSet.CompoundID()
	id := MustCompoundID(FeatureIDSchema, &parent, "no-such-feature").String()
	_, err := f.backend.RunGetFeature(id)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
	if notFound.ID != id {
		t.Errorf("error id = %q, want the opaque id", notFound.ID)
	}
}

// -----------------------------------------------------------------------------
// Reference bases
// -----------------------------------------------------------------------------

func TestBackend_ListReferenceBases_FullSequence(t *testing.T) {
	f := newTestFixture()
	raw, err := f.backend.RunListReferenceBases(f.reference.ID(), map[string]string{})
	if err != nil {
		t.Fatalf("RunListReferenceBases error: %v", err)
	}
	var resp ListReferenceBasesResponse
	unmarshalResponse(t, raw, &resp)
	if resp.Offset != 0 || int64(len(resp.Sequence)) != f.reference.Length() {
		t.Errorf("offset %d with %d bases, want the whole reference", resp.Offset, len(resp.Sequence))
	}
	if resp.NextPageToken != "" {
		t.Errorf("full fetch carries token %q", resp.NextPageToken)
	}
}

func TestBackend_ListReferenceBases_ChunksByByteBudget(t *testing.T) {
	f := newTestFixture(WithMaxResponseBytes(16))
	var sequence string
	args := map[string]string{}
	for {
		raw, err := f.backend.RunListReferenceBases(f.reference.ID(), args)
		if err != nil {
			t.Fatalf("RunListReferenceBases error: %v", err)
		}
		var resp ListReferenceBasesResponse
		unmarshalResponse(t, raw, &resp)
		if len(resp.Sequence) > 16 {
			t.Fatalf("chunk holds %d bases, budget is 16", len(resp.Sequence))
		}
		sequence += resp.Sequence
		if resp.NextPageToken == "" {
			break
		}
		args = map[string]string{"pageToken": resp.NextPageToken}
	}
	if want := strings.Repeat("ACGT", 16); sequence != want {
		t.Errorf("reassembled sequence = %q, want %q", sequence, want)
	}
}

func TestBackend_ListReferenceBases_Subrange(t *testing.T) {
	f := newTestFixture()
	raw, err := f.backend.RunListReferenceBases(f.reference.ID(),
		map[string]string{"start": "4", "end": "8"})
	if err != nil {
		t.Fatalf("RunListReferenceBases error: %v", err)
	}
	var resp ListReferenceBasesResponse
	unmarshalResponse(t, raw, &resp)
	if resp.Offset != 4 || resp.Sequence != "ACGT" {
		t.Errorf("got offset %d sequence %q, want 4 %q", resp.Offset, resp.Sequence, "ACGT")
	}
}

func TestBackend_ListReferenceBases_BadArguments(t *testing.T) {
	f := newTestFixture()

	_, err := f.backend.RunListReferenceBases(f.reference.ID(),
		map[string]string{"start": "abc"})
	var badInt *BadRequestIntegerError
	if !errors.As(err, &badInt) {
		t.Errorf("non-integer start: error = %v, want BadRequestIntegerError", err)
	}

	_, err = f.backend.RunListReferenceBases(f.reference.ID(),
		map[string]string{"start": "10", "end": "5"})
	var badRequest *BadRequestError
	if !errors.As(err, &badRequest) {
		t.Errorf("inverted range: error = %v, want BadRequestError", err)
	}

	_, err = f.backend.RunListReferenceBases(f.reference.ID(),
		map[string]string{"end": "9999"})
	if !errors.As(err, &badRequest) {
		t.Errorf("end past reference: error = %v, want BadRequestError", err)
	}

	_, err = f.backend.RunListReferenceBases(f.reference.ID(),
		map[string]string{"start": "4", "end": "8", "pageToken": FormatPageToken(20)})
	var badToken *BadPageTokenError
	if !errors.As(err, &badToken) {
		t.Errorf("token outside range: error = %v, want BadPageTokenError", err)
	}
}

func TestBackend_ValidatorHooks(t *testing.T) {
	var sawRequest bool
	var sawResponse []byte
	f := newTestFixture(
		WithRequestValidator(func(req any) error {
			if _, ok := req.(*SearchDatasetsRequest); ok {
				sawRequest = true
			}
			return nil
		}),
		WithResponseValidator(func(body []byte) error {
			sawResponse = body
			return nil
		}),
	)
	raw, err := f.backend.RunSearchDatasets(marshalRequest(t, SearchDatasetsRequest{}))
	if err != nil {
		t.Fatalf("RunSearchDatasets error: %v", err)
	}
	if !sawRequest {
		t.Error("request validator never ran")
	}
	if string(sawResponse) != string(raw) {
		t.Error("response validator saw a different body than the caller")
	}

	rejecting := newTestFixture(WithRequestValidator(func(any) error {
		return &BadRequestError{Reason: "rejected by policy"}
	}))
	_, err = rejecting.backend.RunSearchDatasets(marshalRequest(t, SearchDatasetsRequest{}))
	var badRequest *BadRequestError
	if !errors.As(err, &badRequest) {
		t.Fatalf("error = %v, want BadRequestError from the validator", err)
	}
}
