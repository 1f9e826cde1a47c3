package locus

import "sort"

// In-memory sources back small repositories, fixtures, and the examples.
// Each one keeps its objects sorted by (start, local ID) at insertion time so
// repeated scans replay tie-runs in the same order, which resumable
// pagination depends on.

// -----------------------------------------------------------------------------
// Read coordinates
// -----------------------------------------------------------------------------

// ReadStart returns a read's effective start coordinate. An unmapped read
// with a mapped mate sorts at its mate's position (SAM 2.4.1).
func ReadStart(r *ReadAlignment) int64 {
	if r.Alignment != nil {
		return r.Alignment.Position.Position
	}
	if r.NextMatePosition != nil {
		return r.NextMatePosition.Position
	}
	return 0
}

// ReadEnd returns a read's effective end coordinate.
func ReadEnd(r *ReadAlignment) int64 {
	return ReadStart(r) + int64(len(r.AlignedSequence))
}

func readReferenceName(r *ReadAlignment) string {
	if r.Alignment != nil {
		return r.Alignment.Position.ReferenceName
	}
	if r.NextMatePosition != nil {
		return r.NextMatePosition.ReferenceName
	}
	return ""
}

// -----------------------------------------------------------------------------
// Variants
// -----------------------------------------------------------------------------

// MemoryVariantSource is a VariantSource over an in-memory list.
type MemoryVariantSource struct {
	variants []*Variant
}

// NewMemoryVariantSource returns a source over the given variants. Variants
// carry their MD5 checksum; compound IDs are the registry's concern.
func NewMemoryVariantSource(variants ...*Variant) *MemoryVariantSource {
	s := &MemoryVariantSource{}
	s.Add(variants...)
	return s
}

// Add appends variants, keeping (start, checksum) order.
func (s *MemoryVariantSource) Add(variants ...*Variant) {
	s.variants = append(s.variants, variants...)
	sort.SliceStable(s.variants, func(i, j int) bool {
		if s.variants[i].Start != s.variants[j].Start {
			return s.variants[i].Start < s.variants[j].Start
		}
		return s.variants[i].MD5 < s.variants[j].MD5
	})
}

// Variants implements VariantSource.
func (s *MemoryVariantSource) Variants(referenceName string, start, end int64, callSetNames []string) (Scan[*Variant], error) {
	var out []*Variant
	for _, v := range s.variants {
		if v.ReferenceName != referenceName || v.Start >= end || v.End <= start {
			continue
		}
		out = append(out, restrictCalls(v, callSetNames))
	}
	return NewSliceScan(out), nil
}

// Variant implements VariantSource.
func (s *MemoryVariantSource) Variant(referenceName string, start int64, md5 string) (*Variant, error) {
	for _, v := range s.variants {
		if v.ReferenceName == referenceName && v.Start == start && v.MD5 == md5 {
			return restrictCalls(v, nil), nil
		}
	}
	return nil, ErrNotFound
}

// restrictCalls returns a shallow copy of a variant whose calls are limited
// to the named call sets. Copying keeps decoration from mutating the stored
// object across scans.
func restrictCalls(v *Variant, callSetNames []string) *Variant {
	out := *v
	if len(callSetNames) == 0 {
		out.Calls = append([]*Call(nil), v.Calls...)
		return &out
	}
	requested := make(map[string]bool, len(callSetNames))
	for _, name := range callSetNames {
		requested[name] = true
	}
	out.Calls = nil
	for _, call := range v.Calls {
		if requested[call.CallSetName] {
			out.Calls = append(out.Calls, call)
		}
	}
	return &out
}

// -----------------------------------------------------------------------------
// Annotations
// -----------------------------------------------------------------------------

// MemoryAnnotationSource is an AnnotationSource over an in-memory list.
type MemoryAnnotationSource struct {
	annotations []*VariantAnnotation
}

// NewMemoryAnnotationSource returns a source over the given annotations.
func NewMemoryAnnotationSource(annotations ...*VariantAnnotation) *MemoryAnnotationSource {
	s := &MemoryAnnotationSource{}
	s.Add(annotations...)
	return s
}

// Add appends annotations, keeping (start, ID) order.
func (s *MemoryAnnotationSource) Add(annotations ...*VariantAnnotation) {
	s.annotations = append(s.annotations, annotations...)
	sort.SliceStable(s.annotations, func(i, j int) bool {
		if s.annotations[i].Start != s.annotations[j].Start {
			return s.annotations[i].Start < s.annotations[j].Start
		}
		return s.annotations[i].ID < s.annotations[j].ID
	})
}

// Annotations implements AnnotationSource.
func (s *MemoryAnnotationSource) Annotations(referenceName string, start, end int64) (Scan[*VariantAnnotation], error) {
	var out []*VariantAnnotation
	for _, ann := range s.annotations {
		if ann.ReferenceName != referenceName || ann.Start >= end || ann.End <= start {
			continue
		}
		copied := *ann
		copied.TranscriptEffects = append([]*TranscriptEffect(nil), ann.TranscriptEffects...)
		out = append(out, &copied)
	}
	return NewSliceScan(out), nil
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

// MemoryReadSource is a ReadSource over an in-memory list. Reads are stored
// with their ReadGroupID field holding the group's local ID.
type MemoryReadSource struct {
	reads []*ReadAlignment
}

// NewMemoryReadSource returns an empty read source.
func NewMemoryReadSource() *MemoryReadSource {
	return &MemoryReadSource{}
}

// Add appends reads belonging to the named read group, keeping
// (start, fragment name) order.
func (s *MemoryReadSource) Add(readGroupLocalID string, reads ...*ReadAlignment) {
	for _, r := range reads {
		r.ReadGroupID = readGroupLocalID
		s.reads = append(s.reads, r)
	}
	sort.SliceStable(s.reads, func(i, j int) bool {
		si, sj := ReadStart(s.reads[i]), ReadStart(s.reads[j])
		if si != sj {
			return si < sj
		}
		return s.reads[i].FragmentName < s.reads[j].FragmentName
	})
}

// Reads implements ReadSource.
func (s *MemoryReadSource) Reads(referenceName string, readGroupLocalIDs []string, start, end int64) (Scan[*ReadAlignment], error) {
	requested := make(map[string]bool, len(readGroupLocalIDs))
	for _, id := range readGroupLocalIDs {
		requested[id] = true
	}
	var out []*ReadAlignment
	for _, r := range s.reads {
		if readReferenceName(r) != referenceName {
			continue
		}
		if len(requested) > 0 && !requested[r.ReadGroupID] {
			continue
		}
		if ReadStart(r) >= end || ReadEnd(r) <= start {
			continue
		}
		copied := *r
		out = append(out, &copied)
	}
	return NewSliceScan(out), nil
}

// -----------------------------------------------------------------------------
// Bases
// -----------------------------------------------------------------------------

// MemoryBasesSource is a BasesSource over an in-memory sequence.
type MemoryBasesSource struct {
	sequence string
}

// NewMemoryBasesSource returns a source over the given sequence.
func NewMemoryBasesSource(sequence string) *MemoryBasesSource {
	return &MemoryBasesSource{sequence: sequence}
}

// Bases implements BasesSource.
func (s *MemoryBasesSource) Bases(start, end int64) (string, error) {
	if start < 0 || end < start || end > int64(len(s.sequence)) {
		return "", &BadRequestError{Reason: "base range outside reference bounds"}
	}
	return s.sequence[start:end], nil
}

// -----------------------------------------------------------------------------
// Features
// -----------------------------------------------------------------------------

// MemoryFeatureStore is a FeatureStore over an in-memory list. Features are
// stored with local IDs in their ID and ParentID fields.
type MemoryFeatureStore struct {
	features []*Feature
}

// NewMemoryFeatureStore returns a store over the given features.
func NewMemoryFeatureStore(features ...*Feature) *MemoryFeatureStore {
	s := &MemoryFeatureStore{}
	s.Add(features...)
	return s
}

// Add appends features, keeping (start, local ID) order.
func (s *MemoryFeatureStore) Add(features ...*Feature) {
	s.features = append(s.features, features...)
	sort.SliceStable(s.features, func(i, j int) bool {
		if s.features[i].Start != s.features[j].Start {
			return s.features[i].Start < s.features[j].Start
		}
		return s.features[i].ID < s.features[j].ID
	})
}

// CountFeatures implements FeatureStore.
func (s *MemoryFeatureStore) CountFeatures(referenceName string, start, end int64, featureTypes []string, parentLocalID string) (int64, error) {
	var count int64
	for _, f := range s.features {
		if s.matches(f, referenceName, start, end, featureTypes, parentLocalID) {
			count++
		}
	}
	return count, nil
}

// SearchFeatures implements FeatureStore.
func (s *MemoryFeatureStore) SearchFeatures(offset, limit int64, referenceName string, start, end int64, featureTypes []string, parentLocalID string) ([]*Feature, error) {
	var out []*Feature
	var seen int64
	for _, f := range s.features {
		if !s.matches(f, referenceName, start, end, featureTypes, parentLocalID) {
			continue
		}
		if seen < offset {
			seen++
			continue
		}
		if int64(len(out)) >= limit {
			break
		}
		copied := *f
		out = append(out, &copied)
	}
	return out, nil
}

// FeatureByLocalID implements FeatureStore.
func (s *MemoryFeatureStore) FeatureByLocalID(localID string) (*Feature, error) {
	for _, f := range s.features {
		if f.ID == localID {
			copied := *f
			return &copied, nil
		}
	}
	return nil, &NotFoundError{Kind: "feature", ID: localID}
}

func (s *MemoryFeatureStore) matches(f *Feature, referenceName string, start, end int64, featureTypes []string, parentLocalID string) bool {
	if referenceName != "" {
		if f.ReferenceName != referenceName || f.Start >= end || f.End <= start {
			return false
		}
	}
	if parentLocalID != "" && f.ParentID != parentLocalID {
		return false
	}
	if len(featureTypes) == 0 {
		return true
	}
	if f.FeatureType == nil {
		return false
	}
	for _, t := range featureTypes {
		if f.FeatureType.Term == t {
			return true
		}
	}
	return false
}
