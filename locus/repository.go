package locus

import "strconv"

// The repository is the in-memory registry of served collections. Each
// container owns its children as an ordered list plus an ID-indexed lookup
// map (flat pagination needs stable index addressing, gets need O(1)
// lookup); children hold a non-owning reference to their parent for compound
// ID derivation only.

// -----------------------------------------------------------------------------
// Repository
// -----------------------------------------------------------------------------

// Repository is the top-level registry: datasets and reference sets.
type Repository struct {
	datasets     []*Dataset
	datasetsByID map[string]*Dataset

	referenceSets     []*ReferenceSet
	referenceSetsByID map[string]*ReferenceSet
}

// NewRepository returns an empty repository.
func NewRepository() *Repository {
	return &Repository{
		datasetsByID:      map[string]*Dataset{},
		referenceSetsByID: map[string]*ReferenceSet{},
	}
}

// AddDataset registers a dataset.
func (r *Repository) AddDataset(d *Dataset) {
	r.datasets = append(r.datasets, d)
	r.datasetsByID[d.ID()] = d
}

// Dataset returns the dataset with the given opaque ID.
func (r *Repository) Dataset(id string) (*Dataset, error) {
	d, ok := r.datasetsByID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "dataset", ID: id}
	}
	return d, nil
}

// DatasetByIndex returns the dataset at the given registration index.
func (r *Repository) DatasetByIndex(index int64) *Dataset { return r.datasets[index] }

// NumDatasets returns the number of registered datasets.
func (r *Repository) NumDatasets() int64 { return int64(len(r.datasets)) }

// AddReferenceSet registers a reference set.
func (r *Repository) AddReferenceSet(rs *ReferenceSet) {
	r.referenceSets = append(r.referenceSets, rs)
	r.referenceSetsByID[rs.ID()] = rs
}

// ReferenceSet returns the reference set with the given opaque ID.
func (r *Repository) ReferenceSet(id string) (*ReferenceSet, error) {
	rs, ok := r.referenceSetsByID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "referenceSet", ID: id}
	}
	return rs, nil
}

// ReferenceSets returns every registered reference set, in order.
func (r *Repository) ReferenceSets() []*ReferenceSet { return r.referenceSets }

// -----------------------------------------------------------------------------
// Dataset
// -----------------------------------------------------------------------------

// Dataset is a named container of variant sets, feature sets, read group
// sets, and variant annotation sets.
type Dataset struct {
	id          CompoundID
	localID     string
	description string

	variantSets     []*VariantSet
	variantSetsByID map[string]*VariantSet

	annotationSets     []*VariantAnnotationSet
	annotationSetsByID map[string]*VariantAnnotationSet

	featureSets     []*FeatureSet
	featureSetsByID map[string]*FeatureSet

	readGroupSets       []*ReadGroupSet
	readGroupSetsByID   map[string]*ReadGroupSet
	readGroupSetsByName map[string]*ReadGroupSet
}

// NewDataset returns an empty dataset with the given local identifier.
func NewDataset(localID string) *Dataset {
	return &Dataset{
		id:                  MustCompoundID(DatasetIDSchema, nil, localID),
		localID:             localID,
		variantSetsByID:     map[string]*VariantSet{},
		annotationSetsByID:  map[string]*VariantAnnotationSet{},
		featureSetsByID:     map[string]*FeatureSet{},
		readGroupSetsByID:   map[string]*ReadGroupSet{},
		readGroupSetsByName: map[string]*ReadGroupSet{},
	}
}

// ID returns the dataset's opaque compound ID string.
func (d *Dataset) ID() string { return d.id.String() }

// LocalID returns the dataset's local identifier.
func (d *Dataset) LocalID() string { return d.localID }

// CompoundID returns the dataset's compound ID.
func (d *Dataset) CompoundID() CompoundID { return d.id }

// SetDescription sets the human-readable description.
func (d *Dataset) SetDescription(description string) { d.description = description }

// ToMessage renders the dataset's wire form.
func (d *Dataset) ToMessage() *DatasetMessage {
	return &DatasetMessage{ID: d.ID(), Name: d.localID, Description: d.description}
}

// AddVariantSet registers a variant set in this dataset.
func (d *Dataset) AddVariantSet(vs *VariantSet) {
	d.variantSets = append(d.variantSets, vs)
	d.variantSetsByID[vs.ID()] = vs
}

// VariantSet returns the variant set with the given opaque ID.
func (d *Dataset) VariantSet(id string) (*VariantSet, error) {
	vs, ok := d.variantSetsByID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "variantSet", ID: id}
	}
	return vs, nil
}

// VariantSetByIndex returns the variant set at the given index.
func (d *Dataset) VariantSetByIndex(index int64) *VariantSet { return d.variantSets[index] }

// NumVariantSets returns the number of variant sets.
func (d *Dataset) NumVariantSets() int64 { return int64(len(d.variantSets)) }

// AddVariantAnnotationSet registers an annotation set in this dataset.
func (d *Dataset) AddVariantAnnotationSet(as *VariantAnnotationSet) {
	d.annotationSets = append(d.annotationSets, as)
	d.annotationSetsByID[as.ID()] = as
}

// VariantAnnotationSet returns the annotation set with the given opaque ID.
func (d *Dataset) VariantAnnotationSet(id string) (*VariantAnnotationSet, error) {
	as, ok := d.annotationSetsByID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "variantAnnotationSet", ID: id}
	}
	return as, nil
}

// VariantAnnotationSets returns every annotation set, in order.
func (d *Dataset) VariantAnnotationSets() []*VariantAnnotationSet { return d.annotationSets }

// AddFeatureSet registers a feature set in this dataset.
func (d *Dataset) AddFeatureSet(fs *FeatureSet) {
	d.featureSets = append(d.featureSets, fs)
	d.featureSetsByID[fs.ID()] = fs
}

// FeatureSet returns the feature set with the given opaque ID.
func (d *Dataset) FeatureSet(id string) (*FeatureSet, error) {
	fs, ok := d.featureSetsByID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "featureSet", ID: id}
	}
	return fs, nil
}

// FeatureSetByIndex returns the feature set at the given index.
func (d *Dataset) FeatureSetByIndex(index int64) *FeatureSet { return d.featureSets[index] }

// NumFeatureSets returns the number of feature sets.
func (d *Dataset) NumFeatureSets() int64 { return int64(len(d.featureSets)) }

// AddReadGroupSet registers a read group set in this dataset.
func (d *Dataset) AddReadGroupSet(rgs *ReadGroupSet) {
	d.readGroupSets = append(d.readGroupSets, rgs)
	d.readGroupSetsByID[rgs.ID()] = rgs
	d.readGroupSetsByName[rgs.LocalID()] = rgs
}

// ReadGroupSet returns the read group set with the given opaque ID.
func (d *Dataset) ReadGroupSet(id string) (*ReadGroupSet, error) {
	rgs, ok := d.readGroupSetsByID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "readGroupSet", ID: id}
	}
	return rgs, nil
}

// ReadGroupSetByName returns the read group set with the given local name.
func (d *Dataset) ReadGroupSetByName(name string) (*ReadGroupSet, bool) {
	rgs, ok := d.readGroupSetsByName[name]
	return rgs, ok
}

// ReadGroupSetByIndex returns the read group set at the given index.
func (d *Dataset) ReadGroupSetByIndex(index int64) *ReadGroupSet { return d.readGroupSets[index] }

// NumReadGroupSets returns the number of read group sets.
func (d *Dataset) NumReadGroupSets() int64 { return int64(len(d.readGroupSets)) }

// -----------------------------------------------------------------------------
// VariantSet
// -----------------------------------------------------------------------------

// VariantSet is a collection of variants with their call sets, backed by a
// VariantSource.
type VariantSet struct {
	id      CompoundID
	localID string
	dataset *Dataset
	source  VariantSource

	callSets       []*CallSet
	callSetsByID   map[string]*CallSet
	callSetsByName map[string]*CallSet
}

// NewVariantSet returns a variant set owned by the given dataset.
func NewVariantSet(dataset *Dataset, localID string, source VariantSource) *VariantSet {
	parent := dataset.CompoundID()
	return &VariantSet{
		id:             MustCompoundID(VariantSetIDSchema, &parent, localID),
		localID:        localID,
		dataset:        dataset,
		source:         source,
		callSetsByID:   map[string]*CallSet{},
		callSetsByName: map[string]*CallSet{},
	}
}

// ID returns the variant set's opaque compound ID string.
func (vs *VariantSet) ID() string { return vs.id.String() }

// LocalID returns the variant set's local identifier.
func (vs *VariantSet) LocalID() string { return vs.localID }

// CompoundID returns the variant set's compound ID.
func (vs *VariantSet) CompoundID() CompoundID { return vs.id }

// Dataset returns the owning dataset.
func (vs *VariantSet) Dataset() *Dataset { return vs.dataset }

// ToMessage renders the variant set's wire form.
func (vs *VariantSet) ToMessage() *VariantSetMessage {
	return &VariantSetMessage{ID: vs.ID(), DatasetID: vs.dataset.ID(), Name: vs.localID}
}

// AddCallSet registers a call set with the given sample name.
func (vs *VariantSet) AddCallSet(name, sampleID string) *CallSet {
	parent := vs.id
	cs := &CallSet{
		id:         MustCompoundID(CallSetIDSchema, &parent, name),
		name:       name,
		sampleID:   sampleID,
		variantSet: vs,
	}
	vs.callSets = append(vs.callSets, cs)
	vs.callSetsByID[cs.ID()] = cs
	vs.callSetsByName[name] = cs
	return cs
}

// CallSet returns the call set with the given opaque ID.
func (vs *VariantSet) CallSet(id string) (*CallSet, error) {
	cs, ok := vs.callSetsByID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "callSet", ID: id}
	}
	return cs, nil
}

// CallSetByName returns the call set with the given sample name.
func (vs *VariantSet) CallSetByName(name string) (*CallSet, bool) {
	cs, ok := vs.callSetsByName[name]
	return cs, ok
}

// CallSetByIndex returns the call set at the given index.
func (vs *VariantSet) CallSetByIndex(index int64) *CallSet { return vs.callSets[index] }

// NumCallSets returns the number of call sets.
func (vs *VariantSet) NumCallSets() int64 { return int64(len(vs.callSets)) }

// Variants scans variants on the named reference overlapping [start, end).
// A non-empty callSetIDs restricts calls to the identified call sets, which
// must belong to this variant set.
func (vs *VariantSet) Variants(referenceName string, start, end int64, callSetIDs []string) (Scan[*Variant], error) {
	callSetNames := make([]string, 0, len(callSetIDs))
	for _, id := range callSetIDs {
		cs, err := vs.CallSet(id)
		if err != nil {
			return nil, err
		}
		callSetNames = append(callSetNames, cs.Name())
	}
	scan, err := vs.source.Variants(referenceName, start, end, callSetNames)
	if err != nil {
		return nil, err
	}
	return mapScan(scan, vs.decorateVariant), nil
}

// Variant looks up one variant by position and checksum.
func (vs *VariantSet) Variant(referenceName string, start int64, md5 string) (*Variant, error) {
	variant, err := vs.source.Variant(referenceName, start, md5)
	if err != nil {
		return nil, err
	}
	return vs.decorateVariant(variant), nil
}

// decorateVariant fills a store-level variant's compound identifiers.
func (vs *VariantSet) decorateVariant(v *Variant) *Variant {
	parent := vs.id
	v.VariantSetID = vs.ID()
	v.ID = MustCompoundID(VariantIDSchema, &parent,
		v.ReferenceName, strconv.FormatInt(v.Start, 10), v.MD5).String()
	for _, call := range v.Calls {
		if call.CallSetID == "" && call.CallSetName != "" {
			if cs, ok := vs.callSetsByName[call.CallSetName]; ok {
				call.CallSetID = cs.ID()
			}
		}
	}
	return v
}

// CallSet is one sample's calls within a variant set.
type CallSet struct {
	id         CompoundID
	name       string
	sampleID   string
	variantSet *VariantSet
}

// ID returns the call set's opaque compound ID string.
func (cs *CallSet) ID() string { return cs.id.String() }

// Name returns the call set's sample name.
func (cs *CallSet) Name() string { return cs.name }

// ToMessage renders the call set's wire form.
func (cs *CallSet) ToMessage() *CallSetMessage {
	return &CallSetMessage{
		ID:            cs.ID(),
		Name:          cs.name,
		SampleID:      cs.sampleID,
		VariantSetIDs: []string{cs.variantSet.ID()},
	}
}

// -----------------------------------------------------------------------------
// VariantAnnotationSet
// -----------------------------------------------------------------------------

// VariantAnnotationSet is a collection of variant annotations attached to a
// variant set, backed by an AnnotationSource.
type VariantAnnotationSet struct {
	id         CompoundID
	localID    string
	variantSet *VariantSet
	source     AnnotationSource
}

// NewVariantAnnotationSet returns an annotation set attached to the given
// variant set.
func NewVariantAnnotationSet(variantSet *VariantSet, localID string, source AnnotationSource) *VariantAnnotationSet {
	parent := variantSet.CompoundID()
	return &VariantAnnotationSet{
		id:         MustCompoundID(VariantAnnotationSetIDSchema, &parent, localID),
		localID:    localID,
		variantSet: variantSet,
		source:     source,
	}
}

// ID returns the annotation set's opaque compound ID string.
func (as *VariantAnnotationSet) ID() string { return as.id.String() }

// LocalID returns the annotation set's local identifier.
func (as *VariantAnnotationSet) LocalID() string { return as.localID }

// VariantSet returns the annotated variant set.
func (as *VariantAnnotationSet) VariantSet() *VariantSet { return as.variantSet }

// ToMessage renders the annotation set's wire form.
func (as *VariantAnnotationSet) ToMessage() *VariantAnnotationSetMessage {
	return &VariantAnnotationSetMessage{
		ID:           as.ID(),
		VariantSetID: as.variantSet.ID(),
		Name:         as.localID,
	}
}

// Annotations scans annotations on the named reference overlapping
// [start, end).
func (as *VariantAnnotationSet) Annotations(referenceName string, start, end int64) (Scan[*VariantAnnotation], error) {
	scan, err := as.source.Annotations(referenceName, start, end)
	if err != nil {
		return nil, err
	}
	return mapScan(scan, func(ann *VariantAnnotation) *VariantAnnotation {
		ann.VariantAnnotationSetID = as.ID()
		return ann
	}), nil
}

// -----------------------------------------------------------------------------
// ReadGroupSet
// -----------------------------------------------------------------------------

// ReadGroupSet is a collection of read groups sharing one backing alignment
// store, backed by a ReadSource.
type ReadGroupSet struct {
	id      CompoundID
	localID string
	dataset *Dataset
	source  ReadSource

	referenceSet *ReferenceSet

	readGroups          []*ReadGroup
	readGroupsByID      map[string]*ReadGroup
	readGroupsByLocalID map[string]*ReadGroup
}

// NewReadGroupSet returns a read group set owned by the given dataset.
func NewReadGroupSet(dataset *Dataset, localID string, source ReadSource) *ReadGroupSet {
	parent := dataset.CompoundID()
	return &ReadGroupSet{
		id:                  MustCompoundID(ReadGroupSetIDSchema, &parent, localID),
		localID:             localID,
		dataset:             dataset,
		source:              source,
		readGroupsByID:      map[string]*ReadGroup{},
		readGroupsByLocalID: map[string]*ReadGroup{},
	}
}

// ID returns the read group set's opaque compound ID string.
func (rgs *ReadGroupSet) ID() string { return rgs.id.String() }

// LocalID returns the read group set's local identifier.
func (rgs *ReadGroupSet) LocalID() string { return rgs.localID }

// CompoundID returns the read group set's compound ID.
func (rgs *ReadGroupSet) CompoundID() CompoundID { return rgs.id }

// Dataset returns the owning dataset.
func (rgs *ReadGroupSet) Dataset() *Dataset { return rgs.dataset }

// SetReferenceSet records the reference set these reads are mapped to.
func (rgs *ReadGroupSet) SetReferenceSet(rs *ReferenceSet) { rgs.referenceSet = rs }

// ReferenceSet returns the mapped reference set, or nil for unmapped sets.
func (rgs *ReadGroupSet) ReferenceSet() *ReferenceSet { return rgs.referenceSet }

// AddReadGroup registers a read group with the given local identifier.
func (rgs *ReadGroupSet) AddReadGroup(localID, sampleID string) *ReadGroup {
	parent := rgs.id
	rg := &ReadGroup{
		id:       MustCompoundID(ReadGroupIDSchema, &parent, localID),
		localID:  localID,
		sampleID: sampleID,
		set:      rgs,
	}
	rgs.readGroups = append(rgs.readGroups, rg)
	rgs.readGroupsByID[rg.ID()] = rg
	rgs.readGroupsByLocalID[localID] = rg
	return rg
}

// ReadGroup returns the read group with the given opaque ID.
func (rgs *ReadGroupSet) ReadGroup(id string) (*ReadGroup, error) {
	rg, ok := rgs.readGroupsByID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "readGroup", ID: id}
	}
	return rg, nil
}

// ReadGroups returns every read group, in order.
func (rgs *ReadGroupSet) ReadGroups() []*ReadGroup { return rgs.readGroups }

// ReadGroupIDs returns the opaque IDs of every read group, in order.
func (rgs *ReadGroupSet) ReadGroupIDs() []string {
	ids := make([]string, len(rgs.readGroups))
	for i, rg := range rgs.readGroups {
		ids[i] = rg.ID()
	}
	return ids
}

// Reads scans read alignments on the named reference overlapping
// [start, end), restricted to the given read groups when non-empty.
func (rgs *ReadGroupSet) Reads(referenceName string, readGroupLocalIDs []string, start, end int64) (Scan[*ReadAlignment], error) {
	scan, err := rgs.source.Reads(referenceName, readGroupLocalIDs, start, end)
	if err != nil {
		return nil, err
	}
	return mapScan(scan, rgs.decorateRead), nil
}

// decorateRead fills a store-level read's compound identifiers. Stores yield
// reads whose ReadGroupID field carries the group's local ID.
func (rgs *ReadGroupSet) decorateRead(r *ReadAlignment) *ReadAlignment {
	if rg, ok := rgs.readGroupsByLocalID[r.ReadGroupID]; ok {
		r.ReadGroupID = rg.ID()
	}
	parent := rgs.id
	r.ID = MustCompoundID(ReadAlignmentIDSchema, &parent, r.FragmentName).String()
	return r
}

// ToMessage renders the read group set's wire form.
func (rgs *ReadGroupSet) ToMessage() *ReadGroupSetMessage {
	groups := make([]*ReadGroupMessage, len(rgs.readGroups))
	for i, rg := range rgs.readGroups {
		groups[i] = rg.ToMessage()
	}
	return &ReadGroupSetMessage{
		ID:         rgs.ID(),
		DatasetID:  rgs.dataset.ID(),
		Name:       rgs.localID,
		ReadGroups: groups,
	}
}

// ReadGroup is one group of reads within a read group set.
type ReadGroup struct {
	id       CompoundID
	localID  string
	sampleID string
	set      *ReadGroupSet
}

// ID returns the read group's opaque compound ID string.
func (rg *ReadGroup) ID() string { return rg.id.String() }

// LocalID returns the read group's local identifier.
func (rg *ReadGroup) LocalID() string { return rg.localID }

// Set returns the owning read group set.
func (rg *ReadGroup) Set() *ReadGroupSet { return rg.set }

// ToMessage renders the read group's wire form.
func (rg *ReadGroup) ToMessage() *ReadGroupMessage {
	return &ReadGroupMessage{
		ID:        rg.ID(),
		DatasetID: rg.set.dataset.ID(),
		Name:      rg.localID,
		SampleID:  rg.sampleID,
	}
}

// -----------------------------------------------------------------------------
// ReferenceSet and Reference
// -----------------------------------------------------------------------------

// ReferenceSet is a named assembly of reference sequences.
type ReferenceSet struct {
	id               CompoundID
	localID          string
	md5Checksum      string
	assemblyID       string
	sourceAccessions []string

	references     []*Reference
	referencesByID map[string]*Reference
}

// NewReferenceSet returns an empty reference set.
func NewReferenceSet(localID string) *ReferenceSet {
	return &ReferenceSet{
		id:             MustCompoundID(ReferenceSetIDSchema, nil, localID),
		localID:        localID,
		referencesByID: map[string]*Reference{},
	}
}

// ID returns the reference set's opaque compound ID string.
func (rs *ReferenceSet) ID() string { return rs.id.String() }

// LocalID returns the reference set's local identifier.
func (rs *ReferenceSet) LocalID() string { return rs.localID }

// CompoundID returns the reference set's compound ID.
func (rs *ReferenceSet) CompoundID() CompoundID { return rs.id }

// SetMD5Checksum records the assembly checksum.
func (rs *ReferenceSet) SetMD5Checksum(md5 string) { rs.md5Checksum = md5 }

// MD5Checksum returns the assembly checksum.
func (rs *ReferenceSet) MD5Checksum() string { return rs.md5Checksum }

// SetAssemblyID records the assembly accession.
func (rs *ReferenceSet) SetAssemblyID(assemblyID string) { rs.assemblyID = assemblyID }

// AssemblyID returns the assembly accession.
func (rs *ReferenceSet) AssemblyID() string { return rs.assemblyID }

// SetSourceAccessions records the set's source accessions.
func (rs *ReferenceSet) SetSourceAccessions(accessions []string) { rs.sourceAccessions = accessions }

// SourceAccessions returns the set's source accessions.
func (rs *ReferenceSet) SourceAccessions() []string { return rs.sourceAccessions }

// AddReference registers a reference sequence.
func (rs *ReferenceSet) AddReference(ref *Reference) {
	rs.references = append(rs.references, ref)
	rs.referencesByID[ref.ID()] = ref
}

// Reference returns the reference with the given opaque ID.
func (rs *ReferenceSet) Reference(id string) (*Reference, error) {
	ref, ok := rs.referencesByID[id]
	if !ok {
		return nil, &NotFoundError{Kind: "reference", ID: id}
	}
	return ref, nil
}

// References returns every reference, in order.
func (rs *ReferenceSet) References() []*Reference { return rs.references }

// ToMessage renders the reference set's wire form.
func (rs *ReferenceSet) ToMessage() *ReferenceSetMessage {
	return &ReferenceSetMessage{
		ID:               rs.ID(),
		Name:             rs.localID,
		MD5Checksum:      rs.md5Checksum,
		AssemblyID:       rs.assemblyID,
		SourceAccessions: rs.sourceAccessions,
	}
}

// Reference is one reference sequence with its base source.
type Reference struct {
	id               CompoundID
	localID          string
	length           int64
	md5Checksum      string
	sourceAccessions []string
	bases            BasesSource
}

// NewReference returns a reference sequence owned by the given set.
func NewReference(set *ReferenceSet, localID string, length int64, md5 string, bases BasesSource) *Reference {
	parent := set.CompoundID()
	return &Reference{
		id:          MustCompoundID(ReferenceIDSchema, &parent, localID),
		localID:     localID,
		length:      length,
		md5Checksum: md5,
		bases:       bases,
	}
}

// ID returns the reference's opaque compound ID string.
func (ref *Reference) ID() string { return ref.id.String() }

// LocalID returns the reference's local identifier.
func (ref *Reference) LocalID() string { return ref.localID }

// Length returns the sequence length.
func (ref *Reference) Length() int64 { return ref.length }

// MD5Checksum returns the sequence checksum.
func (ref *Reference) MD5Checksum() string { return ref.md5Checksum }

// SetSourceAccessions records the reference's source accessions.
func (ref *Reference) SetSourceAccessions(accessions []string) { ref.sourceAccessions = accessions }

// SourceAccessions returns the reference's source accessions.
func (ref *Reference) SourceAccessions() []string { return ref.sourceAccessions }

// Bases returns the sequence bases in [start, end).
func (ref *Reference) Bases(start, end int64) (string, error) {
	return ref.bases.Bases(start, end)
}

// ToMessage renders the reference's wire form.
func (ref *Reference) ToMessage() *ReferenceMessage {
	return &ReferenceMessage{
		ID:               ref.ID(),
		Name:             ref.localID,
		Length:           ref.length,
		MD5Checksum:      ref.md5Checksum,
		SourceAccessions: ref.sourceAccessions,
	}
}

// -----------------------------------------------------------------------------
// FeatureSet
// -----------------------------------------------------------------------------

// FeatureSet is a collection of sequence annotations backed by a
// FeatureStore. Feature search paginates with single-integer offset tokens
// because the store is index-addressable, unlike the interval sources.
type FeatureSet struct {
	id        CompoundID
	localID   string
	dataset   *Dataset
	sourceURI string
	store     FeatureStore
}

// NewFeatureSet returns a feature set owned by the given dataset.
func NewFeatureSet(dataset *Dataset, localID string, store FeatureStore) *FeatureSet {
	parent := dataset.CompoundID()
	return &FeatureSet{
		id:      MustCompoundID(FeatureSetIDSchema, &parent, localID),
		localID: localID,
		dataset: dataset,
		store:   store,
	}
}

// ID returns the feature set's opaque compound ID string.
func (fs *FeatureSet) ID() string { return fs.id.String() }

// LocalID returns the feature set's local identifier.
func (fs *FeatureSet) LocalID() string { return fs.localID }

// CompoundID returns the feature set's compound ID.
func (fs *FeatureSet) CompoundID() CompoundID { return fs.id }

// SetSourceURI records where the features were imported from.
func (fs *FeatureSet) SetSourceURI(uri string) { fs.sourceURI = uri }

// ToMessage renders the feature set's wire form.
func (fs *FeatureSet) ToMessage() *FeatureSetMessage {
	return &FeatureSetMessage{
		ID:        fs.ID(),
		DatasetID: fs.dataset.ID(),
		Name:      fs.localID,
		SourceURI: fs.sourceURI,
	}
}

// Feature looks up one feature by its local identifier and decorates it
// with compound IDs.
func (fs *FeatureSet) Feature(localID string) (*Feature, error) {
	feature, err := fs.store.FeatureByLocalID(localID)
	if err != nil {
		return nil, err
	}
	return fs.decorate(feature), nil
}

// Features returns a generator over features overlapping [start, end) on
// the named reference, resumable via offset tokens.
func (fs *FeatureSet) Features(referenceName string, start, end int64, pageToken string, featureTypes []string, parentLocalID string) (Generator, error) {
	count, err := fs.store.CountFeatures(referenceName, start, end, featureTypes, parentLocalID)
	if err != nil {
		return nil, err
	}
	return NewFlatGenerator(pageToken, count, func(index int64) (any, error) {
		features, err := fs.store.SearchFeatures(index, 1, referenceName, start, end, featureTypes, parentLocalID)
		if err != nil {
			return nil, err
		}
		if len(features) == 0 {
			return nil, &NotFoundError{Kind: "feature", ID: FormatPageToken(index)}
		}
		return fs.decorate(features[0]), nil
	})
}

// decorate fills a store-level feature's compound identifiers. Stores deal
// in local IDs only; the opaque hierarchy is this layer's concern.
func (fs *FeatureSet) decorate(feature *Feature) *Feature {
	parent := fs.id
	feature.FeatureSetID = fs.ID()
	feature.ID = MustCompoundID(FeatureIDSchema, &parent, feature.ID).String()
	if feature.ParentID != "" {
		feature.ParentID = MustCompoundID(FeatureIDSchema, &parent, feature.ParentID).String()
	}
	return feature
}
