package locus

import (
	"errors"
	"strconv"
)

// Backend binds the repository to the protocol: it decodes request bodies,
// resolves containers from opaque identifiers, selects a generator for the
// query, and drives it into a size-bounded response. Every operation takes
// raw bytes and returns raw bytes, so transports stay a thin layer.

// DefaultPageSize is the page size applied when a request carries none.
const DefaultPageSize = 100

// Backend serves search, get, and base-listing operations over a repository.
type Backend struct {
	repository       *Repository
	defaultPageSize  int32
	maxResponseBytes int
	validateRequest  func(req any) error
	validateResponse func(body []byte) error
}

// BackendOption configures a Backend.
type BackendOption func(*Backend)

// WithDefaultPageSize overrides the page size used when requests carry none.
func WithDefaultPageSize(pageSize int32) BackendOption {
	return func(b *Backend) { b.defaultPageSize = pageSize }
}

// WithMaxResponseBytes overrides the approximate serialized-size budget for
// one response.
func WithMaxResponseBytes(maxBytes int) BackendOption {
	return func(b *Backend) { b.maxResponseBytes = maxBytes }
}

// WithRequestValidator installs a hook run on every decoded search request
// before it is served. A non-nil return aborts the request with that error.
func WithRequestValidator(validate func(req any) error) BackendOption {
	return func(b *Backend) { b.validateRequest = validate }
}

// WithResponseValidator installs a hook run on every assembled response body
// before it is returned.
func WithResponseValidator(validate func(body []byte) error) BackendOption {
	return func(b *Backend) { b.validateResponse = validate }
}

// NewBackend returns a backend over the given repository.
func NewBackend(repository *Repository, opts ...BackendOption) *Backend {
	b := &Backend{
		repository:       repository,
		defaultPageSize:  DefaultPageSize,
		maxResponseBytes: DefaultMaxResponseBytes,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Repository returns the served repository.
func (b *Backend) Repository() *Repository { return b.repository }

// -----------------------------------------------------------------------------
// Request plumbing
// -----------------------------------------------------------------------------

// resolvePageSize applies the default for an absent page size and rejects
// non-positive explicit ones.
func (b *Backend) resolvePageSize(pageSize *int32) (int32, error) {
	if pageSize == nil {
		return b.defaultPageSize, nil
	}
	if *pageSize <= 0 {
		return 0, &BadPageSizeError{PageSize: *pageSize}
	}
	return *pageSize, nil
}

func (b *Backend) decodeRequest(body []byte, req any) error {
	if err := jsonCodec.Unmarshal(body, req); err != nil {
		return &InvalidJSONError{Cause: err}
	}
	if b.validateRequest != nil {
		return b.validateRequest(req)
	}
	return nil
}

// parseIntegerArgument parses an optional integer query argument, applying a
// default when absent.
func parseIntegerArgument(args map[string]string, key string, defaultValue int64) (int64, error) {
	value, ok := args[key]
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &BadRequestIntegerError{Key: key, Value: value}
	}
	return parsed, nil
}

// drive pulls the generator into a response until either budget fills or the
// generator exhausts. The next-page token always comes from the generator
// alongside the last accepted object.
func (b *Backend) drive(listField string, pageSize int32, gen Generator) ([]byte, error) {
	defer gen.Close()
	builder := NewSearchResponseBuilder(listField, pageSize, b.maxResponseBytes)
	for !builder.IsFull() {
		obj, nextPageToken, ok, err := gen.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if err := builder.AddValue(obj); err != nil {
			return nil, err
		}
		builder.SetNextPageToken(nextPageToken)
	}
	response, err := builder.MarshalResponse()
	if err != nil {
		return nil, err
	}
	if b.validateResponse != nil {
		if err := b.validateResponse(response); err != nil {
			return nil, err
		}
	}
	return response, nil
}

// pairIterator is the iteration shape shared by interval iterators and their
// filtering wrappers.
type pairIterator[T any] interface {
	Next() (Pair[T], bool, error)
	Close() error
}

// intervalGenerator adapts a typed pair iterator to the Generator interface.
type intervalGenerator[T any] struct {
	it pairIterator[T]
}

func (g intervalGenerator[T]) Next() (any, string, bool, error) {
	pair, ok, err := g.it.Next()
	if err != nil || !ok {
		return nil, "", false, err
	}
	return pair.Object, pair.NextPageToken, true, nil
}

func (g intervalGenerator[T]) Close() error { return g.it.Close() }

// -----------------------------------------------------------------------------
// Interval source adapters
// -----------------------------------------------------------------------------

type variantIntervalSource struct {
	set           *VariantSet
	referenceName string
	callSetIDs    []string
}

func (s variantIntervalSource) Search(start, end int64) (Scan[*Variant], error) {
	return s.set.Variants(s.referenceName, start, end, s.callSetIDs)
}

func (s variantIntervalSource) Start(v *Variant) int64 { return v.Start }

func (s variantIntervalSource) End(v *Variant) int64 { return v.End }

type annotationIntervalSource struct {
	set           *VariantAnnotationSet
	referenceName string
}

func (s annotationIntervalSource) Search(start, end int64) (Scan[*VariantAnnotation], error) {
	return s.set.Annotations(s.referenceName, start, end)
}

func (s annotationIntervalSource) Start(a *VariantAnnotation) int64 { return a.Start }

func (s annotationIntervalSource) End(a *VariantAnnotation) int64 { return a.End }

type readIntervalSource struct {
	set               *ReadGroupSet
	referenceName     string
	readGroupLocalIDs []string
}

func (s readIntervalSource) Search(start, end int64) (Scan[*ReadAlignment], error) {
	return s.set.Reads(s.referenceName, s.readGroupLocalIDs, start, end)
}

func (s readIntervalSource) Start(r *ReadAlignment) int64 { return ReadStart(r) }

func (s readIntervalSource) End(r *ReadAlignment) int64 { return ReadEnd(r) }

// -----------------------------------------------------------------------------
// Container resolution
// -----------------------------------------------------------------------------

// Each resolver validates the identifier against its schema first, so a
// malformed ID fails the same way an unknown one does, then walks the
// repository along the ID's container chain.

func (b *Backend) dataset(id string) (*Dataset, error) {
	if _, err := ParseCompoundID(DatasetIDSchema, id); err != nil {
		return nil, err
	}
	return b.repository.Dataset(id)
}

func (b *Backend) variantSet(id string) (*VariantSet, error) {
	compound, err := ParseCompoundID(VariantSetIDSchema, id)
	if err != nil {
		return nil, err
	}
	datasetID, _ := compound.ContainerID("dataset")
	dataset, err := b.repository.Dataset(datasetID)
	if err != nil {
		return nil, err
	}
	return dataset.VariantSet(id)
}

func (b *Backend) callSet(id string) (*CallSet, error) {
	compound, err := ParseCompoundID(CallSetIDSchema, id)
	if err != nil {
		return nil, err
	}
	variantSetID, _ := compound.ContainerID("variantSet")
	variantSet, err := b.variantSet(variantSetID)
	if err != nil {
		return nil, err
	}
	return variantSet.CallSet(id)
}

func (b *Backend) variantAnnotationSet(id string) (*VariantAnnotationSet, error) {
	compound, err := ParseCompoundID(VariantAnnotationSetIDSchema, id)
	if err != nil {
		return nil, err
	}
	datasetID, _ := compound.ContainerID("dataset")
	dataset, err := b.repository.Dataset(datasetID)
	if err != nil {
		return nil, err
	}
	return dataset.VariantAnnotationSet(id)
}

func (b *Backend) readGroupSet(id string) (*ReadGroupSet, error) {
	compound, err := ParseCompoundID(ReadGroupSetIDSchema, id)
	if err != nil {
		return nil, err
	}
	datasetID, _ := compound.ContainerID("dataset")
	dataset, err := b.repository.Dataset(datasetID)
	if err != nil {
		return nil, err
	}
	return dataset.ReadGroupSet(id)
}

func (b *Backend) readGroup(id string) (*ReadGroup, error) {
	compound, err := ParseCompoundID(ReadGroupIDSchema, id)
	if err != nil {
		return nil, err
	}
	readGroupSetID, _ := compound.ContainerID("readGroupSet")
	readGroupSet, err := b.readGroupSet(readGroupSetID)
	if err != nil {
		return nil, err
	}
	return readGroupSet.ReadGroup(id)
}

func (b *Backend) referenceSet(id string) (*ReferenceSet, error) {
	if _, err := ParseCompoundID(ReferenceSetIDSchema, id); err != nil {
		return nil, err
	}
	return b.repository.ReferenceSet(id)
}

func (b *Backend) reference(id string) (*Reference, error) {
	compound, err := ParseCompoundID(ReferenceIDSchema, id)
	if err != nil {
		return nil, err
	}
	referenceSetID, _ := compound.ContainerID("referenceSet")
	referenceSet, err := b.repository.ReferenceSet(referenceSetID)
	if err != nil {
		return nil, err
	}
	return referenceSet.Reference(id)
}

func (b *Backend) featureSet(id string) (*FeatureSet, error) {
	compound, err := ParseCompoundID(FeatureSetIDSchema, id)
	if err != nil {
		return nil, err
	}
	datasetID, _ := compound.ContainerID("dataset")
	dataset, err := b.repository.Dataset(datasetID)
	if err != nil {
		return nil, err
	}
	return dataset.FeatureSet(id)
}

// -----------------------------------------------------------------------------
// Search operations
// -----------------------------------------------------------------------------

// RunSearchDatasets serves a datasets search.
func (b *Backend) RunSearchDatasets(body []byte) ([]byte, error) {
	var req SearchDatasetsRequest
	if err := b.decodeRequest(body, &req); err != nil {
		return nil, err
	}
	pageSize, err := b.resolvePageSize(req.PageSize)
	if err != nil {
		return nil, err
	}
	gen, err := NewFlatGenerator(req.PageToken, b.repository.NumDatasets(), func(index int64) (any, error) {
		return b.repository.DatasetByIndex(index).ToMessage(), nil
	})
	if err != nil {
		return nil, err
	}
	return b.drive("datasets", pageSize, gen)
}

// RunSearchVariantSets serves a variant sets search.
func (b *Backend) RunSearchVariantSets(body []byte) ([]byte, error) {
	var req SearchVariantSetsRequest
	if err := b.decodeRequest(body, &req); err != nil {
		return nil, err
	}
	pageSize, err := b.resolvePageSize(req.PageSize)
	if err != nil {
		return nil, err
	}
	dataset, err := b.dataset(req.DatasetID)
	if err != nil {
		return nil, err
	}
	gen, err := NewFlatGenerator(req.PageToken, dataset.NumVariantSets(), func(index int64) (any, error) {
		return dataset.VariantSetByIndex(index).ToMessage(), nil
	})
	if err != nil {
		return nil, err
	}
	return b.drive("variantSets", pageSize, gen)
}

// RunSearchVariants serves a variants search.
func (b *Backend) RunSearchVariants(body []byte) ([]byte, error) {
	var req SearchVariantsRequest
	if err := b.decodeRequest(body, &req); err != nil {
		return nil, err
	}
	pageSize, err := b.resolvePageSize(req.PageSize)
	if err != nil {
		return nil, err
	}
	if req.ReferenceName == "" {
		return nil, &BadRequestError{Reason: "variant search requires a referenceName"}
	}
	variantSet, err := b.variantSet(req.VariantSetID)
	if err != nil {
		return nil, err
	}
	source := variantIntervalSource{
		set:           variantSet,
		referenceName: req.ReferenceName,
		callSetIDs:    req.CallSetIDs,
	}
	it, err := NewIntervalIterator[*Variant](source, req.Start, req.End, req.PageToken)
	if err != nil {
		return nil, err
	}
	return b.drive("variants", pageSize, intervalGenerator[*Variant]{it: it})
}

// RunSearchCallSets serves a call sets search. A name filter degrades the
// search to at most one result.
func (b *Backend) RunSearchCallSets(body []byte) ([]byte, error) {
	var req SearchCallSetsRequest
	if err := b.decodeRequest(body, &req); err != nil {
		return nil, err
	}
	pageSize, err := b.resolvePageSize(req.PageSize)
	if err != nil {
		return nil, err
	}
	variantSet, err := b.variantSet(req.VariantSetID)
	if err != nil {
		return nil, err
	}
	var gen Generator
	if req.Name != "" {
		if cs, ok := variantSet.CallSetByName(req.Name); ok {
			gen = NewSingleGenerator(cs.ToMessage())
		} else {
			gen = NewEmptyGenerator()
		}
	} else {
		gen, err = NewFlatGenerator(req.PageToken, variantSet.NumCallSets(), func(index int64) (any, error) {
			return variantSet.CallSetByIndex(index).ToMessage(), nil
		})
		if err != nil {
			return nil, err
		}
	}
	return b.drive("callSets", pageSize, gen)
}

// RunSearchReadGroupSets serves a read group sets search. A name filter
// degrades the search to at most one result.
func (b *Backend) RunSearchReadGroupSets(body []byte) ([]byte, error) {
	var req SearchReadGroupSetsRequest
	if err := b.decodeRequest(body, &req); err != nil {
		return nil, err
	}
	pageSize, err := b.resolvePageSize(req.PageSize)
	if err != nil {
		return nil, err
	}
	dataset, err := b.dataset(req.DatasetID)
	if err != nil {
		return nil, err
	}
	var gen Generator
	if req.Name != "" {
		if rgs, ok := dataset.ReadGroupSetByName(req.Name); ok {
			gen = NewSingleGenerator(rgs.ToMessage())
		} else {
			gen = NewEmptyGenerator()
		}
	} else {
		gen, err = NewFlatGenerator(req.PageToken, dataset.NumReadGroupSets(), func(index int64) (any, error) {
			return dataset.ReadGroupSetByIndex(index).ToMessage(), nil
		})
		if err != nil {
			return nil, err
		}
	}
	return b.drive("readGroupSets", pageSize, gen)
}

// RunSearchReads serves a reads search. All requested read groups must
// belong to one read group set, and requesting more than one of a set's
// groups means requesting all of them: the backing scans interleave groups
// by position and cannot restrict to an arbitrary strict subset larger than
// one without breaking resume order.
func (b *Backend) RunSearchReads(body []byte) ([]byte, error) {
	var req SearchReadsRequest
	if err := b.decodeRequest(body, &req); err != nil {
		return nil, err
	}
	pageSize, err := b.resolvePageSize(req.PageSize)
	if err != nil {
		return nil, err
	}
	if req.ReferenceID == "" {
		return nil, &BadRequestError{Reason: "read search requires a referenceId"}
	}
	if len(req.ReadGroupIDs) == 0 {
		return nil, &BadRequestError{Reason: "read search requires at least one readGroupId"}
	}
	reference, err := b.reference(req.ReferenceID)
	if err != nil {
		return nil, err
	}
	first, err := b.readGroup(req.ReadGroupIDs[0])
	if err != nil {
		return nil, err
	}
	readGroupSet := first.Set()
	for _, id := range req.ReadGroupIDs[1:] {
		rg, err := b.readGroup(id)
		if err != nil {
			return nil, err
		}
		if rg.Set() != readGroupSet {
			return nil, &BadRequestError{Reason: "all readGroupIds must belong to one readGroupSet"}
		}
	}
	var localIDs []string
	if len(req.ReadGroupIDs) == 1 {
		localIDs = []string{first.LocalID()}
	} else if !sameIDSet(req.ReadGroupIDs, readGroupSet.ReadGroupIDs()) {
		return nil, &BadRequestError{
			Reason: "multiple readGroupIds are supported only when they are all of the readGroupSet's read groups",
		}
	}
	source := readIntervalSource{
		set:               readGroupSet,
		referenceName:     reference.LocalID(),
		readGroupLocalIDs: localIDs,
	}
	it, err := NewIntervalIterator[*ReadAlignment](source, req.Start, req.End, req.PageToken)
	if err != nil {
		return nil, err
	}
	return b.drive("alignments", pageSize, intervalGenerator[*ReadAlignment]{it: it})
}

func sameIDSet(requested, all []string) bool {
	if len(requested) != len(all) {
		return false
	}
	seen := make(map[string]bool, len(all))
	for _, id := range all {
		seen[id] = true
	}
	for _, id := range requested {
		if !seen[id] {
			return false
		}
	}
	return true
}

// RunSearchReferenceSets serves a reference sets search with optional
// checksum, accession, and assembly filters.
func (b *Backend) RunSearchReferenceSets(body []byte) ([]byte, error) {
	var req SearchReferenceSetsRequest
	if err := b.decodeRequest(body, &req); err != nil {
		return nil, err
	}
	pageSize, err := b.resolvePageSize(req.PageSize)
	if err != nil {
		return nil, err
	}
	var results []any
	for _, rs := range b.repository.ReferenceSets() {
		if req.MD5Checksum != "" && rs.MD5Checksum() != req.MD5Checksum {
			continue
		}
		if req.AssemblyID != "" && rs.AssemblyID() != req.AssemblyID {
			continue
		}
		if req.Accession != "" && !containsString(rs.SourceAccessions(), req.Accession) {
			continue
		}
		results = append(results, rs.ToMessage())
	}
	gen, err := NewSliceGenerator(req.PageToken, results)
	if err != nil {
		return nil, err
	}
	return b.drive("referenceSets", pageSize, gen)
}

// RunSearchReferences serves a references search with optional checksum and
// accession filters.
func (b *Backend) RunSearchReferences(body []byte) ([]byte, error) {
	var req SearchReferencesRequest
	if err := b.decodeRequest(body, &req); err != nil {
		return nil, err
	}
	pageSize, err := b.resolvePageSize(req.PageSize)
	if err != nil {
		return nil, err
	}
	referenceSet, err := b.referenceSet(req.ReferenceSetID)
	if err != nil {
		return nil, err
	}
	var results []any
	for _, ref := range referenceSet.References() {
		if req.MD5Checksum != "" && ref.MD5Checksum() != req.MD5Checksum {
			continue
		}
		if req.Accession != "" && !containsString(ref.SourceAccessions(), req.Accession) {
			continue
		}
		results = append(results, ref.ToMessage())
	}
	gen, err := NewSliceGenerator(req.PageToken, results)
	if err != nil {
		return nil, err
	}
	return b.drive("references", pageSize, gen)
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

// RunSearchFeatureSets serves a feature sets search.
func (b *Backend) RunSearchFeatureSets(body []byte) ([]byte, error) {
	var req SearchFeatureSetsRequest
	if err := b.decodeRequest(body, &req); err != nil {
		return nil, err
	}
	pageSize, err := b.resolvePageSize(req.PageSize)
	if err != nil {
		return nil, err
	}
	dataset, err := b.dataset(req.DatasetID)
	if err != nil {
		return nil, err
	}
	gen, err := NewFlatGenerator(req.PageToken, dataset.NumFeatureSets(), func(index int64) (any, error) {
		return dataset.FeatureSetByIndex(index).ToMessage(), nil
	})
	if err != nil {
		return nil, err
	}
	return b.drive("featureSets", pageSize, gen)
}

// RunSearchFeatures serves a features search. A request may carry the
// feature set ID, a compound parent feature ID, or both; when both are
// present they must agree on the feature set.
func (b *Backend) RunSearchFeatures(body []byte) ([]byte, error) {
	var req SearchFeaturesRequest
	if err := b.decodeRequest(body, &req); err != nil {
		return nil, err
	}
	pageSize, err := b.resolvePageSize(req.PageSize)
	if err != nil {
		return nil, err
	}
	featureSetID := req.FeatureSetID
	parentLocalID := ""
	if req.ParentID != "" {
		parentCompound, err := ParseCompoundID(FeatureIDSchema, req.ParentID)
		if err != nil {
			return nil, err
		}
		parentLocalID = parentCompound.LocalID()
		parentFeatureSetID, _ := parentCompound.ContainerID("featureSet")
		if featureSetID == "" {
			featureSetID = parentFeatureSetID
		} else if featureSetID != parentFeatureSetID {
			return nil, &BadRequestError{Reason: "parentId is not a member of featureSetId"}
		}
	}
	if featureSetID == "" {
		return nil, &BadRequestError{Reason: "feature search requires a featureSetId or parentId"}
	}
	if req.ReferenceName == "" && parentLocalID == "" {
		return nil, &BadRequestError{Reason: "feature search requires a referenceName"}
	}
	featureSet, err := b.featureSet(featureSetID)
	if err != nil {
		return nil, err
	}
	gen, err := featureSet.Features(req.ReferenceName, req.Start, req.End, req.PageToken, req.FeatureTypes, parentLocalID)
	if err != nil {
		return nil, err
	}
	return b.drive("features", pageSize, gen)
}

// RunSearchVariantAnnotationSets serves a variant annotation sets search.
func (b *Backend) RunSearchVariantAnnotationSets(body []byte) ([]byte, error) {
	var req SearchVariantAnnotationSetsRequest
	if err := b.decodeRequest(body, &req); err != nil {
		return nil, err
	}
	pageSize, err := b.resolvePageSize(req.PageSize)
	if err != nil {
		return nil, err
	}
	variantSet, err := b.variantSet(req.VariantSetID)
	if err != nil {
		return nil, err
	}
	var results []any
	for _, as := range variantSet.Dataset().VariantAnnotationSets() {
		if as.VariantSet() == variantSet {
			results = append(results, as.ToMessage())
		}
	}
	gen, err := NewSliceGenerator(req.PageToken, results)
	if err != nil {
		return nil, err
	}
	return b.drive("variantAnnotationSets", pageSize, gen)
}

// RunSearchVariantAnnotations serves a variant annotations search with the
// requested-effect post-filter.
func (b *Backend) RunSearchVariantAnnotations(body []byte) ([]byte, error) {
	var req SearchVariantAnnotationsRequest
	if err := b.decodeRequest(body, &req); err != nil {
		return nil, err
	}
	pageSize, err := b.resolvePageSize(req.PageSize)
	if err != nil {
		return nil, err
	}
	if req.ReferenceName == "" {
		return nil, &BadRequestError{Reason: "variant annotation search requires a referenceName"}
	}
	annotationSet, err := b.variantAnnotationSet(req.VariantAnnotationSetID)
	if err != nil {
		return nil, err
	}
	source := annotationIntervalSource{set: annotationSet, referenceName: req.ReferenceName}
	it, err := NewIntervalIterator[*VariantAnnotation](source, req.Start, req.End, req.PageToken)
	if err != nil {
		return nil, err
	}
	filtered := NewEffectFilterIterator(it, req.Effects)
	return b.drive("variantAnnotations", pageSize, intervalGenerator[*VariantAnnotation]{it: filtered})
}

// -----------------------------------------------------------------------------
// Get operations
// -----------------------------------------------------------------------------

// RunGetDataset serves a dataset get.
func (b *Backend) RunGetDataset(id string) ([]byte, error) {
	dataset, err := b.dataset(id)
	if err != nil {
		return nil, err
	}
	return jsonCodec.Marshal(dataset.ToMessage())
}

// RunGetVariantSet serves a variant set get.
func (b *Backend) RunGetVariantSet(id string) ([]byte, error) {
	variantSet, err := b.variantSet(id)
	if err != nil {
		return nil, err
	}
	return jsonCodec.Marshal(variantSet.ToMessage())
}

// RunGetVariant serves a variant get. The variant's compound ID carries its
// position and checksum, which locate it in the backing store.
func (b *Backend) RunGetVariant(id string) ([]byte, error) {
	compound, err := ParseCompoundID(VariantIDSchema, id)
	if err != nil {
		return nil, err
	}
	variantSetID, _ := compound.ContainerID("variantSet")
	variantSet, err := b.variantSet(variantSetID)
	if err != nil {
		return nil, err
	}
	referenceName, _ := compound.Value("referenceName")
	startField, _ := compound.Value("start")
	md5, _ := compound.Value("md5")
	start, err := strconv.ParseInt(startField, 10, 64)
	if err != nil {
		return nil, &NotFoundError{Kind: "variant", ID: id}
	}
	variant, err := variantSet.Variant(referenceName, start, md5)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{Kind: "variant", ID: id}
		}
		return nil, err
	}
	return jsonCodec.Marshal(variant)
}

// RunGetCallSet serves a call set get.
func (b *Backend) RunGetCallSet(id string) ([]byte, error) {
	callSet, err := b.callSet(id)
	if err != nil {
		return nil, err
	}
	return jsonCodec.Marshal(callSet.ToMessage())
}

// RunGetReadGroupSet serves a read group set get.
func (b *Backend) RunGetReadGroupSet(id string) ([]byte, error) {
	readGroupSet, err := b.readGroupSet(id)
	if err != nil {
		return nil, err
	}
	return jsonCodec.Marshal(readGroupSet.ToMessage())
}

// RunGetReadGroup serves a read group get.
func (b *Backend) RunGetReadGroup(id string) ([]byte, error) {
	readGroup, err := b.readGroup(id)
	if err != nil {
		return nil, err
	}
	return jsonCodec.Marshal(readGroup.ToMessage())
}

// RunGetReferenceSet serves a reference set get.
func (b *Backend) RunGetReferenceSet(id string) ([]byte, error) {
	referenceSet, err := b.referenceSet(id)
	if err != nil {
		return nil, err
	}
	return jsonCodec.Marshal(referenceSet.ToMessage())
}

// RunGetReference serves a reference get.
func (b *Backend) RunGetReference(id string) ([]byte, error) {
	reference, err := b.reference(id)
	if err != nil {
		return nil, err
	}
	return jsonCodec.Marshal(reference.ToMessage())
}

// RunGetFeatureSet serves a feature set get.
func (b *Backend) RunGetFeatureSet(id string) ([]byte, error) {
	featureSet, err := b.featureSet(id)
	if err != nil {
		return nil, err
	}
	return jsonCodec.Marshal(featureSet.ToMessage())
}

// RunGetFeature serves a feature get.
func (b *Backend) RunGetFeature(id string) ([]byte, error) {
	compound, err := ParseCompoundID(FeatureIDSchema, id)
	if err != nil {
		return nil, err
	}
	featureSetID, _ := compound.ContainerID("featureSet")
	featureSet, err := b.featureSet(featureSetID)
	if err != nil {
		return nil, err
	}
	feature, err := featureSet.Feature(compound.LocalID())
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return nil, &NotFoundError{Kind: "feature", ID: id}
		}
		return nil, err
	}
	return jsonCodec.Marshal(feature)
}

// RunGetVariantAnnotationSet serves a variant annotation set get.
func (b *Backend) RunGetVariantAnnotationSet(id string) ([]byte, error) {
	annotationSet, err := b.variantAnnotationSet(id)
	if err != nil {
		return nil, err
	}
	return jsonCodec.Marshal(annotationSet.ToMessage())
}

// -----------------------------------------------------------------------------
// Reference bases
// -----------------------------------------------------------------------------

// RunListReferenceBases serves a bases listing over a reference. The range
// is chunked by the response byte budget; the page token is the absolute
// offset of the next chunk.
func (b *Backend) RunListReferenceBases(id string, args map[string]string) ([]byte, error) {
	reference, err := b.reference(id)
	if err != nil {
		return nil, err
	}
	start, err := parseIntegerArgument(args, "start", 0)
	if err != nil {
		return nil, err
	}
	end, err := parseIntegerArgument(args, "end", reference.Length())
	if err != nil {
		return nil, err
	}
	if start < 0 || start > end || end > reference.Length() {
		return nil, &BadRequestError{Reason: "base range outside reference bounds"}
	}
	position := start
	if token := args["pageToken"]; token != "" {
		values, err := ParsePageToken(token, 1)
		if err != nil {
			return nil, err
		}
		position = values[0]
		if position < start || position >= end {
			return nil, &BadPageTokenError{Token: token, Reason: "offset outside requested range"}
		}
	}
	chunkEnd := position + int64(b.maxResponseBytes)
	if chunkEnd > end {
		chunkEnd = end
	}
	sequence, err := reference.Bases(position, chunkEnd)
	if err != nil {
		return nil, err
	}
	resp := &ListReferenceBasesResponse{Offset: position, Sequence: sequence}
	if chunkEnd < end {
		resp.NextPageToken = FormatPageToken(chunkEnd)
	}
	return jsonCodec.Marshal(resp)
}
