package locus

// Wire messages. Container kinds (datasets, variant sets, ...) carry a
// Message suffix because the registry types in repository.go own the plain
// names; leaf objects (variants, reads, features, annotations) stream
// straight from backing stores and are wire structs directly.

// -----------------------------------------------------------------------------
// Container messages
// -----------------------------------------------------------------------------

// DatasetMessage is the wire form of a dataset.
type DatasetMessage struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// VariantSetMessage is the wire form of a variant set.
type VariantSetMessage struct {
	ID        string `json:"id"`
	DatasetID string `json:"datasetId"`
	Name      string `json:"name"`
}

// CallSetMessage is the wire form of a call set.
type CallSetMessage struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	SampleID      string   `json:"sampleId,omitempty"`
	VariantSetIDs []string `json:"variantSetIds"`
}

// ReadGroupSetMessage is the wire form of a read group set.
type ReadGroupSetMessage struct {
	ID         string              `json:"id"`
	DatasetID  string              `json:"datasetId"`
	Name       string              `json:"name"`
	ReadGroups []*ReadGroupMessage `json:"readGroups"`
}

// ReadGroupMessage is the wire form of a read group.
type ReadGroupMessage struct {
	ID          string `json:"id"`
	DatasetID   string `json:"datasetId"`
	Name        string `json:"name"`
	SampleID    string `json:"sampleId,omitempty"`
	Description string `json:"description,omitempty"`
}

// ReferenceSetMessage is the wire form of a reference set.
type ReferenceSetMessage struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	MD5Checksum      string   `json:"md5checksum,omitempty"`
	AssemblyID       string   `json:"assemblyId,omitempty"`
	SourceAccessions []string `json:"sourceAccessions,omitempty"`
}

// ReferenceMessage is the wire form of a reference sequence.
type ReferenceMessage struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Length           int64    `json:"length"`
	MD5Checksum      string   `json:"md5checksum,omitempty"`
	SourceAccessions []string `json:"sourceAccessions,omitempty"`
}

// FeatureSetMessage is the wire form of a feature set.
type FeatureSetMessage struct {
	ID        string `json:"id"`
	DatasetID string `json:"datasetId"`
	Name      string `json:"name"`
	SourceURI string `json:"sourceUri,omitempty"`
}

// VariantAnnotationSetMessage is the wire form of a variant annotation set.
type VariantAnnotationSetMessage struct {
	ID           string `json:"id"`
	VariantSetID string `json:"variantSetId"`
	Name         string `json:"name"`
}

// -----------------------------------------------------------------------------
// Leaf objects
// -----------------------------------------------------------------------------

// Variant is one variant call site.
type Variant struct {
	ID             string   `json:"id"`
	VariantSetID   string   `json:"variantSetId"`
	Names          []string `json:"names,omitempty"`
	ReferenceName  string   `json:"referenceName"`
	Start          int64    `json:"start"`
	End            int64    `json:"end"`
	ReferenceBases string   `json:"referenceBases"`
	AlternateBases []string `json:"alternateBases"`
	MD5            string   `json:"-"`
	Calls          []*Call  `json:"calls,omitempty"`
}

// Call is one call of a variant in a call set.
type Call struct {
	CallSetID   string  `json:"callSetId"`
	CallSetName string  `json:"callSetName,omitempty"`
	Genotype    []int32 `json:"genotype"`
}

// Position is a genomic position on a named reference.
type Position struct {
	ReferenceName string `json:"referenceName"`
	Position      int64  `json:"position"`
	Strand        string `json:"strand,omitempty"`
}

// LinearAlignment is the mapped placement of a read.
type LinearAlignment struct {
	Position       *Position `json:"position"`
	MappingQuality int32     `json:"mappingQuality,omitempty"`
}

// ReadAlignment is one read. An unmapped read with a mapped mate has a nil
// Alignment and carries the mate's position in NextMatePosition; its
// effective start for interval iteration is the mate position (SAM 2.4.1).
type ReadAlignment struct {
	ID               string           `json:"id"`
	ReadGroupID      string           `json:"readGroupId"`
	FragmentName     string           `json:"fragmentName"`
	Alignment        *LinearAlignment `json:"alignment,omitempty"`
	AlignedSequence  string           `json:"alignedSequence"`
	NextMatePosition *Position        `json:"nextMatePosition,omitempty"`
}

// Feature is one sequence annotation (GFF3-style) record.
type Feature struct {
	ID            string        `json:"id"`
	FeatureSetID  string        `json:"featureSetId"`
	ParentID      string        `json:"parentId,omitempty"`
	ReferenceName string        `json:"referenceName"`
	Start         int64         `json:"start"`
	End           int64         `json:"end"`
	FeatureType   *OntologyTerm `json:"featureType,omitempty"`
}

// OntologyTerm names a term in an ontology, for example a sequence ontology
// effect.
type OntologyTerm struct {
	ID   string `json:"id,omitempty"`
	Term string `json:"term,omitempty"`
}

// TranscriptEffect is the effect of a variant on one transcript.
type TranscriptEffect struct {
	ID        string          `json:"id,omitempty"`
	FeatureID string          `json:"featureId,omitempty"`
	Effects   []*OntologyTerm `json:"effects"`
}

// VariantAnnotation is the annotation of one variant.
type VariantAnnotation struct {
	ID                     string              `json:"id"`
	VariantAnnotationSetID string              `json:"variantAnnotationSetId"`
	VariantID              string              `json:"variantId"`
	ReferenceName          string              `json:"referenceName"`
	Start                  int64               `json:"start"`
	End                    int64               `json:"end"`
	TranscriptEffects      []*TranscriptEffect `json:"transcriptEffects"`
}

// -----------------------------------------------------------------------------
// Requests
// -----------------------------------------------------------------------------

// PageRequest carries the pagination fields every search request has. A nil
// PageSize means the server default; an empty PageToken means the start of
// the sequence.
type PageRequest struct {
	PageToken string `json:"pageToken,omitempty"`
	PageSize  *int32 `json:"pageSize,omitempty"`
}

// SearchDatasetsRequest selects datasets.
type SearchDatasetsRequest struct {
	PageRequest
}

// SearchVariantSetsRequest selects variant sets within a dataset.
type SearchVariantSetsRequest struct {
	DatasetID string `json:"datasetId"`
	PageRequest
}

// SearchVariantsRequest selects variants overlapping a reference interval.
type SearchVariantsRequest struct {
	VariantSetID  string   `json:"variantSetId"`
	ReferenceName string   `json:"referenceName"`
	Start         int64    `json:"start"`
	End           int64    `json:"end"`
	CallSetIDs    []string `json:"callSetIds,omitempty"`
	PageRequest
}

// SearchCallSetsRequest selects call sets within a variant set, optionally
// by exact name.
type SearchCallSetsRequest struct {
	VariantSetID string `json:"variantSetId"`
	Name         string `json:"name,omitempty"`
	PageRequest
}

// SearchReadGroupSetsRequest selects read group sets within a dataset,
// optionally by exact name.
type SearchReadGroupSetsRequest struct {
	DatasetID string `json:"datasetId"`
	Name      string `json:"name,omitempty"`
	PageRequest
}

// SearchReadsRequest selects reads overlapping a reference interval.
type SearchReadsRequest struct {
	ReadGroupIDs  []string `json:"readGroupIds"`
	ReferenceID   string   `json:"referenceId"`
	ReferenceName string   `json:"referenceName,omitempty"`
	Start         int64    `json:"start"`
	End           int64    `json:"end"`
	PageRequest
}

// SearchReferenceSetsRequest selects reference sets by checksum, accession,
// or assembly.
type SearchReferenceSetsRequest struct {
	MD5Checksum string `json:"md5checksum,omitempty"`
	Accession   string `json:"accession,omitempty"`
	AssemblyID  string `json:"assemblyId,omitempty"`
	PageRequest
}

// SearchReferencesRequest selects references within a reference set.
type SearchReferencesRequest struct {
	ReferenceSetID string `json:"referenceSetId"`
	MD5Checksum    string `json:"md5checksum,omitempty"`
	Accession      string `json:"accession,omitempty"`
	PageRequest
}

// SearchFeatureSetsRequest selects feature sets within a dataset.
type SearchFeatureSetsRequest struct {
	DatasetID string `json:"datasetId"`
	PageRequest
}

// SearchFeaturesRequest selects features overlapping a reference interval.
// A client may specify just the (compound) parent ID and the server derives
// the feature set from it.
type SearchFeaturesRequest struct {
	FeatureSetID  string   `json:"featureSetId,omitempty"`
	ParentID      string   `json:"parentId,omitempty"`
	ReferenceName string   `json:"referenceName"`
	Start         int64    `json:"start"`
	End           int64    `json:"end"`
	FeatureTypes  []string `json:"featureTypes,omitempty"`
	PageRequest
}

// SearchVariantAnnotationSetsRequest selects annotation sets of a variant
// set.
type SearchVariantAnnotationSetsRequest struct {
	VariantSetID string `json:"variantSetId"`
	PageRequest
}

// SearchVariantAnnotationsRequest selects variant annotations overlapping a
// reference interval, optionally restricted to requested effects.
type SearchVariantAnnotationsRequest struct {
	VariantAnnotationSetID string          `json:"variantAnnotationSetId"`
	ReferenceName          string          `json:"referenceName"`
	Start                  int64           `json:"start"`
	End                    int64           `json:"end"`
	Effects                []*OntologyTerm `json:"effects,omitempty"`
	PageRequest
}

// ListReferenceBasesResponse is the response of the reference-bases
// retrieval endpoint.
type ListReferenceBasesResponse struct {
	Offset        int64  `json:"offset"`
	Sequence      string `json:"sequence"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}
