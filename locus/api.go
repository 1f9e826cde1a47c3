// Package locus provides the core of a paginated search server for genomic
// collections: resumable page-token iteration, hierarchical compound
// identifiers, and size-bounded response assembly.
//
// Locus focuses on pagination semantics: it consumes ordered scans from
// heterogeneous backing stores and adds exactly-once resumable delivery on
// top. It does not implement persistence, indexing, or durability.
package locus

import (
	"context"
	"io"
)

// -----------------------------------------------------------------------------
// Scans and sources
// -----------------------------------------------------------------------------

// Scan is a forward cursor over objects produced by a backing store search.
//
// Implementations must deliver objects in non-decreasing start order, and the
// order among objects sharing a start coordinate must be deterministic across
// repeated scans from the same position. Resumable pagination depends on this:
// a page token records a position inside a tie-run, and a rescan that shuffles
// the run would silently duplicate or drop records.
type Scan[T any] interface {
	// Next returns the next object. It returns ok == false once the scan is
	// exhausted, and keeps returning ok == false on further calls.
	Next() (obj T, ok bool, err error)

	// Close releases the underlying cursor. Safe to call more than once.
	Close() error
}

// IntervalSource is the capability set an interval iterator needs from an
// object kind: an ordered overlap scan plus start/end accessors.
//
// Search must return every object overlapping [start, end), i.e. objects with
// Start(obj) < end && End(obj) > start, ordered as described on Scan.
type IntervalSource[T any] interface {
	Search(start, end int64) (Scan[T], error)
	Start(obj T) int64
	End(obj T) int64
}

// -----------------------------------------------------------------------------
// Generators
// -----------------------------------------------------------------------------

// Generator yields (object, nextPageToken) pairs for a search response.
//
// The token paired with an object resumes iteration immediately after that
// object; it is empty when the object is the last one. Next returns
// ok == false once iteration is exhausted.
type Generator interface {
	Next() (obj any, nextPageToken string, ok bool, err error)

	// Close releases any backing cursor. Must be called on every exit path,
	// including early termination when a response fills up.
	Close() error
}

// Pair is one step of a resumable iteration: the object to deliver and the
// token that resumes iteration immediately after it (empty for the last one).
type Pair[T any] struct {
	Object        T
	NextPageToken string
}

// -----------------------------------------------------------------------------
// Object sources
// -----------------------------------------------------------------------------

// VariantSource supplies variants for one variant set. Sources deal in local
// identifiers only; compound IDs are the registry's concern.
type VariantSource interface {
	// Variants scans variants on the named reference overlapping
	// [start, end). A non-empty callSetNames restricts each variant's calls
	// to the named call sets.
	Variants(referenceName string, start, end int64, callSetNames []string) (Scan[*Variant], error)

	// Variant looks up a single variant by its position and checksum.
	Variant(referenceName string, start int64, md5 string) (*Variant, error)
}

// AnnotationSource supplies variant annotations for one annotation set.
type AnnotationSource interface {
	Annotations(referenceName string, start, end int64) (Scan[*VariantAnnotation], error)
}

// ReadSource supplies read alignments for a read group set. A nil or empty
// readGroupLocalIDs slice selects every read group in the set.
type ReadSource interface {
	Reads(referenceName string, readGroupLocalIDs []string, start, end int64) (Scan[*ReadAlignment], error)
}

// FeatureStore supplies features for one feature set. Features are
// index-addressable: the store exposes a total count for a predicate and
// offset-based retrieval, which the feature search paginates with
// single-integer page tokens.
type FeatureStore interface {
	// CountFeatures returns the number of features matching the predicate.
	CountFeatures(referenceName string, start, end int64, featureTypes []string, parentLocalID string) (int64, error)

	// SearchFeatures returns up to limit matching features starting at
	// offset, ordered by (start, id).
	SearchFeatures(offset, limit int64, referenceName string, start, end int64, featureTypes []string, parentLocalID string) ([]*Feature, error)

	// FeatureByLocalID looks up one feature.
	FeatureByLocalID(localID string) (*Feature, error)
}

// BasesSource supplies reference bases for one reference sequence.
type BasesSource interface {
	Bases(start, end int64) (string, error)
}

// -----------------------------------------------------------------------------
// Store interface
// -----------------------------------------------------------------------------

// Store abstracts read access to the object storage holding repository data
// files (variant segments, alignment segments).
//
// Implementations may target filesystems, S3, or in-memory fixtures. Locus
// only ever reads: repository preparation is external tooling's job.
type Store interface {
	// Get retrieves data from the given path.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists checks whether a path exists.
	Exists(ctx context.Context, path string) (bool, error)

	// List returns paths under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

// Error sentinel values for common conditions.
var (
	// ErrNotFound indicates a requested storage path does not exist.
	ErrNotFound = errNotFound{}

	// ErrInvalidPath indicates a path that would escape the storage root.
	ErrInvalidPath = errInvalidPath{}
)

type errNotFound struct{}

func (errNotFound) Error() string { return "not found" }

type errInvalidPath struct{}

func (errInvalidPath) Error() string { return "invalid path: escapes storage root" }

// -----------------------------------------------------------------------------
// Slice-backed scans
// -----------------------------------------------------------------------------

// sliceScan adapts an in-memory slice to the Scan interface.
type sliceScan[T any] struct {
	objects []T
	index   int
}

// NewSliceScan returns a Scan over the given slice. The slice must already be
// ordered per the Scan contract; callers typically sort once at load time.
func NewSliceScan[T any](objects []T) Scan[T] {
	return &sliceScan[T]{objects: objects}
}

func (s *sliceScan[T]) Next() (T, bool, error) {
	var zero T
	if s.index >= len(s.objects) {
		return zero, false, nil
	}
	obj := s.objects[s.index]
	s.index++
	return obj, true, nil
}

func (s *sliceScan[T]) Close() error { return nil }

// mappedScan applies a transform to every object a scan yields. The registry
// uses it to fill compound identifiers on objects coming out of stores that
// only know local IDs.
type mappedScan[T any] struct {
	base Scan[T]
	fn   func(T) T
}

func mapScan[T any](base Scan[T], fn func(T) T) Scan[T] {
	return &mappedScan[T]{base: base, fn: fn}
}

func (s *mappedScan[T]) Next() (T, bool, error) {
	obj, ok, err := s.base.Next()
	if err != nil || !ok {
		return obj, ok, err
	}
	return s.fn(obj), true, nil
}

func (s *mappedScan[T]) Close() error { return s.base.Close() }
