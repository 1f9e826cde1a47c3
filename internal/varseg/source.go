// Package varseg reads variant and variant-annotation segments from object
// storage. A segment is one reference's records as JSON lines, sorted by
// (start, checksum) at preparation time, optionally compressed. The segment
// for reference "1" under directory "ds/vs" lives at "ds/vs/1.jsonl" plus the
// compressor's extension.
//
// Segments only ever grow at preparation time; serving is read-only, so a
// forward decode of one object is the entire query path.
package varseg

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"

	jsoniter "github.com/json-iterator/go"

	"github.com/locusdb/locus/locus"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// segmentPath names one reference's segment under a source directory.
func segmentPath(dir, referenceName string, comp Compressor) string {
	return path.Join(dir, referenceName+".jsonl"+comp.Extension())
}

// EncodeRecords renders records as a compressed JSONL segment. Preparation
// tooling and test fixtures share this with the read path, so both sides
// agree on the format by construction.
func EncodeRecords[T any](comp Compressor, records []T) ([]byte, error) {
	var buf bytes.Buffer
	w, err := comp.Compress(&buf)
	if err != nil {
		return nil, err
	}
	enc := jsonCodec.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// -----------------------------------------------------------------------------
// Segment scan
// -----------------------------------------------------------------------------

// segmentScan decodes records one at a time from a decompressed segment
// stream. keep filters and converts segment records to result objects; stop
// ends the scan early once the sorted stream has passed the query range.
type segmentScan[T, R any] struct {
	body io.ReadCloser
	data io.ReadCloser
	dec  *jsoniter.Decoder
	keep func(*T) (R, bool)
	stop func(*T) bool
	done bool
}

func newSegmentScan[T, R any](body io.ReadCloser, comp Compressor, keep func(*T) (R, bool), stop func(*T) bool) (*segmentScan[T, R], error) {
	data, err := comp.Decompress(body)
	if err != nil {
		_ = body.Close()
		return nil, err
	}
	return &segmentScan[T, R]{
		body: body,
		data: data,
		dec:  jsonCodec.NewDecoder(data),
		keep: keep,
		stop: stop,
	}, nil
}

func (s *segmentScan[T, R]) Next() (R, bool, error) {
	var zero R
	if s.done {
		return zero, false, nil
	}
	for s.dec.More() {
		var rec T
		if err := s.dec.Decode(&rec); err != nil {
			s.done = true
			_ = s.Close()
			return zero, false, err
		}
		if s.stop(&rec) {
			s.done = true
			_ = s.Close()
			return zero, false, nil
		}
		if out, ok := s.keep(&rec); ok {
			return out, true, nil
		}
	}
	s.done = true
	_ = s.Close()
	return zero, false, nil
}

func (s *segmentScan[T, R]) Close() error {
	if s.data != nil {
		_ = s.data.Close()
		s.data = nil
	}
	if s.body != nil {
		err := s.body.Close()
		s.body = nil
		return err
	}
	return nil
}

// emptyScan is returned for references with no segment.
type emptyScan[T any] struct{}

func (emptyScan[T]) Next() (T, bool, error) {
	var zero T
	return zero, false, nil
}

func (emptyScan[T]) Close() error { return nil }

// -----------------------------------------------------------------------------
// VariantSource
// -----------------------------------------------------------------------------

// VariantRecord is the segment form of a variant: the wire fields plus the
// md5 checksum, which the wire form withholds but compound IDs need.
type VariantRecord struct {
	locus.Variant
	MD5 string `json:"md5"`
}

// NewVariantRecord converts a variant to its segment form.
func NewVariantRecord(v *locus.Variant) VariantRecord {
	return VariantRecord{Variant: *v, MD5: v.MD5}
}

// VariantSource implements locus.VariantSource over JSONL segments in a
// store. dir is the segment directory for one variant set.
type VariantSource struct {
	store locus.Store
	dir   string
	comp  Compressor
}

// NewVariantSource returns a source reading segments under dir with the
// given compressor.
func NewVariantSource(store locus.Store, dir string, comp Compressor) *VariantSource {
	return &VariantSource{store: store, dir: dir, comp: comp}
}

// Variants implements locus.VariantSource. A reference with no segment
// yields an empty scan.
func (s *VariantSource) Variants(referenceName string, start, end int64, callSetNames []string) (locus.Scan[*locus.Variant], error) {
	body, err := s.store.Get(context.Background(), segmentPath(s.dir, referenceName, s.comp))
	if err != nil {
		if errors.Is(err, locus.ErrNotFound) {
			return emptyScan[*locus.Variant]{}, nil
		}
		return nil, err
	}
	requested := make(map[string]bool, len(callSetNames))
	for _, name := range callSetNames {
		requested[name] = true
	}
	keep := func(rec *VariantRecord) (*locus.Variant, bool) {
		if rec.End <= start {
			return nil, false
		}
		v := rec.Variant
		v.MD5 = rec.MD5
		if len(requested) > 0 {
			kept := v.Calls[:0:0]
			for _, call := range v.Calls {
				if requested[call.CallSetName] {
					kept = append(kept, call)
				}
			}
			v.Calls = kept
		}
		return &v, true
	}
	stop := func(rec *VariantRecord) bool { return rec.Start >= end }
	return newSegmentScan(body, s.comp, keep, stop)
}

// Variant implements locus.VariantSource, scanning the reference's segment
// for an exact (start, md5) match.
func (s *VariantSource) Variant(referenceName string, start int64, md5 string) (*locus.Variant, error) {
	scan, err := s.Variants(referenceName, start, start+1, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = scan.Close() }()
	for {
		v, ok, err := scan.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, locus.ErrNotFound
		}
		if v.Start == start && v.MD5 == md5 {
			return v, nil
		}
	}
}

// -----------------------------------------------------------------------------
// AnnotationSource
// -----------------------------------------------------------------------------

// AnnotationSource implements locus.AnnotationSource over JSONL segments in
// a store. dir is the segment directory for one annotation set.
type AnnotationSource struct {
	store locus.Store
	dir   string
	comp  Compressor
}

// NewAnnotationSource returns a source reading segments under dir with the
// given compressor.
func NewAnnotationSource(store locus.Store, dir string, comp Compressor) *AnnotationSource {
	return &AnnotationSource{store: store, dir: dir, comp: comp}
}

// Annotations implements locus.AnnotationSource.
func (s *AnnotationSource) Annotations(referenceName string, start, end int64) (locus.Scan[*locus.VariantAnnotation], error) {
	body, err := s.store.Get(context.Background(), segmentPath(s.dir, referenceName, s.comp))
	if err != nil {
		if errors.Is(err, locus.ErrNotFound) {
			return emptyScan[*locus.VariantAnnotation]{}, nil
		}
		return nil, err
	}
	keep := func(a *locus.VariantAnnotation) (*locus.VariantAnnotation, bool) {
		return a, a.End > start
	}
	stop := func(a *locus.VariantAnnotation) bool { return a.Start >= end }
	return newSegmentScan(body, s.comp, keep, stop)
}
