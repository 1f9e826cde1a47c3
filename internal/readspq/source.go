// Package readspq reads alignment segments stored as Parquet. A segment is
// one reference's reads as a columnar file sorted by (position, fragment
// name) at preparation time; the segment for reference "1" under directory
// "ds/rgs" lives at "ds/rgs/1.parquet".
//
// Unmapped reads with a mapped mate are stored in the mate's reference
// segment at the mate's position, so they appear in interval queries the
// same way mapped reads do.
package readspq

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"

	"github.com/parquet-go/parquet-go"

	"github.com/locusdb/locus/locus"
)

// alignmentRow is the columnar form of one read.
type alignmentRow struct {
	FragmentName      string `parquet:"fragment_name"`
	ReadGroup         string `parquet:"read_group"`
	ReferenceName     string `parquet:"reference_name"`
	Position          int64  `parquet:"position"`
	MappingQuality    int32  `parquet:"mapping_quality"`
	AlignedSequence   string `parquet:"aligned_sequence"`
	Unmapped          bool   `parquet:"unmapped"`
	HasMate           bool   `parquet:"has_mate"`
	MateReferenceName string `parquet:"mate_reference_name"`
	MatePosition      int64  `parquet:"mate_position"`
}

// toRead converts a row to its wire form. The ReadGroupID field carries the
// group's local ID; the registry swaps in the compound ID.
func (row *alignmentRow) toRead() *locus.ReadAlignment {
	r := &locus.ReadAlignment{
		FragmentName:    row.FragmentName,
		ReadGroupID:     row.ReadGroup,
		AlignedSequence: row.AlignedSequence,
	}
	if row.HasMate {
		r.NextMatePosition = &locus.Position{
			ReferenceName: row.MateReferenceName,
			Position:      row.MatePosition,
		}
	}
	if !row.Unmapped {
		r.Alignment = &locus.LinearAlignment{
			Position: &locus.Position{
				ReferenceName: row.ReferenceName,
				Position:      row.Position,
			},
			MappingQuality: row.MappingQuality,
		}
	}
	return r
}

// fromRead converts a read in segment-local form (ReadGroupID holding the
// group's local ID) to a row keyed to the given segment reference.
func fromRead(r *locus.ReadAlignment) alignmentRow {
	row := alignmentRow{
		FragmentName:    r.FragmentName,
		ReadGroup:       r.ReadGroupID,
		AlignedSequence: r.AlignedSequence,
		Unmapped:        r.Alignment == nil,
	}
	if r.Alignment != nil {
		row.ReferenceName = r.Alignment.Position.ReferenceName
		row.Position = r.Alignment.Position.Position
		row.MappingQuality = r.Alignment.MappingQuality
	}
	if r.NextMatePosition != nil {
		row.HasMate = true
		row.MateReferenceName = r.NextMatePosition.ReferenceName
		row.MatePosition = r.NextMatePosition.Position
		if r.Alignment == nil {
			// Unmapped-with-mapped-mate rows sort at the mate's position.
			row.ReferenceName = r.NextMatePosition.ReferenceName
			row.Position = r.NextMatePosition.Position
		}
	}
	return row
}

// segmentPath names one reference's segment under a source directory.
func segmentPath(dir, referenceName string) string {
	return path.Join(dir, referenceName+".parquet")
}

// EncodeAlignments renders reads as a Parquet segment. The reads must
// already be in segment-local form and sorted by (effective start, fragment
// name). Preparation tooling and test fixtures share this with the read
// path.
func EncodeAlignments(reads []*locus.ReadAlignment) ([]byte, error) {
	rows := make([]alignmentRow, len(reads))
	for i, r := range reads {
		rows[i] = fromRead(r)
	}
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[alignmentRow](&buf)
	if _, err := w.Write(rows); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// -----------------------------------------------------------------------------
// ReadSource
// -----------------------------------------------------------------------------

// ReadSource implements locus.ReadSource over Parquet segments in a store.
// dir is the segment directory for one read group set.
type ReadSource struct {
	store locus.Store
	dir   string
}

// NewReadSource returns a source reading segments under dir.
func NewReadSource(store locus.Store, dir string) *ReadSource {
	return &ReadSource{store: store, dir: dir}
}

// Reads implements locus.ReadSource. A reference with no segment yields an
// empty scan.
func (s *ReadSource) Reads(referenceName string, readGroupLocalIDs []string, start, end int64) (locus.Scan[*locus.ReadAlignment], error) {
	body, err := s.store.Get(context.Background(), segmentPath(s.dir, referenceName))
	if err != nil {
		if errors.Is(err, locus.ErrNotFound) {
			return emptyReadScan{}, nil
		}
		return nil, err
	}
	defer func() { _ = body.Close() }()

	// Parquet needs random access; segments are sized for this.
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	requested := make(map[string]bool, len(readGroupLocalIDs))
	for _, id := range readGroupLocalIDs {
		requested[id] = true
	}
	return &readScan{
		reader:    parquet.NewGenericReader[alignmentRow](file),
		requested: requested,
		start:     start,
		end:       end,
	}, nil
}

// readScan streams rows out of one segment, filtering by group membership
// and interval overlap. Rows are position-sorted, so the scan stops at the
// first row past the query end.
type readScan struct {
	reader    *parquet.GenericReader[alignmentRow]
	requested map[string]bool
	start     int64
	end       int64

	buf  []alignmentRow
	next int
	fill int
	done bool
}

const readScanBatch = 256

func (s *readScan) Next() (*locus.ReadAlignment, bool, error) {
	if s.done {
		return nil, false, nil
	}
	for {
		if s.next >= s.fill {
			if s.buf == nil {
				s.buf = make([]alignmentRow, readScanBatch)
			}
			n, err := s.reader.Read(s.buf)
			if n == 0 {
				s.finish()
				if err != nil && !errors.Is(err, io.EOF) {
					return nil, false, err
				}
				return nil, false, nil
			}
			if err != nil && !errors.Is(err, io.EOF) {
				s.finish()
				return nil, false, err
			}
			s.next, s.fill = 0, n
		}
		row := &s.buf[s.next]
		s.next++
		if row.Position >= s.end {
			s.finish()
			return nil, false, nil
		}
		if len(s.requested) > 0 && !s.requested[row.ReadGroup] {
			continue
		}
		if row.Position+int64(len(row.AlignedSequence)) <= s.start {
			continue
		}
		return row.toRead(), true, nil
	}
}

func (s *readScan) finish() {
	if !s.done {
		s.done = true
		_ = s.reader.Close()
	}
}

func (s *readScan) Close() error {
	s.finish()
	return nil
}

type emptyReadScan struct{}

func (emptyReadScan) Next() (*locus.ReadAlignment, bool, error) { return nil, false, nil }

func (emptyReadScan) Close() error { return nil }
