package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/locusdb/locus/internal/gffdb"
	"github.com/locusdb/locus/internal/readspq"
	"github.com/locusdb/locus/internal/varseg"
	"github.com/locusdb/locus/locus"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// The manifest describes a prepared repository: which collections exist,
// where their segments live inside the store, and how they are compressed.
// Preparation tooling writes it next to the data it names.

type manifest struct {
	ReferenceSets []manifestReferenceSet `json:"referenceSets"`
	Datasets      []manifestDataset      `json:"datasets"`
}

type manifestReferenceSet struct {
	Name             string              `json:"name"`
	MD5Checksum      string              `json:"md5checksum"`
	AssemblyID       string              `json:"assemblyId"`
	SourceAccessions []string            `json:"sourceAccessions"`
	References       []manifestReference `json:"references"`
}

type manifestReference struct {
	Name             string   `json:"name"`
	Length           int64    `json:"length"`
	MD5Checksum      string   `json:"md5checksum"`
	SourceAccessions []string `json:"sourceAccessions"`

	// SequencePath names the store object holding the raw bases.
	SequencePath string `json:"sequencePath"`
}

type manifestDataset struct {
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	VariantSets   []manifestVariantSet   `json:"variantSets"`
	ReadGroupSets []manifestReadGroupSet `json:"readGroupSets"`
	FeatureSets   []manifestFeatureSet   `json:"featureSets"`
}

type manifestVariantSet struct {
	Name           string                  `json:"name"`
	Dir            string                  `json:"dir"`
	Compression    string                  `json:"compression"`
	CallSets       []manifestCallSet       `json:"callSets"`
	AnnotationSets []manifestAnnotationSet `json:"annotationSets"`
}

type manifestCallSet struct {
	Name     string `json:"name"`
	SampleID string `json:"sampleId"`
}

type manifestAnnotationSet struct {
	Name        string `json:"name"`
	Dir         string `json:"dir"`
	Compression string `json:"compression"`
}

type manifestReadGroupSet struct {
	Name         string              `json:"name"`
	Dir          string              `json:"dir"`
	ReferenceSet string              `json:"referenceSet"`
	ReadGroups   []manifestReadGroup `json:"readGroups"`
}

type manifestReadGroup struct {
	Name     string `json:"name"`
	SampleID string `json:"sampleId"`
}

type manifestFeatureSet struct {
	Name string `json:"name"`

	// DBPath is a local SQLite database path, resolved relative to the
	// working directory rather than the store: SQLite needs a real file.
	DBPath    string `json:"dbPath"`
	SourceURI string `json:"sourceUri"`
}

// LoadRepository reads a manifest file and assembles the repository it
// describes over the given store.
func LoadRepository(path string, store locus.Store) (*locus.Repository, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := jsonCodec.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	repository := locus.NewRepository()
	referenceSets := map[string]*locus.ReferenceSet{}

	for _, mrs := range m.ReferenceSets {
		rs := locus.NewReferenceSet(mrs.Name)
		rs.SetMD5Checksum(mrs.MD5Checksum)
		rs.SetAssemblyID(mrs.AssemblyID)
		rs.SetSourceAccessions(mrs.SourceAccessions)
		for _, mref := range mrs.References {
			bases := newStoreBasesSource(store, mref.SequencePath)
			ref := locus.NewReference(rs, mref.Name, mref.Length, mref.MD5Checksum, bases)
			ref.SetSourceAccessions(mref.SourceAccessions)
			rs.AddReference(ref)
		}
		repository.AddReferenceSet(rs)
		referenceSets[mrs.Name] = rs
	}

	for _, mds := range m.Datasets {
		ds := locus.NewDataset(mds.Name)
		ds.SetDescription(mds.Description)

		for _, mvs := range mds.VariantSets {
			comp, err := compressorByName(mvs.Compression)
			if err != nil {
				return nil, err
			}
			vs := locus.NewVariantSet(ds, mvs.Name, varseg.NewVariantSource(store, mvs.Dir, comp))
			for _, mcs := range mvs.CallSets {
				vs.AddCallSet(mcs.Name, mcs.SampleID)
			}
			ds.AddVariantSet(vs)
			for _, mas := range mvs.AnnotationSets {
				asComp, err := compressorByName(mas.Compression)
				if err != nil {
					return nil, err
				}
				as := locus.NewVariantAnnotationSet(vs, mas.Name,
					varseg.NewAnnotationSource(store, mas.Dir, asComp))
				ds.AddVariantAnnotationSet(as)
			}
		}

		for _, mrgs := range mds.ReadGroupSets {
			rgs := locus.NewReadGroupSet(ds, mrgs.Name, readspq.NewReadSource(store, mrgs.Dir))
			for _, mrg := range mrgs.ReadGroups {
				rgs.AddReadGroup(mrg.Name, mrg.SampleID)
			}
			if mrgs.ReferenceSet != "" {
				rs, ok := referenceSets[mrgs.ReferenceSet]
				if !ok {
					return nil, fmt.Errorf("readGroupSet %s names unknown referenceSet %s", mrgs.Name, mrgs.ReferenceSet)
				}
				rgs.SetReferenceSet(rs)
			}
			ds.AddReadGroupSet(rgs)
		}

		for _, mfs := range mds.FeatureSets {
			db, err := gffdb.Open(mfs.DBPath)
			if err != nil {
				return nil, fmt.Errorf("opening feature db %s: %w", mfs.DBPath, err)
			}
			fs := locus.NewFeatureSet(ds, mfs.Name, db)
			fs.SetSourceURI(mfs.SourceURI)
			ds.AddFeatureSet(fs)
		}

		repository.AddDataset(ds)
	}

	return repository, nil
}

func compressorByName(name string) (varseg.Compressor, error) {
	switch name {
	case "zstd", "":
		return varseg.NewZstdCompressor(), nil
	case "gzip":
		return varseg.NewGzipCompressor(), nil
	case "noop":
		return varseg.NewNoOpCompressor(), nil
	default:
		return nil, fmt.Errorf("unknown compression %q", name)
	}
}

// storeBasesSource serves reference bases from one store object holding the
// raw sequence. The object is fetched once and kept; reference sequences
// are shared across many requests.
type storeBasesSource struct {
	store locus.Store
	path  string

	once     sync.Once
	sequence []byte
	loadErr  error
}

func newStoreBasesSource(store locus.Store, path string) *storeBasesSource {
	return &storeBasesSource{store: store, path: path}
}

// Bases implements locus.BasesSource.
func (s *storeBasesSource) Bases(start, end int64) (string, error) {
	s.once.Do(func() {
		body, err := s.store.Get(context.Background(), s.path)
		if err != nil {
			s.loadErr = err
			return
		}
		defer func() { _ = body.Close() }()
		s.sequence, s.loadErr = io.ReadAll(body)
	})
	if s.loadErr != nil {
		return "", s.loadErr
	}
	if start < 0 || end < start || end > int64(len(s.sequence)) {
		return "", &locus.BadRequestError{Reason: "base range outside reference bounds"}
	}
	return string(s.sequence[start:end]), nil
}
