package locus

// Flat pagination over index-addressable collections: the backing store
// exposes a count and retrieval by integer offset, and the page token is a
// single integer offset.

// flatGenerator paginates a collection addressed by integer index.
type flatGenerator struct {
	at    func(index int64) (any, error)
	count int64
	index int64
}

// NewFlatGenerator returns a generator over a collection of the given size,
// addressed by the at function. An empty pageToken starts at offset zero;
// otherwise the token must be a single-integer token from a previous page.
func NewFlatGenerator(pageToken string, count int64, at func(index int64) (any, error)) (Generator, error) {
	var index int64
	if pageToken != "" {
		values, err := ParsePageToken(pageToken, 1)
		if err != nil {
			return nil, err
		}
		index = values[0]
	}
	return &flatGenerator{at: at, count: count, index: index}, nil
}

func (g *flatGenerator) Next() (any, string, bool, error) {
	if g.index >= g.count {
		return nil, "", false, nil
	}
	obj, err := g.at(g.index)
	if err != nil {
		return nil, "", false, err
	}
	g.index++
	nextPageToken := ""
	if g.index < g.count {
		nextPageToken = FormatPageToken(g.index)
	}
	return obj, nextPageToken, true, nil
}

func (g *flatGenerator) Close() error { return nil }

// NewSliceGenerator returns a flat generator over an in-memory list.
func NewSliceGenerator(pageToken string, objects []any) (Generator, error) {
	return NewFlatGenerator(pageToken, int64(len(objects)), func(index int64) (any, error) {
		return objects[index], nil
	})
}

// singleGenerator yields exactly one object with no token, for searches
// whose result set is a single object (lookup-by-name style queries).
type singleGenerator struct {
	object any
	done   bool
}

// NewSingleGenerator returns a generator yielding only the given object.
func NewSingleGenerator(object any) Generator {
	return &singleGenerator{object: object}
}

func (g *singleGenerator) Next() (any, string, bool, error) {
	if g.done {
		return nil, "", false, nil
	}
	g.done = true
	return g.object, "", true, nil
}

func (g *singleGenerator) Close() error { return nil }

// emptyGenerator yields nothing.
type emptyGenerator struct{}

// NewEmptyGenerator returns a generator yielding no results.
func NewEmptyGenerator() Generator { return emptyGenerator{} }

func (emptyGenerator) Next() (any, string, bool, error) { return nil, "", false, nil }

func (emptyGenerator) Close() error { return nil }
