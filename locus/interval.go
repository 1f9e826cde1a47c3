package locus

// IntervalIterator delivers objects selected by genomic interval overlap,
// resumable via two-integer page tokens, over a source that only exposes a
// forward scan.
//
// The token is searchAnchor:distanceFromAnchor. searchAnchor is the smallest
// start coordinate not yet fully delivered; distanceFromAnchor counts the
// already-delivered objects sharing exactly that start. A resume re-opens a
// scan at the anchor and skips the counted tie-run, so resume cost is
// bounded by one page plus the tie-run at the boundary — the total result
// count is unknown and a plain skip-N token would make a paginated client
// quadratic in the number of pages.

// IntervalIterator iterates (object, nextPageToken) pairs over one interval
// query. It keeps exactly one object of lookahead and holds one open scan,
// which is released by Close or when iteration exhausts.
type IntervalIterator[T any] struct {
	source IntervalSource[T]

	// Requested query range.
	start, end int64

	scan         Scan[T]
	current      T
	hasCurrent   bool
	lookahead    T
	hasLookahead bool

	searchAnchor       int64
	distanceFromAnchor int64
}

// NewIntervalIterator opens an interval iteration over [start, end). An
// empty pageToken starts fresh; otherwise the token must be a two-integer
// token produced by a previous iteration over the same query, and a token
// inconsistent with the backing scan is a BadPageTokenError.
func NewIntervalIterator[T any](source IntervalSource[T], start, end int64, pageToken string) (*IntervalIterator[T], error) {
	it := &IntervalIterator[T]{source: source, start: start, end: end}
	if pageToken == "" {
		if err := it.initialiseIteration(); err != nil {
			it.releaseScan()
			return nil, err
		}
		return it, nil
	}
	values, err := ParsePageToken(pageToken, 2)
	if err != nil {
		return nil, err
	}
	if err := it.pickUpIteration(pageToken, values[0], values[1]); err != nil {
		it.releaseScan()
		return nil, err
	}
	return it, nil
}

// initialiseIteration starts a new iteration from the request start.
func (it *IntervalIterator[T]) initialiseIteration() error {
	scan, err := it.source.Search(it.start, it.end)
	if err != nil {
		return err
	}
	it.scan = scan
	it.current, it.hasCurrent, err = scan.Next()
	if err != nil {
		return err
	}
	if !it.hasCurrent {
		return nil
	}
	it.lookahead, it.hasLookahead, err = scan.Next()
	if err != nil {
		return err
	}
	it.searchAnchor = it.start
	it.distanceFromAnchor = 0
	if first := it.source.Start(it.current); first > it.start {
		it.searchAnchor = first
	}
	return nil
}

// pickUpIteration resumes from a page token. There are two phases: while the
// anchor still equals the request start we are inside the initial tie-run
// and skip exactly objectsToSkip objects; once the anchor has advanced past
// the request start we first skip everything already delivered on earlier
// pages (start < anchor), then skip objectsToSkip objects whose start must
// equal the anchor exactly.
func (it *IntervalIterator[T]) pickUpIteration(token string, searchAnchor, objectsToSkip int64) error {
	it.searchAnchor = searchAnchor
	it.distanceFromAnchor = objectsToSkip
	scan, err := it.source.Search(searchAnchor, it.end)
	if err != nil {
		return err
	}
	it.scan = scan
	obj, ok, err := scan.Next()
	if err != nil {
		return err
	}
	if !ok {
		return &BadPageTokenError{Token: token, Reason: "resume point not reached"}
	}
	if searchAnchor == it.start {
		for i := int64(0); i < objectsToSkip; i++ {
			obj, ok, err = scan.Next()
			if err != nil {
				return err
			}
			if !ok {
				return &BadPageTokenError{Token: token, Reason: "resume point not reached"}
			}
		}
	} else {
		for it.source.Start(obj) < searchAnchor {
			obj, ok, err = scan.Next()
			if err != nil {
				return err
			}
			if !ok {
				return &BadPageTokenError{Token: token, Reason: "resume point not reached"}
			}
		}
		for i := int64(0); i < objectsToSkip; i++ {
			if it.source.Start(obj) != searchAnchor {
				return &BadPageTokenError{Token: token, Reason: "inconsistent with backing scan"}
			}
			obj, ok, err = scan.Next()
			if err != nil {
				return err
			}
			if !ok {
				return &BadPageTokenError{Token: token, Reason: "resume point not reached"}
			}
		}
	}
	it.current = obj
	it.hasCurrent = true
	it.lookahead, it.hasLookahead, err = scan.Next()
	return err
}

// Next returns the next (object, nextPageToken) pair. The token resumes
// iteration immediately after the returned object and is empty when the
// object is the last one. Once exhausted, Next keeps returning ok == false.
func (it *IntervalIterator[T]) Next() (Pair[T], bool, error) {
	if !it.hasCurrent {
		it.releaseScan()
		return Pair[T]{}, false, nil
	}
	nextPageToken := ""
	if it.hasLookahead {
		// If the lookahead starts past the anchor, the anchor moves there
		// and the tie count resets; otherwise one more tie has been
		// delivered at the current anchor.
		if start := it.source.Start(it.lookahead); start > it.searchAnchor {
			it.searchAnchor = start
			it.distanceFromAnchor = 0
		} else {
			it.distanceFromAnchor++
		}
		nextPageToken = FormatPageToken(it.searchAnchor, it.distanceFromAnchor)
	}
	pair := Pair[T]{Object: it.current, NextPageToken: nextPageToken}

	it.current, it.hasCurrent = it.lookahead, it.hasLookahead
	if it.hasLookahead {
		var err error
		it.lookahead, it.hasLookahead, err = it.scan.Next()
		if err != nil {
			return Pair[T]{}, false, err
		}
	}
	if !it.hasCurrent {
		it.releaseScan()
	}
	return pair, true, nil
}

// Close releases the backing scan. Safe to call more than once.
func (it *IntervalIterator[T]) Close() error {
	it.releaseScan()
	return nil
}

func (it *IntervalIterator[T]) releaseScan() {
	if it.scan != nil {
		_ = it.scan.Close()
		it.scan = nil
	}
}
