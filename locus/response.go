package locus

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

// DefaultMaxResponseBytes is the default approximate serialized-size budget
// for one search response. It is a safety valve against unbounded single
// responses, independent of the page-size cap.
const DefaultMaxResponseBytes = 1 << 20 // 1 MiB

// SearchResponseBuilder accumulates result objects into one search response
// while two budgets hold: a page-size cap on the object count and an
// approximate byte cap on the serialized size. The next-page token is handed
// in by the generator that produced the last accepted object — it is never
// recomputed here, so it reflects the iterator's exact resumption state even
// when the byte budget, not the count budget, truncated the page.
type SearchResponseBuilder struct {
	listField        string
	pageSize         int32
	maxResponseBytes int

	values        []jsoniter.RawMessage
	valueBytes    int
	nextPageToken string
}

// NewSearchResponseBuilder returns a builder whose response carries its
// result array under listField (for example "variants").
func NewSearchResponseBuilder(listField string, pageSize int32, maxResponseBytes int) *SearchResponseBuilder {
	return &SearchResponseBuilder{
		listField:        listField,
		pageSize:         pageSize,
		maxResponseBytes: maxResponseBytes,
	}
}

// AddValue serializes and appends one result object.
func (b *SearchResponseBuilder) AddValue(obj any) error {
	raw, err := jsonCodec.Marshal(obj)
	if err != nil {
		return err
	}
	b.values = append(b.values, raw)
	b.valueBytes += len(raw)
	return nil
}

// IsFull reports whether either budget is reached.
func (b *SearchResponseBuilder) IsFull() bool {
	return int32(len(b.values)) >= b.pageSize || b.valueBytes >= b.maxResponseBytes
}

// SetNextPageToken records the resumption token of the last accepted object.
// An empty token means no further objects exist and is omitted on the wire.
func (b *SearchResponseBuilder) SetNextPageToken(token string) {
	b.nextPageToken = token
}

// NumValues returns the number of accepted objects.
func (b *SearchResponseBuilder) NumValues() int { return len(b.values) }

// MarshalResponse renders the response JSON.
func (b *SearchResponseBuilder) MarshalResponse() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	key, err := jsonCodec.Marshal(b.listField)
	if err != nil {
		return nil, err
	}
	buf.Write(key)
	buf.WriteByte(':')
	buf.WriteByte('[')
	for i, raw := range b.values {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(raw)
	}
	buf.WriteByte(']')
	if b.nextPageToken != "" {
		token, err := jsonCodec.Marshal(b.nextPageToken)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"nextPageToken":`)
		buf.Write(token)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
