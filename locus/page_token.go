package locus

import (
	"strconv"
	"strings"
)

// pageTokenDelimiter separates the integer segments of a page token.
const pageTokenDelimiter = ":"

// ParsePageToken parses a page token into exactly arity non-negative
// integers. Page tokens consist of a fixed number of integers separated by
// colons; any deviation is a BadPageTokenError.
func ParsePageToken(token string, arity int) ([]int64, error) {
	segments := strings.Split(token, pageTokenDelimiter)
	if len(segments) != arity {
		return nil, &BadPageTokenError{Token: token, Reason: "invalid number of values"}
	}
	values := make([]int64, len(segments))
	for i, segment := range segments {
		v, err := strconv.ParseInt(segment, 10, 64)
		if err != nil {
			return nil, &BadPageTokenError{Token: token, Reason: "malformed integer"}
		}
		if v < 0 {
			return nil, &BadPageTokenError{Token: token, Reason: "negative value"}
		}
		values[i] = v
	}
	return values, nil
}

// FormatPageToken renders integer cursor values as a page token.
func FormatPageToken(values ...int64) string {
	segments := make([]string, len(values))
	for i, v := range values {
		segments[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(segments, pageTokenDelimiter)
}
