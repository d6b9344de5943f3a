package places

import (
	"errors"
	"fmt"

	"github.com/mekedron/placetour/internal/domain"
)

// ErrSuperseded is returned by a search whose result arrived after a newer
// search had started. Nothing is changed by such a search.
var ErrSuperseded = errors.New("search superseded by a newer search")

// SearchErrorKind classifies a failed search.
type SearchErrorKind string

// Search failure kinds.
const (
	KindTransport SearchErrorKind = "transport"
	KindParse     SearchErrorKind = "parse"
)

// SearchError reports a search that produced no result set.
type SearchError struct {
	Kind   SearchErrorKind
	Center domain.GeoPoint
	Err    error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%s error searching near %s: %v", e.Kind, e.Center, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// ParseError reports one search entry that was dropped.
type ParseError struct {
	Index  int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("place #%d: %s", e.Index, e.Reason)
}
