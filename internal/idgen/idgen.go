package idgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viant/planner/internal/clock"
)

// NewFunc returns a new globally unique identifier as string. It is a
// variable so tests can stub it.
var NewFunc = func() string { return uuid.New().String() }

func New() string { return NewFunc() }

// NewRequestID returns an approval request identifier in the
// req_<unix-seconds>_<6 hex chars> form. The time prefix keeps file listings
// roughly chronological, the random suffix keeps ids unique within a second.
func NewRequestID() string {
	suffix := strings.ReplaceAll(New(), "-", "")
	if len(suffix) > 6 {
		suffix = suffix[:6]
	}
	return fmt.Sprintf("req_%d_%s", clock.Now().Unix(), suffix)
}
