package idgen

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/planner/internal/clock"
)

func TestNewRequestID(t *testing.T) {
	clock.NowFunc = func() time.Time { return time.Unix(1700000000, 0) }
	defer func() { clock.NowFunc = time.Now }()

	id := NewRequestID()
	assert.Regexp(t, regexp.MustCompile(`^req_1700000000_[0-9a-f]{6}$`), id)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewRequestID()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
