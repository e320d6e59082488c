package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFull(t *testing.T) {
	v, c, d := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = v, c, d })

	Version, Commit, Date = "dev", "unknown", "unknown"
	assert.Equal(t, "dev", Full())

	Version, Commit, Date = "1.2.0", "abc1234", "2026-10-01"
	assert.Equal(t, "1.2.0 (abc1234, 2026-10-01)", Full())
}
