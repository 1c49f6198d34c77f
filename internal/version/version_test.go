package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	oldV, oldC := Version, GitCommit
	defer func() { Version, GitCommit = oldV, oldC }()

	Version, GitCommit = "1.2.3", "abc123"
	s := String()
	assert.Contains(t, s, "v1.2.3")
	assert.Contains(t, s, "abc123")
}
