package ids

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRecordIDAt(t *testing.T) {
	ts := time.UnixMilli(1740830400000)
	id := NewRecordIDAt("hackathon", ts)

	assert.Regexp(t, regexp.MustCompile(`^hackathon-1740830400000-[0-9a-z]{9}$`), id)
}

func TestNewRecordID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewRecordID("team")
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestInviteCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{8}$`), InviteCode(8))
	}
}
