// Package ids generates record identifiers and team invite codes.
package ids

import (
	"math/big"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	suffixLen = 9
	charset   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewRecordID returns "<kind>-<epoch millis>-<9 base36 chars>"
func NewRecordID(kind string) string {
	return NewRecordIDAt(kind, time.Now())
}

// NewRecordIDAt is NewRecordID with an explicit timestamp
func NewRecordIDAt(kind string, t time.Time) string {
	return kind + "-" + strconv.FormatInt(t.UnixMilli(), 10) + "-" + randomBase36(suffixLen)
}

// randomBase36 draws n lowercase base36 characters from a random UUID
func randomBase36(n int) string {
	u := uuid.New()
	s := new(big.Int).SetBytes(u[:]).Text(36)
	if len(s) < n {
		s = strings.Repeat("0", n-len(s)) + s
	}
	return s[len(s)-n:]
}

// InviteCode returns an uppercase alphanumeric code of the given length
func InviteCode(length int) string {
	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		sb.WriteByte(charset[rand.Intn(len(charset))])
	}
	return sb.String()
}
