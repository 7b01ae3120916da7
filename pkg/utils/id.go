package utils

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// GenerateShortID returns an 8-char hex identifier prefixed by the creation
// second. Used for artifact filenames (plots) where uniqueness per process
// is enough and readability matters.
func GenerateShortID() string {
	var b [6]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(time.Now().Unix()))
	_, _ = rand.Read(b[4:6])
	return hex.EncodeToString(b[:])
}
