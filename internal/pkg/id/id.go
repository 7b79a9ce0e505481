package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable
// by creation time and safe for use as DynamoDB partition keys.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// NewSession generates a verification-session id in the wire format
// <prefix>_<epoch_ms>_<rand>, where the prefix names the delivery method
// ("wa", "sms", "link"). Clients treat the id as opaque.
func NewSession(prefix string) string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process is unusable anyway.
		panic("id: read random: " + err.Error())
	}
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(b))
}
