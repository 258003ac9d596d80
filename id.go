package morm

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NextID returns a 50-character primary key: the current time in milliseconds
// zero-padded to 15 digits, 32 hex digits of a random UUID, and "000".
// Keys generated later sort after earlier ones.
func NextID() string {
	u := uuid.New()
	return fmt.Sprintf("%015d%s000", time.Now().UnixMilli(), hex.EncodeToString(u[:]))
}

// Now returns the current Unix time in seconds with sub-second precision,
// suitable as the default of a FloatField timestamp.
func Now() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
