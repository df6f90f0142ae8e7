package tool

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// GenerateUUIDV7 returns a time ordered id for primary keys and trace ids.
func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// GenerateCompactUUIDV7 is GenerateUUIDV7 without dashes: 32 lowercase hex
// characters, the form the gateway accepts as a reservation number.
func GenerateCompactUUIDV7() string {
	id := uuid.Must(uuid.NewV7())
	return hex.EncodeToString(id[:])
}
