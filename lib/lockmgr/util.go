package lockmgr

import (
	"github.com/google/uuid"
)

// NewOwnerID creates a new unique owner ID (a random version 4 UUID).
func NewOwnerID() []byte {
	id := uuid.New()
	return id[:]
}
