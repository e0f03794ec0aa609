package models

import (
	"encoding/hex"
	"fmt"

	uuid "github.com/satori/go.uuid"
)

// uuidGenerators are tried in order until one succeeds.
var uuidGenerators = []func() (uuid.UUID, error){uuid.NewV1, uuid.NewV4}

// newUUID returns a time based identifier as 32 hex digits. Version 1 UUIDs bump
// their clock sequence when the clock has not advanced, so identifiers never repeat
// within a process. A random identifier is used when no hardware address or clock
// is available. It panics when no identifier can be generated at all.
func newUUID() string {
	var err error
	for _, gen := range uuidGenerators {
		var u uuid.UUID
		if u, err = gen(); err == nil {
			return hex.EncodeToString(u.Bytes())
		}
	}
	panic(fmt.Errorf("models: cannot generate identifier: %w", err))
}
