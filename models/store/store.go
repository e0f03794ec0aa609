// Package store keeps persisted model records in a key-value store, keyed by object
// identifier.
package store

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/Haiqian-MA/PyXRD/models"
	"github.com/Haiqian-MA/PyXRD/models/persist"
)

// ErrNotFound is returned by Get and Delete for unknown keys.
var ErrNotFound = errors.New("store: not found")

// Store is a key-value store for serialized records.
type Store interface {
	Put(ctx context.Context, id string, data []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error
	// Keys returns all keys in ascending order.
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Save writes the record of every object under its identifier.
func Save(ctx context.Context, s Store, objs ...*models.Object) error {
	for _, o := range objs {
		data, err := json.Marshal(persist.NewRecord(o))
		if err != nil {
			return errors.Wrapf(err, "store: encode %s", o)
		}
		if err := s.Put(ctx, o.UUID(), data); err != nil {
			return errors.Wrapf(err, "store: put %s", o)
		}
	}
	return nil
}

// Load decodes every stored record with d and then resolves references once, so
// records may refer to each other in any order.
func Load(ctx context.Context, s Store, d *persist.Decoder) ([]*models.Object, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "store: list keys")
	}

	doc := persist.Document{Version: persist.Version}
	for _, key := range keys {
		data, err := s.Get(ctx, key)
		if err != nil {
			return nil, errors.Wrapf(err, "store: get %s", key)
		}
		var rec persist.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, errors.Wrapf(err, "store: decode %s", key)
		}
		doc.Objects = append(doc.Objects, rec)
	}
	return d.DecodeDocument(doc)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
