package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// KindInfo contains display information about an importable entity kind.
type KindInfo struct {
	Key        string   `json:"key"`         // Unique identifier: "title"
	Label      string   `json:"label"`       // Display name: "Titles"
	NaturalKey []string `json:"natural_key"` // Fields forming the duplicate-detection key
	Fields     []string `json:"fields"`      // Accepted candidate fields
}

// NaturalKey is the ordered list of field values that identify a record for
// duplicate detection.
type NaturalKey []string

// String renders the key for reports and logs.
func (k NaturalKey) String() string {
	return strings.Join(k, " | ")
}

// Existing is a stored record found by natural-key lookup.
type Existing struct {
	ID     int64
	Record any
}

// KindDefinition contains everything the orchestrator needs to import one
// entity kind. Candidates travel through it as the kind's own record type,
// boxed in any; use Kind[T] to build one with compile-time types.
type KindDefinition struct {
	Info KindInfo

	Decode     func(raw json.RawMessage) (any, error)
	Validate   func(candidate any) error
	NaturalKey func(candidate any) NaturalKey
	Lookup     func(ctx context.Context, db DBTX, key NaturalKey) (*Existing, error)
	Insert     func(ctx context.Context, db DBTX, candidate any) (int64, error)
	Merge      func(existing, candidate any) any
	Update     func(ctx context.Context, db DBTX, id int64, merged any) error
}

// Kind describes an entity kind with a concrete record type T.
//
// Merge must copy only allow-listed fields and only when the candidate's
// value is non-nil, so absent candidate fields never overwrite stored values.
// Lookup returns (nil, 0, nil) when no record matches.
type Kind[T any] struct {
	Key        string
	Label      string
	KeyFields  []string
	Fields     []string
	Normalize  func(*T) // optional, runs after decoding
	Validate   func(*T) error
	NaturalKey func(*T) NaturalKey
	Lookup     func(ctx context.Context, db DBTX, key NaturalKey) (*T, int64, error)
	Insert     func(ctx context.Context, db DBTX, rec *T) (int64, error)
	Merge      func(existing, candidate *T) *T
	Update     func(ctx context.Context, db DBTX, id int64, rec *T) error
}

// Definition erases T so the kind can live in the registry.
func (k Kind[T]) Definition() KindDefinition {
	return KindDefinition{
		Info: KindInfo{
			Key:        k.Key,
			Label:      k.Label,
			NaturalKey: k.KeyFields,
			Fields:     k.Fields,
		},
		Decode: func(raw json.RawMessage) (any, error) {
			rec := new(T)
			if err := json.Unmarshal(raw, rec); err != nil {
				return nil, err
			}
			if k.Normalize != nil {
				k.Normalize(rec)
			}
			return rec, nil
		},
		Validate: func(c any) error {
			return k.Validate(c.(*T))
		},
		NaturalKey: func(c any) NaturalKey {
			return k.NaturalKey(c.(*T))
		},
		Lookup: func(ctx context.Context, db DBTX, key NaturalKey) (*Existing, error) {
			rec, id, err := k.Lookup(ctx, db, key)
			if err != nil || rec == nil {
				return nil, err
			}
			return &Existing{ID: id, Record: rec}, nil
		},
		Insert: func(ctx context.Context, db DBTX, c any) (int64, error) {
			return k.Insert(ctx, db, c.(*T))
		},
		Merge: func(existing, c any) any {
			return k.Merge(existing.(*T), c.(*T))
		},
		Update: func(ctx context.Context, db DBTX, id int64, merged any) error {
			return k.Update(ctx, db, id, merged.(*T))
		},
	}
}

var (
	registry   = make(map[string]KindDefinition)
	registryMu sync.RWMutex
)

// Register adds a kind definition to the registry.
// Panics if a kind with the same key is already registered.
func Register(def KindDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("kind already registered: %s", def.Info.Key))
	}
	registry[def.Info.Key] = def
}

// Get returns a kind definition by key.
func Get(key string) (KindDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered kinds sorted by key.
func All() []KindDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]KindDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})
	return result
}

// Kinds returns the info of every registered kind, sorted by key.
func Kinds() []KindInfo {
	defs := All()
	infos := make([]KindInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// KindCount returns the number of registered kinds.
func KindCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Unregister removes a kind. Primarily useful for tests that register
// throwaway kinds.
func Unregister(key string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, key)
}
