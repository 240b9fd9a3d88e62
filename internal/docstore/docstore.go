// Package docstore defines the document-store collaborator used by the
// repositories: schemaless JSON documents grouped into named collections,
// addressed by string ids, with server-assigned timestamps.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrInvalidField is returned when a filter or order field is not a plain identifier.
var ErrInvalidField = errors.New("invalid field name")

var fieldRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Fields is a set of top-level document fields to write.
type Fields map[string]any

// Document is a stored document with its id.
type Document struct {
	ID   string
	Data map[string]any
}

// Filter is an equality condition on a top-level string field.
type Filter struct {
	Field string
	Value string
}

// Query selects documents of one collection. Documents missing the OrderBy
// field are excluded from ordered results.
type Query struct {
	Where   []Filter
	OrderBy string
}

// Store is the document-store collaborator.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	List(ctx context.Context, collection string, q Query) ([]Document, error)
	// Insert writes a new document and returns the id assigned by the store.
	Insert(ctx context.Context, collection string, fields Fields) (string, error)
	// Set creates or replaces the document with the given id.
	Set(ctx context.Context, collection, id string, fields Fields) error
	// MergeUpdate overwrites the given top-level fields and leaves the rest
	// untouched. Returns ErrNotFound if the document does not exist.
	MergeUpdate(ctx context.Context, collection, id string, fields Fields) error
	// Remove deletes a document. Removing a missing document is not an error.
	Remove(ctx context.Context, collection, id string) error
	Ping(ctx context.Context) error
	Close() error
}

type serverTimestamp struct{}

// ServerTimestamp is a field value placeholder replaced by the store's own
// clock at write time.
var ServerTimestamp any = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp placeholder.
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// Split separates plain values from server timestamp placeholders. The
// returned stamp keys are sorted.
func (f Fields) Split() (Fields, []string) {
	plain := make(Fields, len(f))
	var stamps []string
	for k, v := range f {
		if IsServerTimestamp(v) {
			stamps = append(stamps, k)
			continue
		}
		plain[k] = v
	}
	sort.Strings(stamps)
	return plain, stamps
}

// Clone returns a shallow copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// ValidField reports whether name can be used as a filter or order field.
func ValidField(name string) bool {
	return fieldRegex.MatchString(name)
}

// CheckQuery validates every field referenced by q.
func CheckQuery(q Query) error {
	for _, f := range q.Where {
		if !ValidField(f.Field) {
			return fmt.Errorf("%w: %q", ErrInvalidField, f.Field)
		}
	}
	if q.OrderBy != "" && !ValidField(q.OrderBy) {
		return fmt.Errorf("%w: %q", ErrInvalidField, q.OrderBy)
	}
	return nil
}

// Decode unmarshals the document, including its id under the "id" key, into v.
func (d Document) Decode(v any) error {
	data := make(map[string]any, len(d.Data)+1)
	for k, val := range d.Data {
		data[k] = val
	}
	data["id"] = d.ID

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding document %s: %w", d.ID, err)
	}
	return nil
}

// Normalize converts fields to their plain JSON representation (maps,
// slices, strings, float64, bool, nil).
func Normalize(f Fields) (map[string]any, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encoding fields: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding fields: %w", err)
	}
	return out, nil
}
