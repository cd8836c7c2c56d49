// Package identity resolves a stable cross-package identity per object uuid.
package identity

import (
	"log/slog"
	"sort"

	mergeerr "github.com/emenda-labs/mergeassist/core/errors"
	"github.com/emenda-labs/mergeassist/core/mergespec"
	"github.com/emenda-labs/mergeassist/drivers/appian/objects"
	"github.com/emenda-labs/mergeassist/pkg/logging"
)

// Registry assigns integer handles to object uuids for one merge session.
//
// Resolve is the only mutating operation and is not safe for concurrent use.
// Once resolution is finished, lookups may be shared freely between goroutines.
type Registry struct {
	byUUID     map[string]mergespec.Handle
	identities []mergespec.Identity
	declared   []string
	conflicts  []*mergeerr.IdentityConflictError
	logger     *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger discards output.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Registry{
		byUUID: make(map[string]mergespec.Handle),
		logger: logger,
	}
}

// Resolve returns the identity for uuid, creating it on first sight.
// Later calls refresh the name when a non-empty one is given.
//
// Asserting a uuid with an object type different from the one it was first
// registered with downgrades the identity to objects.Unknown and returns the
// identity together with an *errors.IdentityConflictError. The identity stays
// usable; callers record the error and continue.
func (r *Registry) Resolve(uuid, name, objectType string) (mergespec.Identity, error) {
	h, ok := r.byUUID[uuid]
	if !ok {
		h = mergespec.Handle(len(r.identities))
		r.byUUID[uuid] = h
		r.identities = append(r.identities, mergespec.Identity{
			Handle:     h,
			UUID:       uuid,
			ObjectType: objectType,
			Name:       name,
		})
		r.declared = append(r.declared, objectType)
		return r.identities[h], nil
	}

	id := &r.identities[h]
	if name != "" {
		id.Name = name
	}
	if objectType == r.declared[h] {
		return *id, nil
	}

	conflict := &mergeerr.IdentityConflictError{UUID: uuid, Existing: r.declared[h], Asserted: objectType}
	if id.ObjectType != objects.Unknown {
		r.logger.Warn("Identity type conflict, downgrading to Unknown",
			"uuid", uuid, "registered", r.declared[h], "asserted", objectType)
		id.ObjectType = objects.Unknown
	}
	r.conflicts = append(r.conflicts, conflict)
	return *id, conflict
}

// Lookup returns the identity for a handle.
func (r *Registry) Lookup(h mergespec.Handle) (mergespec.Identity, bool) {
	if h < 0 || int(h) >= len(r.identities) {
		return mergespec.Identity{}, false
	}
	return r.identities[h], true
}

// ByUUID returns the identity registered for uuid.
func (r *Registry) ByUUID(uuid string) (mergespec.Identity, bool) {
	h, ok := r.byUUID[uuid]
	if !ok {
		return mergespec.Identity{}, false
	}
	return r.identities[h], true
}

// All returns every identity in handle order.
func (r *Registry) All() []mergespec.Identity {
	out := make([]mergespec.Identity, len(r.identities))
	copy(out, r.identities)
	return out
}

// Len returns the number of registered identities.
func (r *Registry) Len() int {
	return len(r.identities)
}

// Conflicts returns every identity conflict recorded so far, in order of detection.
func (r *Registry) Conflicts() []*mergeerr.IdentityConflictError {
	out := make([]*mergeerr.IdentityConflictError, len(r.conflicts))
	copy(out, r.conflicts)
	return out
}

// ResolveTriple registers every object of the three packages in a single
// deterministic pass: packages in A, B, C order, uuids sorted within each.
// Names are therefore refreshed to the newest package's name. Identity
// conflicts are returned keyed by uuid; the pass never stops on them.
func (r *Registry) ResolveTriple(t mergespec.Triple) map[string][]error {
	failures := make(map[string][]error)
	for _, pkg := range t.Packages() {
		for _, uuid := range pkg.SortedUUIDs() {
			v := pkg.Objects[uuid]
			if _, err := r.Resolve(uuid, v.Name, v.ObjectType); err != nil {
				failures[uuid] = append(failures[uuid], err)
			}
		}
	}
	return failures
}

// SortedByDisplay returns identities ordered by (object type, name, uuid).
func SortedByDisplay(ids []mergespec.Identity) []mergespec.Identity {
	out := make([]mergespec.Identity, len(ids))
	copy(out, ids)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ObjectType != out[j].ObjectType {
			return out[i].ObjectType < out[j].ObjectType
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].UUID < out[j].UUID
	})
	return out
}
