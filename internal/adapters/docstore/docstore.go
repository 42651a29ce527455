// Package docstore implements ports.DocumentStore over several backends.
package docstore

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/scrumban/core/internal/ports"
)

// Schema maps a collection name to the attributes it accepts. A collection
// with no attributes listed accepts any field.
type Schema map[string][]string

// DefaultSchema returns the collections and attributes used by the service.
func DefaultSchema() Schema {
	return Schema{
		ports.CollectionProjects: {
			"name", "description", "requiresAuth", "ownerId", "userId",
		},
		ports.CollectionBoards: {
			"name", "description", "projects", "ownerId", "userId",
		},
		ports.CollectionTasks: {
			"title", "description", "status", "order", "boards",
			"createdBy", "createdByName", "statusChangedAt",
			"assignedTo", "assignedToName", "assignedToEmail",
		},
		ports.CollectionProjectShares: {
			"projectId", "userId", "userEmail", "userName", "permission",
		},
		ports.CollectionBoardShares: {
			"boardId", "userId", "userEmail", "userName", "permission",
		},
		ports.CollectionUsers: {
			"email", "name", "passwordHash",
		},
	}
}

// Without returns a copy of the schema with the given attributes removed from
// collection. Deployments created before an attribute existed look like this.
func (s Schema) Without(collection string, attributes ...string) Schema {
	out := make(Schema, len(s))
	for name, attrs := range s {
		out[name] = append([]string(nil), attrs...)
	}
	drop := make(map[string]bool, len(attributes))
	for _, a := range attributes {
		drop[a] = true
	}
	kept := out[collection][:0]
	for _, a := range out[collection] {
		if !drop[a] {
			kept = append(kept, a)
		}
	}
	out[collection] = kept
	return out
}

// Collections returns the collection names in a stable order.
func (s Schema) Collections() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewID returns a new document id.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// checkAttributes rejects the first field not present in attrs.
func checkAttributes(collection string, attrs []string, fields map[string]interface{}) error {
	if len(attrs) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		allowed[a] = true
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !allowed[k] {
			return ports.UnknownAttributeError(collection, k)
		}
	}
	return nil
}

func copyFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// matches reports whether every filter equals the string form of the field.
func matches(fields map[string]interface{}, filters []ports.Filter) bool {
	for _, f := range filters {
		v, ok := fields[f.Field]
		if !ok || v == nil {
			return false
		}
		if s, isString := v.(string); isString {
			if s != f.Value {
				return false
			}
			continue
		}
		if fmt.Sprint(v) != f.Value {
			return false
		}
	}
	return true
}

func collectionNotFound(collection string) *ports.StoreError {
	return ports.NewStoreError(http.StatusNotFound, ports.StoreErrorCollectionNotFound, "Collection with the requested ID %q could not be found", collection)
}

func documentNotFound(collection, id string) *ports.StoreError {
	return ports.NewStoreError(http.StatusNotFound, ports.StoreErrorDocumentNotFound, "Document %q not found in collection %q", id, collection)
}

func documentExists(collection, id string) *ports.StoreError {
	return ports.NewStoreError(http.StatusConflict, ports.StoreErrorAlreadyExists, "Document %q already exists in collection %q", id, collection)
}

func unavailable(err error) *ports.StoreError {
	return ports.NewStoreError(http.StatusServiceUnavailable, ports.StoreErrorUnavailable, "%v", err)
}
