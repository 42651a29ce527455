package ports

import (
	"errors"
	"fmt"
	"net/http"
)

// Store error types, mirroring the codes a document backend reports.
const (
	StoreErrorDatabaseNotFound   = "database_not_found"
	StoreErrorCollectionNotFound = "collection_not_found"
	StoreErrorDocumentNotFound   = "document_not_found"
	StoreErrorInvalidStructure   = "document_invalid_structure"
	StoreErrorAlreadyExists      = "document_already_exists"
	StoreErrorUnauthorized       = "user_unauthorized"
	StoreErrorUnavailable        = "service_unavailable"
)

// StoreError is returned by every DocumentStore implementation. Code follows
// HTTP semantics so callers can tell a missing schema (404) from an
// unauthorized caller (401) from everything else.
type StoreError struct {
	Code    int
	Type    string
	Message string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error %d (%s): %s", e.Code, e.Type, e.Message)
}

// NewStoreError builds a StoreError.
func NewStoreError(code int, typ, format string, args ...interface{}) *StoreError {
	return &StoreError{Code: code, Type: typ, Message: fmt.Sprintf(format, args...)}
}

// UnknownAttributeError reports a write carrying an attribute the collection schema lacks.
func UnknownAttributeError(collection, attribute string) *StoreError {
	return NewStoreError(http.StatusBadRequest, StoreErrorInvalidStructure,
		"Invalid document structure: Unknown attribute: %q in collection %q", attribute, collection)
}

// StoreErrorCode returns the store code carried by err, or 0.
func StoreErrorCode(err error) int {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// IsNotFound reports any 404 from the store.
func IsNotFound(err error) bool {
	return StoreErrorCode(err) == http.StatusNotFound
}

// IsSchemaMissing reports a 404 caused by a missing database or collection.
func IsSchemaMissing(err error) bool {
	var se *StoreError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		return false
	}
	return se.Type == StoreErrorCollectionNotFound || se.Type == StoreErrorDatabaseNotFound
}

// IsDocumentNotFound reports a 404 for a single missing document.
func IsDocumentNotFound(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Code == http.StatusNotFound && se.Type == StoreErrorDocumentNotFound
}

// IsUnauthorized reports a 401 from the store.
func IsUnauthorized(err error) bool {
	return StoreErrorCode(err) == http.StatusUnauthorized
}

// IsUnknownAttribute reports a rejected write caused by an attribute missing from the schema.
func IsUnknownAttribute(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Code == http.StatusBadRequest && se.Type == StoreErrorInvalidStructure
}
