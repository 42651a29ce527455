package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/ports"
)

// Store attribute names. Board and task relations keep the names the
// collections were created with: a board points at its project through
// "projects" and a task at its board through "boards".
const (
	fieldName            = "name"
	fieldDescription     = "description"
	fieldRequiresAuth    = "requiresAuth"
	fieldOwnerID         = "ownerId"
	fieldLegacyUserID    = "userId"
	fieldBoardProject    = "projects"
	fieldTaskBoard       = "boards"
	fieldTitle           = "title"
	fieldStatus          = "status"
	fieldOrder           = "order"
	fieldCreatedBy       = "createdBy"
	fieldCreatedByName   = "createdByName"
	fieldStatusChangedAt = "statusChangedAt"
	fieldAssignedTo      = "assignedTo"
	fieldAssignedToName  = "assignedToName"
	fieldAssignedToEmail = "assignedToEmail"
	fieldShareProject    = "projectId"
	fieldShareBoard      = "boardId"
	fieldShareUserID     = "userId"
	fieldShareUserEmail  = "userEmail"
	fieldShareUserName   = "userName"
	fieldPermission      = "permission"
	fieldEmail           = "email"
	fieldPasswordHash    = "passwordHash"
)

// requiredTaskFields are the task attributes every deployment has.
var requiredTaskFields = []string{fieldTaskBoard, fieldTitle, fieldDescription, fieldStatus, fieldOrder}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func getString(fields map[string]interface{}, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case map[string]interface{}:
		// expanded relationship
		if id, ok := v["$id"].(string); ok {
			return id
		}
		if id, ok := v["id"].(string); ok {
			return id
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func getBool(fields map[string]interface{}, key string) bool {
	switch v := fields[key].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v == "true"
	default:
		return false
	}
}

// getInt reads a numeric field. A missing field is 0; a value that is not a
// number is reported and read as 0.
func getInt(fields map[string]interface{}, key string) (int, error) {
	switch v := fields[key].(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("field %s: %w", key, err)
		}
		return int(f), nil
	default:
		return 0, fmt.Errorf("field %s: unexpected %T value", key, v)
	}
}

func getTime(fields map[string]interface{}, key string) *time.Time {
	switch v := fields[key].(type) {
	case string:
		if v == "" {
			return nil
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil
		}
		return &t
	case time.Time:
		t := v.UTC()
		return &t
	default:
		return nil
	}
}

func projectFields(p *entities.Project) map[string]interface{} {
	return map[string]interface{}{
		fieldName:         p.Name,
		fieldDescription:  p.Description,
		fieldRequiresAuth: p.RequiresAuth,
		fieldOwnerID:      p.OwnerID,
		fieldLegacyUserID: p.OwnerID,
	}
}

func decodeProject(doc *ports.Document) *entities.Project {
	return &entities.Project{
		ID:           doc.ID,
		Name:         getString(doc.Fields, fieldName),
		Description:  getString(doc.Fields, fieldDescription),
		RequiresAuth: getBool(doc.Fields, fieldRequiresAuth),
		OwnerID:      getString(doc.Fields, fieldOwnerID),
		LegacyUserID: getString(doc.Fields, fieldLegacyUserID),
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

func boardFields(b *entities.Board) map[string]interface{} {
	return map[string]interface{}{
		fieldBoardProject: b.ProjectID,
		fieldName:         b.Name,
		fieldDescription:  b.Description,
		fieldOwnerID:      b.OwnerID,
		fieldLegacyUserID: b.OwnerID,
	}
}

func decodeBoard(doc *ports.Document) *entities.Board {
	return &entities.Board{
		ID:           doc.ID,
		ProjectID:    getString(doc.Fields, fieldBoardProject),
		Name:         getString(doc.Fields, fieldName),
		Description:  getString(doc.Fields, fieldDescription),
		OwnerID:      getString(doc.Fields, fieldOwnerID),
		LegacyUserID: getString(doc.Fields, fieldLegacyUserID),
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

// decodeTask converts a task document. The task is always returned; err
// describes a field that could not be read.
func decodeTask(doc *ports.Document) (*entities.Task, error) {
	order, err := getInt(doc.Fields, fieldOrder)
	return &entities.Task{
		ID:              doc.ID,
		BoardID:         getString(doc.Fields, fieldTaskBoard),
		Title:           getString(doc.Fields, fieldTitle),
		Description:     getString(doc.Fields, fieldDescription),
		Status:          entities.TaskStatus(getString(doc.Fields, fieldStatus)),
		Order:           order,
		CreatedBy:       getString(doc.Fields, fieldCreatedBy),
		CreatedByName:   getString(doc.Fields, fieldCreatedByName),
		StatusChangedAt: getTime(doc.Fields, fieldStatusChangedAt),
		AssignedTo:      getString(doc.Fields, fieldAssignedTo),
		AssignedToName:  getString(doc.Fields, fieldAssignedToName),
		AssignedToEmail: getString(doc.Fields, fieldAssignedToEmail),
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}, err
}

func taskPatchFields(p ports.TaskPatch) map[string]interface{} {
	fields := map[string]interface{}{}
	if p.Title != nil {
		fields[fieldTitle] = *p.Title
	}
	if p.Description != nil {
		fields[fieldDescription] = *p.Description
	}
	if p.Status != nil {
		fields[fieldStatus] = string(*p.Status)
	}
	if p.Order != nil {
		fields[fieldOrder] = *p.Order
	}
	if p.AssignedTo != nil {
		fields[fieldAssignedTo] = *p.AssignedTo
	}
	if p.AssignedToName != nil {
		fields[fieldAssignedToName] = *p.AssignedToName
	}
	if p.AssignedToEmail != nil {
		fields[fieldAssignedToEmail] = *p.AssignedToEmail
	}
	return fields
}

func decodeProjectShare(doc *ports.Document) *entities.ProjectShare {
	return &entities.ProjectShare{
		ID:         doc.ID,
		ProjectID:  getString(doc.Fields, fieldShareProject),
		UserID:     getString(doc.Fields, fieldShareUserID),
		UserEmail:  getString(doc.Fields, fieldShareUserEmail),
		UserName:   getString(doc.Fields, fieldShareUserName),
		Permission: entities.Permission(getString(doc.Fields, fieldPermission)),
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

func decodeBoardShare(doc *ports.Document) *entities.BoardShare {
	return &entities.BoardShare{
		ID:         doc.ID,
		BoardID:    getString(doc.Fields, fieldShareBoard),
		UserID:     getString(doc.Fields, fieldShareUserID),
		UserEmail:  getString(doc.Fields, fieldShareUserEmail),
		UserName:   getString(doc.Fields, fieldShareUserName),
		Permission: entities.Permission(getString(doc.Fields, fieldPermission)),
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

func decodeUser(doc *ports.Document) *entities.User {
	return &entities.User{
		ID:           doc.ID,
		Email:        getString(doc.Fields, fieldEmail),
		Name:         getString(doc.Fields, fieldName),
		PasswordHash: getString(doc.Fields, fieldPasswordHash),
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

// notFound marks err with the entity sentinel when the document is missing.
func notFound(sentinel error, op, id string, err error) error {
	if ports.IsNotFound(err) {
		return fmt.Errorf("%s %s: %w: %w", op, id, sentinel, err)
	}
	return fmt.Errorf("%s %s: %w", op, id, err)
}

// writeErr names the missing collection when a write hits an absent schema.
func writeErr(op, collection string, err error) error {
	if ports.IsSchemaMissing(err) {
		return fmt.Errorf("%s: collection %q is missing from the document store, create it before writing: %w", op, collection, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
