package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/scrumban/core/internal/adapters/docstore"
	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	store  ports.DocumentStore
	logger *logger.Logger
	now    func() time.Time
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(store ports.DocumentStore, logger *logger.Logger) *TaskRepositoryImpl {
	return &TaskRepositoryImpl{
		store:  store,
		logger: logger.WithComponent("task_repository"),
		now:    time.Now,
	}
}

// WithClock replaces the clock used for statusChangedAt.
func (r *TaskRepositoryImpl) WithClock(now func() time.Time) *TaskRepositoryImpl {
	r.now = now
	return r
}

// Create appends the task to the end of its status column. Deployments whose
// tasks collection predates the optional attributes get a second attempt
// carrying only the required ones.
func (r *TaskRepositoryImpl) Create(ctx context.Context, input ports.CreateTaskInput) (*entities.Task, error) {
	status := input.Status
	if status == "" {
		status = entities.TaskStatusTodo
	}
	if !status.IsValid() {
		return nil, entities.ErrInvalidStatus
	}

	existing, err := r.ListByBoard(ctx, input.BoardID)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	tasks := make([]entities.Task, 0, len(existing))
	for _, t := range existing {
		tasks = append(tasks, *t)
	}

	fields := map[string]interface{}{
		fieldTaskBoard:       input.BoardID,
		fieldTitle:           input.Title,
		fieldDescription:     input.Description,
		fieldStatus:          string(status),
		fieldOrder:           entities.NextOrder(tasks, status),
		fieldStatusChangedAt: formatTime(r.now()),
	}
	if input.CreatedBy != "" {
		fields[fieldCreatedBy] = input.CreatedBy
	}
	if input.CreatedByName != "" {
		fields[fieldCreatedByName] = input.CreatedByName
	}

	doc, err := r.store.Create(ctx, ports.CollectionTasks, docstore.NewID(), fields)
	if ports.IsUnknownAttribute(err) {
		r.logger.Infow("Tasks collection lacks optional attributes, retrying with required fields", "board_id", input.BoardID, "error", err)
		required := make(map[string]interface{}, len(requiredTaskFields))
		for _, k := range requiredTaskFields {
			required[k] = fields[k]
		}
		doc, err = r.store.Create(ctx, ports.CollectionTasks, docstore.NewID(), required)
	}
	if err != nil {
		return nil, writeErr("create task", ports.CollectionTasks, err)
	}

	return r.decode(doc), nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.Task, error) {
	doc, err := r.store.Get(ctx, ports.CollectionTasks, id)
	if err != nil {
		return nil, notFound(entities.ErrTaskNotFound, "get task", id, err)
	}
	return r.decode(doc), nil
}

// ListByBoard returns the tasks of boardID in no particular order. A missing
// tasks collection yields no tasks.
func (r *TaskRepositoryImpl) ListByBoard(ctx context.Context, boardID string) ([]*entities.Task, error) {
	docs, err := r.store.List(ctx, ports.CollectionTasks, ports.Eq(fieldTaskBoard, boardID))
	if err != nil {
		if ports.IsNotFound(err) {
			r.logger.Warnw("Tasks collection not found, returning no tasks", "board_id", boardID, "error", err)
			return []*entities.Task{}, nil
		}
		return nil, fmt.Errorf("list tasks of board %s: %w", boardID, err)
	}

	tasks := make([]*entities.Task, 0, len(docs))
	for _, doc := range docs {
		tasks = append(tasks, r.decode(doc))
	}
	return tasks, nil
}

// Update applies patch. When the status changes relative to current, the
// status timestamp is refreshed; if the collection has no such attribute the
// update is retried without it.
func (r *TaskRepositoryImpl) Update(ctx context.Context, id string, patch ports.TaskPatch, current *entities.Task) (*entities.Task, error) {
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, entities.ErrInvalidStatus
	}
	if patch.Order != nil && *patch.Order < 0 {
		return nil, fmt.Errorf("update task %s: order must not be negative", id)
	}

	fields := taskPatchFields(patch)
	stamped := false
	if patch.Status != nil && current != nil && current.Status != *patch.Status {
		fields[fieldStatusChangedAt] = formatTime(r.now())
		stamped = true
	}

	doc, err := r.store.Update(ctx, ports.CollectionTasks, id, fields)
	if stamped && ports.IsUnknownAttribute(err) {
		r.logger.Infow("Tasks collection lacks statusChangedAt, retrying without it", "task_id", id)
		delete(fields, fieldStatusChangedAt)
		doc, err = r.store.Update(ctx, ports.CollectionTasks, id, fields)
	}
	if err != nil {
		return nil, notFound(entities.ErrTaskNotFound, "update task", id, err)
	}

	return r.decode(doc), nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, ports.CollectionTasks, id); err != nil {
		return notFound(entities.ErrTaskNotFound, "delete task", id, err)
	}
	return nil
}

// decode converts a stored task, logging fields that could not be read.
func (r *TaskRepositoryImpl) decode(doc *ports.Document) *entities.Task {
	task, err := decodeTask(doc)
	if err != nil {
		r.logger.Warnw("Task document has an unreadable field", "task_id", doc.ID, "error", err)
	}
	return task
}
