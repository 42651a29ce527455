package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

// DragActivationDistance is the pointer travel, in pixels, before a drag starts.
const DragActivationDistance = 8.0

// DragActivated reports whether the pointer moved far enough to start a drag.
func DragActivated(distance float64) bool {
	return distance >= DragActivationDistance
}

// TaskStateCoordinator drives status and order transitions of tasks on a board
type TaskStateCoordinator struct {
	taskRepo    ports.TaskRepository
	permissions *PermissionService
	logger      *logger.Logger

	// tasks with a move in flight, across every open board state
	mu     sync.Mutex
	moving map[string]bool
}

// NewTaskStateCoordinator creates a new coordinator
func NewTaskStateCoordinator(taskRepo ports.TaskRepository, permissions *PermissionService, logger *logger.Logger) *TaskStateCoordinator {
	return &TaskStateCoordinator{
		taskRepo:    taskRepo,
		permissions: permissions,
		logger:      logger.WithComponent("task_state"),
		moving:      make(map[string]bool),
	}
}

// claim marks taskID as moving. It fails when another move holds it.
func (c *TaskStateCoordinator) claim(taskID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.moving[taskID] {
		return false
	}
	c.moving[taskID] = true
	return true
}

func (c *TaskStateCoordinator) release(taskID string) {
	c.mu.Lock()
	delete(c.moving, taskID)
	c.mu.Unlock()
}

// Open loads a board and its tasks for principal. Read access is required.
func (c *TaskStateCoordinator) Open(ctx context.Context, principal *entities.Principal, boardID string) (*BoardState, error) {
	board, access, err := c.permissions.boardAccess(ctx, boardID, principal)
	if err != nil {
		return nil, fmt.Errorf("open board: %w", err)
	}
	if !access.CanRead() {
		return nil, denied(principal)
	}

	state := &BoardState{
		coordinator: c,
		principal:   principal,
		board:       board,
		access:      access,
	}
	if err := state.Refresh(ctx); err != nil {
		return nil, err
	}
	return state, nil
}

// BoardState is the in-memory task list of one board as seen by one principal.
type BoardState struct {
	coordinator *TaskStateCoordinator
	principal   *entities.Principal
	board       *entities.Board
	access      entities.AccessResult

	mu    sync.Mutex
	tasks []entities.Task
}

// DragResult describes the outcome of a drag-end.
type DragResult struct {
	Moved bool
	Task  *entities.Task
}

func (b *BoardState) Board() *entities.Board {
	return b.board
}

func (b *BoardState) Access() entities.AccessResult {
	return b.access
}

// CanDrag reports whether the principal may move tasks on this board.
func (b *BoardState) CanDrag() bool {
	return b.access.CanWrite()
}

// Tasks returns a copy of the current task list.
func (b *BoardState) Tasks() []entities.Task {
	b.mu.Lock()
	defer b.mu.Unlock()

	tasks := make([]entities.Task, len(b.tasks))
	for i := range b.tasks {
		tasks[i] = b.tasks[i].Clone()
	}
	return tasks
}

// Columns groups the tasks by status, each column sorted by order.
func (b *BoardState) Columns() map[entities.TaskStatus][]*entities.Task {
	return Columns(b.Tasks())
}

// Columns groups tasks into the board columns, sorted by order then id.
// Every status has an entry, empty columns included.
func Columns(tasks []entities.Task) map[entities.TaskStatus][]*entities.Task {
	columns := make(map[entities.TaskStatus][]*entities.Task, len(entities.TaskStatuses))
	for _, status := range entities.TaskStatuses {
		columns[status] = []*entities.Task{}
	}
	for i := range tasks {
		task := tasks[i]
		columns[task.Status] = append(columns[task.Status], &task)
	}
	for _, column := range columns {
		sort.SliceStable(column, func(i, j int) bool {
			if column[i].Order != column[j].Order {
				return column[i].Order < column[j].Order
			}
			return column[i].ID < column[j].ID
		})
	}
	return columns
}

// Refresh replaces the task list with the authoritative store state.
func (b *BoardState) Refresh(ctx context.Context) error {
	found, err := b.coordinator.taskRepo.ListByBoard(ctx, b.board.ID)
	if err != nil {
		return fmt.Errorf("load board tasks: %w", err)
	}

	tasks := make([]entities.Task, 0, len(found))
	for _, t := range found {
		tasks = append(tasks, *t)
	}

	b.mu.Lock()
	b.tasks = tasks
	b.mu.Unlock()
	return nil
}

// dropStatus derives the destination column of a drop target: a column id,
// then the target's own status, then the status of the task it names.
func (b *BoardState) dropStatus(over *ports.DropTarget) (entities.TaskStatus, bool) {
	if status := entities.TaskStatus(over.ID); status.IsValid() {
		return status, true
	}
	if over.Status.IsValid() {
		return over.Status, true
	}
	for _, t := range b.tasks {
		if t.ID == over.ID {
			return t.Status, true
		}
	}
	return "", false
}

func (b *BoardState) indexOf(taskID string) int {
	for i := range b.tasks {
		if b.tasks[i].ID == taskID {
			return i
		}
	}
	return -1
}

// DragEnd applies a drop of a task onto a target. Drops that do not change
// the task's column are no-ops. The move is applied locally before the store
// write and rolled back if the write fails. A task already being moved
// through any state of the same coordinator is rejected with ErrDragInProgress.
func (b *BoardState) DragEnd(ctx context.Context, event ports.DragRequest) (*DragResult, error) {
	if event.Over == nil {
		return &DragResult{}, nil
	}

	b.mu.Lock()
	idx := b.indexOf(event.TaskID)
	if idx < 0 {
		b.mu.Unlock()
		return nil, entities.ErrTaskNotFound
	}
	newStatus, ok := b.dropStatus(event.Over)
	if !ok || newStatus == b.tasks[idx].Status {
		b.mu.Unlock()
		return &DragResult{}, nil
	}
	if !b.access.CanWrite() {
		b.mu.Unlock()
		return nil, entities.ErrReadOnlyBoard
	}

	if !b.coordinator.claim(event.TaskID) {
		b.mu.Unlock()
		return nil, entities.ErrDragInProgress
	}

	snapshot := b.tasks[idx].Clone()
	newOrder := entities.NextOrder(b.tasks, newStatus)
	b.tasks[idx] = snapshot.MoveTo(newStatus, newOrder)
	b.mu.Unlock()

	updated, err := b.coordinator.taskRepo.Update(ctx, snapshot.ID, ports.TaskPatch{
		Status: &newStatus,
		Order:  &newOrder,
	}, &snapshot)

	b.coordinator.release(event.TaskID)

	b.mu.Lock()
	if err != nil {
		if i := b.indexOf(snapshot.ID); i >= 0 {
			b.tasks[i] = snapshot
		}
		b.mu.Unlock()
		b.coordinator.logger.Warnw("Task move rolled back", "task_id", snapshot.ID, "board_id", b.board.ID, "error", err)
		return nil, fmt.Errorf("move task: %w", err)
	}
	if i := b.indexOf(updated.ID); i >= 0 {
		b.tasks[i] = *updated
	}
	b.mu.Unlock()

	b.coordinator.logger.LogUserAction(b.principal.ID(), "move_task", map[string]interface{}{
		"task_id": updated.ID,
		"from":    snapshot.Status,
		"to":      newStatus,
		"order":   newOrder,
	})

	if err := b.Refresh(ctx); err != nil {
		b.coordinator.logger.Warnw("Board refresh after move failed", "board_id", b.board.ID, "error", err)
	}

	return &DragResult{Moved: true, Task: updated}, nil
}
