package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/scrumban/core/internal/adapters/docstore"
	"github.com/scrumban/core/internal/adapters/repository"
	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/infrastructure/logger"
	"github.com/scrumban/core/internal/ports"
)

var (
	alice = &entities.Principal{UserID: "a", DisplayName: "Alice", Email: "alice@example.com"}
	bob   = &entities.Principal{UserID: "b", DisplayName: "Bob", Email: "bob@example.com"}
	carol = &entities.Principal{UserID: "c", DisplayName: "Carol", Email: "carol@example.com"}
)

// flakyStore fails every Update while failUpdates is set, every Get on the
// collections in failGets and every List on the collections in failLists.
// When entered is set, Update announces itself there and waits for release.
type flakyStore struct {
	ports.DocumentStore
	failUpdates bool
	failGets    map[string]bool
	failLists   map[string]int
	updates     int

	entered chan struct{}
	release chan struct{}
}

func (s *flakyStore) Update(ctx context.Context, collection, id string, patch map[string]interface{}) (*ports.Document, error) {
	s.updates++
	if s.entered != nil {
		s.entered <- struct{}{}
		<-s.release
	}
	if s.failUpdates {
		return nil, ports.NewStoreError(http.StatusServiceUnavailable, ports.StoreErrorUnavailable, "backend down")
	}
	return s.DocumentStore.Update(ctx, collection, id, patch)
}

func (s *flakyStore) Get(ctx context.Context, collection, id string) (*ports.Document, error) {
	if s.failGets[collection] {
		return nil, ports.NewStoreError(http.StatusServiceUnavailable, ports.StoreErrorUnavailable, "backend down")
	}
	return s.DocumentStore.Get(ctx, collection, id)
}

func (s *flakyStore) List(ctx context.Context, collection string, filters ...ports.Filter) ([]*ports.Document, error) {
	if code, ok := s.failLists[collection]; ok {
		return nil, ports.NewStoreError(code, "store_error", "listing %s refused", collection)
	}
	return s.DocumentStore.List(ctx, collection, filters...)
}

type fixture struct {
	store       *flakyStore
	users       ports.UserRepository
	shares      ports.ShareRepository
	tasks       *repository.TaskRepositoryImpl
	permissions *PermissionService
	coordinator *TaskStateCoordinator
	projects    *ProjectService
	boards      *BoardService
	taskSvc     *TaskService
	shareSvc    *ShareService
}

func newFixture(t *testing.T, schema docstore.Schema) *fixture {
	t.Helper()
	log := logger.NewNop()

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	clock := func() func() time.Time {
		now := start
		return func() time.Time {
			now = now.Add(time.Second)
			return now
		}
	}

	store := &flakyStore{DocumentStore: docstore.NewMemoryStore(schema).WithClock(clock())}
	f := &fixture{
		store:  store,
		users:  repository.NewUserRepository(store),
		shares: repository.NewShareRepository(store, log),
		tasks:  repository.NewTaskRepository(store, log).WithClock(clock()),
	}
	projectRepo := repository.NewProjectRepository(store, log)
	boardRepo := repository.NewBoardRepository(store, log)

	f.permissions = NewPermissionService(projectRepo, boardRepo, f.shares, log)
	f.coordinator = NewTaskStateCoordinator(f.tasks, f.permissions, log)
	f.projects = NewProjectService(projectRepo, f.permissions, log)
	f.boards = NewBoardService(boardRepo, f.shares, f.permissions, log)
	f.taskSvc = NewTaskService(f.tasks, f.permissions, f.coordinator, log)
	f.shareSvc = NewShareService(f.shares, f.users, f.permissions, log)

	for _, p := range []*entities.Principal{alice, bob, carol} {
		if err := f.users.Create(context.Background(), &entities.User{ID: p.UserID, Email: p.Email, Name: p.DisplayName}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	return f
}

// seed creates a project owned by alice with one board and the given todo tasks.
func (f *fixture) seed(t *testing.T, requiresAuth bool, titles ...string) (*entities.Project, *entities.Board, []*entities.Task) {
	t.Helper()
	ctx := context.Background()

	project, err := f.projects.CreateProject(ctx, alice, ports.CreateProjectRequest{Name: "P", RequiresAuth: requiresAuth})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	board, err := f.boards.CreateBoard(ctx, alice, project.ID, ports.CreateBoardRequest{Name: "B"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var tasks []*entities.Task
	for _, title := range titles {
		task, err := f.taskSvc.CreateTask(ctx, alice, board.ID, ports.CreateTaskRequest{Title: title})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tasks = append(tasks, task)
	}
	return project, board, tasks
}

func expectAccess(t *testing.T, got entities.AccessResult, has bool, perm entities.Permission, owner bool) {
	t.Helper()
	if got.HasAccess != has || got.Permission != perm || got.IsOwner != owner {
		t.Fatalf("expected {%v %q %v}, got %+v", has, perm, owner, got)
	}
}

func TestOwnerKeepsWriteRegardlessOfShares(t *testing.T) {
	f := newFixture(t, docstore.DefaultSchema())
	ctx := context.Background()
	project, board, _ := f.seed(t, true)

	share, err := f.shares.InviteToProject(ctx, project.ID, alice.Email, entities.PermissionRead, "x", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := f.shares.ClaimProjectShare(ctx, share.ID, alice.UserID, alice.DisplayName); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	expectAccess(t, f.permissions.CheckProjectPermission(ctx, project.ID, alice), true, entities.PermissionWrite, true)
	expectAccess(t, f.permissions.CheckBoardPermission(ctx, board.ID, alice), true, entities.PermissionWrite, true)
}

func TestReadShareCannotWrite(t *testing.T) {
	f := newFixture(t, docstore.DefaultSchema())
	ctx := context.Background()
	_, board, tasks := f.seed(t, true, "x")

	if _, err := f.shareSvc.InviteToBoard(ctx, alice, board.ID, ports.InviteRequest{Email: bob.Email, Permission: entities.PermissionRead}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	expectAccess(t, f.permissions.CheckBoardPermission(ctx, board.ID, bob), true, entities.PermissionRead, false)

	writes := f.store.updates
	done := entities.TaskStatusDone
	if _, err := f.taskSvc.UpdateTask(ctx, bob, tasks[0].ID, ports.UpdateTaskRequest{Status: &done}); !errors.Is(err, entities.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	_, err := f.taskSvc.MoveTask(ctx, bob, board.ID, ports.DragRequest{TaskID: tasks[0].ID, Over: &ports.DropTarget{ID: "done"}})
	if !errors.Is(err, entities.ErrReadOnlyBoard) {
		t.Fatalf("expected ErrReadOnlyBoard, got %v", err)
	}
	if err.Error() != "You only have read access to this board" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if f.store.updates != writes {
		t.Fatalf("expected no store writes, got %d", f.store.updates-writes)
	}

	stored, err := f.tasks.GetByID(ctx, tasks[0].ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if stored.Status != entities.TaskStatusTodo {
		t.Fatalf("expected task untouched, got %s", stored.Status)
	}
}

func TestProjectWriteShareInheritedByBoard(t *testing.T) {
	f := newFixture(t, docstore.DefaultSchema())
	ctx := context.Background()
	project, board, tasks := f.seed(t, true, "x")

	if _, err := f.shareSvc.InviteToProject(ctx, alice, project.ID, ports.InviteRequest{Email: carol.Email, Permission: entities.PermissionWrite}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	expectAccess(t, f.permissions.CheckBoardPermission(ctx, board.ID, carol), true, entities.PermissionWrite, false)

	before := *tasks[0].StatusChangedAt
	progress := entities.TaskStatusInProgress
	updated, err := f.taskSvc.UpdateTask(ctx, carol, tasks[0].ID, ports.UpdateTaskRequest{Status: &progress})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.StatusChangedAt == nil || !updated.StatusChangedAt.After(before) {
		t.Fatalf("expected statusChangedAt to advance past %v, got %v", before, updated.StatusChangedAt)
	}
}

func TestBoardShareOverridesProjectGrant(t *testing.T) {
	f := newFixture(t, docstore.DefaultSchema())
	ctx := context.Background()
	project, board, _ := f.seed(t, true)

	if _, err := f.shareSvc.InviteToProject(ctx, alice, project.ID, ports.InviteRequest{Email: carol.Email, Permission: entities.PermissionWrite}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := f.shareSvc.InviteToBoard(ctx, alice, board.ID, ports.InviteRequest{Email: carol.Email, Permission: entities.PermissionRead}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	expectAccess(t, f.permissions.CheckProjectPermission(ctx, project.ID, carol), true, entities.PermissionWrite, false)
	expectAccess(t, f.permissions.CheckBoardPermission(ctx, board.ID, carol), true, entities.PermissionRead, false)
}

func TestAnonymousAccess(t *testing.T) {
	f := newFixture(t, docstore.DefaultSchema())
	ctx := context.Background()
	private, privateBoard, _ := f.seed(t, true)
	public, publicBoard, _ := f.seed(t, false)

	expectAccess(t, f.permissions.CheckProjectPermission(ctx, private.ID, nil), false, "", false)
	expectAccess(t, f.permissions.CheckBoardPermission(ctx, privateBoard.ID, nil), false, "", false)
	expectAccess(t, f.permissions.CheckProjectPermission(ctx, public.ID, nil), true, entities.PermissionRead, false)
	expectAccess(t, f.permissions.CheckBoardPermission(ctx, publicBoard.ID, nil), true, entities.PermissionRead, false)
	expectAccess(t, f.permissions.CheckProjectPermission(ctx, public.ID, bob), false, "", false)
	expectAccess(t, f.permissions.CheckBoardPermission(ctx, publicBoard.ID, bob), false, "", false)

	if _, err := f.projects.CreateProject(ctx, nil, ports.CreateProjectRequest{Name: "nope"}); !errors.Is(err, entities.ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
	projects, err := f.projects.ListProjects(ctx, nil)
	if err != nil || len(projects) != 0 {
		t.Fatalf("expected no projects for anonymous, got %v / %v", projects, err)
	}
	if _, _, err := f.projects.GetProject(ctx, nil, private.ID); !errors.Is(err, entities.ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
	if _, _, err := f.projects.GetProject(ctx, bob, private.ID); !errors.Is(err, entities.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestPermissionFailsClosed(t *testing.T) {
	f := newFixture(t, docstore.DefaultSchema())
	ctx := context.Background()
	project, board, _ := f.seed(t, false)

	f.store.failGets = map[string]bool{ports.CollectionProjects: true}
	expectAccess(t, f.permissions.CheckProjectPermission(ctx, project.ID, alice), false, "", false)
	expectAccess(t, f.permissions.CheckBoardPermission(ctx, board.ID, bob), false, "", false)
	expectAccess(t, f.permissions.CheckProjectPermission(ctx, "missing", alice), false, "", false)
}

func TestPermissionFailsClosedWhenSharesUnreadable(t *testing.T) {
	f := newFixture(t, docstore.DefaultSchema())
	ctx := context.Background()
	project, board, _ := f.seed(t, true)

	if _, err := f.shareSvc.InviteToProject(ctx, alice, project.ID, ports.InviteRequest{Email: carol.Email, Permission: entities.PermissionWrite}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := f.shareSvc.InviteToBoard(ctx, alice, board.ID, ports.InviteRequest{Email: carol.Email, Permission: entities.PermissionRead}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	f.store.failLists = map[string]int{ports.CollectionBoardShares: http.StatusUnauthorized}
	expectAccess(t, f.permissions.CheckBoardPermission(ctx, board.ID, carol), false, "", false)
	if _, err := f.coordinator.Open(ctx, carol, board.ID); ports.StoreErrorCode(err) != http.StatusUnauthorized {
		t.Fatalf("expected the store refusal to surface, got %v", err)
	}

	f.store.failLists = map[string]int{ports.CollectionProjectShares: http.StatusNotFound}
	expectAccess(t, f.permissions.CheckProjectPermission(ctx, project.ID, carol), false, "", false)

	// Display listings still degrade to empty.
	shares, err := f.shares.ProjectShares(ctx, project.ID, "")
	if err != nil || len(shares) != 0 {
		t.Fatalf("expected an empty listing, got %v / %v", shares, err)
	}

	f.store.failLists = nil
	expectAccess(t, f.permissions.CheckBoardPermission(ctx, board.ID, carol), true, entities.PermissionRead, false)
}

func TestDragToEmptyColumnThenAppend(t *testing.T) {
	f := newFixture(t, docstore.DefaultSchema())
	ctx := context.Background()
	_, board, tasks := f.seed(t, true, "T1", "T2")
	if tasks[0].Order != 0 || tasks[1].Order != 1 {
		t.Fatalf("expected orders 0 and 1, got %d and %d", tasks[0].Order, tasks[1].Order)
	}

	state, err := f.coordinator.Open(ctx, alice, board.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !state.CanDrag() {
		t.Fatalf("expected owner to be able to drag")
	}

	first, err := state.DragEnd(ctx, ports.DragRequest{TaskID: tasks[0].ID, Over: &ports.DropTarget{ID: "in-progress"}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !first.Moved || first.Task.Status != entities.TaskStatusInProgress || first.Task.Order != 0 {
		t.Fatalf("expected T1 in-progress at 0, got %+v", first.Task)
	}

	second, err := state.DragEnd(ctx, ports.DragRequest{TaskID: tasks[1].ID, Over: &ports.DropTarget{ID: "in-progress"}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if second.Task.Status != entities.TaskStatusInProgress || second.Task.Order != 1 {
		t.Fatalf("expected T2 in-progress at 1, got %+v", second.Task)
	}

	columns := state.Columns()
	if len(columns[entities.TaskStatusTodo]) != 0 {
		t.Fatalf("expected empty todo column, got %d tasks", len(columns[entities.TaskStatusTodo]))
	}
	progress := columns[entities.TaskStatusInProgress]
	if len(progress) != 2 || progress[0].ID != tasks[0].ID || progress[1].ID != tasks[1].ID {
		t.Fatalf("unexpected in-progress column %+v", progress)
	}
}

func TestDragOntoCurrentColumnChangesNothing(t *testing.T) {
	f := newFixture(t, docstore.DefaultSchema())
	ctx := context.Background()
	_, board, tasks := f.seed(t, true, "T1", "T2")

	state, err := f.coordinator.Open(ctx, alice, board.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	before := state.Tasks()
	writes := f.store.updates

	drops := []*ports.DropTarget{
		nil,
		{ID: "todo"},
		{ID: tasks[1].ID},
		{ID: "droppable-x", Status: entities.TaskStatusTodo},
		{ID: "nowhere"},
	}
	for _, over := range drops {
		result, err := state.DragEnd(ctx, ports.DragRequest{TaskID: tasks[0].ID, Over: over})
		if err != nil {
			t.Fatalf("expected no error for %+v, got %v", over, err)
		}
		if result.Moved {
			t.Fatalf("expected no move for %+v", over)
		}
	}

	after := state.Tasks()
	for i := range before {
		if before[i].Status != after[i].Status || before[i].Order != after[i].Order {
			t.Fatalf("expected %s unchanged, got %s/%d", before[i].ID, after[i].Status, after[i].Order)
		}
	}
	if f.store.updates != writes {
		t.Fatalf("expected no store writes")
	}
}

func TestDragResolvesStatusFromTarget(t *testing.T) {
	f := newFixture(t, docstore.DefaultSchema())
	ctx := context.Background()
	_, board, tasks := f.seed(t, true, "T1", "T2", "T3")

	done := entities.TaskStatusDone
	if _, err := f.taskSvc.UpdateTask(ctx, alice, tasks[2].ID, ports.UpdateTaskRequest{Status: &done}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	resp, err := f.taskSvc.MoveTask(ctx, alice, board.ID, ports.DragRequest{TaskID: tasks[0].ID, Over: &ports.DropTarget{ID: tasks[2].ID}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !resp.Moved || resp.Task.Status != entities.TaskStatusDone {
		t.Fatalf("expected move into the target task's column, got %+v", resp.Task)
	}

	resp, err = f.taskSvc.MoveTask(ctx, alice, board.ID, ports.DragRequest{TaskID: tasks[1].ID, Over: &ports.DropTarget{ID: "column-meta", Status: entities.TaskStatusInProgress}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Task.Status != entities.TaskStatusInProgress || resp.Task.Order != 0 {
		t.Fatalf("expected droppable metadata to pick in-progress, got %+v", resp.Task)
	}
	if len(resp.Columns[entities.TaskStatusDone]) != 2 {
		t.Fatalf("expected two done tasks, got %d", len(resp.Columns[entities.TaskStatusDone]))
	}
}

func TestDragRollsBackOnStoreFailure(t *testing.T) {
	f := newFixture(t, docstore.DefaultSchema())
	ctx := context.Background()
	_, board, tasks := f.seed(t, true, "T1")

	state, err := f.coordinator.Open(ctx, alice, board.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	f.store.failUpdates = true
	if _, err := state.DragEnd(ctx, ports.DragRequest{TaskID: tasks[0].ID, Over: &ports.DropTarget{ID: "done"}}); ports.StoreErrorCode(err) != http.StatusServiceUnavailable {
		t.Fatalf("expected store error to surface, got %v", err)
	}

	current := state.Tasks()
	if current[0].Status != entities.TaskStatusTodo || current[0].Order != 0 {
		t.Fatalf("expected rollback to todo/0, got %s/%d", current[0].Status, current[0].Order)
	}
}

func TestConcurrentDragOfSameTaskRejected(t *testing.T) {
	f := newFixture(t, docstore.DefaultSchema())
	ctx := context.Background()
	_, board, tasks := f.seed(t, true, "T1")

	// Two independent states, as two HTTP requests would open.
	first, err := f.coordinator.Open(ctx, alice, board.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := f.coordinator.Open(ctx, alice, board.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	f.store.entered = make(chan struct{})
	f.store.release = make(chan struct{})

	errCh := make(chan error, 1)
	go func() {
		_, err := first.DragEnd(ctx, ports.DragRequest{TaskID: tasks[0].ID, Over: &ports.DropTarget{ID: "done"}})
		errCh <- err
	}()
	<-f.store.entered

	_, err = second.DragEnd(ctx, ports.DragRequest{TaskID: tasks[0].ID, Over: &ports.DropTarget{ID: "in-progress"}})
	if !errors.Is(err, entities.ErrDragInProgress) {
		t.Fatalf("expected ErrDragInProgress, got %v", err)
	}

	close(f.store.release)
	if err := <-errCh; err != nil {
		t.Fatalf("expected the first move to succeed, got %v", err)
	}

	// The guard is released once the first move settles.
	f.store.entered = nil
	if err := second.Refresh(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	result, err := second.DragEnd(ctx, ports.DragRequest{TaskID: tasks[0].ID, Over: &ports.DropTarget{ID: "in-progress"}})
	if err != nil || !result.Moved {
		t.Fatalf("expected a later move to go through, got %+v / %v", result, err)
	}
}

func TestDragActivationThreshold(t *testing.T) {
	if DragActivated(7.9) {
		t.Fatalf("expected no drag below 8px")
	}
	if !DragActivated(8) {
		t.Fatalf("expected drag at 8px")
	}
}

func TestListBoardsVisibility(t *testing.T) {
	f := newFixture(t, docstore.DefaultSchema())
	ctx := context.Background()
	project, shared, _ := f.seed(t, true)

	hidden, err := f.boards.CreateBoard(ctx, alice, project.ID, ports.CreateBoardRequest{Name: "hidden"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := f.shareSvc.InviteToBoard(ctx, alice, shared.ID, ports.InviteRequest{Email: bob.Email, Permission: entities.PermissionRead}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	boards, err := f.boards.ListBoards(ctx, bob, project.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(boards) != 1 || boards[0].ID != shared.ID {
		t.Fatalf("expected only the shared board, got %+v", boards)
	}

	boards, err = f.boards.ListBoards(ctx, alice, project.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(boards) != 2 {
		t.Fatalf("expected both boards for the owner, got %d", len(boards))
	}

	if err := f.boards.DeleteBoard(ctx, bob, hidden.ID); !errors.Is(err, entities.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestOwnerOnlyProjectLifecycle(t *testing.T) {
	f := newFixture(t, docstore.DefaultSchema())
	ctx := context.Background()
	project, _, _ := f.seed(t, true)

	if _, err := f.shareSvc.InviteToProject(ctx, alice, project.ID, ports.InviteRequest{Email: carol.Email, Permission: entities.PermissionWrite}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	name := "renamed"
	if _, err := f.projects.UpdateProject(ctx, carol, project.ID, ports.UpdateProjectRequest{Name: &name}); !errors.Is(err, entities.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for a write share, got %v", err)
	}
	if err := f.projects.DeleteProject(ctx, carol, project.ID); !errors.Is(err, entities.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	updated, err := f.projects.UpdateProject(ctx, alice, project.ID, ports.UpdateProjectRequest{Name: &name})
	if err != nil || updated.Name != name {
		t.Fatalf("expected rename, got %+v / %v", updated, err)
	}
	if err := f.projects.DeleteProject(ctx, alice, project.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, _, err := f.projects.GetProject(ctx, alice, project.ID); !errors.Is(err, entities.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestInviteRules(t *testing.T) {
	f := newFixture(t, docstore.DefaultSchema())
	ctx := context.Background()
	project, board, _ := f.seed(t, true)

	if _, err := f.shareSvc.InviteToProject(ctx, alice, project.ID, ports.InviteRequest{Email: "ALICE@example.com", Permission: entities.PermissionRead}); !errors.Is(err, entities.ErrRedundantShare) {
		t.Fatalf("expected ErrRedundantShare, got %v", err)
	}
	if _, err := f.shareSvc.InviteToBoard(ctx, bob, board.ID, ports.InviteRequest{Email: carol.Email, Permission: entities.PermissionRead}); !errors.Is(err, entities.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for a non-owner, got %v", err)
	}
	if _, err := f.shareSvc.InviteToBoard(ctx, alice, board.ID, ports.InviteRequest{Email: carol.Email, Permission: "admin"}); !errors.Is(err, entities.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	share, err := f.shareSvc.InviteToProject(ctx, alice, project.ID, ports.InviteRequest{Email: bob.Email, Permission: entities.PermissionRead})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if share.UserID != bob.UserID {
		t.Fatalf("expected invite bound to the existing account, got %q", share.UserID)
	}

	if err := f.shareSvc.RemoveProjectShare(ctx, bob, share.ID); !errors.Is(err, entities.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if err := f.shareSvc.RemoveProjectShare(ctx, alice, share.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	expectAccess(t, f.permissions.CheckProjectPermission(ctx, project.ID, bob), false, "", false)
}

func TestPendingInviteClaimedOnSignIn(t *testing.T) {
	f := newFixture(t, docstore.DefaultSchema())
	ctx := context.Background()
	project, _, _ := f.seed(t, true)

	dave := &entities.Principal{UserID: "d", DisplayName: "Dave", Email: "dave@example.com"}
	share, err := f.shareSvc.InviteToProject(ctx, alice, project.ID, ports.InviteRequest{Email: dave.Email, Permission: entities.PermissionWrite})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if share.UserID != "" {
		t.Fatalf("expected pending invite, got user %q", share.UserID)
	}
	expectAccess(t, f.permissions.CheckProjectPermission(ctx, project.ID, dave), false, "", false)

	claimed, err := f.shareSvc.ClaimInvites(ctx, dave)
	if err != nil || claimed != 1 {
		t.Fatalf("expected one claimed invite, got %d / %v", claimed, err)
	}
	expectAccess(t, f.permissions.CheckProjectPermission(ctx, project.ID, dave), true, entities.PermissionWrite, false)

	projects, err := f.projects.ListProjects(ctx, dave)
	if err != nil || len(projects) != 1 || projects[0].ID != project.ID {
		t.Fatalf("expected the shared project listed, got %+v / %v", projects, err)
	}
}

func TestTaskOperationsOnLegacySchema(t *testing.T) {
	schema := docstore.DefaultSchema().Without(ports.CollectionTasks,
		"createdBy", "createdByName", "statusChangedAt", "assignedTo", "assignedToName", "assignedToEmail")
	f := newFixture(t, schema)
	ctx := context.Background()
	_, board, tasks := f.seed(t, true, "x", "y")

	if tasks[1].Status != entities.TaskStatusTodo || tasks[1].Order != 1 || tasks[1].StatusChangedAt != nil {
		t.Fatalf("expected todo/1 without statusChangedAt, got %+v", tasks[1])
	}

	resp, err := f.taskSvc.MoveTask(ctx, alice, board.ID, ports.DragRequest{TaskID: tasks[1].ID, Over: &ports.DropTarget{ID: "done"}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Task.Status != entities.TaskStatusDone || resp.Task.StatusChangedAt != nil {
		t.Fatalf("expected done without statusChangedAt, got %+v", resp.Task)
	}
}
