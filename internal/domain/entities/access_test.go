package entities

import "testing"

func TestResolveProjectAccessOwnerWinsOverShares(t *testing.T) {
	project := &Project{ID: "p", OwnerID: "a", RequiresAuth: true}
	shares := []ProjectShare{
		{ProjectID: "p", UserID: "a", Permission: PermissionRead},
	}

	got := ResolveProjectAccess(&Principal{UserID: "a"}, project, shares)
	want := AccessResult{HasAccess: true, Permission: PermissionWrite, IsOwner: true}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestResolveProjectAccessLegacyOwnerField(t *testing.T) {
	project := &Project{ID: "p", LegacyUserID: "a", RequiresAuth: true}

	got := ResolveProjectAccess(&Principal{UserID: "a"}, project, nil)
	if !got.IsOwner || !got.CanWrite() {
		t.Fatalf("expected legacy owner to get write, got %+v", got)
	}
}

func TestResolveProjectAccessWriteShareBeatsRead(t *testing.T) {
	project := &Project{ID: "p", OwnerID: "a", RequiresAuth: true}
	shares := []ProjectShare{
		{ProjectID: "p", UserID: "b", Permission: PermissionRead},
		{ProjectID: "p", UserID: "b", Permission: PermissionWrite},
		{ProjectID: "p", UserID: "b", Permission: PermissionRead},
	}

	got := ResolveProjectAccess(&Principal{UserID: "b"}, project, shares)
	want := AccessResult{HasAccess: true, Permission: PermissionWrite}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestResolveProjectAccessIgnoresUnresolvedShares(t *testing.T) {
	project := &Project{ID: "p", OwnerID: "a", RequiresAuth: true}
	shares := []ProjectShare{{ProjectID: "p", UserEmail: "b@example.com", Permission: PermissionWrite}}

	got := ResolveProjectAccess(&Principal{UserID: "b", Email: "b@example.com"}, project, shares)
	if got.HasAccess {
		t.Fatalf("expected unresolved share to grant nothing, got %+v", got)
	}
}

func TestResolveProjectAccessAnonymous(t *testing.T) {
	private := &Project{ID: "p", OwnerID: "a", RequiresAuth: true}
	if got := ResolveProjectAccess(nil, private, nil); got != NoAccess() {
		t.Fatalf("expected no access to private project, got %+v", got)
	}

	public := &Project{ID: "pub", OwnerID: "a"}
	got := ResolveProjectAccess(nil, public, nil)
	want := AccessResult{HasAccess: true, Permission: PermissionRead}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestResolveProjectAccessSignedInStrangerOnPublicProject(t *testing.T) {
	public := &Project{ID: "pub", OwnerID: "a"}

	if got := ResolveProjectAccess(&Principal{UserID: "z"}, public, nil); got != NoAccess() {
		t.Fatalf("expected no access without a grant, got %+v", got)
	}

	shares := []ProjectShare{{ProjectID: "pub", UserID: "z", Permission: PermissionRead}}
	got := ResolveProjectAccess(&Principal{UserID: "z"}, public, shares)
	want := AccessResult{HasAccess: true, Permission: PermissionRead}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestResolveBoardAccessInheritsProjectWrite(t *testing.T) {
	board := &Board{ID: "b1", ProjectID: "p", OwnerID: "a"}
	inherited := func() AccessResult { return AccessResult{HasAccess: true, Permission: PermissionWrite, IsOwner: true} }

	got := ResolveBoardAccess(&Principal{UserID: "c"}, board, nil, inherited)
	want := AccessResult{HasAccess: true, Permission: PermissionWrite}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestResolveBoardAccessBoardShareOverridesProjectGrant(t *testing.T) {
	board := &Board{ID: "b1", ProjectID: "p", OwnerID: "a"}
	shares := []BoardShare{{BoardID: "b1", UserID: "c", Permission: PermissionRead}}
	called := false
	inherited := func() AccessResult {
		called = true
		return AccessResult{HasAccess: true, Permission: PermissionWrite}
	}

	got := ResolveBoardAccess(&Principal{UserID: "c"}, board, shares, inherited)
	if got.Permission != PermissionRead {
		t.Fatalf("expected board read share to win, got %+v", got)
	}
	if called {
		t.Fatalf("expected project grant not to be consulted")
	}
}

func TestResolveBoardAccessOwner(t *testing.T) {
	board := &Board{ID: "b1", ProjectID: "p", OwnerID: "a"}

	got := ResolveBoardAccess(&Principal{UserID: "a"}, board, nil, nil)
	want := AccessResult{HasAccess: true, Permission: PermissionWrite, IsOwner: true}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestResolveBoardAccessAnonymousFollowsProject(t *testing.T) {
	board := &Board{ID: "b1", ProjectID: "p", OwnerID: "a"}

	denied := ResolveBoardAccess(nil, board, nil, func() AccessResult { return NoAccess() })
	if denied.HasAccess {
		t.Fatalf("expected no access, got %+v", denied)
	}

	public := ResolveBoardAccess(nil, board, nil, func() AccessResult { return readAccess() })
	if !public.CanRead() || public.CanWrite() {
		t.Fatalf("expected read-only access, got %+v", public)
	}
}

func TestNextOrder(t *testing.T) {
	tasks := []Task{
		{ID: "1", Status: TaskStatusTodo, Order: 0},
		{ID: "2", Status: TaskStatusTodo, Order: 4},
		{ID: "3", Status: TaskStatusDone, Order: 9},
	}

	if got := NextOrder(tasks, TaskStatusTodo); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if got := NextOrder(tasks, TaskStatusInProgress); got != 0 {
		t.Fatalf("expected 0 for empty column, got %d", got)
	}
}
