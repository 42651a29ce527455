package ports

import (
	"context"
	"time"

	"github.com/scrumban/core/internal/domain/entities"
)

// Logical collection names in the document store.
const (
	CollectionProjects      = "projects"
	CollectionBoards        = "boards"
	CollectionTasks         = "tasks"
	CollectionProjectShares = "projectShares"
	CollectionBoardShares   = "boardShares"
	CollectionUsers         = "users"
)

// Document is a stored record. CreatedAt and UpdatedAt are assigned by the store.
type Document struct {
	ID         string
	Collection string
	Fields     map[string]interface{}
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Filter is an equality condition on a document field.
type Filter struct {
	Field string
	Value string
}

// Eq builds an equality filter.
func Eq(field, value string) Filter {
	return Filter{Field: field, Value: value}
}

// DocumentStore defines the contract over the backing document store.
// Implementations return *StoreError for every store-level failure.
type DocumentStore interface {
	Create(ctx context.Context, collection, id string, fields map[string]interface{}) (*Document, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	List(ctx context.Context, collection string, filters ...Filter) ([]*Document, error)
	Update(ctx context.Context, collection, id string, patch map[string]interface{}) (*Document, error)
	Delete(ctx context.Context, collection, id string) error
}

// ProjectRepository defines the interface for project data operations
type ProjectRepository interface {
	Create(ctx context.Context, project *entities.Project) error
	GetByID(ctx context.Context, id string) (*entities.Project, error)
	Update(ctx context.Context, id string, patch ProjectPatch) (*entities.Project, error)
	Delete(ctx context.Context, id string) error
	ListForUser(ctx context.Context, userID string) ([]*entities.Project, error)
}

// BoardRepository defines the interface for board data operations
type BoardRepository interface {
	Create(ctx context.Context, board *entities.Board) error
	GetByID(ctx context.Context, id string) (*entities.Board, error)
	Update(ctx context.Context, id string, patch BoardPatch) (*entities.Board, error)
	Delete(ctx context.Context, id string) error
	ListForProject(ctx context.Context, projectID, userID string) ([]*entities.Board, error)
}

// TaskRepository defines the interface for task data operations
type TaskRepository interface {
	Create(ctx context.Context, input CreateTaskInput) (*entities.Task, error)
	GetByID(ctx context.Context, id string) (*entities.Task, error)
	ListByBoard(ctx context.Context, boardID string) ([]*entities.Task, error)
	Update(ctx context.Context, id string, patch TaskPatch, current *entities.Task) (*entities.Task, error)
	Delete(ctx context.Context, id string) error
}

// ShareRepository defines the interface for project and board shares
type ShareRepository interface {
	InviteToProject(ctx context.Context, projectID, email string, permission entities.Permission, inviterID, inviterName string) (*entities.ProjectShare, error)
	InviteToBoard(ctx context.Context, boardID, email string, permission entities.Permission, inviterID, inviterName string) (*entities.BoardShare, error)
	GetProjectShare(ctx context.Context, id string) (*entities.ProjectShare, error)
	GetBoardShare(ctx context.Context, id string) (*entities.BoardShare, error)
	ProjectShares(ctx context.Context, projectID, userID string) ([]*entities.ProjectShare, error)
	BoardShares(ctx context.Context, boardID, userID string) ([]*entities.BoardShare, error)
	// ProjectGrants and BoardGrants return store errors instead of an empty listing
	ProjectGrants(ctx context.Context, projectID, userID string) ([]*entities.ProjectShare, error)
	BoardGrants(ctx context.Context, boardID, userID string) ([]*entities.BoardShare, error)
	ProjectSharesForUser(ctx context.Context, userID string) ([]*entities.ProjectShare, error)
	BoardSharesForUser(ctx context.Context, userID string) ([]*entities.BoardShare, error)
	PendingInvites(ctx context.Context, email string) ([]*entities.ProjectShare, []*entities.BoardShare, error)
	ClaimProjectShare(ctx context.Context, id, userID, userName string) error
	ClaimBoardShare(ctx context.Context, id, userID, userName string) error
	RemoveProjectShare(ctx context.Context, id string) error
	RemoveBoardShare(ctx context.Context, id string) error
}

// UserRepository defines the interface for accounts of the local identity provider
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
}

// IdentityProvider is the opaque authentication backend.
type IdentityProvider interface {
	CurrentUser(ctx context.Context, session string) (*entities.Principal, error)
	Login(ctx context.Context, email, password string) (*entities.Session, error)
	Signup(ctx context.Context, email, password, name string) (*entities.Session, error)
	Logout(ctx context.Context, session string) error
}

// TokenBlacklist records revoked session tokens until they expire.
type TokenBlacklist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Patch and input types for repository writes

type ProjectPatch struct {
	Name         *string
	Description  *string
	RequiresAuth *bool
}

type BoardPatch struct {
	Name        *string
	Description *string
}

type CreateTaskInput struct {
	BoardID       string
	Title         string
	Description   string
	Status        entities.TaskStatus
	CreatedBy     string
	CreatedByName string
}

type TaskPatch struct {
	Title           *string
	Description     *string
	Status          *entities.TaskStatus
	Order           *int
	AssignedTo      *string
	AssignedToName  *string
	AssignedToEmail *string
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Order == nil &&
		p.AssignedTo == nil && p.AssignedToName == nil && p.AssignedToEmail == nil
}
