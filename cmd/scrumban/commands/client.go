package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/scrumban/core/internal/application/services"
	"github.com/scrumban/core/internal/domain/entities"
	"github.com/scrumban/core/internal/infrastructure/container"
	"github.com/scrumban/core/internal/ports"
)

// session is a signed-in (or anonymous) client run against the local core
type session struct {
	app      *container.Container
	identity *services.IdentityContext
}

func addCredentialFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("email", "", "Sign in as this account; anonymous when empty")
	cmd.PersistentFlags().String("password", "", "Account password")
}

// openSession wires the core and resolves the caller from the credential flags
func openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	app, err := bootstrap(ctx)
	if err != nil {
		return nil, err
	}

	identity := app.NewIdentityContext("")
	identity.Start(ctx)
	<-identity.Ready()

	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if email != "" {
		if _, err := identity.Login(ctx, email, password); err != nil {
			app.Close()
			app.Logger.Close()
			return nil, fmt.Errorf("sign in: %w", err)
		}
	}

	return &session{app: app, identity: identity}, nil
}

func (s *session) close(ctx context.Context) {
	if s.identity.IsAuthenticated() {
		if err := s.identity.Logout(ctx); err != nil {
			s.app.Logger.Warnw("Sign out failed", "error", err)
		}
	}
	s.app.Close()
	s.app.Logger.Close()
}

func withSession(run func(ctx context.Context, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		defer s.close(ctx)
		return run(ctx, s, args)
	}
}

// NewProjectCommand lists projects visible to the caller
func NewProjectCommand() *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Project commands",
	}
	addCredentialFlags(projectCmd)

	projectCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects owned by or shared with the caller",
		Args:  cobra.NoArgs,
		RunE: withSession(func(ctx context.Context, s *session, args []string) error {
			projects, err := s.app.Projects.ListProjects(ctx, s.identity.User())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tREQUIRES AUTH\tACCESS")
			for _, p := range projects {
				access := s.app.Projects.CheckPermission(ctx, s.identity.User(), p.ID)
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", p.ID, p.Name, p.RequiresAuth, describeAccess(access))
			}
			return w.Flush()
		}),
	})

	return projectCmd
}

// NewBoardCommand lists the boards of a project
func NewBoardCommand() *cobra.Command {
	boardCmd := &cobra.Command{
		Use:   "board",
		Short: "Board commands",
	}
	addCredentialFlags(boardCmd)

	boardCmd.AddCommand(&cobra.Command{
		Use:   "list <project-id>",
		Short: "List the boards of a project visible to the caller",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, s *session, args []string) error {
			boards, err := s.app.Boards.ListBoards(ctx, s.identity.User(), args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tACCESS")
			for _, b := range boards {
				access := s.app.Boards.CheckPermission(ctx, s.identity.User(), b.ID)
				fmt.Fprintf(w, "%s\t%s\t%s\n", b.ID, b.Name, describeAccess(access))
			}
			return w.Flush()
		}),
	})

	return boardCmd
}

// NewTaskCommand shows and moves the tasks of a board
func NewTaskCommand() *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Task commands",
	}
	addCredentialFlags(taskCmd)

	taskCmd.AddCommand(&cobra.Command{
		Use:   "list <board-id>",
		Short: "Print the columns of a board",
		Args:  cobra.ExactArgs(1),
		RunE: withSession(func(ctx context.Context, s *session, args []string) error {
			state, err := s.app.Coordinator.Open(ctx, s.identity.User(), args[0])
			if err != nil {
				return err
			}
			printColumns(state.Columns())
			return nil
		}),
	})

	moveCmd := &cobra.Command{
		Use:   "move <board-id> <task-id>",
		Short: "Drop a task onto a column or onto another task",
		Args:  cobra.ExactArgs(2),
	}
	moveCmd.Flags().String("to", "", "Target column (todo, in-progress, done)")
	moveCmd.Flags().String("over", "", "Drop onto this task instead of a column")
	moveCmd.RunE = withSession(func(ctx context.Context, s *session, args []string) error {
		to, _ := moveCmd.Flags().GetString("to")
		over, _ := moveCmd.Flags().GetString("over")

		var target *ports.DropTarget
		switch {
		case over != "":
			target = &ports.DropTarget{ID: over}
		case to != "":
			target = &ports.DropTarget{ID: to}
		default:
			return fmt.Errorf("one of --to or --over is required")
		}

		state, err := s.app.Coordinator.Open(ctx, s.identity.User(), args[0])
		if err != nil {
			return err
		}

		result, err := state.DragEnd(ctx, ports.DragRequest{TaskID: args[1], Over: target})
		if err != nil {
			return err
		}
		if !result.Moved {
			fmt.Println("Nothing to move")
		} else {
			fmt.Printf("Moved %s to %s\n", result.Task.ID, result.Task.Status)
		}
		printColumns(state.Columns())
		return nil
	})
	taskCmd.AddCommand(moveCmd)

	return taskCmd
}

func describeAccess(access entities.AccessResult) string {
	switch {
	case access.IsOwner:
		return "owner"
	case access.HasAccess:
		return string(access.Permission)
	default:
		return "none"
	}
}

func printColumns(columns map[entities.TaskStatus][]*entities.Task) {
	for _, status := range entities.TaskStatuses {
		fmt.Printf("%s (%d)\n", status, len(columns[status]))
		for _, task := range columns[status] {
			fmt.Printf("  %-36s  %3d  %s\n", task.ID, task.Order, task.Title)
		}
	}
}
