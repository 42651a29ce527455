package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/scrumban/core/cmd/scrumban/commands"
)

// @title Scrumban API
// @version 1.0
// @description Projects, boards and tasks with owner and share based access control.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "scrumban",
		Short: "Scrumban board server and client",
		Long:  `Scrumban serves projects, boards and tasks over HTTP and drives the same core from the command line.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())
	rootCmd.AddCommand(commands.NewProjectCommand())
	rootCmd.AddCommand(commands.NewBoardCommand())
	rootCmd.AddCommand(commands.NewTaskCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
