package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/crs-api/internal/models"
	"github.com/noah-isme/crs-api/internal/seed"
	"github.com/noah-isme/crs-api/internal/service"
	"github.com/noah-isme/crs-api/pkg/database"
)

func (a *App) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := database.Migrate(a.db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func (a *App) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Load semesters, students, courses and grades from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}
			c := a.container
			summary, err := seed.Apply(cmd.Context(), fixture, seed.Stores{
				Semesters: c.Semesters,
				Students:  c.Students,
				Courses:   c.Courses,
				Grades:    c.Grades,
			})
			if err != nil {
				return fmt.Errorf("apply seed: %w", err)
			}
			if err := c.Catalogue.Invalidate(cmd.Context()); err != nil {
				a.logger.Warn("catalogue cache not invalidated after seeding", zap.Error(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d semesters, %d students, %d courses, %d grades\n",
				summary.Semesters, summary.Students, summary.Courses, summary.Grades)
			return nil
		},
	}
}

func (a *App) tokenCommand() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue an access token for the REST API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, expires, err := a.container.Auth.IssueToken(service.TokenSubject{
				UserID: args[0],
				Role:   models.UserRole(role),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(models.RoleStudent), "STUDENT, PROFESSOR or ADMIN")
	return cmd
}

func (a *App) semestersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "semesters",
		Short: "List semesters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			semesters, err := a.container.SemesterAdmin.List(cmd.Context())
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tACTIVE")
			for _, semester := range semesters {
				fmt.Fprintf(w, "%s\t%s\t%s\n", semester.ID, semester.Name, yesNo(semester.IsActive))
			}
			return w.Flush()
		},
	}
}

func (a *App) activateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <semester-id>",
		Short: "Make a semester the active registration period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			semester, err := a.container.SemesterAdmin.Activate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "active semester is now %s (%s)\n", semester.Name, semester.ID)
			return nil
		},
	}
}
