package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/crs-api/internal/models"
	"github.com/noah-isme/crs-api/internal/service"
)

func (a *App) coursesCommand() *cobra.Command {
	var filter models.CourseFilter
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Browse the course catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			courses, pagination, _, err := a.container.Catalogue.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tCODE\tNAME\tFEE\tSEATS\tAVAILABLE")
			for _, course := range courses {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\n", course.ID, course.Code, course.Name,
					money(course.Fee), course.EnrolledCount, course.Capacity, yesNo(course.Available))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d, %d of %d courses\n", pagination.Page, len(courses), pagination.TotalCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Search, "search", "", "match code or name")
	cmd.Flags().BoolVar(&filter.AvailableOnly, "available", false, "only courses with free seats")
	cmd.Flags().IntVar(&filter.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&filter.PageSize, "page-size", 20, "courses per page")
	return cmd
}

func (a *App) addCommand() *cobra.Command {
	var secondary bool
	cmd := &cobra.Command{
		Use:   "add <course-id>",
		Short: "Add a course to the registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := a.student()
			if err != nil {
				return err
			}
			detail, err := a.container.Registration.AddSelection(cmd.Context(), studentID, service.AddSelectionRequest{
				CourseID: args[0],
				Primary:  !secondary,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s %s (%s)\n", detail.CourseCode, detail.CourseName, tier(detail.IsPrimary))
			return nil
		},
	}
	cmd.Flags().BoolVar(&secondary, "secondary", false, "add as a secondary (alternate) course")
	return cmd
}

func (a *App) dropCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <course-id>",
		Short: "Remove a course from the registration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := a.student()
			if err != nil {
				return err
			}
			if err := a.container.Registration.DropSelection(cmd.Context(), studentID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dropped %s\n", args[0])
			return nil
		},
	}
}

func (a *App) listCommand() *cobra.Command {
	var registered bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List selected or registered courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			studentID, err := a.student()
			if err != nil {
				return err
			}
			selections, err := a.container.Registration.ListSelections(cmd.Context(), studentID, registered)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "COURSE\tCODE\tNAME\tTIER\tFEE\tALLOTTED")
			for _, selection := range selections {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", selection.CourseID, selection.CourseCode, selection.CourseName,
					tier(selection.IsPrimary), money(selection.Fee), yesNo(selection.Allotted))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&registered, "registered", false, "only courses allotted after submission")
	return cmd
}

func (a *App) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the registration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			studentID, err := a.student()
			if err != nil {
				return err
			}
			summary, err := a.container.Registration.Registration(cmd.Context(), studentID)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintf(w, "Semester\t%s (%s)\n", summary.SemesterName, summary.SemesterID)
			fmt.Fprintf(w, "State\t%s\n", summary.State)
			fmt.Fprintf(w, "Primary\t%d/%d\n", summary.PrimaryCount, service.MaxPrimaryCourses)
			fmt.Fprintf(w, "Secondary\t%d/%d\n", summary.SecondaryCount, service.MaxSecondaryCourses)
			fmt.Fprintf(w, "Allotted\t%d\n", summary.AllottedCount)
			fmt.Fprintf(w, "Total fee\t%s\n", money(summary.TotalFee))
			fmt.Fprintf(w, "Pending fee\t%s\n", money(summary.PendingFee))
			return w.Flush()
		},
	}
}

func (a *App) submitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "submit",
		Short: "Submit the registration and allocate seats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			studentID, err := a.student()
			if err != nil {
				return err
			}
			result, err := a.container.Registration.Submit(cmd.Context(), studentID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			w := newTable(out)
			fmt.Fprintln(w, "COURSE\tCODE\tTIER\tFEE\tRESULT")
			for _, selection := range result.Allotted {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\tallotted\n", selection.CourseID, selection.CourseCode, tier(selection.IsPrimary), money(selection.Fee))
			}
			for _, selection := range result.Skipped {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\tnot allotted\n", selection.CourseID, selection.CourseCode, tier(selection.IsPrimary), money(selection.Fee))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "registered for %d courses, fee due %s\n", len(result.Allotted), money(result.TotalFee))
			return nil
		},
	}
}

func (a *App) feeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fee",
		Short: "Show the pending semester fee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			studentID, err := a.student()
			if err != nil {
				return err
			}
			status, err := a.container.Registration.PendingFee(cmd.Context(), studentID)
			if err != nil {
				return err
			}
			switch {
			case status.Paid:
				fmt.Fprintln(cmd.OutOrStdout(), "fee paid")
			case !status.Submitted:
				fmt.Fprintln(cmd.OutOrStdout(), "no fee due: registration not submitted")
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "fee due %s\n", money(status.Amount))
			}
			return nil
		},
	}
}

func (a *App) payCommand() *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "pay [amount]",
		Short: "Pay the semester fee",
		Long:  "Pay the semester fee. Without an amount the full pending fee is paid.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := a.student()
			if err != nil {
				return err
			}
			req := service.PayFeeRequest{Method: models.PaymentMethod(strings.ToUpper(strings.TrimSpace(method)))}
			if len(args) == 1 {
				amount, err := strconv.ParseFloat(strings.TrimPrefix(args[0], "$"), 64)
				if err != nil {
					return fmt.Errorf("invalid amount %q: %w", args[0], err)
				}
				req.Amount = amount
			}
			result, err := a.container.Registration.PayFee(cmd.Context(), studentID, req)
			if err != nil {
				return err
			}
			if !result.Paid {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to pay")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "paid %s by %s, reference %s\n", money(result.Payment.Amount), result.Payment.Method, result.Payment.Reference)
			return nil
		},
	}
	cmd.Flags().StringVar(&method, "method", string(models.PaymentCard), "payment method: CARD, NETBANKING, SCHOLARSHIP, CASH or OFFLINE")
	return cmd
}

func (a *App) gradeCardCommand() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "gradecard",
		Short: "Show or export the grade card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			studentID, err := a.student()
			if err != nil {
				return err
			}
			format = strings.ToLower(strings.TrimSpace(format))
			if format == "" || format == "text" {
				card, err := a.container.GradeCards.GradeCard(cmd.Context(), studentID)
				if err != nil {
					return err
				}
				w := newTable(cmd.OutOrStdout())
				fmt.Fprintln(w, "CODE\tNAME\tGRADE\tPOINTS")
				for _, grade := range card.Grades {
					fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\n", grade.CourseCode, grade.CourseName, grade.Grade, grade.GradePoints)
				}
				fmt.Fprintf(w, "\t\tCGPA\t%.2f\n", card.CGPA)
				return w.Flush()
			}

			file, err := a.container.GradeCards.Export(cmd.Context(), studentID, format)
			if err != nil {
				return err
			}
			if out == "" {
				out = file.Filename
			}
			if out == "-" {
				_, err := cmd.OutOrStdout().Write(file.Payload)
				return err
			}
			if err := os.WriteFile(out, file.Payload, 0o644); err != nil {
				return fmt.Errorf("write grade card: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "text, csv or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file for csv and pdf, - for stdout")
	return cmd
}

func (a *App) notificationsCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List recent notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			studentID, err := a.student()
			if err != nil {
				return err
			}
			notifications, err := a.container.Notifications.List(cmd.Context(), studentID, limit)
			if err != nil {
				return err
			}
			w := newTable(cmd.OutOrStdout())
			for _, notification := range notifications {
				fmt.Fprintf(w, "%s\t%s\t%s\n", notification.CreatedAt.Format("2006-01-02 15:04"), notification.Kind, notification.Message)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum notifications to show")
	return cmd
}
