package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/classroom-assistant/classroom-go/internal/apiclient"
	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
	"github.com/classroom-assistant/classroom-go/internal/guard"
	"github.com/classroom-assistant/classroom-go/internal/model"
)

func newTeacherCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teacher",
		Short: "Run a class as a teacher",
	}
	cmd.AddCommand(
		newTeacherRegisterCmd(a),
		newTeacherLoginCmd(a),
		newTeacherStartCmd(a),
		newTeacherStopCmd(a),
		newTeacherSayCmd(a),
		newTeacherStudentsCmd(a),
		newTeacherStatsCmd(a),
	)
	return cmd
}

// requireTeacher restores the teacher session so the API client carries its
// token.
func (a *app) requireTeacher() (*model.SessionRecord, error) {
	if outcome := guard.Evaluate(a.store, model.RoleTeacher); outcome.Action == guard.Redirect {
		if outcome.Target == guard.LoginPath {
			return nil, apperrors.Unauthorized("Please login first: classroom teacher login")
		}
		return nil, apperrors.Forbidden("This command is for teachers")
	}
	rec, err := a.accounts.Restore(model.RoleTeacher)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.Unauthorized("Please login first: classroom teacher login")
	}
	return rec, nil
}

func newTeacherRegisterCmd(a *app) *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a teacher account",
		RunE: func(cmd *cobra.Command, args []string) error {
			teacher, err := a.api.RegisterTeacher(cmd.Context(), strings.TrimSpace(email), password, strings.TrimSpace(name))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s <%s>\n", teacher.Name, teacher.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func newTeacherLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as a teacher",
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.accounts.LoginTeacher(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", rec.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func newTeacherStartCmd(a *app) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a class and print its join code",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireTeacher(); err != nil {
				return err
			}
			started, err := a.api.StartClass(cmd.Context(), strings.TrimSpace(subject))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Class started. Join code: %s\n", started.JoinCode)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "class subject")
	return cmd
}

func newTeacherStopCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stop CODE",
		Short: "End a class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireTeacher(); err != nil {
				return err
			}
			if err := a.api.StopClass(cmd.Context(), strings.ToUpper(strings.TrimSpace(args[0]))); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Class ended.")
			return nil
		},
	}
}

func newTeacherSayCmd(a *app) *cobra.Command {
	var bodo, mizo string

	cmd := &cobra.Command{
		Use:   "say CODE TEXT...",
		Short: "Broadcast an English utterance to the class",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireTeacher(); err != nil {
				return err
			}
			return a.say(cmd.Context(), cmd, apiclient.BroadcastRequest{
				JoinCode:        strings.ToUpper(strings.TrimSpace(args[0])),
				EnglishText:     strings.Join(args[1:], " "),
				BodoTranslation: bodo,
				MizoTranslation: mizo,
			})
		},
	}
	cmd.Flags().StringVar(&bodo, "bodo", "", "override the Bodo translation")
	cmd.Flags().StringVar(&mizo, "mizo", "", "override the Mizo translation")
	return cmd
}

func (a *app) say(ctx context.Context, cmd *cobra.Command, req apiclient.BroadcastRequest) error {
	content, err := a.api.Broadcast(ctx, req)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "EN:   %s\n", content.EnglishText)
	fmt.Fprintf(out, "Bodo: %s\n", orNotFound(content.BodoTranslation))
	fmt.Fprintf(out, "Mizo: %s\n", orNotFound(content.MizoTranslation))
	return nil
}

func newTeacherStudentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "students",
		Short: "List students currently logged in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireTeacher(); err != nil {
				return err
			}
			students, err := a.api.ActiveStudents(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USER ID\tNAME\tLANGUAGE\tSINCE")
			for _, s := range students {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.UserID, s.Name, s.PreferredLanguage, s.LoggedInAt.Format("15:04"))
			}
			return w.Flush()
		},
	}
}

func newTeacherStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show usage counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireTeacher(); err != nil {
				return err
			}
			stats, err := a.api.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"teachers: %d\nstudents: %d\nactive students: %d\nunique logins: %d\nactive classrooms: %d\n",
				stats.TotalTeachers, stats.TotalStudents, stats.ActiveStudents, stats.UniqueLogins, stats.ActiveClassrooms)
			return nil
		},
	}
}

func orNotFound(s string) string {
	if s == "" {
		return notFoundMarker
	}
	return s
}
