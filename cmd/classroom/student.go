package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
	"github.com/classroom-assistant/classroom-go/internal/guard"
	"github.com/classroom-assistant/classroom-go/internal/live"
	"github.com/classroom-assistant/classroom-go/internal/model"
)

const notFoundMarker = "— (not found in dataset)"

func newLoginCmd(a *app) *cobra.Command {
	var userID, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as a student",
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.accounts.LoginStudent(cmd.Context(), userID, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s (%s)\n", rec.Name, rec.UserID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "student user ID")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.accounts.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, role := range []model.Role{model.RoleTeacher, model.RoleStudent} {
				rec, err := a.accounts.Restore(role)
				if err != nil {
					return err
				}
				if rec != nil {
					fmt.Fprintf(out, "%s %s (%s)\n", rec.Role, rec.Name, rec.UserID)
					return nil
				}
			}
			fmt.Fprintln(out, "Not logged in.")
			return nil
		},
	}
}

func newJoinCmd(a *app) *cobra.Command {
	var noAudio bool

	cmd := &cobra.Command{
		Use:   "join CODE",
		Short: "Join a live class and follow the teacher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runJoin(cmd.Context(), cmd.OutOrStdout(), args[0], !noAudio)
		},
	}
	cmd.Flags().BoolVar(&noAudio, "mute", false, "do not speak translations")
	return cmd
}

func (a *app) runJoin(ctx context.Context, out io.Writer, code string, audio bool) error {
	if outcome := guard.Evaluate(a.store, model.RoleStudent); outcome.Action == guard.Redirect {
		return fmt.Errorf("this command is for students (%s)", outcome)
	}
	rec, err := a.accounts.Restore(model.RoleStudent)
	if err != nil {
		return err
	}
	if rec == nil {
		return apperrors.Unauthorized("Please login first")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := live.Config{
		PollInterval:   a.cfg.PollInterval(),
		GracePeriod:    a.cfg.GracePeriod(),
		MissThreshold:  a.cfg.MissThreshold,
		PollTimeout:    a.cfg.RequestTimeout(),
		TargetLanguage: targetLanguage(a.cfg.TargetLanguage, rec.PreferredLanguage),
		AudioEnabled:   a.cfg.AudioEnabled && audio,
	}

	ended := make(chan struct{})
	var once sync.Once
	printer := &viewPrinter{out: out}

	speaker := &live.WriterSpeaker{W: out, PerWord: 300 * time.Millisecond}
	p := live.New(a.api, speaker, cfg, live.WithOnChange(func(v live.View) {
		printer.print(v)
		if v.State == live.Ended {
			once.Do(func() { close(ended) })
		}
	}))
	defer p.Close()

	if err := p.Join(ctx, rec.UserID, code); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		p.Leave()
		fmt.Fprintln(out, "Left class.")
	case <-ended:
		p.Dismiss()
	}
	return nil
}

func targetLanguage(configured, preferred string) model.Language {
	if lang, ok := model.ParseLanguage(preferred); ok && lang != model.LanguageEnglish {
		return lang
	}
	lang, _ := model.ParseLanguage(configured)
	return lang
}

// viewPrinter writes only what changed between snapshots.
type viewPrinter struct {
	out  io.Writer
	mu   sync.Mutex
	last live.View
}

func (p *viewPrinter) print(v live.View) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v.State != p.last.State && v.State == live.Joined {
		fmt.Fprintf(p.out, "Joined %s: %s with %s\n", v.JoinCode, v.Subject, v.TeacherName)
	}
	if v.Error != "" && v.Error != p.last.Error {
		fmt.Fprintln(p.out, v.Error)
	}
	if v.Notice != "" && v.Notice != p.last.Notice {
		fmt.Fprintln(p.out, v.Notice)
	}
	if v.State == live.Joined && (v.EnglishText != p.last.EnglishText || v.TranslatedText != p.last.TranslatedText) {
		translated := v.TranslatedText
		if translated == "" {
			translated = notFoundMarker
		}
		fmt.Fprintf(p.out, "EN: %s\n>>  %s\n", v.EnglishText, translated)
	}
	p.last = v
}
