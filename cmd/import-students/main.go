// Command import-students loads student accounts from a CSV roster.
//
// The roster needs user_id, name and password columns and may carry a
// preferred_language column. Existing students are updated in place.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/classroom-assistant/classroom-go/internal/config"
	"github.com/classroom-assistant/classroom-go/internal/database"
	"github.com/classroom-assistant/classroom-go/internal/model"
	"github.com/classroom-assistant/classroom-go/internal/repository"
	"github.com/classroom-assistant/classroom-go/internal/util"
)

type studentRow struct {
	UserID            string
	Name              string
	Password          string
	PreferredLanguage string
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var dryRun bool
	cmd := &cobra.Command{
		Use:          "import-students ROSTER.csv",
		Short:        "Create or update student accounts from a CSV roster",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the roster without writing")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, path string, dryRun bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := parseRoster(f)
	if err != nil {
		return err
	}
	log.Info().Int("count", len(rows)).Str("path", path).Msg("roster parsed")

	if dryRun {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	students := repository.NewStudentRepository(db.DB)
	err = db.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := students.WithTx(tx)
		for _, row := range rows {
			hash, err := util.HashPassword(row.Password)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", row.UserID, err)
			}
			if _, err := repo.Upsert(ctx, model.UpsertStudentParams{
				UserID:            row.UserID,
				Name:              row.Name,
				PasswordHash:      hash,
				PreferredLanguage: row.PreferredLanguage,
			}); err != nil {
				return fmt.Errorf("upsert %s: %w", row.UserID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Int("count", len(rows)).Msg("students imported")
	return nil
}

func parseRoster(r io.Reader) ([]studentRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"user_id", "name", "password"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("roster is missing the %s column", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []studentRow
	seen := map[string]bool{}
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row := studentRow{
			UserID:   strings.ToUpper(field(rec, "user_id")),
			Name:     field(rec, "name"),
			Password: field(rec, "password"),
		}
		if row.UserID == "" && row.Name == "" && row.Password == "" {
			continue
		}
		if row.UserID == "" || row.Name == "" || row.Password == "" {
			return nil, fmt.Errorf("line %d: user_id, name and password are required", line)
		}
		if seen[row.UserID] {
			return nil, fmt.Errorf("line %d: duplicate user_id %s", line, row.UserID)
		}
		seen[row.UserID] = true

		lang := model.LanguageBodo
		if raw := field(rec, "preferred_language"); raw != "" {
			parsed, ok := model.ParseLanguage(raw)
			if !ok {
				return nil, fmt.Errorf("line %d: unsupported language %q", line, raw)
			}
			lang = parsed
		}
		row.PreferredLanguage = string(lang)

		rows = append(rows, row)
	}
	return rows, nil
}
