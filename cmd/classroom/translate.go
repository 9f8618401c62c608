package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/classroom-assistant/classroom-go/internal/errors"
	"github.com/classroom-assistant/classroom-go/internal/model"
)

func newTranslateCmd(a *app) *cobra.Command {
	var from, to string
	var batch bool

	cmd := &cobra.Command{
		Use:   "translate TEXT...",
		Short: "Look up a translation in the dataset",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if batch {
				results, err := a.api.TranslateBatch(cmd.Context(), args)
				if err != nil {
					return err
				}
				for _, r := range results {
					fmt.Fprintf(out, "%s\n  Bodo: %s\n  Mizo: %s\n",
						r.EnglishText, orNotFound(r.BodoTranslation), orNotFound(r.MizoTranslation))
				}
				return nil
			}

			source, ok := model.ParseLanguage(from)
			if !ok {
				return apperrors.InvalidInput("from", "must be one of english, bodo, mizo")
			}
			target, ok := model.ParseLanguage(to)
			if !ok {
				return apperrors.InvalidInput("to", "must be one of english, bodo, mizo")
			}

			translation, err := a.api.Translate(cmd.Context(), strings.Join(args, " "), source, target)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, orNotFound(translation))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "english", "source language")
	cmd.Flags().StringVar(&to, "to", "bodo", "target language")
	cmd.Flags().BoolVar(&batch, "batch", false, "translate each argument from English into every language")
	return cmd
}
