package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ent0n29/zoya/internal/router"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var language string
	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Answer one query and exit",
		Example: `  zoya ask "what is your name"
  zoya ask --lang fr "who is the president of France"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("query must not be blank")
			}
			language = strings.ToLower(strings.TrimSpace(language))
			if language != "" && !router.Supported(language) {
				return fmt.Errorf("unsupported language %q (expected one of %s)", language, strings.Join(router.Languages, ", "))
			}

			res, err := buildApp(cmd, opts)
			if err != nil {
				return err
			}
			defer res.Close()

			r := res.NewRouter(res.NewTerminalOutput(cmd.OutOrStdout()))
			if language != "" {
				r.SetLanguage(language)
			}
			turn := r.Handle(cmd.Context(), query, router.TurnOptions{Mode: "text"})
			if turn.Playback != nil {
				turn.Playback.Wait()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&language, "lang", "", "reply language (en, hi, te, ta, es, fr)")
	return cmd
}
