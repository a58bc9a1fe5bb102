package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session on the terminal",
		Long: `Start an interactive session: pick a language, then voice or text mode.

Type "stop" to cut the current reply, "reset" to forget the conversation and
"exit" to leave a session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, opts)
		},
	}
}

func runChat(cmd *cobra.Command, opts *rootOptions) error {
	res, err := buildApp(cmd, opts)
	if err != nil {
		return err
	}
	defer res.Close()

	loop := res.NewLoop(cmd.InOrStdin(), cmd.OutOrStdout())
	if err := loop.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
