package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"creditdash/internal/agent"
)

func newAskCmd(root *rootOptions) *cobra.Command {
	var threadID string
	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Ask the analyst agent one question and stream the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return fmt.Errorf("question is empty")
			}
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			client, err := agent.New(cfg.Agent, agent.WithLogger(log))
			if err != nil {
				return err
			}
			reply, err := client.Run(cmd.Context(), question, threadID, func(frag string) {
				fmt.Fprint(os.Stdout, frag)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout)
			if reply.ThreadID != "" {
				fmt.Fprintf(os.Stderr, "thread: %s\n", reply.ThreadID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "continue an existing agent thread")
	return cmd
}
