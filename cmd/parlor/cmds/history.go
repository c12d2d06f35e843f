package cmds

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <room-id>",
		Short: "Print a room's message history, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID := strings.TrimSpace(args[0])
			if roomID == "" {
				return errors.New("room id cannot be empty")
			}
			e, err := buildEnv()
			if err != nil {
				return err
			}
			events, err := e.client.Messages(cmd.Context(), roomID)
			if err != nil {
				return errors.Wrap(err, "load history")
			}
			out := cmd.OutOrStdout()
			for _, ev := range events {
				if ev.Timestamp != nil {
					fmt.Fprintf(out, "[%s] %s: %s\n", ev.Timestamp.Local().Format("2006-01-02 15:04:05"), ev.Sender, ev.Text)
				} else {
					fmt.Fprintf(out, "%s: %s\n", ev.Sender, ev.Text)
				}
			}
			return nil
		},
	}
}
