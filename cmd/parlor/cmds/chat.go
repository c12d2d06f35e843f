package cmds

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/parlorchat/parlor/pkg/config"
	"github.com/parlorchat/parlor/pkg/stream"
	"github.com/parlorchat/parlor/pkg/tui"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [room-id]",
		Short: "Open the chat UI (optionally straight into a room)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEnv()
			if err != nil {
				return err
			}
			// the TUI owns the terminal; keep logs off the screen
			if flagLogFile == "" {
				if err := config.SetupLogging("error", os.DevNull); err != nil {
					return err
				}
			}

			controller, err := stream.NewController(stream.Config{
				ServerURL: e.cfg.Server,
				History:   e.client,
			})
			if err != nil {
				return err
			}

			initialRoom := ""
			if len(args) > 0 {
				initialRoom = strings.TrimSpace(args[0])
			}
			app, err := tui.NewApp(tui.Options{
				Services: tui.Services{
					Session: e.store,
					Auth:    e.client,
					Rooms:   e.client,
					Stream:  controller,
				},
				InitialRoom: initialRoom,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

			eg := errgroup.Group{}
			eg.Go(func() error {
				defer stop()
				_, err := program.Run()
				if err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, context.Canceled) {
					return errors.Wrap(err, "run chat ui")
				}
				return nil
			})
			eg.Go(func() error {
				// close the stream on signal or normal exit so the server
				// sees a normal closure
				<-ctx.Done()
				controller.Unmount()
				return nil
			})
			return eg.Wait()
		},
	}
}
