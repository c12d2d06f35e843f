package cmds

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newRoomsCmd() *cobra.Command {
	rooms := &cobra.Command{
		Use:   "rooms",
		Short: "List and create chat rooms",
	}
	rooms.AddCommand(newRoomsListCmd(), newRoomsCreateCmd())
	return rooms
}

func newRoomsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all rooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := buildEnv()
			if err != nil {
				return err
			}
			rooms, err := e.client.ListRooms(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "list rooms")
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tOWNER")
			for _, room := range rooms {
				fmt.Fprintf(w, "%s\t%s\t%s\n", room.ID, room.Name, room.OwnerID)
			}
			return w.Flush()
		},
	}
}

func newRoomsCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				// rejected client-side, the server is never called
				return errors.New("room name cannot be empty")
			}
			e, err := buildEnv()
			if err != nil {
				return err
			}
			room, err := e.client.CreateRoom(cmd.Context(), name)
			if err != nil {
				return errors.Wrap(err, "create room")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created room %s (%s)\n", room.Name, room.ID)
			return nil
		},
	}
}
