// Command roomctl joins a room from the terminal as a teacher or a student.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"roomsync/internal/config"
	"roomsync/internal/identity"
	"roomsync/internal/logging"
	"roomsync/internal/room"
	"roomsync/internal/transport"
	"roomsync/pkg/events"
	"roomsync/pkg/interfaces"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// globals carries the persistent flags and what PersistentPreRunE builds from them.
type globals struct {
	configPath string
	relayURL   string
	topic      string
	passcode   string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
	// dial opens a room client; tests replace it with an in-memory bus.
	dial func(ctx context.Context, g *globals, role events.Role) (*room.Client, error)
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&globals{dial: dialRelay})
}

func newRootCmdWith(g *globals) *cobra.Command {
	root := &cobra.Command{
		Use:           "roomctl",
		Short:         "Take part in a roomsync classroom from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&g.configPath, "config", os.Getenv("ROOMSYNC_CONFIG_FILE"), "JSON config file")
	flags.StringVar(&g.relayURL, "relay", "", "relay websocket URL; empty string runs locally")
	flags.StringVar(&g.topic, "topic", "", "room topic (default from config)")
	flags.StringVar(&g.passcode, "passcode", "", "shared room passcode")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		newWatchCmd(g),
		newVoiceCmd(g),
		newReactCmd(g),
		newVoteCmd(g),
		newCheckinCmd(g),
		newDotCmd(g),
		newNoteCmd(g),
		newRoleCmd(g),
		newTeachCmd(g),
		newSuggestCmd(g),
		newDemoCmd(g),
	)
	return root
}

func (g *globals) load(cmd *cobra.Command) error {
	if g.cfg == nil {
		g.cfg = config.LoadConfigWithPrecedence(g.configPath)
	}
	if cmd.Flags().Changed("relay") {
		g.cfg.Client.RelayURL = g.relayURL
	}
	if g.topic == "" {
		g.topic = g.cfg.Room.Topic
	}

	if g.logger == nil {
		level := "warn"
		if g.verbose {
			level = "debug"
		}
		logger, err := logging.New("development", level)
		if err != nil {
			return err
		}
		g.logger = logger
	}
	return nil
}

// dialRelay connects through the configured relay, falling back to local mode.
func dialRelay(ctx context.Context, g *globals, role events.Role) (*room.Client, error) {
	id := identity.New()
	opts := transport.Options{ParticipantID: id, Role: role, Passcode: g.passcode}
	tr := transport.Dial(ctx, g.cfg.Client, g.topic, opts, g.logger)
	return room.New(room.Options{Topic: g.topic, Role: role, ID: id, Transport: tr, Logger: g.logger})
}

// open dials and warns on stderr when the room runs locally only.
func (g *globals) open(cmd *cobra.Command, role events.Role) (*room.Client, error) {
	c, err := g.dial(cmd.Context(), g, role)
	if err != nil {
		return nil, err
	}
	if c.Status() != interfaces.StatusConnected {
		fmt.Fprintln(cmd.ErrOrStderr(), "relay unavailable: running locally, nothing is shared")
	}
	return c, nil
}

// defaultRole reads the configured client role.
func (g *globals) defaultRole() events.Role {
	if r := events.Role(g.cfg.Client.Role); r.Valid() {
		return r
	}
	return events.RoleStudent
}
