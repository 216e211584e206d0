// Command voter is the student-election voting client: voucher login,
// sequential ballot casting, and post-vote verification by receipt code.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hanieyo1407/official-voting-system-sub001/internal/adapters/gateway/electionapi"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/adapters/storage/memory"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/adapters/storage/sqlite"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/config"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/ports"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/services"
)

var (
	flagAPIURL   string
	flagStateDir string
	flagVerbose  bool
)

type app struct {
	guard   *services.LockoutService
	auth    *services.AuthService
	verify  *services.VerifyService
	cleanup func()
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagAPIURL != "" {
		cfg.APIBaseURL = flagAPIURL
	}
	if flagStateDir != "" {
		cfg.StateDir = flagStateDir
	}

	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var store ports.Store
	cleanup := func() {}
	if err := os.MkdirAll(cfg.StateDir, 0o700); err == nil {
		if db, err := sqlite.Open(cfg.StatePath()); err == nil {
			store = db
			cleanup = func() { db.Close() }
		} else {
			logger.Warn("state file unavailable, lockout and resume will not survive this run",
				slog.String("error", err.Error()))
		}
	}
	if store == nil {
		store = memory.New()
	}

	gateway := electionapi.New(cfg.APIBaseURL, logger)
	guard := services.NewLockoutService(store, nil, logger)
	ballots := services.NewBallotService(gateway, store, logger)

	return &app{
		guard:   guard,
		auth:    services.NewAuthService(gateway, guard, ballots, logger),
		verify:  services.NewVerifyService(gateway, guard, logger),
		cleanup: cleanup,
	}, nil
}

func main() {
	root := &cobra.Command{
		Use:           "voter",
		Short:         "Student election voting client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Election backend base URL (overrides ELECTION_API_URL)")
	root.PersistentFlags().StringVar(&flagStateDir, "state-dir", "", "Directory for local client state (overrides VOTER_STATE_DIR)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newVoteCmd())
	root.AddCommand(newVerifyCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
