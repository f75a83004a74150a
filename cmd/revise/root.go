package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/config"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/database"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/migrations"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/repository"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/services"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	flagEmail string
	flagDB    string
	flagTZ    string
)

// env holds what every subcommand shares once PersistentPreRunE has run.
var env struct {
	cfg   *config.Config
	db    *gorm.DB
	repo  *repository.ProblemRepository
	users *repository.UserRepository
	sched *services.DueScheduler
	loc   *time.Location
}

var rootCmd = &cobra.Command{
	Use:   "revise",
	Short: "Track and revise solved coding problems from the terminal",
	Long: `revise works on the same database as the Revision Mania server.
Problems you solved come back on fixed interval days (1, 3, 7, 15 and 30 by
default) until you solve them again.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger.Init(cfg.Env, cfg.LogLevel)

		dsn := cfg.DatabaseURL
		if flagDB != "" {
			dsn = flagDB
		}
		db, err := database.Open(dsn)
		if err != nil {
			return err
		}
		// Local SQLite files are created on demand.
		if db.Dialector.Name() == "sqlite" {
			if err := migrations.Apply(db); err != nil {
				return err
			}
		}

		intervals, err := cfg.Intervals()
		if err != nil {
			return err
		}

		loc := cfg.Location()
		if flagTZ != "" {
			if loc, err = time.LoadLocation(flagTZ); err != nil {
				return fmt.Errorf("invalid --tz %q: %w", flagTZ, err)
			}
		}

		// Announce writes on the shared channel so running servers re-list.
		if cfg.RedisAddr != "" && database.Redis == nil {
			database.InitRedis(cfg.RedisAddr, cfg.RedisPassword)
		}
		repo := repository.NewProblemRepository(db)
		repo.OnCommit(repository.NewFeed(repo, database.Redis).Publish)

		env.cfg = cfg
		env.db = db
		env.repo = repo
		env.users = repository.NewUserRepository(db)
		env.sched = services.NewDueScheduler(intervals)
		env.loc = loc
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagEmail, "email", "e", os.Getenv("REVISE_EMAIL"), "account to act on (default $REVISE_EMAIL)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database DSN, overrides DATABASE_URL (sqlite://path for a local file)")
	rootCmd.PersistentFlags().StringVar(&flagTZ, "tz", "", "IANA time zone deciding calendar days, overrides TIMEZONE")
}

func currentUser(ctx context.Context) (*models.User, error) {
	if flagEmail == "" {
		return nil, errors.New("no account selected, pass --email or set REVISE_EMAIL")
	}
	u, err := env.users.FindByEmail(ctx, flagEmail)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("no account for %s", flagEmail)
	}
	return u, err
}

// openStore loads the selected user's problems. Without a live source the
// store queries once and tracks its own writes.
func openStore(ctx context.Context) (*services.ProblemStore, error) {
	u, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	store := services.NewProblemStore(u.ID, env.repo, nil, env.sched, services.StoreOptions{
		Now:                    func() time.Time { return time.Now().In(env.loc) },
		UndoWindow:             env.cfg.UndoWindow,
		RefreshOriginalOnSolve: env.cfg.RefreshOriginalOnSolve,
	})
	if err := store.Open(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// resolveID accepts a full id or any unique prefix of one.
func resolveID(store *services.ProblemStore, prefix string) (string, error) {
	if _, ok := store.Find(prefix); ok {
		return prefix, nil
	}
	var matches []string
	for _, p := range store.Problems() {
		if strings.HasPrefix(p.ID, prefix) {
			matches = append(matches, p.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no problem with id %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous (%d matches)", prefix, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
