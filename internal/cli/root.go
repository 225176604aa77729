package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/noah-isme/crs-api/internal/server"
	"github.com/noah-isme/crs-api/pkg/cache"
	"github.com/noah-isme/crs-api/pkg/config"
	"github.com/noah-isme/crs-api/pkg/database"
	appErrors "github.com/noah-isme/crs-api/pkg/errors"
	"github.com/noah-isme/crs-api/pkg/logger"
)

// App carries the state shared by every console command.
type App struct {
	v          *viper.Viper
	configFile string

	cfg       *config.Config
	logger    *zap.Logger
	db        *sqlx.DB
	container *server.Container
	closers   []func() error
}

// Option customises App.
type Option func(*App)

// WithContainer runs the commands against an existing container instead of opening one from
// configuration.
func WithContainer(cfg *config.Config, c *server.Container) Option {
	return func(a *App) {
		a.cfg = cfg
		a.container = c
		a.db = c.DB
	}
}

// NewRootCommand builds the crs command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	app := &App{v: viper.New()}
	for _, opt := range opts {
		opt(app)
	}

	root := &cobra.Command{
		Use:           "crs",
		Short:         "Course registration console",
		Long:          "Select courses, submit a semester registration, pay the fee and read grade cards from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.open(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return app.close()
		},
	}

	root.PersistentFlags().StringVarP(&app.configFile, "config", "c", "", "configuration file (default: .env and environment)")
	root.PersistentFlags().StringP("student", "s", "", "student id to act as (env CRS_STUDENT)")
	_ = app.v.BindPFlag("student", root.PersistentFlags().Lookup("student"))
	app.v.SetEnvPrefix("crs")
	_ = app.v.BindEnv("student")

	root.AddCommand(
		app.migrateCommand(),
		app.seedCommand(),
		app.tokenCommand(),
		app.semestersCommand(),
		app.activateCommand(),
		app.coursesCommand(),
		app.addCommand(),
		app.dropCommand(),
		app.listCommand(),
		app.statusCommand(),
		app.submitCommand(),
		app.feeCommand(),
		app.payCommand(),
		app.gradeCardCommand(),
		app.notificationsCommand(),
	)
	return root
}

// Execute runs the command tree and renders failures for the terminal.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...Option) int {
	root := NewRootCommand(opts...)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, FormatError(err))
		return 1
	}
	return 0
}

// FormatError renders err as "CODE: message" for domain errors.
func FormatError(err error) string {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return fmt.Sprintf("%s: %s", appErr.Code, appErr.Message)
	}
	return "error: " + err.Error()
}

func (a *App) open(ctx context.Context) (err error) {
	if a.container != nil {
		if a.logger == nil {
			a.logger = zap.NewNop()
		}
		return nil
	}
	defer func() {
		if err != nil {
			_ = a.close()
		}
	}()

	cfg, err := config.LoadFile(a.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	log, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.logger = log
	a.closers = append(a.closers, func() error {
		_ = log.Sync()
		return nil
	})

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, using in-process cache", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		a.closers = append(a.closers, redisClient.Close)
	}

	a.container = server.NewContainer(cfg, db, redisClient, log)
	return nil
}

func (a *App) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) student() (string, error) {
	id := strings.TrimSpace(a.v.GetString("student"))
	if id == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "student id is required (--student or CRS_STUDENT)")
	}
	return id, nil
}
