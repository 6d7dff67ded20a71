// Package cli holds the portal's commands: the server, the migrations and operator account creation.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/config"
	"github.com/sidereusnuntius/portal/internal/db"
	dbimpl "github.com/sidereusnuntius/portal/internal/db/impl"
	"github.com/sidereusnuntius/portal/internal/db/fsdb"
	"github.com/sidereusnuntius/portal/internal/initialization"
	"github.com/sidereusnuntius/portal/internal/state"
	"github.com/sidereusnuntius/portal/internal/storage"
	"github.com/sidereusnuntius/portal/internal/storage/filestore"
	"github.com/sidereusnuntius/portal/internal/storage/s3store"
	"github.com/spf13/cobra"
)

const filePrefix = "/f/"

var (
	configFile string
	cfg        config.Configuration
)

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "portal",
		Short:         "Unified workforce portal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
			if configFile != "" {
				if err = os.Setenv("PORTAL_CONFIG", configFile); err != nil {
					return err
				}
			}
			if cfg, err = config.ReadConfig(); err != nil {
				return err
			}
			if cfg.Debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file (default portal.yaml)")

	serve := newServeCommand()
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve, newMigrateCommand(), newUserCommand())
	return root
}

// Execute runs the command named by the arguments, serve when none is.
func Execute() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Fatal().Err(err).Send()
	}
}

// backends is the state opened from the configuration, with what must be released on exit.
type backends struct {
	conn  *sql.DB
	state *state.State
	close []func() error
}

func (b *backends) Close() {
	for i := len(b.close) - 1; i >= 0; i-- {
		if err := b.close[i](); err != nil {
			log.Warn().Err(err).Msg("failed to release backend")
		}
	}
}

func openBackends(ctx context.Context, cfg config.Configuration, migrate bool) (*backends, error) {
	d, err := initialization.OpenDB(cfg.DbUrl)
	if err != nil {
		return nil, err
	}
	b := &backends{conn: d, close: []func() error{d.Close}}
	log.Info().Str("db", cfg.DbUrl).Msg("database connection established")

	if migrate {
		if err = initialization.SetupDB(&cfg, d, cfg.MigrationsFolder, cfg.DbUrl); err != nil {
			b.Close()
			return nil, err
		}
	}

	relational := dbimpl.New(cfg, d)
	var docs db.Documents = relational
	if cfg.DocumentBackend == config.FirestoreBackend {
		store, err := fsdb.New(ctx, cfg.FirestoreProject)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connecting to firestore: %w", err)
		}
		b.close = append(b.close, store.Close)
		docs = store
		log.Info().Str("project", cfg.FirestoreProject).Msg("using firestore for collections")
	}

	var blobs storage.Storage
	switch cfg.BlobBackend {
	case config.S3Backend:
		blobs, err = s3store.New(ctx, s3store.Options{
			Region:       cfg.S3Region,
			Bucket:       cfg.S3Bucket,
			BaseEndpoint: cfg.S3BaseEndpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
		})
	default:
		blobs, err = filestore.New(cfg.FsRoot, filePrefix)
	}
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("opening %s blob store: %w", cfg.BlobBackend, err)
	}

	b.state = &state.State{
		DB:     relational,
		Docs:   docs,
		Store:  blobs,
		Config: cfg,
	}
	return b, nil
}

var errUsage = errors.New("invalid arguments")
