package cli

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs"
	"github.com/common-nighthawk/go-figure"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/identity"
	"github.com/sidereusnuntius/portal/internal/initialization"
	"github.com/sidereusnuntius/portal/internal/queue"
	core "github.com/sidereusnuntius/portal/internal/service/impl"
	"github.com/sidereusnuntius/portal/internal/web"
	"github.com/sidereusnuntius/portal/templates"
	"github.com/spf13/cobra"
)

const (
	shellIdleTimeout = 2 * time.Minute
	shutdownTimeout  = 10 * time.Second
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the portal server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrate, _ := cmd.Flags().GetBool("migrate")
			return serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().Bool("migrate", false, "apply pending migrations before serving")
	return cmd
}

func banner(name string) {
	figure.NewFigure(name, "cybermedium", true).Print()
	fmt.Println()
}

func serve(parent context.Context, migrate bool) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	banner(cfg.Name)

	b, err := openBackends(ctx, cfg, migrate)
	if err != nil {
		return err
	}
	defer b.Close()

	blClient, err := initialization.InitQueue(&cfg, b.conn)
	if err != nil {
		return fmt.Errorf("unable to start task queue: %w", err)
	}
	jobs := queue.New(blClient, b.state.Store)

	svc, err := core.New(b.state, jobs)
	if err != nil {
		return err
	}
	reconciler, ok := svc.(queue.Reconciler)
	if !ok {
		return errors.New("service cannot reconcile users")
	}
	jobs.Start(ctx, reconciler)

	ids := identity.New(&cfg, b.state.DB)
	go ids.Run(ctx)

	tmpl, err := templates.New()
	if err != nil {
		return err
	}

	shells := web.NewShells(shellIdleTimeout)
	go shells.Reap(ctx)

	gob.Register(web.Session{})
	manager := scs.NewCookieManager(cfg.SessionKey)
	manager.Secure(cfg.Url.Scheme == "https")
	manager.HttpOnly(true)

	handler := web.New(&cfg, svc, ids, manager, tmpl, shells)
	router := chi.NewRouter()
	handler.Mount(router)

	s := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Uint16("port", cfg.Port).Str("url", cfg.Url.String()).Msg("started server")
		errs <- s.ListenAndServe()
	}()

	select {
	case err = <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shells.CloseAll()
	if err = s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
