package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sidereusnuntius/portal/internal/domain"
	"github.com/sidereusnuntius/portal/internal/identity"
	"github.com/sidereusnuntius/portal/internal/queue"
	core "github.com/sidereusnuntius/portal/internal/service/impl"
	"github.com/spf13/cobra"
)

func newUserCommand() *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage portal accounts.",
	}

	var name, password string
	create := &cobra.Command{
		Use:   "create <matricula or email>",
		Short: "Create an account and its user record.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || password == "" {
				return fmt.Errorf("%w: --name and --password are required", errUsage)
			}
			return createUser(cmd.Context(), args[0], name, password)
		},
	}
	create.Flags().StringVar(&name, "name", "", "display name")
	create.Flags().StringVar(&password, "password", "", "initial password")

	user.AddCommand(create)
	return user
}

// noQueue refuses background work; the command runs the reconciliation inline instead.
type noQueue struct{}

func (noQueue) DeleteBlob(ctx context.Context, path string) error {
	return fmt.Errorf("no task queue to delete %s", path)
}

func (noQueue) Reconcile(ctx context.Context, id domain.Identity) error {
	return fmt.Errorf("no task queue to reconcile %s", id.Subject)
}

var _ queue.Queue = noQueue{}

func createUser(ctx context.Context, login, name, password string) error {
	b, err := openBackends(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer b.Close()

	id, err := identity.New(&cfg, b.state.DB).SignUp(ctx, name, login, password, password)
	if err != nil {
		return err
	}

	svc, err := core.New(b.state, noQueue{})
	if err != nil {
		return err
	}
	u, err := svc.EnsureUser(ctx, id)
	if err != nil {
		return err
	}
	log.Info().Str("subject", id.Subject).Str("matricula", u.Matricula).Bool("admin", u.Admin).Msg("account created")
	return nil
}
