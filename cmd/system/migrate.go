package system

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/app"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/authorize"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/constants"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/database"
)

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create Mongo indexes and write the default authorization policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			if strings.ToLower(cfg.Store.Driver) == constants.StoreDriverMongo {
				fmt.Println("Ensuring Mongo indexes.")
				ctx, cancel := context.WithTimeout(context.Background(), database.FromCentralConfig(cfg.Mongo).ConnectTimeout())
				defer cancel()

				store, db, err := app.OpenMongo(ctx, cfg)
				if err != nil {
					return fmt.Errorf("failed to connect to mongo: %w", err)
				}
				defer db.Close(context.Background())

				if err := store.EnsureIndexes(ctx); err != nil {
					return fmt.Errorf("failed to create indexes: %w", err)
				}
			} else {
				slog.Info("store driver has no schema to migrate", "driver", cfg.Store.Driver)
			}

			if cfg.Authorization.PolicyPath != "" {
				fmt.Println("Writing authorization policy.")
				if _, err := os.Stat(cfg.Authorization.PolicyPath); errors.Is(err, os.ErrNotExist) {
					if err := os.WriteFile(cfg.Authorization.PolicyPath, nil, 0o644); err != nil {
						return fmt.Errorf("failed to create policy file: %w", err)
					}
				}
				auth, err := authorize.New(authorize.FromCentralConfig(cfg.Authorization))
				if err != nil {
					return fmt.Errorf("failed to create authorization: %w", err)
				}
				if err := auth.Raw().SavePolicy(); err != nil {
					return fmt.Errorf("failed to save policy to %s: %w", cfg.Authorization.PolicyPath, err)
				}
			}

			fmt.Println("Migrations executed successfully.")
			return nil
		},
	}

	return cmd
}
