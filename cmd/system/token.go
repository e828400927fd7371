package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/api/http/middleware"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/app"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/internal/schema"
	"github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/constants"
	pasetotoken "github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/paseto"
	redispkg "github.com/muthu-2006-p/employeetimesheettracker-sub000/pkg/redis"
)

func NewTokenCommand() *cobra.Command {
	var (
		userFlag string
		roleFlag string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for a directory user",
		Long: `Mint a PASETO access token for local testing and service accounts.

The role is read from the user directory unless --role is given. When
authentication.require_session is on, a session is also registered in Redis.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}

			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			role := schema.Role(roleFlag)
			if role == "" {
				if cfg.Store.Driver == constants.StoreDriverMemory {
					return errors.New("--role is required with the memory store")
				}
				db, err := app.OpenStore(ctx, cfg)
				if err != nil {
					return err
				}
				defer db.Close(context.Background())

				u, err := db.Directory.GetUser(ctx, userID)
				if err != nil {
					return fmt.Errorf("lookup user %s: %w", userID, err)
				}
				role = u.Role
			}
			if !role.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}

			var sessionID *uuid.UUID
			if cfg.Authentication.RequireSession {
				rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
				if err != nil {
					return fmt.Errorf("sessions require redis: %w", err)
				}
				defer rdb.Close()

				sid := uuid.New()
				ttl := time.Duration(cfg.Authentication.Paseto.AccessTTLMinutes) * time.Minute
				if ttl <= 0 {
					ttl = 15 * time.Minute
				}
				if err := rdb.Set(ctx, middleware.SessionKeyPrefix+sid.String(), userID.String(), ttl).Err(); err != nil {
					return fmt.Errorf("register session: %w", err)
				}
				sessionID = &sid
			}

			mgr, err := pasetotoken.NewPasetoManager(cfg)
			if err != nil {
				return err
			}
			tok, err := mgr.IssueAccess(userID, string(role), sessionID)
			if err != nil {
				return err
			}

			fmt.Println(tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&userFlag, "user", "", "User id to mint the token for")
	cmd.Flags().StringVar(&roleFlag, "role", "", "Role override: employee, manager or admin")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
