package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-eca-api/internal/models"
	"github.com/noah-isme/sma-eca-api/internal/service"
)

// TokenCmd signs an access token with the configured JWT secret for local testing.
func TokenCmd(app *AppContext) *cobra.Command {
	var user, role, school string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config()
			if err != nil {
				return err
			}
			claims := models.JWTClaims{UserID: user, Role: models.UserRole(role), SchoolID: school}
			if len(cfg.JWT.Audience) > 0 {
				claims.Audience = cfg.JWT.Audience
			}
			token, err := service.NewTokenVerifier(cfg.JWT).IssueToken(claims, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.Out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "cli-admin", "User ID claim")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "Role claim")
	cmd.Flags().StringVar(&school, "school", "", "School the token is scoped to")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
