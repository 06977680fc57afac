package main

import (
	"fmt"
	"strings"

	"github.com/franciscosanchezn/testigo-api/internal/auth"
	"github.com/franciscosanchezn/testigo-api/internal/database"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/franciscosanchezn/testigo-api/internal/router"
	"github.com/franciscosanchezn/testigo-api/internal/services"
	"github.com/spf13/cobra"
)

var (
	clientRole   string
	clientName   string
	clientScopes string
)

var createClientCmd = &cobra.Command{
	Use:   "create-client",
	Short: "Create a development OAuth2 client",
	Long: `Create a client_credentials OAuth2 client owned by the demo account of
the given role. The secret is printed once and cannot be recovered.

Exchange it for a token with:
  curl -X POST http://localhost:8080/oauth/token \
    -d grant_type=client_credentials -d client_id=<id> -d client_secret=<secret>`,
	RunE: runCreateClient,
}

func init() {
	createClientCmd.Flags().StringVar(&clientRole, "role", string(models.RoleAdmin), "Role of the owning demo user (admin, operator or contributor)")
	createClientCmd.Flags().StringVar(&clientName, "name", "dev-client", "Client name")
	createClientCmd.Flags().StringVar(&clientScopes, "scopes", "read write", "Space separated scopes")
}

func demoUserFor(role models.Role) (database.DemoUser, error) {
	for _, demo := range database.DemoUsers {
		if demo.Role == role {
			return demo, nil
		}
	}
	return database.DemoUser{}, fmt.Errorf("no demo user for role %s", role)
}

func runCreateClient(cmd *cobra.Command, args []string) error {
	role, err := models.ParseRole(clientRole)
	if err != nil {
		return err
	}
	demo, err := demoUserFor(role)
	if err != nil {
		return err
	}

	conf, db, err := bootstrap()
	if err != nil {
		return err
	}
	owner, err := database.EnsureUser(db, demo)
	if err != nil {
		return err
	}

	app, err := router.New(conf, db, nil)
	if err != nil {
		return err
	}
	client, err := app.Clients.CreateClient(cmd.Context(), auth.Identity{
		UserID: owner.ID,
		Email:  owner.Email,
		Role:   owner.Role,
	}, services.CreateClientInput{
		Name:   clientName,
		Scopes: strings.Fields(clientScopes),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Client created for %s (%s)\n", owner.Email, owner.Role)
	fmt.Fprintf(out, "Client ID:     %s\n", client.ID)
	fmt.Fprintf(out, "Client Secret: %s\n", client.ClientSecret)
	fmt.Fprintf(out, "Scopes:        %s\n", client.Scopes)
	return nil
}
