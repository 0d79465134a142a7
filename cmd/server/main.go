// @title         users-service API
// @version       1.0
// @description   User management service: users, roles, addresses and phones behind OAuth2 bearer tokens.
// @BasePath      /api/v1
// @schemes       http
// @host          localhost:8080
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Access token. Accepted formats: "Bearer <JWT>" or "<JWT>".
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/edgewl2/sp-store-users-management/docs"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "users-service",
		Short:         "User management service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
