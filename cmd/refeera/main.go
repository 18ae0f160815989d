// Command refeera runs the referral and onboarding API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "refeera",
		Short:         "Referral and onboarding API for partners, businesses and users",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("env-file", "", "load environment from this file before reading config")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
