package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// migrationsDir is where a real deployment is expected to keep its SQL
// migration files; this command does not apply them, it only names the
// path, since the physical schema itself is out of scope here.
const migrationsDir = "./migrations"

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Print the SQL migration directory (does not apply migrations)",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("schema migrations are not applied by %s; SQL lives under %s\n", app, migrationsDir)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
