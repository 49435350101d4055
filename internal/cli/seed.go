package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"bankassist/internal/auth"
)

var seedCmd = &cobra.Command{
	Use:   "seed [credentials.yaml]",
	Short: "Load customer credentials",
	Long: `Hashes the passwords in a YAML credentials file with bcrypt and stores
them in the database. Defaults to CREDENTIALS_FILE.

  customers:
    - id: CUST1001
      password: secret`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	setupLogging(cfg, os.Stderr)

	path := cfg.CredentialsFile
	if len(args) == 1 {
		path = args[0]
	}

	file, err := auth.LoadSeedFile(path)
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()

	n, err := auth.Seed(cmd.Context(), a.customers, file, bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	cmd.Printf("Seeded %d customers from %s\n", n, path)
	return nil
}
