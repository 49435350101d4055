package auth

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"bankassist/internal/contextutil"
	"bankassist/internal/corpus"
	"bankassist/internal/storage"
)

// SeedCustomer is one entry of the credentials file.
type SeedCustomer struct {
	ID       string `yaml:"id"`
	Password string `yaml:"password"`
}

// SeedFile is the YAML credentials file:
//
//	customers:
//	  - id: CUST1001
//	    password: secret
type SeedFile struct {
	Customers []SeedCustomer `yaml:"customers"`
}

// LoadSeedFile reads and validates a credentials file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	for i, c := range file.Customers {
		id := strings.ToUpper(strings.TrimSpace(c.ID))
		if !corpus.ValidCustomerID(id) {
			return nil, fmt.Errorf("credentials file entry %d: invalid customer id %q", i, c.ID)
		}
		if c.Password == "" {
			return nil, fmt.Errorf("credentials file entry %d: empty password for %s", i, id)
		}
		file.Customers[i].ID = id
	}

	return &file, nil
}

// DemoSeed returns the demo deployment's customers, whose passwords equal
// their IDs. It is used only when no credentials file exists.
func DemoSeed() *SeedFile {
	ids := []string{"CUST1001", "CUST1002", "CUST1003", "CUST1004"}
	file := &SeedFile{Customers: make([]SeedCustomer, len(ids))}
	for i, id := range ids {
		file.Customers[i] = SeedCustomer{ID: id, Password: id}
	}
	return file
}

// Seed hashes every password with bcrypt at cost and upserts the customers.
// It returns the number of customers written.
func Seed(ctx context.Context, customers storage.CustomerStore, file *SeedFile, cost int) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	for _, c := range file.Customers {
		hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), cost)
		if err != nil {
			return 0, fmt.Errorf("failed to hash password for %s: %w", c.ID, err)
		}
		if err := customers.Upsert(ctx, c.ID, string(hash)); err != nil {
			return 0, err
		}
	}

	logger.InfoContext(ctx, "seeded customer credentials", "count", len(file.Customers))
	return len(file.Customers), nil
}
