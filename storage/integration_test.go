package storage

import (
	"context"
	"os"
	"testing"

	"github.com/formgate/formgate/storage/model"
)

// TestDriverRoundTrip opens every configured database, migrates it and
// registers a user through the backends. Databases other than sqlite are
// only tested if their DSN is provided.
func TestDriverRoundTrip(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	configs := map[string]Config{
		"sqlite": {
			Driver:  DriverSQLite,
			DataDir: t.TempDir(),
		},
		"mysql": {
			Driver: DriverMySQL,
			DSN:    os.Getenv("MYSQL_DSN"),
		},
		"postgres": {
			Driver: DriverPostgres,
			DSN:    os.Getenv("POSTGRES_DSN"),
		},
	}
	for name, config := range configs {
		t.Run(
			name, func(t *testing.T) {
				if config.Driver != DriverSQLite && config.DSN == "" {
					t.Skipf("Skipping %s test. Set %s_DSN environment variable", name, config.Driver)
				}
				store, err := NewStorage(config)
				if err != nil {
					t.Fatalf("Failed to create %s storage: %v", name, err)
				}
				defer store.Close()

				ctx := context.Background()
				if err = store.Ping(ctx); err != nil {
					t.Fatalf("Failed to ping %s storage: %v", name, err)
				}

				backends := store.Backends()
				user := &model.User{Email: name + "-integration@example.com"}
				key := &model.APIKey{
					KeyHash:   "integration-" + name,
					KeyPrefix: "fgk_live_integ",
				}
				if err = backends.Users.Register(ctx, user, key); err != nil {
					t.Fatalf("Failed to register user: %v", err)
				}
				found, err := backends.APIKeys.FindActiveByHash(ctx, key.KeyHash)
				if err != nil {
					t.Fatalf("Failed to find key: %v", err)
				}
				if found.User == nil || found.User.Email != user.Email {
					t.Fatalf("Key was not joined to its user: %+v", found)
				}
			},
		)
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := Connect(Config{Driver: "oracle"}); err == nil {
		t.Fatal("Expected an error for an unsupported driver")
	}
	if _, err := DSN("oracle", DSNConf{}); err == nil {
		t.Fatal("Expected an error for an unsupported driver")
	}
	dsn, err := DSN(DriverPostgres, DSNConf{User: "formgate", Host: "db", DB: "forms"})
	if err != nil {
		t.Fatalf("Failed to build dsn: %v", err)
	}
	if want := "host=db user=formgate password= dbname=forms port=5432"; dsn != want {
		t.Fatalf("Unexpected dsn: got %q want %q", dsn, want)
	}
}
