package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storefront/database"
	"storefront/models"
	"storefront/store"
	"storefront/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func tempDSN(t *testing.T) string {
	return "sqlite://" + filepath.Join(t.TempDir(), "store.db")
}

func TestCommandPresence(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"migrate", "prune-carts", "token"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestPruneCartsDefaultsToRetention(t *testing.T) {
	t.Setenv("CART_RETENTION", "48h")
	sub, _, err := newRootCommand().Find([]string{"prune-carts"})
	require.NoError(t, err)
	assert.Equal(t, "48h0m0s", sub.Flags().Lookup("older-than").DefValue)
}

func TestMigrateSeedsCatalog(t *testing.T) {
	dsn := tempDSN(t)
	out, err := run(t, "--database-url", dsn, "migrate", "--seed")
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")

	db, err := database.Open(dsn)
	require.NoError(t, err)
	var n int64
	require.NoError(t, db.Model(&models.Product{}).Count(&n).Error)
	assert.Positive(t, n)
}

func TestPruneCarts(t *testing.T) {
	dsn := tempDSN(t)
	db, err := database.Open(dsn)
	require.NoError(t, err)

	carts := store.NewCartStore(db, store.NewSessionHasher("k"))
	ctx := context.Background()
	stale, err := carts.GetOrCreateCart(ctx, store.Identity{SessionID: "a2b0c1d4-0000-4000-8000-000000000001"})
	require.NoError(t, err)
	_, err = carts.GetOrCreateCart(ctx, store.Identity{SessionID: "a2b0c1d4-0000-4000-8000-000000000002"})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Cart{}).Where("id = ?", stale.ID).
		Update("updated_at", time.Now().Add(-31*24*time.Hour)).Error)
	sqlDB, _ := db.DB()
	sqlDB.Close()

	out, err := run(t, "--database-url", dsn, "prune-carts", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "would prune")

	out, err = run(t, "--database-url", dsn, "prune-carts", "--older-than", "720h")
	require.NoError(t, err)
	assert.Equal(t, "pruned 1 carts\n", out)

	_, err = run(t, "--database-url", dsn, "prune-carts", "--older-than", "0s")
	assert.ErrorContains(t, err, "must be positive")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "storectl-test-secret")

	out, err := run(t, "token", "ops-1", "--role", "admin", "--email", "ops@test.com")
	require.NoError(t, err)

	claims, err := utils.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "ops@test.com", claims.Email)

	_, err = run(t, "token", "ops-1", "--role", "root")
	assert.ErrorContains(t, err, "invalid role")
}
