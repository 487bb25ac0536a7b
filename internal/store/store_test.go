package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-authgate/tokenstore/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/mysql"
)

// TestStoreWithSQLite tests store operations with SQLite
func TestStoreWithSQLite(t *testing.T) {
	testBasicOperations(t, DriverSQLite, nil)
}

// TestStoreWithPostgres tests store operations with PostgreSQL
func TestStoreWithPostgres(t *testing.T) {
	// Skip if running short tests or Docker is not available
	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}

	// Recover from panic if Docker is not available
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("Skipping PostgreSQL test: Docker not available (panic: %v)", r)
		}
	}()

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("Skipping PostgreSQL test: Docker not available (%v)", err)
		return
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	testBasicOperations(t, DriverPostgres, pgContainer)
}

// createFreshStore creates a new store instance for test isolation
// For SQLite, each call creates a fresh :memory: database
// For PostgreSQL, each call creates a uniquely-named database in the container
func createFreshStore(t *testing.T, driver string, pgContainer *postgres.PostgresContainer) *Store {
	t.Helper()

	var dsn string
	switch driver {
	case DriverSQLite:
		dsn = ":memory:"
	case DriverPostgres:
		dbName := "test_" + uuid.New().String()[:8]

		ctx := context.Background()

		createDBCmd := fmt.Sprintf("CREATE DATABASE %s", dbName)
		_, _, err := pgContainer.Exec(
			ctx,
			[]string{"psql", "-U", "testuser", "-d", "testdb", "-c", createDBCmd},
		)
		require.NoError(t, err)

		host, err := pgContainer.Host(ctx)
		require.NoError(t, err)
		port, err := pgContainer.MappedPort(ctx, "5432")
		require.NoError(t, err)
		dsn = fmt.Sprintf(
			"host=%s port=%s user=testuser password=testpass dbname=%s sslmode=disable",
			host, port.Port(), dbName,
		)

		t.Cleanup(func() {
			dropDBCmd := fmt.Sprintf("DROP DATABASE IF EXISTS %s WITH (FORCE)", dbName)
			_, _, _ = pgContainer.Exec(
				context.Background(),
				[]string{"psql", "-U", "testuser", "-d", "testdb", "-c", dropDBCmd},
			)
		})
	default:
		t.Fatalf("unsupported driver: %s", driver)
	}

	store, err := New(context.Background(), driver, dsn)
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// createTestClient persists a client with a unique name
func createTestClient(t *testing.T, store *Store) *models.OAuthClient {
	t.Helper()
	client := &models.OAuthClient{Name: "client-" + uuid.New().String()[:8]}
	require.NoError(t, store.CreateClient(context.Background(), client))
	require.NotZero(t, client.ID)
	return client
}

// setClock pins the store clock to the given instant
func setClock(store *Store, at time.Time) {
	store.now = func() time.Time { return at }
}

// testBasicOperations tests the token lifecycle on the store
// Each subtest creates a fresh store instance for isolation
func testBasicOperations(t *testing.T, driver string, pgContainer *postgres.PostgresContainer) {
	ctx := context.Background()

	t.Run("IssueToken", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		client := createTestClient(t, store)

		token, err := store.IssueToken(ctx, client, "read write")
		require.NoError(t, err)
		assert.Len(t, token.Code, IssueCodeLength)
		assert.Equal(t, client.ID, token.ClientID)
		assert.Equal(t, "read write", token.Scope)
		assert.Nil(t, token.Identity)
		assert.Nil(t, token.Revoked)
		assert.True(t, token.IsValid())
	})

	t.Run("IssueToken_AllowsDuplicates", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		client := createTestClient(t, store)

		first, err := store.IssueToken(ctx, client, "read")
		require.NoError(t, err)
		second, err := store.IssueToken(ctx, client, "read")
		require.NoError(t, err)

		assert.NotEqual(t, first.Code, second.Code)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("IssueToken_NilClient", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		_, err := store.IssueToken(ctx, nil, "read")
		assert.ErrorIs(t, err, ErrInvalidClient)
	})

	t.Run("FindByCode", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		client := createTestClient(t, store)

		token, err := store.IssueToken(ctx, client, "read")
		require.NoError(t, err)

		found, err := store.FindByCode(ctx, token.Code)
		require.NoError(t, err)
		assert.Equal(t, token.ID, found.ID)
		assert.Equal(t, token.Code, found.Token())
	})

	t.Run("FindByCode_Unknown", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		_, err := store.FindByCode(ctx, "does-not-exist")
		assert.ErrorIs(t, err, ErrTokenNotFound)
	})

	t.Run("Revoke_HidesFromFindByCode", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		client := createTestClient(t, store)

		token, err := store.GetOrIssueToken(ctx, "alice", client, "read")
		require.NoError(t, err)

		require.NoError(t, store.Revoke(ctx, token))
		assert.NotNil(t, token.Revoked, "revoke should reload the token")
		assert.Nil(t, token.GrantKey, "revoke should release the grant key")

		_, err = store.FindByCode(ctx, token.Code)
		assert.ErrorIs(t, err, ErrTokenNotFound)

		tokens, err := store.TokensForIdentity(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, tokens, 1)
		assert.Equal(t, token.Code, tokens[0].Code)
		assert.True(t, tokens[0].IsRevoked())
	})

	t.Run("Revoke_Twice", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		client := createTestClient(t, store)
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		setClock(store, base)
		token, err := store.IssueToken(ctx, client, "read")
		require.NoError(t, err)

		require.NoError(t, store.Revoke(ctx, token))
		first := *token.Revoked

		setClock(store, base.Add(time.Minute))
		require.NoError(t, store.Revoke(ctx, token))
		assert.True(t, token.Revoked.After(first), "second revoke should move the timestamp forward")
	})

	t.Run("Revoke_Missing", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		err := store.Revoke(ctx, &models.AccessToken{ID: 9999})
		assert.ErrorIs(t, err, ErrTokenNotFound)
	})

	t.Run("GetOrIssueToken_Reuses", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		client := createTestClient(t, store)

		first, err := store.GetOrIssueToken(ctx, "alice", client, "read")
		require.NoError(t, err)
		assert.Len(t, first.Code, GrantCodeLength)
		require.NotNil(t, first.Identity)
		assert.Equal(t, "alice", *first.Identity)

		second, err := store.GetOrIssueToken(ctx, "alice", client, "read")
		require.NoError(t, err)
		assert.Equal(t, first.Code, second.Code)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("GetOrIssueToken_IntegerIdentity", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		client := createTestClient(t, store)

		first, err := store.GetOrIssueToken(ctx, 42, client, "read")
		require.NoError(t, err)
		require.NotNil(t, first.Identity)
		assert.Equal(t, "42", *first.Identity)

		second, err := store.GetOrIssueToken(ctx, int64(42), client, "read")
		require.NoError(t, err)
		assert.Equal(t, first.Code, second.Code)
	})

	t.Run("GetOrIssueToken_DistinctKeys", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		client := createTestClient(t, store)
		other := createTestClient(t, store)

		base, err := store.GetOrIssueToken(ctx, "alice", client, "read")
		require.NoError(t, err)

		otherScope, err := store.GetOrIssueToken(ctx, "alice", client, "write")
		require.NoError(t, err)
		otherClient, err := store.GetOrIssueToken(ctx, "alice", other, "read")
		require.NoError(t, err)
		otherIdentity, err := store.GetOrIssueToken(ctx, "bob", client, "read")
		require.NoError(t, err)

		codes := map[string]bool{
			base.Code:          true,
			otherScope.Code:    true,
			otherClient.Code:   true,
			otherIdentity.Code: true,
		}
		assert.Len(t, codes, 4)
	})

	t.Run("GetOrIssueToken_AfterRevoke", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		client := createTestClient(t, store)

		first, err := store.GetOrIssueToken(ctx, "alice", client, "read")
		require.NoError(t, err)
		require.NoError(t, store.Revoke(ctx, first))

		second, err := store.GetOrIssueToken(ctx, "alice", client, "read")
		require.NoError(t, err)
		assert.NotEqual(t, first.Code, second.Code)
		assert.True(t, second.IsValid())
	})

	t.Run("GetOrIssueToken_InvalidIdentity", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		client := createTestClient(t, store)

		for _, identity := range []any{3.5, struct{}{}, nil, []string{"alice"}} {
			_, err := store.GetOrIssueToken(ctx, identity, client, "read")
			assert.ErrorIs(t, err, ErrInvalidIdentity, "identity %#v", identity)
		}
	})

	t.Run("GetOrIssueToken_Concurrent", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		client := createTestClient(t, store)

		const workers = 8
		codes := make([]string, workers)
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for i := range workers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				token, err := store.GetOrIssueToken(ctx, "racer", client, "read")
				errs[i] = err
				if err == nil {
					codes[i] = token.Code
				}
			}(i)
		}
		wg.Wait()

		for i := range workers {
			require.NoError(t, errs[i])
			assert.Equal(t, codes[0], codes[i])
		}

		tokens, err := store.TokensForIdentity(ctx, "racer")
		require.NoError(t, err)
		assert.Len(t, tokens, 1, "concurrent callers must not create duplicate active tokens")
	})

	t.Run("TokensForIdentity", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		client := createTestClient(t, store)

		_, err := store.GetOrIssueToken(ctx, "alice", client, "read")
		require.NoError(t, err)
		_, err = store.GetOrIssueToken(ctx, "alice", client, "write")
		require.NoError(t, err)
		_, err = store.GetOrIssueToken(ctx, "bob", client, "read")
		require.NoError(t, err)
		_, err = store.IssueToken(ctx, client, "read")
		require.NoError(t, err)

		tokens, err := store.TokensForIdentity(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, tokens, 2)
		for _, tok := range tokens {
			assert.Equal(t, "alice", *tok.Identity)
		}

		_, err = store.TokensForIdentity(ctx, 1.5)
		assert.ErrorIs(t, err, ErrInvalidIdentity)
	})

	t.Run("TokensForClient_Pagination", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		client := createTestClient(t, store)
		other := createTestClient(t, store)
		base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

		codes := make([]string, 5)
		for i := range codes {
			setClock(store, base.Add(time.Duration(i)*time.Minute))
			token, err := store.IssueToken(ctx, client, "read")
			require.NoError(t, err)
			codes[i] = token.Code

			_, err = store.IssueToken(ctx, other, "read")
			require.NoError(t, err)
		}

		page, err := store.TokensForClient(ctx, client.ID, 0, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, codes[0], page[0].Code)
		assert.Equal(t, codes[1], page[1].Code)

		page, err = store.TokensForClient(ctx, client.ID, 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, codes[2], page[0].Code)
		assert.Equal(t, codes[3], page[1].Code)

		page, err = store.TokensForClient(ctx, client.ID, 4, 2)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, codes[4], page[0].Code)

		all, err := store.TokensForClient(ctx, client.ID, -1, 0)
		require.NoError(t, err)
		require.Len(t, all, 5)
		for i := 1; i < len(all); i++ {
			assert.False(t, all[i].CreatedAt.Before(all[i-1].CreatedAt), "tokens must be ascending")
		}
	})

	t.Run("RecordAccess_HourWindow", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		client := createTestClient(t, store)
		tenAM := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

		setClock(store, tenAM.Add(15*time.Minute))
		token, err := store.GetOrIssueToken(ctx, "alice", client, "read")
		require.NoError(t, err)
		require.Nil(t, token.LastAccess)

		require.NoError(t, store.RecordAccess(ctx, token))
		require.NotNil(t, token.LastAccess)
		assert.Equal(t, tenAM.Unix(), *token.LastAccess)
		assert.Nil(t, token.PrevAccess)

		// Same hour: nothing changes
		setClock(store, tenAM.Add(45*time.Minute))
		require.NoError(t, store.RecordAccess(ctx, token))
		assert.Equal(t, tenAM.Unix(), *token.LastAccess)
		assert.Nil(t, token.PrevAccess)

		// Next hour: last_access advances, previous value shifts to prev_access
		setClock(store, tenAM.Add(65*time.Minute))
		require.NoError(t, store.RecordAccess(ctx, token))
		assert.Equal(t, tenAM.Add(time.Hour).Unix(), *token.LastAccess)
		require.NotNil(t, token.PrevAccess)
		assert.Equal(t, tenAM.Unix(), *token.PrevAccess)

		found, err := store.FindByCode(ctx, token.Code)
		require.NoError(t, err)
		assert.Equal(t, *token.LastAccess, *found.LastAccess)
		assert.Equal(t, *token.PrevAccess, *found.PrevAccess)
	})

	t.Run("RecordAccess_StaleCopy", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		client := createTestClient(t, store)
		tenAM := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

		setClock(store, tenAM)
		token, err := store.IssueToken(ctx, client, "read")
		require.NoError(t, err)

		stale := *token
		require.NoError(t, store.RecordAccess(ctx, token))

		// A stale copy loses the compare-and-swap and picks up the stored value
		require.NoError(t, store.RecordAccess(ctx, &stale))
		require.NotNil(t, stale.LastAccess)
		assert.Equal(t, tenAM.Unix(), *stale.LastAccess)
		assert.Nil(t, stale.PrevAccess)
	})

	t.Run("HistoricalGrants", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		client := createTestClient(t, store)
		other := createTestClient(t, store)
		now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

		issueAt := func(c *models.OAuthClient, at time.Time) {
			setClock(store, at)
			_, err := store.IssueToken(ctx, c, "read")
			require.NoError(t, err)
		}

		// Outside the default 60 day window
		issueAt(client, now.AddDate(0, 0, -90))

		// Three distinct days inside the window
		issueAt(client, now.AddDate(0, 0, -10))
		issueAt(client, now.AddDate(0, 0, -10).Add(time.Hour))
		issueAt(other, now.AddDate(0, 0, -5))
		issueAt(client, now.AddDate(0, 0, -1))
		issueAt(other, now.AddDate(0, 0, -1).Add(2*time.Hour))
		issueAt(client, now.AddDate(0, 0, -1).Add(3*time.Hour))

		setClock(store, now)
		buckets, err := store.HistoricalGrants(ctx, HistoricalFilter{})
		require.NoError(t, err)
		require.Len(t, buckets, 3)

		var total int64
		for _, b := range buckets {
			total += b.Granted
		}
		assert.Equal(t, int64(6), total)

		assert.Equal(t, now.AddDate(0, 0, -10).Unix()/86400, buckets[0].Day)
		assert.Equal(t, int64(2), buckets[0].Granted)
		assert.Equal(t, int64(1), buckets[1].Granted)
		assert.Equal(t, int64(3), buckets[2].Granted)
		assert.Less(t, buckets[0].Day, buckets[1].Day)
		assert.Less(t, buckets[1].Day, buckets[2].Day)

		// Client filter is applied
		buckets, err = store.HistoricalGrants(ctx, HistoricalFilter{ClientID: &other.ID})
		require.NoError(t, err)
		require.Len(t, buckets, 2)
		assert.Equal(t, int64(1), buckets[0].Granted)
		assert.Equal(t, int64(1), buckets[1].Granted)

		// Narrower window
		buckets, err = store.HistoricalGrants(ctx, HistoricalFilter{Days: 3})
		require.NoError(t, err)
		require.Len(t, buckets, 1)
		assert.Equal(t, int64(3), buckets[0].Granted)

		// Wider window includes the old grant
		buckets, err = store.HistoricalGrants(ctx, HistoricalFilter{Days: 100})
		require.NoError(t, err)
		assert.Len(t, buckets, 4)

		// Windows beyond the time.Duration range still start in the past
		for _, days := range []int{100000, 200000} {
			buckets, err = store.HistoricalGrants(ctx, HistoricalFilter{Days: days})
			require.NoError(t, err)
			assert.Len(t, buckets, 4, "days=%d", days)
		}
	})

	t.Run("HistoricalGrants_Empty", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		buckets, err := store.HistoricalGrants(ctx, HistoricalFilter{})
		require.NoError(t, err)
		assert.NotNil(t, buckets)
		assert.Empty(t, buckets)
	})

	t.Run("CountActiveTokens", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		client := createTestClient(t, store)

		for range 3 {
			_, err := store.IssueToken(ctx, client, "read")
			require.NoError(t, err)
		}
		token, err := store.GetOrIssueToken(ctx, "alice", client, "read")
		require.NoError(t, err)
		require.NoError(t, store.Revoke(ctx, token))

		count, err := store.CountActiveTokens(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("Clients", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)
		client := createTestClient(t, store)

		found, err := store.GetClient(ctx, client.ID)
		require.NoError(t, err)
		assert.Equal(t, client.Name, found.Name)

		_, err = store.GetClient(ctx, client.ID+1000)
		assert.ErrorIs(t, err, ErrClientNotFound)

		clients, err := store.ListClients(ctx)
		require.NoError(t, err)
		assert.Len(t, clients, 1)
	})

	t.Run("HealthCheck", func(t *testing.T) {
		store := createFreshStore(t, driver, pgContainer)

		assert.NoError(t, store.Health(ctx))
	})
}

func TestNewPageParams(t *testing.T) {
	tests := []struct {
		name          string
		offset, limit int
		want          PageParams
	}{
		{name: "explicit", offset: 10, limit: 5, want: PageParams{Offset: 10, Limit: 5}},
		{name: "defaults", offset: 0, limit: 0, want: PageParams{Offset: 0, Limit: 100}},
		{name: "negative offset", offset: -3, limit: 20, want: PageParams{Offset: 0, Limit: 20}},
		{name: "negative limit", offset: 2, limit: -1, want: PageParams{Offset: 2, Limit: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPageParams(tt.offset, tt.limit))
		})
	}
}

func TestGetDialector(t *testing.T) {
	for _, driver := range []string{DriverSQLite, DriverPostgres, DriverMySQL} {
		d, err := GetDialector(driver, "dsn")
		require.NoError(t, err, driver)
		assert.NotNil(t, d)
	}

	_, err := GetDialector("oracle", "dsn")
	assert.Error(t, err)
}

func TestMergeOptions(t *testing.T) {
	tests := []struct {
		name    string
		dsn     string
		options string
		want    string
	}{
		{"no query", "user@/db", "a=b", "user@/db?a=b"},
		{"existing query", "user@/db?x=y", "a=b", "user@/db?x=y&a=b"},
		{"key already set", "user@/db?a=c", "a=b", "user@/db?a=c"},
		{"partial overlap", "user@/db?parseTime=true", "parseTime=True&c=d", "user@/db?parseTime=true&c=d"},
		{"empty options", "user@/db", "", "user@/db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeOptions(tt.dsn, tt.options))
		})
	}
}

func TestMySQLDSNCountsMatchedRows(t *testing.T) {
	dsn := mysqlDSN("user:pass@tcp(localhost:3306)/tokens")
	assert.Contains(t, dsn, "clientFoundRows=true")
	assert.Contains(t, dsn, "parseTime=True")

	// a caller supplied parseTime no longer suppresses clientFoundRows
	dsn = mysqlDSN("user:pass@tcp(localhost:3306)/tokens?parseTime=true")
	assert.Equal(t, "user:pass@tcp(localhost:3306)/tokens?parseTime=true&charset=utf8mb4&loc=UTC&clientFoundRows=true", dsn)

	d, err := GetDialector(DriverMySQL, "user:pass@tcp(localhost:3306)/tokens")
	require.NoError(t, err)
	dialector, ok := d.(*mysql.Dialector)
	require.True(t, ok)
	assert.Contains(t, dialector.DSN, "clientFoundRows=true")
}
