//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewlist/internal/domain"
	mysqlrepo "reviewlist/internal/storage/mysql"
)

func pstr(s string) *string { return &s }

// migrationsDir prefers MIGRATIONS_DIR and falls back to the repo's migrations/.
func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir()

	ents, err := os.ReadDir(dir)
	require.NoError(t, err, "read migrations dir %s", dir)
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	require.NotEmpty(t, files, "no .sql files in %s", dir)
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		require.NoError(t, err)
		_, err = db.Exec(string(sqlBytes))
		require.NoError(t, err, "exec %s", f)
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=reviews",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "run mysql")
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/reviews?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	require.NoError(t, pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}), "connect mysql")
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func TestRepo_MySQL_UpsertAndPage(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	var batch []domain.Review
	for i := range 25 {
		batch = append(batch, domain.Review{
			SourceID:  fmt.Sprintf("s-%02d", i),
			FirstName: "Guest",
			LastName:  fmt.Sprint(i),
			Rating:    i%5 + 1,
			Text:      "Lovely stay",
			Created:   "13 February",
		})
	}
	batch[0].AvatarURL = pstr("https://img.example.com/a.jpg")
	batch[0].PhotoURLs = []string{"https://img.example.com/1.jpg", "https://img.example.com/2.jpg"}
	require.NoError(t, repo.UpsertReviews(ctx, batch))

	n, err := repo.CountReviews(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	first, err := repo.ListReviews(ctx, 0, 20)
	require.NoError(t, err)
	require.Len(t, first, 20)
	assert.Equal(t, "s-00", first[0].SourceID)
	require.NotNil(t, first[0].AvatarURL)
	assert.Equal(t, []string{"https://img.example.com/1.jpg", "https://img.example.com/2.jpg"}, first[0].PhotoURLs)
	assert.Nil(t, first[1].AvatarURL)

	rest, err := repo.ListReviews(ctx, 20, 20)
	require.NoError(t, err)
	assert.Len(t, rest, 5)

	// re-import updates in place instead of duplicating
	batch[0].Text = "Changed"
	batch[0].AvatarURL = nil
	require.NoError(t, repo.UpsertReviews(ctx, batch[:1]))
	n, err = repo.CountReviews(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, n)
	again, err := repo.ListReviews(ctx, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, "Changed", again[0].Text)
	require.NotNil(t, again[0].AvatarURL, "a missing avatar keeps the stored one")
}
