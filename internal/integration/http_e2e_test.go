//go:build integration || !unit

package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "reviewlist/internal/adapters/http_server"
	redisad "reviewlist/internal/adapters/redis"
	"reviewlist/internal/adapters/reviewsapi"
	"reviewlist/internal/app"
	"reviewlist/internal/layout"
	mysqlrepo "reviewlist/internal/storage/mysql"
	"reviewlist/internal/typeset"
)

// ---------- helpers ----------

func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "migrations")
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
		Env:        []string{"MYSQL_ROOT_PASSWORD=root", "MYSQL_DATABASE=reviews"},
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

// ---------- the test ----------

// Import 45 records, serve them over the reviews API and page through them
// with a list driven by the HTTP client.
func TestHTTP_EndToEnd_ImportServeAndPage(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	mr := miniredis.RunT(t)
	cache := redisad.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	records := make([]map[string]any, 45)
	for i := range records {
		records[i] = map[string]any{
			"id":         fmt.Sprintf("e2e-%02d", i),
			"first_name": "Guest",
			"last_name":  fmt.Sprint(i),
			"rating":     float64(i%5 + 1),
			"text":       "Lovely stay",
			"created":    "13 February",
		}
	}
	n, err := app.NewImportService(repo, cache, 10, 1).Import(ctx, records)
	require.NoError(t, err)
	require.Equal(t, 45, n)

	srv := server.New()
	srv.MountHandlers(&server.Handlers{Q: app.NewQueryService(repo, cache, time.Minute)})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	client, err := reviewsapi.New(ts.URL, "", 100)
	require.NoError(t, err)
	fonts, err := typeset.NewFonts(typeset.DefaultSizes())
	require.NoError(t, err)
	list, err := app.NewList(app.Options{
		Provider: client,
		Engine:   layout.NewEngine(layout.DefaultTheme(), fonts),
		Fonts:    fonts,
		MaxLines: 3,
	})
	require.NoError(t, err)
	defer list.Close()

	for _, want := range []int{20, 40, 45} {
		list.Load()
		require.Eventually(t, func() bool {
			s := list.Snapshot()
			return !s.IsLoading && len(s.Rows) == want
		}, 10*time.Second, 10*time.Millisecond, "rows %d", want)
	}
	s := list.Snapshot()
	assert.Equal(t, 45, s.TotalCount)
	assert.False(t, s.ShouldLoadMore)
	assert.Equal(t, "Guest 0", s.Rows[0].Name.Text)
	assert.Equal(t, "Guest 44", s.Rows[44].Name.Text)
	assert.Equal(t, 46, list.RowCount())
}
