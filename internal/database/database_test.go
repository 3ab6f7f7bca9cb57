package database

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey string

type recordingTracer struct {
	name  string
	calls *[]string
}

func (r recordingTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryStartData) context.Context {
	*r.calls = append(*r.calls, r.name+":start")
	return context.WithValue(ctx, ctxKey(r.name), true)
}

func (r recordingTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryEndData) {
	if ctx.Value(ctxKey(r.name)) == true {
		*r.calls = append(*r.calls, r.name+":end")
	}
}

// startOnly implements only half of the tracer interface.
type startOnly struct{ calls *[]string }

func (s startOnly) TraceQueryStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryStartData) context.Context {
	*s.calls = append(*s.calls, "startOnly:start")
	return ctx
}

func TestMultiTracer_ChainsInOrder(t *testing.T) {
	var calls []string
	mt := &multiTracer{tracers: []any{
		recordingTracer{name: "nr", calls: &calls},
		startOnly{calls: &calls},
		recordingTracer{name: "log", calls: &calls},
	}}

	ctx := mt.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT 1"})
	mt.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

	assert.Equal(t, []string{"nr:start", "startOnly:start", "log:start", "nr:end", "log:end"}, calls)
}

func TestMigrationsFS(t *testing.T) {
	subtree, err := MigrationsFS()
	require.NoError(t, err)

	entries, err := fs.ReadDir(subtree, ".")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"001_create_users.sql", "002_create_posts.sql", "003_create_profiles.sql"}, names)

	for _, name := range names {
		body, err := fs.ReadFile(subtree, name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "---- create above / drop below ----", name)
	}

	users, err := fs.ReadFile(subtree, "001_create_users.sql")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(users), "CONSTRAINT users_email_key UNIQUE (email)"))
}

func TestOpenORM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orm.db")

	orm, err := OpenORM(sqlite.Open(path), zerolog.Nop(), 100*time.Millisecond)
	require.NoError(t, err)

	var one int
	require.NoError(t, orm.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)

	sqlDB, err := orm.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}
