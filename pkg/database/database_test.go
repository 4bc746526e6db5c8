package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	q := "INSERT INTO t (a, b) VALUES (?, ?)"
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2)", Postgres.Rebind(q))
	assert.Equal(t, q, SQLite.Rebind(q))
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("PostgreSQL")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)

	d, err = ParseDialect("sqlite")
	require.NoError(t, err)
	assert.Equal(t, SQLite, d)
	assert.Equal(t, "sqlite", d.String())

	_, err = ParseDialect("oracle")
	assert.Error(t, err)
}

func TestTimestampScan(t *testing.T) {
	want := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	for _, src := range []any{
		want,
		want.Format(time.RFC3339Nano),
		[]byte("2024-03-01 12:30:00"),
		want.Unix(),
	} {
		var ts Timestamp
		require.NoError(t, ts.Scan(src), "%T", src)
		assert.True(t, want.Equal(ts.Time), "%T", src)
	}

	var ts Timestamp
	require.NoError(t, ts.Scan(nil))
	assert.True(t, ts.IsZero())
	assert.Error(t, ts.Scan("yesterday"))
	assert.Error(t, ts.Scan(3.5))
}
