package datastore

import (
	"path/filepath"
	"testing"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nabos/fishclub/internal/logger"
)

func TestMySQLDSN(t *testing.T) {
	t.Parallel()

	dsn := mysqlDSN(&MySQLConfig{
		Host:     "db.internal",
		Port:     "3306",
		Username: "fishclub",
		Password: "p@ss:word",
		Database: "clube",
	})

	parsed, err := mysqldriver.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "fishclub", parsed.User)
	assert.Equal(t, "p@ss:word", parsed.Passwd)
	assert.Equal(t, "tcp", parsed.Net)
	assert.Equal(t, "db.internal:3306", parsed.Addr)
	assert.Equal(t, "clube", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, time.UTC, parsed.Loc)
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestFreeSpace(t *testing.T) {
	t.Parallel()

	mgr, err := NewSQLiteManager(SQLiteConfig{
		Path:   filepath.Join(t.TempDir(), "club.db"),
		Logger: logger.NewSlogLogger(nil, logger.LogLevelWarn, time.UTC),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	free, ok, err := FreeSpace(mgr)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Positive(t, free)

	free, ok, err = FreeSpace(&baseManager{mysql: true, location: "db:3306/clube"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, free)
}
