package database

import (
	"path/filepath"
	"testing"

	"saferoute/config"
	"saferoute/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestNewDB_SQLiteMigrates(t *testing.T) {
	db, err := NewDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          filepath.Join(t.TempDir(), "test.db"),
		MaxIdleConns: 1,
		MaxOpenConns: 1,
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	for _, m := range []any{
		&models.User{}, &models.IncidentReport{}, &models.IncidentImage{},
		&models.SavedZone{}, &models.HelpfulReport{}, &models.CommunityDiscussion{},
		&models.DiscussionReply{}, &models.AuditLog{},
	} {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.True(t, db.Migrator().HasIndex(&models.HelpfulReport{}, "idx_helpful_user_report"))
	assert.True(t, db.Migrator().HasIndex(&models.SavedZone{}, "idx_zone_user_name"))
}
