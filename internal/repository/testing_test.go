package repository

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/qy-8/gamechat-app/internal/entity"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// newTestRepos opens an isolated in-memory database with all tables migrated
func newTestRepos(t *testing.T) *Repositories {
	t.Helper()

	dsn := fmt.Sprintf("file:repo_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&entity.User{},
		&entity.UserMute{},
		&entity.Conversation{},
		&entity.Message{},
		&entity.Friendship{},
		&entity.Group{},
		&entity.GroupMember{},
		&entity.GroupInvitation{},
	))

	t.Cleanup(func() { sqlDB.Close() })

	return NewWithDB(db, nil)
}

// seedUser inserts a minimal user row
func seedUser(t *testing.T, repos *Repositories, id string) *entity.User {
	t.Helper()
	user := &entity.User{
		Id:       id,
		Username: id,
		Password: "x",
		Status:   entity.UserStatusActive,
	}
	require.NoError(t, repos.User.Create(t.Context(), user))
	return user
}
