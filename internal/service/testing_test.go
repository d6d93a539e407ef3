package service

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/qy-8/gamechat-app/internal/entity"
	"github.com/qy-8/gamechat-app/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// newTestRepos opens an isolated in-memory database with all tables migrated
func newTestRepos(t *testing.T) *repository.Repositories {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
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

	return repository.NewWithDB(db, nil)
}

func seedUser(t *testing.T, repos *repository.Repositories, id string) *entity.User {
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

// pushedEvent records one fan-out call made through the fake pusher
type pushedEvent struct {
	Event     string
	Payload   interface{}
	UserIds   []string
	RoomId    string
	ExcludeId string
}

// fakePusher captures pushes instead of delivering them
type fakePusher struct {
	mu     sync.Mutex
	events []pushedEvent
}

func (f *fakePusher) PushToUsers(event string, payload interface{}, userIds []string, excludeConnId string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, pushedEvent{
		Event: event, Payload: payload, UserIds: userIds, ExcludeId: excludeConnId,
	})
}

func (f *fakePusher) PushToRoom(event string, payload interface{}, roomId string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, pushedEvent{Event: event, Payload: payload, RoomId: roomId})
}

func (f *fakePusher) all() []pushedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]pushedEvent, len(f.events))
	copy(out, f.events)
	return out
}
