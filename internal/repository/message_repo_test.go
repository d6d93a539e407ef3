package repository

import (
	"fmt"
	"testing"

	"github.com/qy-8/gamechat-app/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMessages(t *testing.T, repos *Repositories, convId string, n int) {
	t.Helper()
	base := entity.NowUnixMilli()
	for i := 0; i < n; i++ {
		sender, receiver := "alice", "bob"
		if i%2 == 1 {
			sender, receiver = "bob", "alice"
		}
		msg := &entity.Message{
			Id:             fmt.Sprintf("m%03d", i),
			ConversationId: convId,
			SenderId:       sender,
			ReceiverId:     receiver,
			MsgType:        entity.MsgTypeText,
			Content:        fmt.Sprintf("message number %d", i),
			CreatedAt:      base + int64(i),
		}
		require.NoError(t, repos.Message.Create(t.Context(), nil, msg))
	}
}

func TestPageNewestFirst(t *testing.T) {
	repos := newTestRepos(t)
	ctx := t.Context()
	seedMessages(t, repos, "conv1", 25)

	msgs, total, err := repos.Message.Page(ctx, "conv1", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	require.Len(t, msgs, 20)

	// page 1 carries the newest messages, newest first
	assert.Equal(t, "m024", msgs[0].Id)
	assert.Equal(t, "m005", msgs[19].Id)

	// page 2 carries the remainder
	msgs, _, err = repos.Message.Page(ctx, "conv1", 2, 20)
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	assert.Equal(t, "m004", msgs[0].Id)
	assert.Equal(t, "m000", msgs[4].Id)
}

func TestMarkReadIdempotent(t *testing.T) {
	repos := newTestRepos(t)
	ctx := t.Context()
	seedMessages(t, repos, "conv1", 10)

	// bob received the 5 messages alice sent
	count, err := repos.Message.MarkRead(ctx, "conv1", "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)

	// repeating affects nothing
	count, err = repos.Message.MarkRead(ctx, "conv1", "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestCountUnread(t *testing.T) {
	repos := newTestRepos(t)
	ctx := t.Context()
	seedMessages(t, repos, "conv1", 10)

	unread, err := repos.Message.CountUnread(ctx, "conv1", "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 5, unread)

	_, err = repos.Message.MarkRead(ctx, "conv1", "bob")
	require.NoError(t, err)

	unread, err = repos.Message.CountUnread(ctx, "conv1", "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 0, unread)

	// alice still has her own unread ones from bob
	unread, err = repos.Message.CountUnread(ctx, "conv1", "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 5, unread)
}

func TestSearchScopedToConversation(t *testing.T) {
	repos := newTestRepos(t)
	ctx := t.Context()

	mk := func(id, convId, content string) {
		require.NoError(t, repos.Message.Create(ctx, nil, &entity.Message{
			Id:             id,
			ConversationId: convId,
			SenderId:       "alice",
			ReceiverId:     "bob",
			Content:        content,
			CreatedAt:      entity.NowUnixMilli(),
		}))
	}
	mk("m1", "conv1", "let us raid the dungeon tonight")
	mk("m2", "conv1", "no raid for me, sorry")
	mk("m3", "conv2", "raid talk in another thread")

	msgs, total, err := repos.Message.Search(ctx, "conv1", "raid", 1, 50)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.Equal(t, int64(2), total)

	msgs, total, err = repos.Message.Search(ctx, "conv1", "dragon", 1, 50)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Zero(t, total)
}
