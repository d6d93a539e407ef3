package service

import (
	"encoding/json"
	"testing"

	"github.com/qy-8/gamechat-app/internal/entity"
	"github.com/qy-8/gamechat-app/internal/gateway"
	"github.com/qy-8/gamechat-app/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessagePrivate(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "alice")
	seedUser(t, repos, "bob")

	conv, _, err := repos.Conversation.GetOrCreatePrivate(t.Context(), "alice", "bob")
	require.NoError(t, err)

	pusher := &fakePusher{}
	svc := NewMessageService(repos)
	svc.SetPusher(pusher)

	payload, err := svc.SendMessage(t.Context(), "alice", conv, &SendMessageRequest{Content: "hello bob"})
	require.NoError(t, err)
	assert.Equal(t, "hello bob", payload.Content)
	assert.Equal(t, entity.ConversationTypePrivate, payload.ConversationType)
	require.NotNil(t, payload.Sender)
	assert.Equal(t, "alice", payload.Sender.Username)
	require.NotNil(t, payload.Receiver)
	assert.Equal(t, "bob", payload.Receiver.Id)
	assert.Nil(t, payload.ReadAt)

	// the message is durable
	stored, err := repos.Message.GetById(t.Context(), payload.Id)
	require.NoError(t, err)
	assert.Equal(t, "bob", stored.ReceiverId)

	// the conversation preview was updated in the same transaction
	updated, err := repos.Conversation.GetById(t.Context(), conv.Id)
	require.NoError(t, err)
	assert.Equal(t, payload.Id, updated.LastMessageId)
	assert.Equal(t, "hello bob", updated.LastSnippet)

	events := pusher.all()
	require.Len(t, events, 1)
	assert.Equal(t, gateway.EventNewMessage, events[0].Event)
	assert.ElementsMatch(t, []string{"alice", "bob"}, events[0].UserIds)

	// the pushed payload is the same object the caller receives
	pushed, ok := events[0].Payload.(*gateway.NewMessagePayload)
	require.True(t, ok)
	assert.Same(t, payload, pushed)

	// both sides of a private send get one canonical shape; the wire form
	// carries the type tag and no viewer-relative fields
	raw, err := json.Marshal(pushed)
	require.NoError(t, err)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "private", fields["conversation_type"])
	assert.NotContains(t, fields, "is_sent_by_me")
	assert.NotContains(t, fields, "is_read_by_current_user")
}

func TestSendMessageChannelPushesToRoom(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "alice")

	group := &entity.Group{Id: "group-1", Name: "Raiders", Avatar: "raiders.png", OwnerId: "alice"}
	require.NoError(t, repos.Group.Create(t.Context(), nil, group))
	channel, err := repos.Conversation.CreateChannel(t.Context(), nil, "group-1", "general")
	require.NoError(t, err)

	pusher := &fakePusher{}
	svc := NewMessageService(repos)
	svc.SetPusher(pusher)

	payload, err := svc.SendMessage(t.Context(), "alice", channel, &SendMessageRequest{Content: "hi all"})
	require.NoError(t, err)

	// channel messages carry the parent group instead of a receiver
	assert.Equal(t, entity.ConversationTypeGroup, payload.ConversationType)
	assert.Nil(t, payload.Receiver)
	require.NotNil(t, payload.Group)
	assert.Equal(t, "group-1", payload.Group.Id)
	assert.Equal(t, "Raiders", payload.Group.Name)
	assert.Equal(t, "raiders.png", payload.Group.Avatar)

	stored, err := repos.Message.GetById(t.Context(), payload.Id)
	require.NoError(t, err)
	assert.Empty(t, stored.ReceiverId)

	events := pusher.all()
	require.Len(t, events, 1)
	assert.Equal(t, channel.Id, events[0].RoomId)
	assert.Empty(t, events[0].UserIds)
}

func TestSendMessageEmptyContent(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "alice")
	seedUser(t, repos, "bob")

	conv, _, err := repos.Conversation.GetOrCreatePrivate(t.Context(), "alice", "bob")
	require.NoError(t, err)

	svc := NewMessageService(repos)
	_, err = svc.SendMessage(t.Context(), "alice", conv, &SendMessageRequest{Content: "   "})
	assert.ErrorIs(t, err, errcode.ErrEmptyContent)
}

func TestSendMessagePersistsWithoutPusher(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "alice")
	seedUser(t, repos, "bob")

	conv, _, err := repos.Conversation.GetOrCreatePrivate(t.Context(), "alice", "bob")
	require.NoError(t, err)

	svc := NewMessageService(repos)
	info, err := svc.SendMessage(t.Context(), "alice", conv, &SendMessageRequest{Content: "offline delivery"})
	require.NoError(t, err)

	_, err = repos.Message.GetById(t.Context(), info.Id)
	assert.NoError(t, err)
}

func TestSendMessageReplyRef(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "alice")
	seedUser(t, repos, "bob")

	conv, _, err := repos.Conversation.GetOrCreatePrivate(t.Context(), "alice", "bob")
	require.NoError(t, err)

	svc := NewMessageService(repos)
	first, err := svc.SendMessage(t.Context(), "alice", conv, &SendMessageRequest{Content: "original message"})
	require.NoError(t, err)

	reply, err := svc.SendMessage(t.Context(), "bob", conv, &SendMessageRequest{
		Content:   "replying",
		ReplyToId: first.Id,
	})
	require.NoError(t, err)
	require.NotNil(t, reply.Reply)
	assert.Equal(t, first.Id, reply.Reply.MessageId)
	assert.Equal(t, "alice", reply.Reply.SenderUsername)
	assert.Equal(t, "original message", reply.Reply.Content)
}

func TestSendMessageReplyOutsideConversation(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "alice")
	seedUser(t, repos, "bob")
	seedUser(t, repos, "carol")

	convAB, _, err := repos.Conversation.GetOrCreatePrivate(t.Context(), "alice", "bob")
	require.NoError(t, err)
	convAC, _, err := repos.Conversation.GetOrCreatePrivate(t.Context(), "alice", "carol")
	require.NoError(t, err)

	svc := NewMessageService(repos)
	other, err := svc.SendMessage(t.Context(), "alice", convAC, &SendMessageRequest{Content: "elsewhere"})
	require.NoError(t, err)

	_, err = svc.SendMessage(t.Context(), "alice", convAB, &SendMessageRequest{
		Content:   "cross-thread reply",
		ReplyToId: other.Id,
	})
	assert.ErrorIs(t, err, errcode.ErrMessageNotFound)
}

func TestMarkReadPushesToOtherParticipant(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "alice")
	seedUser(t, repos, "bob")

	conv, _, err := repos.Conversation.GetOrCreatePrivate(t.Context(), "alice", "bob")
	require.NoError(t, err)

	pusher := &fakePusher{}
	svc := NewMessageService(repos)
	svc.SetPusher(pusher)

	for i := 0; i < 3; i++ {
		_, err = svc.SendMessage(t.Context(), "alice", conv, &SendMessageRequest{Content: "ping"})
		require.NoError(t, err)
	}

	count, err := svc.MarkRead(t.Context(), "bob", conv)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	events := pusher.all()
	require.Len(t, events, 4)
	read := events[3]
	assert.Equal(t, gateway.EventConversationRead, read.Event)
	assert.Equal(t, []string{"alice"}, read.UserIds)

	payload, ok := read.Payload.(*gateway.ConversationReadPayload)
	require.True(t, ok)
	assert.Equal(t, "bob", payload.ReaderId)
	assert.Equal(t, int64(3), payload.ReadCount)

	// a second pass has nothing left to stamp and stays silent
	count, err = svc.MarkRead(t.Context(), "bob", conv)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Len(t, pusher.all(), 4)
}

func TestPageChronologicalOrder(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "alice")
	seedUser(t, repos, "bob")

	conv, _, err := repos.Conversation.GetOrCreatePrivate(t.Context(), "alice", "bob")
	require.NoError(t, err)

	svc := NewMessageService(repos)
	ids := make([]string, 0, 5)
	for _, content := range []string{"one", "two", "three", "four", "five"} {
		info, err := svc.SendMessage(t.Context(), "alice", conv, &SendMessageRequest{Content: content})
		require.NoError(t, err)
		ids = append(ids, info.Id)
	}

	page, err := svc.Page(t.Context(), "alice", conv, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, int64(2), page.TotalPages)
	require.Len(t, page.Messages, 3)

	// page 1 holds the newest messages, rendered oldest first
	assert.Equal(t, ids[2], page.Messages[0].Id)
	assert.Equal(t, ids[4], page.Messages[2].Id)

	page2, err := svc.Page(t.Context(), "alice", conv, 2, 3)
	require.NoError(t, err)
	require.Len(t, page2.Messages, 2)
	assert.Equal(t, ids[0], page2.Messages[0].Id)
	assert.Equal(t, ids[1], page2.Messages[1].Id)
}

func TestSearchEmptyTerm(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "alice")
	seedUser(t, repos, "bob")

	conv, _, err := repos.Conversation.GetOrCreatePrivate(t.Context(), "alice", "bob")
	require.NoError(t, err)

	svc := NewMessageService(repos)
	_, err = svc.Search(t.Context(), "alice", conv, "  ", 1, 20)
	assert.ErrorIs(t, err, errcode.ErrEmptySearchTerm)
}

func TestSearchPaged(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "alice")
	seedUser(t, repos, "bob")

	conv, _, err := repos.Conversation.GetOrCreatePrivate(t.Context(), "alice", "bob")
	require.NoError(t, err)

	svc := NewMessageService(repos)
	for i := 0; i < 5; i++ {
		_, err = svc.SendMessage(t.Context(), "alice", conv, &SendMessageRequest{Content: "quest marker found"})
		require.NoError(t, err)
	}
	_, err = svc.SendMessage(t.Context(), "alice", conv, &SendMessageRequest{Content: "unrelated"})
	require.NoError(t, err)

	resp, err := svc.Search(t.Context(), "alice", conv, "quest", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.Total)
	assert.Equal(t, int64(2), resp.TotalPages)
	assert.Len(t, resp.Messages, 3)

	resp, err = svc.Search(t.Context(), "alice", conv, "quest", 2, 3)
	require.NoError(t, err)
	assert.Len(t, resp.Messages, 2)
}
