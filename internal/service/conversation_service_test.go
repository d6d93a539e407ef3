package service

import (
	"testing"

	"github.com/qy-8/gamechat-app/internal/entity"
	"github.com/qy-8/gamechat-app/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreatePrivateRoundTrip(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "alice")
	seedUser(t, repos, "bob")
	svc := NewConversationService(repos)

	resp, err := svc.GetOrCreatePrivate(t.Context(), "alice", "bob")
	require.NoError(t, err)
	assert.True(t, resp.Created)
	assert.Equal(t, "bob", resp.Conversation.Participant.Id)

	// the opposite direction resolves to the same thread
	again, err := svc.GetOrCreatePrivate(t.Context(), "bob", "alice")
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, resp.Conversation.Id, again.Conversation.Id)
	assert.Equal(t, "alice", again.Conversation.Participant.Id)
}

func TestGetOrCreatePrivateValidation(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "alice")
	svc := NewConversationService(repos)

	_, err := svc.GetOrCreatePrivate(t.Context(), "alice", "alice")
	assert.ErrorIs(t, err, errcode.ErrSelfConversation)

	_, err = svc.GetOrCreatePrivate(t.Context(), "alice", "nobody")
	assert.ErrorIs(t, err, errcode.ErrUserNotFound)
}

func TestGetByIdAccessControl(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "alice")
	seedUser(t, repos, "bob")
	seedUser(t, repos, "eve")
	svc := NewConversationService(repos)

	conv, _, err := repos.Conversation.GetOrCreatePrivate(t.Context(), "alice", "bob")
	require.NoError(t, err)

	_, err = svc.GetById(t.Context(), "alice", conv.Id)
	assert.NoError(t, err)

	_, err = svc.GetById(t.Context(), "eve", conv.Id)
	assert.ErrorIs(t, err, errcode.ErrNotParticipant)

	_, err = svc.GetById(t.Context(), "alice", "missing")
	assert.ErrorIs(t, err, errcode.ErrConvNotFound)
}

func TestChannelAccessRequiresMembership(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "owner")
	seedUser(t, repos, "outsider")
	convSvc := NewConversationService(repos)
	groupSvc := NewGroupService(repos)

	resp, err := groupSvc.CreateGroup(t.Context(), "owner", &CreateGroupRequest{Name: "squad"})
	require.NoError(t, err)
	channel := resp.Channels[0]

	assert.NoError(t, convSvc.CanJoinChannel(t.Context(), "owner", channel.Id))
	assert.ErrorIs(t, convSvc.CanJoinChannel(t.Context(), "outsider", channel.Id), errcode.ErrNotParticipant)

	// disbanding detaches the channel for everyone
	require.NoError(t, groupSvc.Disband(t.Context(), "owner", resp.Group.Id))
	assert.ErrorIs(t, convSvc.CanJoinChannel(t.Context(), "owner", channel.Id), errcode.ErrNotParticipant)
}

func TestListForUserHydration(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "alice")
	seedUser(t, repos, "bob")
	convSvc := NewConversationService(repos)
	msgSvc := NewMessageService(repos)

	conv, _, err := repos.Conversation.GetOrCreatePrivate(t.Context(), "alice", "bob")
	require.NoError(t, err)
	_, err = msgSvc.SendMessage(t.Context(), "bob", conv, &SendMessageRequest{Content: "hey alice"})
	require.NoError(t, err)

	list, err := convSvc.ListForUser(t.Context(), "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)

	info := list[0]
	require.NotNil(t, info.Participant)
	assert.Equal(t, "bob", info.Participant.Id)
	assert.Equal(t, int64(1), info.UnreadCount)
	assert.False(t, info.IsMuted)
	require.NotNil(t, info.LastMessage)
	assert.Equal(t, "hey alice", info.LastMessage.Content)
	assert.Equal(t, "bob", info.LastMessage.SenderUsername)
	assert.False(t, info.LastMessage.IsReadByCurrentUser)

	// bob sees the same thread with zero unread
	list, err = convSvc.ListForUser(t.Context(), "bob")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Zero(t, list[0].UnreadCount)
}

func TestListForUserSnippetsLongMessages(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "alice")
	seedUser(t, repos, "bob")
	convSvc := NewConversationService(repos)
	msgSvc := NewMessageService(repos)

	conv, _, err := repos.Conversation.GetOrCreatePrivate(t.Context(), "alice", "bob")
	require.NoError(t, err)

	long := "this message is definitely longer than twenty characters"
	_, err = msgSvc.SendMessage(t.Context(), "alice", conv, &SendMessageRequest{Content: long})
	require.NoError(t, err)

	list, err := convSvc.ListForUser(t.Context(), "bob")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, entity.Snippet(long), list[0].LastMessage.Content)
	assert.NotEqual(t, long, list[0].LastMessage.Content)
}

func TestSetMute(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "alice")
	seedUser(t, repos, "bob")
	svc := NewConversationService(repos)

	conv, _, err := repos.Conversation.GetOrCreatePrivate(t.Context(), "alice", "bob")
	require.NoError(t, err)

	require.NoError(t, svc.SetMute(t.Context(), "alice", conv.Id, true))

	list, err := svc.ListForUser(t.Context(), "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsMuted)

	// muting is per user
	list, err = svc.ListForUser(t.Context(), "bob")
	require.NoError(t, err)
	assert.False(t, list[0].IsMuted)

	require.NoError(t, svc.SetMute(t.Context(), "alice", conv.Id, false))
	muted, err := repos.User.IsMuted(t.Context(), "alice", conv.Id)
	require.NoError(t, err)
	assert.False(t, muted)
}

func TestSetMuteIdempotentOnRetry(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "alice")
	seedUser(t, repos, "bob")
	svc := NewConversationService(repos)

	conv, _, err := repos.Conversation.GetOrCreatePrivate(t.Context(), "alice", "bob")
	require.NoError(t, err)

	// a client retrying a lost response must not invert the state
	require.NoError(t, svc.SetMute(t.Context(), "alice", conv.Id, true))
	require.NoError(t, svc.SetMute(t.Context(), "alice", conv.Id, true))

	muted, err := repos.User.IsMuted(t.Context(), "alice", conv.Id)
	require.NoError(t, err)
	assert.True(t, muted)

	require.NoError(t, svc.SetMute(t.Context(), "alice", conv.Id, false))
	require.NoError(t, svc.SetMute(t.Context(), "alice", conv.Id, false))

	muted, err = repos.User.IsMuted(t.Context(), "alice", conv.Id)
	require.NoError(t, err)
	assert.False(t, muted)
}

func TestGetChannelsMembersOnly(t *testing.T) {
	repos := newTestRepos(t)
	seedUser(t, repos, "owner")
	seedUser(t, repos, "outsider")
	convSvc := NewConversationService(repos)
	groupSvc := NewGroupService(repos)

	resp, err := groupSvc.CreateGroup(t.Context(), "owner", &CreateGroupRequest{Name: "squad"})
	require.NoError(t, err)

	channels, err := convSvc.GetChannels(t.Context(), "owner", resp.Group.Id)
	require.NoError(t, err)
	assert.Len(t, channels, len(resp.Channels))

	_, err = convSvc.GetChannels(t.Context(), "outsider", resp.Group.Id)
	assert.ErrorIs(t, err, errcode.ErrNotGroupMember)
}
