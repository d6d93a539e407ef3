package service

import (
	"testing"

	"github.com/qy-8/gamechat-app/internal/entity"
	"github.com/qy-8/gamechat-app/internal/gateway"
	"github.com/qy-8/gamechat-app/internal/repository"
	"github.com/qy-8/gamechat-app/pkg/constant"
	"github.com/qy-8/gamechat-app/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGroupService(t *testing.T) (*GroupService, *repository.Repositories, *fakePusher) {
	t.Helper()
	repos := newTestRepos(t)
	seedUser(t, repos, "owner")
	seedUser(t, repos, "member")
	seedUser(t, repos, "guest")

	pusher := &fakePusher{}
	svc := NewGroupService(repos)
	svc.SetPusher(pusher)
	return svc, repos, pusher
}

func createGroup(t *testing.T, svc *GroupService, ownerId, name string) *CreateGroupResponse {
	t.Helper()
	resp, err := svc.CreateGroup(t.Context(), ownerId, &CreateGroupRequest{Name: name})
	require.NoError(t, err)
	return resp
}

func TestCreateGroupSeedsOwnerAndChannels(t *testing.T) {
	svc, repos, _ := newGroupService(t)

	resp := createGroup(t, svc, "owner", "raid squad")
	assert.Equal(t, "owner", resp.Group.OwnerId)
	require.Len(t, resp.Channels, len(constant.DefaultChannelNames))
	for i, channel := range resp.Channels {
		assert.Equal(t, constant.DefaultChannelNames[i], channel.Name)
		assert.Equal(t, resp.Group.Id, channel.GroupId)
		assert.Equal(t, entity.ConversationTypeGroup, channel.Type)
	}

	member, err := repos.Group.GetMember(t.Context(), resp.Group.Id, "owner")
	require.NoError(t, err)
	assert.Equal(t, entity.GroupRoleOwner, member.Role)
}

func TestCreateGroupBlankName(t *testing.T) {
	svc, _, _ := newGroupService(t)
	_, err := svc.CreateGroup(t.Context(), "owner", &CreateGroupRequest{Name: "  "})
	assert.ErrorIs(t, err, errcode.ErrInvalidParam)
}

func TestInviteBatchIndependence(t *testing.T) {
	svc, _, pusher := newGroupService(t)
	group := createGroup(t, svc, "owner", "squad").Group

	results, err := svc.Invite(t.Context(), "owner", group.Id, []string{"member", "owner", "nobody", "guest"})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.NotEmpty(t, results[0].InvitationId)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, errcode.ErrSelfInvitation.Error(), results[1].Error)
	assert.Equal(t, errcode.ErrUserNotFound.Error(), results[2].Error)
	assert.NotEmpty(t, results[3].InvitationId)

	// only the successful invitees get a push
	events := pusher.all()
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, gateway.EventNewGroupInvitation, ev.Event)
		payload, ok := ev.Payload.(*gateway.GroupInvitationPayload)
		require.True(t, ok)
		assert.Equal(t, group.Id, payload.GroupId)
		assert.Equal(t, "owner", payload.Inviter.Username)
	}
	assert.Equal(t, []string{"member"}, events[0].UserIds)
	assert.Equal(t, []string{"guest"}, events[1].UserIds)
}

func TestInviteOwnerOnly(t *testing.T) {
	svc, _, _ := newGroupService(t)
	group := createGroup(t, svc, "owner", "squad").Group

	_, err := svc.Invite(t.Context(), "member", group.Id, []string{"guest"})
	assert.ErrorIs(t, err, errcode.ErrNotGroupOwner)
}

func TestInviteDuplicatePending(t *testing.T) {
	svc, _, _ := newGroupService(t)
	group := createGroup(t, svc, "owner", "squad").Group

	_, err := svc.Invite(t.Context(), "owner", group.Id, []string{"member"})
	require.NoError(t, err)

	results, err := svc.Invite(t.Context(), "owner", group.Id, []string{"member"})
	require.NoError(t, err)
	assert.Equal(t, errcode.ErrInvitationPending.Error(), results[0].Error)
}

func TestRespondInvitationAcceptAddsMember(t *testing.T) {
	svc, repos, _ := newGroupService(t)
	group := createGroup(t, svc, "owner", "squad").Group

	results, err := svc.Invite(t.Context(), "owner", group.Id, []string{"member"})
	require.NoError(t, err)
	invId := results[0].InvitationId

	inv, err := svc.RespondInvitation(t.Context(), "member", invId, true)
	require.NoError(t, err)
	assert.Equal(t, entity.InvitationStatusAccepted, inv.Status)

	m, err := repos.Group.GetMember(t.Context(), group.Id, "member")
	require.NoError(t, err)
	assert.Equal(t, entity.GroupRoleMember, m.Role)

	// an accepted invitation cannot be answered again
	_, err = svc.RespondInvitation(t.Context(), "member", invId, false)
	assert.ErrorIs(t, err, errcode.ErrRequestHandled)

	// and a member cannot be invited again
	results, err = svc.Invite(t.Context(), "owner", group.Id, []string{"member"})
	require.NoError(t, err)
	assert.Equal(t, errcode.ErrAlreadyGroupMember.Error(), results[0].Error)
}

func TestRespondInvitationInviteeOnly(t *testing.T) {
	svc, _, _ := newGroupService(t)
	group := createGroup(t, svc, "owner", "squad").Group

	results, err := svc.Invite(t.Context(), "owner", group.Id, []string{"member"})
	require.NoError(t, err)

	_, err = svc.RespondInvitation(t.Context(), "guest", results[0].InvitationId, true)
	assert.ErrorIs(t, err, errcode.ErrForbidden)
}

func TestDeclinedInvitationRecycled(t *testing.T) {
	svc, _, _ := newGroupService(t)
	group := createGroup(t, svc, "owner", "squad").Group

	results, err := svc.Invite(t.Context(), "owner", group.Id, []string{"member"})
	require.NoError(t, err)

	_, err = svc.RespondInvitation(t.Context(), "member", results[0].InvitationId, false)
	require.NoError(t, err)

	again, err := svc.Invite(t.Context(), "owner", group.Id, []string{"member"})
	require.NoError(t, err)
	assert.Empty(t, again[0].Error)
	assert.Equal(t, results[0].InvitationId, again[0].InvitationId)

	pending, err := svc.PendingInvitations(t.Context(), "member")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "squad", pending[0].GroupName)
	assert.Equal(t, "owner", pending[0].Inviter.Username)
}

func TestLeaveGroup(t *testing.T) {
	svc, _, _ := newGroupService(t)
	group := createGroup(t, svc, "owner", "squad").Group

	results, err := svc.Invite(t.Context(), "owner", group.Id, []string{"member"})
	require.NoError(t, err)
	_, err = svc.RespondInvitation(t.Context(), "member", results[0].InvitationId, true)
	require.NoError(t, err)

	require.NoError(t, svc.Leave(t.Context(), "member", group.Id))

	// gone means gone
	err = svc.Leave(t.Context(), "member", group.Id)
	assert.ErrorIs(t, err, errcode.ErrNotGroupMember)

	// the owner has to disband instead
	err = svc.Leave(t.Context(), "owner", group.Id)
	assert.ErrorIs(t, err, errcode.ErrForbidden)
}

func TestDetailsMembersOnly(t *testing.T) {
	svc, _, _ := newGroupService(t)
	group := createGroup(t, svc, "owner", "squad").Group

	info, err := svc.Details(t.Context(), "owner", group.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.MemberCount)

	_, err = svc.Details(t.Context(), "guest", group.Id)
	assert.ErrorIs(t, err, errcode.ErrNotGroupMember)
}

func TestSearchMembers(t *testing.T) {
	svc, repos, _ := newGroupService(t)
	seedUser(t, repos, "gamma")
	group := createGroup(t, svc, "owner", "squad").Group

	for _, id := range []string{"member", "guest", "gamma"} {
		results, err := svc.Invite(t.Context(), "owner", group.Id, []string{id})
		require.NoError(t, err)
		_, err = svc.RespondInvitation(t.Context(), id, results[0].InvitationId, true)
		require.NoError(t, err)
	}

	resp, err := svc.SearchMembers(t.Context(), "owner", group.Id, "g", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	require.Len(t, resp.Members, 2)
	assert.Equal(t, "gamma", resp.Members[0].Username)
	assert.Equal(t, "guest", resp.Members[1].Username)

	// an empty term pages through the whole roster
	resp, err = svc.SearchMembers(t.Context(), "owner", group.Id, "", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.Total)
	assert.Equal(t, int64(2), resp.TotalPages)
	require.Len(t, resp.Members, 1)

	// non-members cannot browse the roster
	seedUser(t, repos, "stranger")
	_, err = svc.SearchMembers(t.Context(), "stranger", group.Id, "", 1, 20)
	assert.ErrorIs(t, err, errcode.ErrNotGroupMember)
}

func TestDisband(t *testing.T) {
	svc, repos, _ := newGroupService(t)
	resp := createGroup(t, svc, "owner", "squad")
	group := resp.Group

	err := svc.Disband(t.Context(), "member", group.Id)
	assert.ErrorIs(t, err, errcode.ErrNotGroupOwner)

	require.NoError(t, svc.Disband(t.Context(), "owner", group.Id))

	// the group rejects further operations
	_, err = svc.Details(t.Context(), "owner", group.Id)
	assert.ErrorIs(t, err, errcode.ErrGroupDisbanded)

	// channels are detached and drop out of listings
	channels, err := repos.Conversation.GetChannelsByGroup(t.Context(), group.Id)
	require.NoError(t, err)
	assert.Empty(t, channels)

	groups, err := svc.ListForUser(t.Context(), "owner")
	require.NoError(t, err)
	assert.Empty(t, groups)
}
