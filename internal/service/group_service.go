package service

import (
	"context"
	"errors"
	"strings"

	"github.com/mbeoliero/kit/log"
	"github.com/qy-8/gamechat-app/internal/entity"
	"github.com/qy-8/gamechat-app/internal/gateway"
	"github.com/qy-8/gamechat-app/internal/repository"
	"github.com/qy-8/gamechat-app/pkg/constant"
	"github.com/qy-8/gamechat-app/pkg/errcode"
	"github.com/qy-8/gamechat-app/pkg/idgen"
	"gorm.io/gorm"
)

// GroupService handles group and invitation logic
type GroupService struct {
	repos     *repository.Repositories
	groupRepo *repository.GroupRepo
	convRepo  *repository.ConversationRepo
	userRepo  *repository.UserRepo
	pusher    EventPusher
}

// NewGroupService creates a new GroupService
func NewGroupService(repos *repository.Repositories) *GroupService {
	return &GroupService{
		repos:     repos,
		groupRepo: repos.Group,
		convRepo:  repos.Conversation,
		userRepo:  repos.User,
	}
}

// SetPusher wires the event pusher after the WebSocket server exists
func (s *GroupService) SetPusher(pusher EventPusher) {
	s.pusher = pusher
}

// CreateGroupRequest represents a create group request
type CreateGroupRequest struct {
	Name         string `json:"name"`
	Introduction string `json:"introduction,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
}

// CreateGroupResponse carries the new group and its default channels
type CreateGroupResponse struct {
	Group    *entity.Group          `json:"group"`
	Channels []*entity.Conversation `json:"channels"`
}

// CreateGroup creates a group with the caller as owner and its default
// channels, all in one transaction
func (s *GroupService) CreateGroup(ctx context.Context, ownerId string, req *CreateGroupRequest) (*CreateGroupResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errcode.ErrInvalidParam
	}

	group := &entity.Group{
		Id:           idgen.NextID(),
		Name:         name,
		Introduction: req.Introduction,
		Avatar:       req.Avatar,
		OwnerId:      ownerId,
		Status:       entity.GroupStatusActive,
	}

	var channels []*entity.Conversation
	err := s.repos.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.groupRepo.Create(ctx, tx, group); err != nil {
			return err
		}

		owner := &entity.GroupMember{
			GroupId: group.Id,
			UserId:  ownerId,
			Role:    entity.GroupRoleOwner,
		}
		if err := s.groupRepo.AddMember(ctx, tx, owner); err != nil {
			return err
		}

		for _, channelName := range constant.DefaultChannelNames {
			channel, err := s.convRepo.CreateChannel(ctx, tx, group.Id, channelName)
			if err != nil {
				return err
			}
			channels = append(channels, channel)
		}
		return nil
	})
	if err != nil {
		log.CtxError(ctx, "create group failed: owner_id=%s, error=%v", ownerId, err)
		return nil, errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "group created: id=%s, owner_id=%s", group.Id, ownerId)
	return &CreateGroupResponse{Group: group, Channels: channels}, nil
}

// getActiveGroup loads a group and rejects disbanded ones
func (s *GroupService) getActiveGroup(ctx context.Context, groupId string) (*entity.Group, error) {
	group, err := s.groupRepo.GetById(ctx, groupId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.ErrGroupNotFound
		}
		return nil, errcode.ErrInternalServer
	}
	if !group.IsActive() {
		return nil, errcode.ErrGroupDisbanded
	}
	return group, nil
}

// InviteResult reports the outcome for one invitee of a batch invite
type InviteResult struct {
	InviteeId    string `json:"invitee_id"`
	InvitationId string `json:"invitation_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Invite sends invitations to a batch of users. Only the owner may invite.
// Each invitee is handled independently; one bad invitee never blocks the
// others.
func (s *GroupService) Invite(ctx context.Context, inviterId, groupId string, inviteeIds []string) ([]*InviteResult, error) {
	if len(inviteeIds) == 0 {
		return nil, errcode.ErrInvalidParam
	}

	group, err := s.getActiveGroup(ctx, groupId)
	if err != nil {
		return nil, err
	}
	if group.OwnerId != inviterId {
		return nil, errcode.ErrNotGroupOwner
	}

	inviter, err := s.userRepo.GetById(ctx, inviterId)
	if err != nil {
		return nil, errcode.ErrUserNotFound
	}

	results := make([]*InviteResult, 0, len(inviteeIds))
	for _, inviteeId := range inviteeIds {
		result := &InviteResult{InviteeId: inviteeId}
		results = append(results, result)

		inv, err := s.inviteOne(ctx, group, inviterId, inviteeId)
		if err != nil {
			result.Error = err.Error()
			continue
		}
		result.InvitationId = inv.Id

		if s.pusher != nil {
			payload := &gateway.GroupInvitationPayload{
				InvitationId: inv.Id,
				GroupId:      group.Id,
				GroupName:    group.Name,
				Inviter:      inviter.ToUserInfo(),
				CreatedAt:    inv.CreatedAt,
			}
			s.pusher.PushToUsers(gateway.EventNewGroupInvitation, payload, []string{inviteeId}, "")
		}
	}

	return results, nil
}

// inviteOne validates and records a single invitation. Declined invitations
// are recycled into fresh pending ones.
func (s *GroupService) inviteOne(ctx context.Context, group *entity.Group, inviterId, inviteeId string) (*entity.GroupInvitation, error) {
	if inviteeId == inviterId {
		return nil, errcode.ErrSelfInvitation
	}
	if _, err := s.userRepo.GetById(ctx, inviteeId); err != nil {
		return nil, errcode.ErrUserNotFound
	}

	if _, err := s.groupRepo.GetMember(ctx, group.Id, inviteeId); err == nil {
		return nil, errcode.ErrAlreadyGroupMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errcode.ErrInternalServer
	}

	existing, err := s.groupRepo.GetInvitation(ctx, group.Id, inviteeId)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errcode.ErrInternalServer
	}
	if existing != nil {
		if existing.Status == entity.InvitationStatusPending {
			return nil, errcode.ErrInvitationPending
		}
		existing.InviterId = inviterId
		existing.Status = entity.InvitationStatusPending
		if err := s.groupRepo.SaveInvitation(ctx, existing); err != nil {
			log.CtxError(ctx, "save invitation failed: %v", err)
			return nil, errcode.ErrInternalServer
		}
		return existing, nil
	}

	inv := &entity.GroupInvitation{
		Id:        idgen.NextID(),
		GroupId:   group.Id,
		InviterId: inviterId,
		InviteeId: inviteeId,
		Status:    entity.InvitationStatusPending,
	}
	if err := s.groupRepo.CreateInvitation(ctx, inv); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errcode.ErrInvitationPending
		}
		log.CtxError(ctx, "create invitation failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	return inv, nil
}

// RespondInvitation accepts or declines an invitation. Accepting adds the
// invitee as a member.
func (s *GroupService) RespondInvitation(ctx context.Context, userId, invitationId string, accept bool) (*entity.GroupInvitation, error) {
	inv, err := s.groupRepo.GetInvitationById(ctx, invitationId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.ErrInvitationNotFound
		}
		return nil, errcode.ErrInternalServer
	}

	if inv.InviteeId != userId {
		return nil, errcode.ErrForbidden
	}
	if inv.Status != entity.InvitationStatusPending {
		return nil, errcode.ErrRequestHandled
	}

	if !accept {
		inv.Status = entity.InvitationStatusDeclined
		if err := s.groupRepo.SaveInvitation(ctx, inv); err != nil {
			log.CtxError(ctx, "save invitation failed: %v", err)
			return nil, errcode.ErrInternalServer
		}
		return inv, nil
	}

	if _, err := s.getActiveGroup(ctx, inv.GroupId); err != nil {
		return nil, err
	}

	inv.Status = entity.InvitationStatusAccepted
	err = s.repos.Transaction(ctx, func(tx *gorm.DB) error {
		member := &entity.GroupMember{
			GroupId: inv.GroupId,
			UserId:  userId,
			Role:    entity.GroupRoleMember,
		}
		if err := s.groupRepo.AddMember(ctx, tx, member); err != nil {
			return err
		}
		return tx.WithContext(ctx).Save(inv).Error
	})
	if err != nil {
		log.CtxError(ctx, "accept invitation failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "invitation accepted: id=%s, group_id=%s, user_id=%s", inv.Id, inv.GroupId, userId)
	return inv, nil
}

// PendingInvitations returns invitations awaiting the caller's response,
// with group names and inviter profiles attached
func (s *GroupService) PendingInvitations(ctx context.Context, userId string) ([]*entity.GroupInvitationInfo, error) {
	invs, err := s.groupRepo.ListPendingInvitationsForUser(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "list invitations failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	inviterIds := make([]string, 0, len(invs))
	for _, inv := range invs {
		inviterIds = append(inviterIds, inv.InviterId)
	}
	inviters, err := s.userRepo.GetByIds(ctx, inviterIds)
	if err != nil {
		return nil, errcode.ErrInternalServer
	}
	inviterById := make(map[string]*entity.User, len(inviters))
	for _, u := range inviters {
		inviterById[u.Id] = u
	}

	infos := make([]*entity.GroupInvitationInfo, 0, len(invs))
	for _, inv := range invs {
		info := &entity.GroupInvitationInfo{
			Id:        inv.Id,
			GroupId:   inv.GroupId,
			Status:    inv.Status,
			CreatedAt: inv.CreatedAt,
		}
		if group, err := s.groupRepo.GetById(ctx, inv.GroupId); err == nil {
			info.GroupName = group.Name
		}
		if inviter, ok := inviterById[inv.InviterId]; ok {
			info.Inviter = inviter.ToUserInfo()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Leave removes the caller from a group. The owner cannot leave; they must
// disband instead.
func (s *GroupService) Leave(ctx context.Context, userId, groupId string) error {
	group, err := s.getActiveGroup(ctx, groupId)
	if err != nil {
		return err
	}
	if group.OwnerId == userId {
		return errcode.ErrForbidden
	}

	if _, err := s.groupRepo.GetMember(ctx, groupId, userId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errcode.ErrNotGroupMember
		}
		return errcode.ErrInternalServer
	}

	if err := s.groupRepo.RemoveMember(ctx, groupId, userId); err != nil {
		log.CtxError(ctx, "remove member failed: %v", err)
		return errcode.ErrInternalServer
	}
	return nil
}

// Details returns a group with its member list. Members only.
func (s *GroupService) Details(ctx context.Context, userId, groupId string) (*entity.GroupInfo, error) {
	group, err := s.getActiveGroup(ctx, groupId)
	if err != nil {
		return nil, err
	}

	if _, err := s.groupRepo.GetMember(ctx, groupId, userId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.ErrNotGroupMember
		}
		return nil, errcode.ErrInternalServer
	}

	memberIds, err := s.groupRepo.GetMemberUserIds(ctx, groupId)
	if err != nil {
		log.CtxError(ctx, "get members failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	members, err := s.userRepo.GetByIds(ctx, memberIds)
	if err != nil {
		return nil, errcode.ErrInternalServer
	}

	memberInfos := make([]*entity.UserInfo, 0, len(members))
	for _, m := range members {
		memberInfos = append(memberInfos, m.ToUserInfo())
	}

	return &entity.GroupInfo{
		Id:           group.Id,
		Name:         group.Name,
		Introduction: group.Introduction,
		Avatar:       group.Avatar,
		OwnerId:      group.OwnerId,
		MemberCount:  int64(len(memberIds)),
		Members:      memberInfos,
		CreatedAt:    group.CreatedAt,
	}, nil
}

// MemberPageResponse represents one page of a group member search
type MemberPageResponse struct {
	Members    []*entity.UserInfo `json:"members"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int64              `json:"total_pages"`
}

// SearchMembers finds members of a group by username. Members only; an
// empty term lists everyone.
func (s *GroupService) SearchMembers(ctx context.Context, userId, groupId, term string, page, limit int) (*MemberPageResponse, error) {
	if _, err := s.getActiveGroup(ctx, groupId); err != nil {
		return nil, err
	}
	if _, err := s.groupRepo.GetMember(ctx, groupId, userId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.ErrNotGroupMember
		}
		return nil, errcode.ErrInternalServer
	}

	if page < 1 {
		page = constant.DefaultPage
	}
	if limit < 1 {
		limit = constant.DefaultLimit
	}
	if limit > constant.MaxLimit {
		limit = constant.MaxLimit
	}

	users, total, err := s.groupRepo.SearchMembers(ctx, groupId, strings.TrimSpace(term), page, limit)
	if err != nil {
		log.CtxError(ctx, "search members failed: group_id=%s, error=%v", groupId, err)
		return nil, errcode.ErrInternalServer
	}

	members := make([]*entity.UserInfo, 0, len(users))
	for _, u := range users {
		members = append(members, u.ToUserInfo())
	}

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}

	return &MemberPageResponse{
		Members:    members,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// ListForUser returns the active groups the caller belongs to
func (s *GroupService) ListForUser(ctx context.Context, userId string) ([]*entity.Group, error) {
	groups, err := s.groupRepo.ListForUser(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "list groups failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	return groups, nil
}

// Disband shuts a group down. Owner only. Channels are detached so they
// drop out of member conversation lists.
func (s *GroupService) Disband(ctx context.Context, userId, groupId string) error {
	group, err := s.getActiveGroup(ctx, groupId)
	if err != nil {
		return err
	}
	if group.OwnerId != userId {
		return errcode.ErrNotGroupOwner
	}

	err = s.repos.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.groupRepo.Disband(ctx, tx, groupId); err != nil {
			return err
		}
		return s.convRepo.ClearGroupRef(ctx, tx, groupId)
	})
	if err != nil {
		log.CtxError(ctx, "disband group failed: group_id=%s, error=%v", groupId, err)
		return errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "group disbanded: id=%s, owner_id=%s", groupId, userId)
	return nil
}
