package service

import (
	"context"
	"errors"

	"github.com/mbeoliero/kit/log"
	"github.com/qy-8/gamechat-app/internal/entity"
	"github.com/qy-8/gamechat-app/internal/repository"
	"github.com/qy-8/gamechat-app/pkg/errcode"
	"gorm.io/gorm"
)

// ConversationService handles conversation logic
type ConversationService struct {
	convRepo  *repository.ConversationRepo
	msgRepo   *repository.MessageRepo
	userRepo  *repository.UserRepo
	groupRepo *repository.GroupRepo
}

// NewConversationService creates a new ConversationService
func NewConversationService(repos *repository.Repositories) *ConversationService {
	return &ConversationService{
		convRepo:  repos.Conversation,
		msgRepo:   repos.Message,
		userRepo:  repos.User,
		groupRepo: repos.Group,
	}
}

// GetOrCreatePrivateResponse carries the conversation plus whether this
// call created it
type GetOrCreatePrivateResponse struct {
	Conversation *entity.ConversationInfo `json:"conversation"`
	Created      bool                     `json:"created"`
}

// GetOrCreatePrivate finds or creates the private conversation between the
// caller and targetId. Both orders of the pair resolve to the same thread.
func (s *ConversationService) GetOrCreatePrivate(ctx context.Context, userId, targetId string) (*GetOrCreatePrivateResponse, error) {
	if targetId == "" {
		return nil, errcode.ErrInvalidParam
	}
	if targetId == userId {
		return nil, errcode.ErrSelfConversation
	}

	target, err := s.userRepo.GetById(ctx, targetId)
	if err != nil {
		return nil, errcode.ErrUserNotFound
	}

	conv, created, err := s.convRepo.GetOrCreatePrivate(ctx, userId, targetId)
	if err != nil {
		log.CtxError(ctx, "get or create conversation failed: user_id=%s, target_id=%s, error=%v", userId, targetId, err)
		return nil, errcode.ErrInternalServer
	}

	info := &entity.ConversationInfo{
		Id:            conv.Id,
		Type:          conv.Type,
		Participant:   target.ToUserInfo(),
		LastMessageAt: conv.LastMessageAt,
		CreatedAt:     conv.CreatedAt,
	}

	if created {
		log.CtxInfo(ctx, "conversation created: id=%s, user_id=%s, target_id=%s", conv.Id, userId, targetId)
	}

	return &GetOrCreatePrivateResponse{Conversation: info, Created: created}, nil
}

// GetById loads a conversation and verifies the caller may access it: a
// private participant, or an active member of the owning group.
func (s *ConversationService) GetById(ctx context.Context, userId, convId string) (*entity.Conversation, error) {
	conv, err := s.convRepo.GetById(ctx, convId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.ErrConvNotFound
		}
		log.CtxError(ctx, "get conversation failed: id=%s, error=%v", convId, err)
		return nil, errcode.ErrInternalServer
	}

	if conv.IsPrivate() {
		if !conv.HasParticipant(userId) {
			return nil, errcode.ErrNotParticipant
		}
		return conv, nil
	}

	if conv.GroupId == "" {
		// Channel of a disbanded group
		return nil, errcode.ErrNotParticipant
	}
	if _, err := s.groupRepo.GetMember(ctx, conv.GroupId, userId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.ErrNotParticipant
		}
		log.CtxError(ctx, "get group member failed: group_id=%s, user_id=%s, error=%v", conv.GroupId, userId, err)
		return nil, errcode.ErrInternalServer
	}

	return conv, nil
}

// CanJoinChannel reports whether a user may subscribe to a channel room.
// Satisfies the gateway's room access check.
func (s *ConversationService) CanJoinChannel(ctx context.Context, userId, channelId string) error {
	_, err := s.GetById(ctx, userId, channelId)
	return err
}

// ListForUser returns the caller's conversations enriched with the peer's
// profile, the last message, unread count and mute state, newest first.
func (s *ConversationService) ListForUser(ctx context.Context, userId string) ([]*entity.ConversationInfo, error) {
	convs, err := s.convRepo.ListForUser(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "list conversations failed: user_id=%s, error=%v", userId, err)
		return nil, errcode.ErrInternalServer
	}

	muted, err := s.userRepo.GetMutedConversationIds(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "get muted conversations failed: user_id=%s, error=%v", userId, err)
		return nil, errcode.ErrInternalServer
	}

	// Fetch last messages first so their senders resolve in the same
	// user query as the private peers
	lastByConv := make(map[string]*entity.Message, len(convs))
	userIds := []string{userId}
	for _, conv := range convs {
		if conv.IsPrivate() {
			userIds = append(userIds, conv.OtherParticipant(userId))
		}
		if conv.LastMessageId != "" {
			if last, err := s.msgRepo.GetById(ctx, conv.LastMessageId); err == nil {
				lastByConv[conv.Id] = last
				userIds = append(userIds, last.SenderId)
			}
		}
	}
	users, err := s.userRepo.GetByIds(ctx, userIds)
	if err != nil {
		log.CtxError(ctx, "get users failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	userById := make(map[string]*entity.User, len(users))
	for _, u := range users {
		userById[u.Id] = u
	}

	infos := make([]*entity.ConversationInfo, 0, len(convs))
	for _, conv := range convs {
		info := &entity.ConversationInfo{
			Id:            conv.Id,
			Type:          conv.Type,
			Name:          conv.Name,
			GroupId:       conv.GroupId,
			IsMuted:       muted[conv.Id],
			LastMessageAt: conv.LastMessageAt,
			CreatedAt:     conv.CreatedAt,
		}

		if conv.IsPrivate() {
			if peer, ok := userById[conv.OtherParticipant(userId)]; ok {
				info.Participant = peer.ToUserInfo()
			}
		}

		unread, err := s.msgRepo.CountUnread(ctx, conv.Id, userId)
		if err != nil {
			log.CtxWarn(ctx, "count unread failed: conv_id=%s, error=%v", conv.Id, err)
		}
		info.UnreadCount = unread

		if last, ok := lastByConv[conv.Id]; ok {
			sender := ""
			if u, ok := userById[last.SenderId]; ok {
				sender = u.Username
			}
			lastInfo := last.ToInfo(userId, sender)
			lastInfo.Content = entity.Snippet(last.Content)
			info.LastMessage = lastInfo
		}

		infos = append(infos, info)
	}

	return infos, nil
}

// SetMute sets the caller's mute preference for a conversation. Setting the
// state a second time is a no-op, so a retried request cannot flip it back.
func (s *ConversationService) SetMute(ctx context.Context, userId, convId string, mute bool) error {
	if _, err := s.GetById(ctx, userId, convId); err != nil {
		return err
	}

	if mute {
		if err := s.userRepo.AddMute(ctx, userId, convId); err != nil {
			log.CtxError(ctx, "add mute failed: user_id=%s, conv_id=%s, error=%v", userId, convId, err)
			return errcode.ErrInternalServer
		}
		return nil
	}

	if err := s.userRepo.RemoveMute(ctx, userId, convId); err != nil {
		log.CtxError(ctx, "remove mute failed: user_id=%s, conv_id=%s, error=%v", userId, convId, err)
		return errcode.ErrInternalServer
	}
	return nil
}

// GetChannels lists the channels of a group the caller belongs to
func (s *ConversationService) GetChannels(ctx context.Context, userId, groupId string) ([]*entity.Conversation, error) {
	if _, err := s.groupRepo.GetMember(ctx, groupId, userId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.ErrNotGroupMember
		}
		return nil, errcode.ErrInternalServer
	}

	channels, err := s.convRepo.GetChannelsByGroup(ctx, groupId)
	if err != nil {
		log.CtxError(ctx, "get channels failed: group_id=%s, error=%v", groupId, err)
		return nil, errcode.ErrInternalServer
	}
	return channels, nil
}
