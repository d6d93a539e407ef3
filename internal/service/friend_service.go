package service

import (
	"context"
	"errors"

	"github.com/mbeoliero/kit/log"
	"github.com/qy-8/gamechat-app/internal/entity"
	"github.com/qy-8/gamechat-app/internal/gateway"
	"github.com/qy-8/gamechat-app/internal/repository"
	"github.com/qy-8/gamechat-app/pkg/errcode"
	"github.com/qy-8/gamechat-app/pkg/idgen"
	"gorm.io/gorm"
)

// FriendService handles the friendship state machine
type FriendService struct {
	friendRepo *repository.FriendshipRepo
	userRepo   *repository.UserRepo
	pusher     EventPusher
}

// NewFriendService creates a new FriendService
func NewFriendService(repos *repository.Repositories) *FriendService {
	return &FriendService{
		friendRepo: repos.Friendship,
		userRepo:   repos.User,
	}
}

// SetPusher wires the event pusher after the WebSocket server exists
func (s *FriendService) SetPusher(pusher EventPusher) {
	s.pusher = pusher
}

// SendRequest sends a friend request. A declined or unfriended pair may be
// re-requested; the existing row is recycled with the new direction.
func (s *FriendService) SendRequest(ctx context.Context, requesterId, recipientId string) (*entity.Friendship, error) {
	if recipientId == "" {
		return nil, errcode.ErrInvalidParam
	}
	if recipientId == requesterId {
		return nil, errcode.ErrSelfFriendship
	}

	requester, err := s.userRepo.GetById(ctx, requesterId)
	if err != nil {
		return nil, errcode.ErrUserNotFound
	}
	if _, err := s.userRepo.GetById(ctx, recipientId); err != nil {
		return nil, errcode.ErrUserNotFound
	}

	existing, err := s.friendRepo.GetByPair(ctx, requesterId, recipientId)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.CtxError(ctx, "get friendship failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	var friendship *entity.Friendship
	if existing != nil {
		switch existing.Status {
		case entity.FriendshipStatusPending:
			return nil, errcode.ErrRequestPending
		case entity.FriendshipStatusFriends:
			return nil, errcode.ErrAlreadyFriends
		case entity.FriendshipStatusBlocked:
			return nil, errcode.ErrFriendshipBlocked
		}

		// declined or unfriended: recycle the row as a fresh request
		existing.RequesterId = requesterId
		existing.RecipientId = recipientId
		existing.Status = entity.FriendshipStatusPending
		existing.AcceptedAt = nil
		existing.DeletedAt = nil
		if err := s.friendRepo.Save(ctx, existing); err != nil {
			log.CtxError(ctx, "save friendship failed: %v", err)
			return nil, errcode.ErrInternalServer
		}
		friendship = existing
	} else {
		friendship = &entity.Friendship{
			Id:          idgen.NextID(),
			PairKey:     entity.PairKey(requesterId, recipientId),
			RequesterId: requesterId,
			RecipientId: recipientId,
			Status:      entity.FriendshipStatusPending,
		}
		if err := s.friendRepo.Create(ctx, friendship); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, errcode.ErrRequestPending
			}
			log.CtxError(ctx, "create friendship failed: %v", err)
			return nil, errcode.ErrInternalServer
		}
	}

	if s.pusher != nil {
		payload := &gateway.FriendRequestPayload{
			RequestId: friendship.Id,
			Requester: requester.ToUserInfo(),
			CreatedAt: friendship.CreatedAt,
		}
		s.pusher.PushToUsers(gateway.EventNewFriendRequest, payload, []string{recipientId}, "")
	}

	log.CtxInfo(ctx, "friend request sent: id=%s, requester_id=%s, recipient_id=%s",
		friendship.Id, requesterId, recipientId)
	return friendship, nil
}

// Respond accepts or declines a pending request. Only the recipient may
// respond, and only while the request is still pending.
func (s *FriendService) Respond(ctx context.Context, userId, requestId string, accept bool) (*entity.Friendship, error) {
	friendship, err := s.friendRepo.GetById(ctx, requestId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.ErrRequestNotFound
		}
		return nil, errcode.ErrInternalServer
	}

	if friendship.RecipientId != userId {
		return nil, errcode.ErrForbidden
	}
	if friendship.Status != entity.FriendshipStatusPending {
		return nil, errcode.ErrRequestHandled
	}

	if accept {
		now := entity.NowUnixMilli()
		friendship.Status = entity.FriendshipStatusFriends
		friendship.AcceptedAt = &now
	} else {
		friendship.Status = entity.FriendshipStatusDeclined
	}

	if err := s.friendRepo.Save(ctx, friendship); err != nil {
		log.CtxError(ctx, "save friendship failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "friend request resolved: id=%s, status=%s", friendship.Id, friendship.Status)
	return friendship, nil
}

// Unfriend dissolves an accepted friendship
func (s *FriendService) Unfriend(ctx context.Context, userId, friendId string) error {
	friendship, err := s.friendRepo.GetByPair(ctx, userId, friendId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errcode.ErrNotFriends
		}
		return errcode.ErrInternalServer
	}
	if friendship.Status != entity.FriendshipStatusFriends {
		return errcode.ErrNotFriends
	}

	now := entity.NowUnixMilli()
	friendship.Status = entity.FriendshipStatusUnfriended
	friendship.DeletedAt = &now

	if err := s.friendRepo.Save(ctx, friendship); err != nil {
		log.CtxError(ctx, "save friendship failed: %v", err)
		return errcode.ErrInternalServer
	}
	return nil
}

// Block blocks a user. Works from any prior state; a missing row is
// created directly in the blocked state.
func (s *FriendService) Block(ctx context.Context, userId, targetId string) error {
	if targetId == "" || targetId == userId {
		return errcode.ErrInvalidParam
	}
	if _, err := s.userRepo.GetById(ctx, targetId); err != nil {
		return errcode.ErrUserNotFound
	}

	friendship, err := s.friendRepo.GetByPair(ctx, userId, targetId)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return errcode.ErrInternalServer
		}
		friendship = &entity.Friendship{
			Id:          idgen.NextID(),
			PairKey:     entity.PairKey(userId, targetId),
			RequesterId: userId,
			RecipientId: targetId,
		}
		friendship.Status = entity.FriendshipStatusBlocked
		friendship.BlockedBy = userId
		if err := s.friendRepo.Create(ctx, friendship); err != nil {
			log.CtxError(ctx, "create blocked friendship failed: %v", err)
			return errcode.ErrInternalServer
		}
		return nil
	}

	if friendship.Status == entity.FriendshipStatusBlocked {
		return nil
	}

	friendship.Status = entity.FriendshipStatusBlocked
	friendship.BlockedBy = userId
	if err := s.friendRepo.Save(ctx, friendship); err != nil {
		log.CtxError(ctx, "save friendship failed: %v", err)
		return errcode.ErrInternalServer
	}
	return nil
}

// Unblock lifts a block placed by the caller. The pair returns to friends
// if the friendship had been accepted before the block, otherwise a fresh
// request is required.
func (s *FriendService) Unblock(ctx context.Context, userId, targetId string) (*entity.Friendship, error) {
	friendship, err := s.friendRepo.GetByPair(ctx, userId, targetId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.ErrFriendshipNotFound
		}
		return nil, errcode.ErrInternalServer
	}

	if friendship.Status != entity.FriendshipStatusBlocked {
		return nil, errcode.ErrFriendshipNotFound
	}
	if friendship.BlockedBy != userId {
		return nil, errcode.ErrNotBlockedByYou
	}

	if friendship.AcceptedAt != nil {
		friendship.Status = entity.FriendshipStatusFriends
	} else {
		friendship.Status = entity.FriendshipStatusUnfriended
	}
	friendship.BlockedBy = ""

	if err := s.friendRepo.Save(ctx, friendship); err != nil {
		log.CtxError(ctx, "save friendship failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	return friendship, nil
}

// ListFriends returns the caller's accepted friendships with the friend
// profile attached
func (s *FriendService) ListFriends(ctx context.Context, userId string) ([]*entity.FriendshipInfo, error) {
	friendships, err := s.friendRepo.ListFriends(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "list friends failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	return s.hydrate(ctx, userId, friendships)
}

// ListPending returns pending requests addressed to the caller
func (s *FriendService) ListPending(ctx context.Context, userId string) ([]*entity.FriendshipInfo, error) {
	friendships, err := s.friendRepo.ListIncomingPending(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "list pending requests failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	return s.hydrate(ctx, userId, friendships)
}

// ListBlocked returns users the caller has blocked
func (s *FriendService) ListBlocked(ctx context.Context, userId string) ([]*entity.FriendshipInfo, error) {
	friendships, err := s.friendRepo.ListBlockedBy(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "list blocked failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	return s.hydrate(ctx, userId, friendships)
}

// hydrate attaches peer profiles to friendship rows
func (s *FriendService) hydrate(ctx context.Context, userId string, friendships []*entity.Friendship) ([]*entity.FriendshipInfo, error) {
	peerIds := make([]string, 0, len(friendships))
	for _, f := range friendships {
		peerIds = append(peerIds, f.OtherParty(userId))
	}
	peers, err := s.userRepo.GetByIds(ctx, peerIds)
	if err != nil {
		log.CtxError(ctx, "get peers failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	peerById := make(map[string]*entity.User, len(peers))
	for _, p := range peers {
		peerById[p.Id] = p
	}

	infos := make([]*entity.FriendshipInfo, 0, len(friendships))
	for _, f := range friendships {
		info := &entity.FriendshipInfo{
			Id:         f.Id,
			Status:     f.Status,
			AcceptedAt: f.AcceptedAt,
			CreatedAt:  f.CreatedAt,
		}
		if peer, ok := peerById[f.OtherParty(userId)]; ok {
			peerInfo := peer.ToUserInfo()
			info.Friend = peerInfo
			if f.RequesterId == peer.Id {
				info.Requester = peerInfo
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}
