package service

import (
	"context"
	"strings"

	"github.com/mbeoliero/kit/log"
	"github.com/qy-8/gamechat-app/internal/entity"
	"github.com/qy-8/gamechat-app/internal/repository"
	"github.com/qy-8/gamechat-app/pkg/errcode"
)

// UserService handles user profile logic
type UserService struct {
	userRepo *repository.UserRepo
}

// NewUserService creates a new UserService
func NewUserService(userRepo *repository.UserRepo) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetProfile returns the public profile of a user
func (s *UserService) GetProfile(ctx context.Context, userId string) (*entity.UserInfo, error) {
	user, err := s.userRepo.GetById(ctx, userId)
	if err != nil {
		return nil, errcode.ErrUserNotFound
	}
	return user.ToUserInfo(), nil
}

// UpdateAvatar updates a user's avatar
func (s *UserService) UpdateAvatar(ctx context.Context, userId, avatar string) error {
	if err := s.userRepo.Update(ctx, userId, map[string]interface{}{"avatar": avatar}); err != nil {
		log.CtxError(ctx, "update avatar failed: user_id=%s, error=%v", userId, err)
		return errcode.ErrInternalServer
	}
	return nil
}

// Search finds other users by exact username
func (s *UserService) Search(ctx context.Context, searcherId, username string) ([]*entity.UserInfo, error) {
	term := strings.TrimSpace(username)
	if term == "" {
		return nil, errcode.ErrInvalidParam
	}

	users, err := s.userRepo.SearchByUsername(ctx, term, searcherId)
	if err != nil {
		log.CtxError(ctx, "search users failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	infos := make([]*entity.UserInfo, 0, len(users))
	for _, u := range users {
		infos = append(infos, u.ToUserInfo())
	}
	return infos, nil
}

// usernamesByIds resolves a set of user ids to usernames; missing ids
// resolve to the empty string
func usernamesByIds(ctx context.Context, userRepo *repository.UserRepo, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	users, err := userRepo.GetByIds(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.Id] = u.Username
	}
	return names, nil
}
