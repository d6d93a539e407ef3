package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/qy-8/gamechat-app/internal/middleware"
	"github.com/qy-8/gamechat-app/internal/service"
	"github.com/qy-8/gamechat-app/pkg/errcode"
	"github.com/qy-8/gamechat-app/pkg/response"
)

// UserHandler handles user requests
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Me returns the caller's own profile
func (h *UserHandler) Me(ctx context.Context, c *app.RequestContext) {
	info, err := h.userService.GetProfile(ctx, middleware.GetUserId(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, info, "")
}

// UpdateAvatarRequest represents an avatar update request
type UpdateAvatarRequest struct {
	Avatar string `json:"avatar"`
}

// UpdateAvatar updates the caller's avatar
func (h *UserHandler) UpdateAvatar(ctx context.Context, c *app.RequestContext) {
	var req UpdateAvatarRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	if err := h.userService.UpdateAvatar(ctx, middleware.GetUserId(c), req.Avatar); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, nil, "avatar updated")
}

// Search finds users by exact username
func (h *UserHandler) Search(ctx context.Context, c *app.RequestContext) {
	username := c.Query("username")

	users, err := h.userService.Search(ctx, middleware.GetUserId(c), username)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, users, "")
}
