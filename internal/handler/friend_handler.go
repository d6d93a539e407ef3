package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/qy-8/gamechat-app/internal/middleware"
	"github.com/qy-8/gamechat-app/internal/service"
	"github.com/qy-8/gamechat-app/pkg/errcode"
	"github.com/qy-8/gamechat-app/pkg/response"
)

// FriendHandler handles friendship requests
type FriendHandler struct {
	friendService *service.FriendService
}

// NewFriendHandler creates a new FriendHandler
func NewFriendHandler(friendService *service.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

// SendRequestBody represents a friend request body
type SendRequestBody struct {
	RecipientId string `json:"recipient_id"`
}

// SendRequest sends a friend request
func (h *FriendHandler) SendRequest(ctx context.Context, c *app.RequestContext) {
	var req SendRequestBody
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	friendship, err := h.friendService.SendRequest(ctx, middleware.GetUserId(c), req.RecipientId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, friendship, "friend request sent")
}

// RespondBody represents an accept/decline body
type RespondBody struct {
	Accept bool `json:"accept"`
}

// Respond accepts or declines a pending friend request
func (h *FriendHandler) Respond(ctx context.Context, c *app.RequestContext) {
	requestId := c.Param("request_id")

	var req RespondBody
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	friendship, err := h.friendService.Respond(ctx, middleware.GetUserId(c), requestId, req.Accept)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	msg := "friend request declined"
	if req.Accept {
		msg = "friend request accepted"
	}
	response.Success(ctx, c, friendship, msg)
}

// List returns the caller's friends
func (h *FriendHandler) List(ctx context.Context, c *app.RequestContext) {
	infos, err := h.friendService.ListFriends(ctx, middleware.GetUserId(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, infos, "")
}

// Pending returns incoming pending friend requests
func (h *FriendHandler) Pending(ctx context.Context, c *app.RequestContext) {
	infos, err := h.friendService.ListPending(ctx, middleware.GetUserId(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, infos, "")
}

// Unfriend dissolves a friendship with the user in the route
func (h *FriendHandler) Unfriend(ctx context.Context, c *app.RequestContext) {
	friendId := c.Param("user_id")

	if err := h.friendService.Unfriend(ctx, middleware.GetUserId(c), friendId); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, nil, "unfriended")
}

// Block blocks the user in the route
func (h *FriendHandler) Block(ctx context.Context, c *app.RequestContext) {
	targetId := c.Param("user_id")

	if err := h.friendService.Block(ctx, middleware.GetUserId(c), targetId); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, nil, "blocked")
}

// Unblock lifts a block placed by the caller
func (h *FriendHandler) Unblock(ctx context.Context, c *app.RequestContext) {
	targetId := c.Param("user_id")

	friendship, err := h.friendService.Unblock(ctx, middleware.GetUserId(c), targetId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, friendship, "unblocked")
}

// Blocked lists users the caller has blocked
func (h *FriendHandler) Blocked(ctx context.Context, c *app.RequestContext) {
	infos, err := h.friendService.ListBlocked(ctx, middleware.GetUserId(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, infos, "")
}
