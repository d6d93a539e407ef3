package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/qy-8/gamechat-app/internal/middleware"
	"github.com/qy-8/gamechat-app/internal/service"
	"github.com/qy-8/gamechat-app/pkg/errcode"
	"github.com/qy-8/gamechat-app/pkg/response"
)

// ConversationHandler handles conversation requests
type ConversationHandler struct {
	convService *service.ConversationService
	msgService  *service.MessageService
}

// NewConversationHandler creates a new ConversationHandler
func NewConversationHandler(convService *service.ConversationService, msgService *service.MessageService) *ConversationHandler {
	return &ConversationHandler{convService: convService, msgService: msgService}
}

// GetOrCreateRequest represents a find-or-create private conversation request
type GetOrCreateRequest struct {
	TargetId string `json:"target_id"`
}

// GetOrCreate finds or creates the private conversation with the target user
func (h *ConversationHandler) GetOrCreate(ctx context.Context, c *app.RequestContext) {
	var req GetOrCreateRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	resp, err := h.convService.GetOrCreatePrivate(ctx, middleware.GetUserId(c), req.TargetId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	msg := "conversation found"
	if resp.Created {
		msg = "conversation created"
	}
	response.Success(ctx, c, resp, msg)
}

// List returns the caller's conversations, newest activity first
func (h *ConversationHandler) List(ctx context.Context, c *app.RequestContext) {
	infos, err := h.convService.ListForUser(ctx, middleware.GetUserId(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, infos, "")
}

// MarkRead marks every unread message addressed to the caller as read
func (h *ConversationHandler) MarkRead(ctx context.Context, c *app.RequestContext) {
	conv := middleware.GetConversation(c)
	if conv == nil {
		response.ErrorWithCode(ctx, c, errcode.ErrConvNotFound)
		return
	}

	count, err := h.msgService.MarkRead(ctx, middleware.GetUserId(c), conv)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, map[string]int64{"read_count": count}, "marked read")
}

// MuteRequest sets the caller's mute preference for a conversation. The
// pointer distinguishes an absent field from an explicit false.
type MuteRequest struct {
	Mute *bool `json:"mute"`
}

// Mute sets the conversation's mute state for the caller
func (h *ConversationHandler) Mute(ctx context.Context, c *app.RequestContext) {
	conv := middleware.GetConversation(c)
	if conv == nil {
		response.ErrorWithCode(ctx, c, errcode.ErrConvNotFound)
		return
	}

	var req MuteRequest
	if err := c.BindAndValidate(&req); err != nil || req.Mute == nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	if err := h.convService.SetMute(ctx, middleware.GetUserId(c), conv.Id, *req.Mute); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, map[string]bool{"is_muted": *req.Mute}, "")
}
