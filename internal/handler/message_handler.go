package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/qy-8/gamechat-app/internal/middleware"
	"github.com/qy-8/gamechat-app/internal/service"
	"github.com/qy-8/gamechat-app/pkg/constant"
	"github.com/qy-8/gamechat-app/pkg/errcode"
	"github.com/qy-8/gamechat-app/pkg/response"
)

// MessageHandler handles message requests
type MessageHandler struct {
	msgService *service.MessageService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(msgService *service.MessageService) *MessageHandler {
	return &MessageHandler{msgService: msgService}
}

// Send persists and delivers a message in the resolved conversation
func (h *MessageHandler) Send(ctx context.Context, c *app.RequestContext) {
	conv := middleware.GetConversation(c)
	if conv == nil {
		response.ErrorWithCode(ctx, c, errcode.ErrConvNotFound)
		return
	}

	var req service.SendMessageRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	payload, err := h.msgService.SendMessage(ctx, middleware.GetUserId(c), conv, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, payload, "message sent")
}

// Page returns one page of the conversation's history, oldest first
func (h *MessageHandler) Page(ctx context.Context, c *app.RequestContext) {
	conv := middleware.GetConversation(c)
	if conv == nil {
		response.ErrorWithCode(ctx, c, errcode.ErrConvNotFound)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(constant.DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(constant.DefaultLimit)))

	resp, err := h.msgService.Page(ctx, middleware.GetUserId(c), conv, page, limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp, "")
}

// Search finds messages in the conversation matching the term
func (h *MessageHandler) Search(ctx context.Context, c *app.RequestContext) {
	conv := middleware.GetConversation(c)
	if conv == nil {
		response.ErrorWithCode(ctx, c, errcode.ErrConvNotFound)
		return
	}

	term := c.Query("q")
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(constant.DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(constant.DefaultLimit)))

	resp, err := h.msgService.Search(ctx, middleware.GetUserId(c), conv, term, page, limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp, "")
}
