package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"github.com/qy-8/gamechat-app/internal/entity"
	"github.com/qy-8/gamechat-app/internal/service"
	"github.com/qy-8/gamechat-app/pkg/errcode"
	"github.com/qy-8/gamechat-app/pkg/response"
)

const (
	// ConversationIdParam is the route parameter carrying the conversation id
	ConversationIdParam = "conversation_id"
	// ConversationKey is the context key for the resolved conversation
	ConversationKey = "conversation"
)

// ResolveConversation loads the conversation named in the route and checks
// the caller may access it. Handlers behind it read the row from context
// instead of re-checking.
func ResolveConversation(convService *service.ConversationService) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		convId := c.Param(ConversationIdParam)
		if convId == "" {
			response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
			c.Abort()
			return
		}

		conv, err := convService.GetById(ctx, GetUserId(c), convId)
		if err != nil {
			response.Error(ctx, c, err)
			c.Abort()
			return
		}

		c.Set(ConversationKey, conv)
		c.Next(ctx)
	}
}

// GetConversation gets the resolved conversation from context
func GetConversation(c *app.RequestContext) *entity.Conversation {
	if v, ok := c.Get(ConversationKey); ok {
		return v.(*entity.Conversation)
	}
	return nil
}
