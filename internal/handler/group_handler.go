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

// GroupHandler handles group requests
type GroupHandler struct {
	groupService *service.GroupService
	convService  *service.ConversationService
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(groupService *service.GroupService, convService *service.ConversationService) *GroupHandler {
	return &GroupHandler{groupService: groupService, convService: convService}
}

// Create creates a group with default channels
func (h *GroupHandler) Create(ctx context.Context, c *app.RequestContext) {
	var req service.CreateGroupRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	resp, err := h.groupService.CreateGroup(ctx, middleware.GetUserId(c), &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp, "group created")
}

// List returns the caller's groups
func (h *GroupHandler) List(ctx context.Context, c *app.RequestContext) {
	groups, err := h.groupService.ListForUser(ctx, middleware.GetUserId(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, groups, "")
}

// Details returns a group with its member list
func (h *GroupHandler) Details(ctx context.Context, c *app.RequestContext) {
	groupId := c.Param("group_id")

	info, err := h.groupService.Details(ctx, middleware.GetUserId(c), groupId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, info, "")
}

// Channels returns the channels of a group
func (h *GroupHandler) Channels(ctx context.Context, c *app.RequestContext) {
	groupId := c.Param("group_id")

	channels, err := h.convService.GetChannels(ctx, middleware.GetUserId(c), groupId)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, channels, "")
}

// SearchMembers finds members of a group by username
func (h *GroupHandler) SearchMembers(ctx context.Context, c *app.RequestContext) {
	groupId := c.Param("group_id")
	term := c.Query("username")
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(constant.DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(constant.DefaultLimit)))

	resp, err := h.groupService.SearchMembers(ctx, middleware.GetUserId(c), groupId, term, page, limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, resp, "")
}

// InviteBody represents a batch invite body
type InviteBody struct {
	InviteeIds []string `json:"invitee_ids"`
}

// Invite sends invitations to a batch of users
func (h *GroupHandler) Invite(ctx context.Context, c *app.RequestContext) {
	groupId := c.Param("group_id")

	var req InviteBody
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	results, err := h.groupService.Invite(ctx, middleware.GetUserId(c), groupId, req.InviteeIds)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, results, "invitations processed")
}

// RespondInvitation accepts or declines a group invitation
func (h *GroupHandler) RespondInvitation(ctx context.Context, c *app.RequestContext) {
	invitationId := c.Param("invitation_id")

	var req RespondBody
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	inv, err := h.groupService.RespondInvitation(ctx, middleware.GetUserId(c), invitationId, req.Accept)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	msg := "invitation declined"
	if req.Accept {
		msg = "invitation accepted"
	}
	response.Success(ctx, c, inv, msg)
}

// PendingInvitations returns invitations awaiting the caller's response
func (h *GroupHandler) PendingInvitations(ctx context.Context, c *app.RequestContext) {
	infos, err := h.groupService.PendingInvitations(ctx, middleware.GetUserId(c))
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, infos, "")
}

// Leave removes the caller from a group
func (h *GroupHandler) Leave(ctx context.Context, c *app.RequestContext) {
	groupId := c.Param("group_id")

	if err := h.groupService.Leave(ctx, middleware.GetUserId(c), groupId); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, nil, "left group")
}

// Disband shuts a group down. Owner only.
func (h *GroupHandler) Disband(ctx context.Context, c *app.RequestContext) {
	groupId := c.Param("group_id")

	if err := h.groupService.Disband(ctx, middleware.GetUserId(c), groupId); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, nil, "group disbanded")
}
