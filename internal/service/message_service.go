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

// EventPusher delivers server events to connected clients. The WebSocket
// server implements it; tests substitute a fake.
type EventPusher interface {
	PushToUsers(event string, payload interface{}, userIds []string, excludeConnId string)
	PushToRoom(event string, payload interface{}, roomId string)
}

// MessageService handles message persistence and delivery
type MessageService struct {
	repos     *repository.Repositories
	msgRepo   *repository.MessageRepo
	convRepo  *repository.ConversationRepo
	userRepo  *repository.UserRepo
	groupRepo *repository.GroupRepo
	pusher    EventPusher
}

// NewMessageService creates a new MessageService
func NewMessageService(repos *repository.Repositories) *MessageService {
	return &MessageService{
		repos:     repos,
		msgRepo:   repos.Message,
		convRepo:  repos.Conversation,
		userRepo:  repos.User,
		groupRepo: repos.Group,
	}
}

// SetPusher wires the event pusher after the WebSocket server exists
func (s *MessageService) SetPusher(pusher EventPusher) {
	s.pusher = pusher
}

// SendMessageRequest represents a send message request
type SendMessageRequest struct {
	Content   string   `json:"content"`
	MsgType   string   `json:"msg_type,omitempty"`
	ReplyToId string   `json:"reply_to_id,omitempty"`
	Mentions  []string `json:"mentions,omitempty"`
}

// SendMessage persists a message and fans it out. The message is durable
// before any push happens; delivery failures never fail the send.
func (s *MessageService) SendMessage(ctx context.Context, senderId string, conv *entity.Conversation, req *SendMessageRequest) (*gateway.NewMessagePayload, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, errcode.ErrEmptyContent
	}

	msgType := req.MsgType
	if msgType == "" {
		msgType = entity.MsgTypeText
	}

	sender, err := s.userRepo.GetById(ctx, senderId)
	if err != nil {
		return nil, errcode.ErrUserNotFound
	}

	msg := &entity.Message{
		Id:             idgen.NextID(),
		ConversationId: conv.Id,
		SenderId:       senderId,
		MsgType:        msgType,
		Content:        content,
		Mentions:       req.Mentions,
	}

	if conv.IsPrivate() {
		msg.ReceiverId = conv.OtherParticipant(senderId)
	}

	if req.ReplyToId != "" {
		ref, err := s.buildReplyRef(ctx, conv.Id, req.ReplyToId)
		if err != nil {
			return nil, err
		}
		msg.Reply = *ref
	}

	err = s.repos.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.msgRepo.Create(ctx, tx, msg); err != nil {
			return err
		}
		return s.convRepo.UpdateLastMessage(ctx, tx, conv.Id, msg)
	})
	if err != nil {
		log.CtxError(ctx, "persist message failed: conv_id=%s, sender_id=%s, error=%v", conv.Id, senderId, err)
		return nil, errcode.ErrSendFailed
	}

	payload := s.buildNewMessagePayload(ctx, conv, msg, sender)

	// Fan out after the commit. The pushed payload is the same one the
	// HTTP caller receives.
	if s.pusher != nil {
		if conv.IsPrivate() {
			s.pusher.PushToUsers(gateway.EventNewMessage, payload, []string{senderId, msg.ReceiverId}, "")
		} else {
			s.pusher.PushToRoom(gateway.EventNewMessage, payload, conv.Id)
		}
	}

	log.CtxDebug(ctx, "message sent: id=%s, conv_id=%s, sender_id=%s", msg.Id, conv.Id, senderId)
	return payload, nil
}

// buildNewMessagePayload hydrates the canonical new_message shape: sender and
// receiver profiles for private threads, sender plus parent-group info for
// channels, tagged with the conversation type. Hydration is best effort; the
// message is already committed, so lookup failures degrade to bare ids.
func (s *MessageService) buildNewMessagePayload(ctx context.Context, conv *entity.Conversation, msg *entity.Message, sender *entity.User) *gateway.NewMessagePayload {
	payload := &gateway.NewMessagePayload{
		Id:               msg.Id,
		ConversationId:   msg.ConversationId,
		ConversationType: conv.Type,
		Sender:           sender.ToUserInfo(),
		MsgType:          msg.MsgType,
		Content:          msg.Content,
		Mentions:         msg.Mentions,
		ReadAt:           msg.ReadAt,
		CreatedAt:        msg.CreatedAt,
	}
	if !msg.Reply.IsZero() {
		reply := msg.Reply
		payload.Reply = &reply
	}

	if conv.IsPrivate() {
		receiver, err := s.userRepo.GetById(ctx, msg.ReceiverId)
		if err != nil {
			log.CtxWarn(ctx, "resolve receiver failed: receiver_id=%s, error=%v", msg.ReceiverId, err)
			payload.Receiver = &entity.UserInfo{Id: msg.ReceiverId}
		} else {
			payload.Receiver = receiver.ToUserInfo()
		}
		return payload
	}

	group, err := s.groupRepo.GetById(ctx, conv.GroupId)
	if err != nil {
		log.CtxWarn(ctx, "resolve group failed: group_id=%s, error=%v", conv.GroupId, err)
		payload.Group = &gateway.GroupRefPayload{Id: conv.GroupId}
	} else {
		payload.Group = &gateway.GroupRefPayload{Id: group.Id, Name: group.Name, Avatar: group.Avatar}
	}
	return payload
}

// buildReplyRef loads the referenced message and denormalizes it. A reply
// may only target a message in the same conversation.
func (s *MessageService) buildReplyRef(ctx context.Context, convId, replyToId string) (*entity.ReplyRef, error) {
	replied, err := s.msgRepo.GetById(ctx, replyToId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.ErrMessageNotFound
		}
		return nil, errcode.ErrInternalServer
	}
	if replied.ConversationId != convId {
		return nil, errcode.ErrMessageNotFound
	}

	sender, err := s.userRepo.GetById(ctx, replied.SenderId)
	senderName := ""
	if err == nil {
		senderName = sender.Username
	}

	return &entity.ReplyRef{
		MessageId:      replied.Id,
		SenderUsername: senderName,
		Content:        entity.Snippet(replied.Content),
	}, nil
}

// PageResponse represents one page of conversation history
type PageResponse struct {
	Messages   []*entity.MessageInfo `json:"messages"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
	TotalPages int64                 `json:"total_pages"`
}

// Page returns one page of history in chronological order. Page 1 holds
// the newest messages.
func (s *MessageService) Page(ctx context.Context, userId string, conv *entity.Conversation, page, limit int) (*PageResponse, error) {
	if page < 1 {
		page = constant.DefaultPage
	}
	if limit < 1 {
		limit = constant.DefaultLimit
	}
	if limit > constant.MaxLimit {
		limit = constant.MaxLimit
	}

	msgs, total, err := s.msgRepo.Page(ctx, conv.Id, page, limit)
	if err != nil {
		log.CtxError(ctx, "page messages failed: conv_id=%s, error=%v", conv.Id, err)
		return nil, errcode.ErrInternalServer
	}

	infos, err := s.hydrate(ctx, userId, msgs)
	if err != nil {
		return nil, err
	}

	// Repo returns newest first; flip the page so clients render top-down
	for i, j := 0, len(infos)-1; i < j; i, j = i+1, j-1 {
		infos[i], infos[j] = infos[j], infos[i]
	}

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}

	return &PageResponse{
		Messages:   infos,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// MarkRead stamps every unread message addressed to the caller and notifies
// the other private participant that their messages were read
func (s *MessageService) MarkRead(ctx context.Context, userId string, conv *entity.Conversation) (int64, error) {
	count, err := s.msgRepo.MarkRead(ctx, conv.Id, userId)
	if err != nil {
		log.CtxError(ctx, "mark read failed: conv_id=%s, user_id=%s, error=%v", conv.Id, userId, err)
		return 0, errcode.ErrInternalServer
	}

	if count > 0 && conv.IsPrivate() && s.pusher != nil {
		payload := &gateway.ConversationReadPayload{
			ConversationId: conv.Id,
			ReaderId:       userId,
			ReadCount:      count,
			ReadAt:         entity.NowUnixMilli(),
		}
		s.pusher.PushToUsers(gateway.EventConversationRead, payload, []string{conv.OtherParticipant(userId)}, "")
	}

	return count, nil
}

// Search finds messages in the conversation matching term, best match first,
// one page at a time
func (s *MessageService) Search(ctx context.Context, userId string, conv *entity.Conversation, term string, page, limit int) (*PageResponse, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errcode.ErrEmptySearchTerm
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

	msgs, total, err := s.msgRepo.Search(ctx, conv.Id, term, page, limit)
	if err != nil {
		log.CtxError(ctx, "search messages failed: conv_id=%s, error=%v", conv.Id, err)
		return nil, errcode.ErrInternalServer
	}

	infos, err := s.hydrate(ctx, userId, msgs)
	if err != nil {
		return nil, err
	}

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}

	return &PageResponse{
		Messages:   infos,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

// hydrate converts messages to the viewer's MessageInfo, resolving sender
// usernames in one query
func (s *MessageService) hydrate(ctx context.Context, viewerId string, msgs []*entity.Message) ([]*entity.MessageInfo, error) {
	senderIds := make([]string, 0, len(msgs))
	seen := make(map[string]bool, len(msgs))
	for _, m := range msgs {
		if !seen[m.SenderId] {
			seen[m.SenderId] = true
			senderIds = append(senderIds, m.SenderId)
		}
	}

	names, err := usernamesByIds(ctx, s.userRepo, senderIds)
	if err != nil {
		log.CtxError(ctx, "resolve sender names failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	infos := make([]*entity.MessageInfo, 0, len(msgs))
	for _, m := range msgs {
		infos = append(infos, m.ToInfo(viewerId, names[m.SenderId]))
	}
	return infos, nil
}
