package errcode

import (
	"fmt"
	"net/http"
)

// Error represents a business error carrying the HTTP status it maps to.
type Error struct {
	Status int    `json:"-"`
	Msg    string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("errcode: status=%d, msg=%s", e.Status, e.Msg)
}

// New creates a new error with status and message
func New(status int, msg string) *Error {
	return &Error{Status: status, Msg: msg}
}

// Wrap attaches a cause to a business error. The result still matches the
// original sentinel under errors.Is and surfaces as *Error under errors.As.
func (e *Error) Wrap(err error) error {
	if err == nil {
		return e
	}
	return &wrappedError{base: e, cause: err}
}

type wrappedError struct {
	base  *Error
	cause error
}

func (w *wrappedError) Error() string {
	return fmt.Sprintf("%s: %v", w.base.Msg, w.cause)
}

func (w *wrappedError) Unwrap() []error {
	return []error{w.base, w.cause}
}

// Common errors
var (
	ErrInvalidParam   = New(http.StatusBadRequest, "invalid parameter")
	ErrInternalServer = New(http.StatusInternalServerError, "internal server error")
	ErrUnauthorized   = New(http.StatusUnauthorized, "unauthorized")
	ErrForbidden      = New(http.StatusForbidden, "forbidden")
	ErrNotFound       = New(http.StatusNotFound, "not found")
)

// Auth errors
var (
	ErrTokenInvalid  = New(http.StatusUnauthorized, "token invalid")
	ErrTokenExpired  = New(http.StatusUnauthorized, "token expired")
	ErrTokenMissing  = New(http.StatusUnauthorized, "token missing")
	ErrTokenMismatch = New(http.StatusUnauthorized, "token user mismatch")
	ErrUserNotFound  = New(http.StatusNotFound, "user not found")
	ErrUserExists    = New(http.StatusConflict, "user already exists")
	ErrPasswordWrong = New(http.StatusUnauthorized, "password wrong")
)

// Conversation / message errors
var (
	ErrConvNotFound     = New(http.StatusNotFound, "conversation not found")
	ErrNotParticipant   = New(http.StatusForbidden, "not a conversation participant")
	ErrSelfConversation = New(http.StatusBadRequest, "cannot start a conversation with yourself")
	ErrEmptyContent     = New(http.StatusBadRequest, "message content must not be empty")
	ErrEmptySearchTerm  = New(http.StatusBadRequest, "search term must not be empty")
	ErrMessageNotFound  = New(http.StatusNotFound, "message not found")
	ErrSendFailed       = New(http.StatusInternalServerError, "message send failed")
)

// Friendship errors
var (
	ErrSelfFriendship     = New(http.StatusBadRequest, "cannot target yourself")
	ErrAlreadyFriends     = New(http.StatusConflict, "already friends")
	ErrRequestPending     = New(http.StatusConflict, "a friend request is already pending")
	ErrFriendshipBlocked  = New(http.StatusConflict, "cannot send a friend request to this user")
	ErrNotFriends         = New(http.StatusNotFound, "not friends with this user")
	ErrRequestNotFound    = New(http.StatusNotFound, "friend request not found")
	ErrRequestHandled     = New(http.StatusConflict, "request already handled")
	ErrNotBlockedByYou    = New(http.StatusForbidden, "this user is not blocked by you")
	ErrFriendshipNotFound = New(http.StatusNotFound, "friendship not found")
)

// Group errors
var (
	ErrGroupNotFound      = New(http.StatusNotFound, "group not found")
	ErrGroupDisbanded     = New(http.StatusConflict, "group has been disbanded")
	ErrNotGroupMember     = New(http.StatusForbidden, "not a group member")
	ErrNotGroupOwner      = New(http.StatusForbidden, "only the group owner may do this")
	ErrAlreadyGroupMember = New(http.StatusConflict, "user already in the group")
	ErrSelfInvitation     = New(http.StatusBadRequest, "cannot invite yourself")
	ErrInvitationPending  = New(http.StatusConflict, "an invitation is already pending for this user")
	ErrInvitationNotFound = New(http.StatusNotFound, "invitation not found or expired")
)
