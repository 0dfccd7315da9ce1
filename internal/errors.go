package internal

import "errors"

var (
	ErrRoomNotFound       = errors.New("room does not exist")
	ErrRoomAlreadyExists  = errors.New("room already exists")
	ErrPoolExhausted      = errors.New("question pool exhausted")
	ErrUnknownAdminAction = errors.New("unknown admin action")

	ErrNameRequired      = errors.New("username is required")
	ErrRoomNameRequired  = errors.New("room name is required")
	ErrNotRegistered     = errors.New("join the lobby first")
	ErrNotInRoom         = errors.New("not in a room")
	ErrNotAdmin          = errors.New("only the room admin can do that")
	ErrNotDrawer         = errors.New("only the current drawer can end the round")
	ErrInvalidTransition = errors.New("action not allowed in the current room state")
)
