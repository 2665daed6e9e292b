// Package domain contains entities without logic, just meta-data
package domain

import "errors"

const MaxUserIDLen = 64

var (
	ErrUserIDEmpty   = errors.New("user id empty")
	ErrUserIDTooLong = errors.New("user id too long")
)

// UserID is the application-level identity established upstream of the
// socket layer. The signaling core never mints one, it only routes by it.
type UserID string

func ParseUserID(raw string) (UserID, error) {
	if len(raw) == 0 {
		return "", ErrUserIDEmpty
	}
	if len(raw) > MaxUserIDLen {
		return "", ErrUserIDTooLong
	}
	return UserID(raw), nil
}

// RoomID names an ad-hoc signaling group. Rooms have no stored state;
// membership lives only in the transport layer.
type RoomID string
