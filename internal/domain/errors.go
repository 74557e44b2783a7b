package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNoMarket     = errors.New("no active market")
	ErrStaleContext = errors.New("market context stale")
	ErrPositionOpen = errors.New("position already open")
	ErrNoQuote      = errors.New("no live quote")
	ErrWSDisconnect = errors.New("websocket disconnected")
)
