package model

import "time"

// Memo is a single timestamped text fragment captured by the user.
type Memo struct {
	ID        string `json:"id" yaml:"id"`
	Content   string `json:"content" yaml:"content"`
	CreatedAt int64  `json:"createdAt" yaml:"createdAt"` // epoch milliseconds
}

// Created returns CreatedAt as a time.Time.
func (m Memo) Created() time.Time {
	return time.UnixMilli(m.CreatedAt)
}
