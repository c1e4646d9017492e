package models

import "time"

// Vote links a user to a poll option. The composite unique index enforces
// at most one vote per (user, option) at the storage layer, so a duplicate
// cast fails on insert even if two requests race past the existence check.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_vote_user_option" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	OptionID  uint      `gorm:"not null;uniqueIndex:idx_vote_user_option;index" json:"option_id"`
	Option    Option    `gorm:"foreignKey:OptionID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
