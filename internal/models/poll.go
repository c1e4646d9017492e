package models

import "time"

type Poll struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Question    string    `gorm:"size:500;not null" json:"question"`
	IsPublished bool      `gorm:"not null;default:false" json:"is_published"`
	CreatorID   uint      `gorm:"not null;index" json:"creator_id"`
	Creator     User      `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"-"`
	Options     []Option  `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// VisibleTo reports whether a viewer may see this poll. Unpublished polls
// are visible only to their creator; userID 0 means anonymous.
func (p *Poll) VisibleTo(userID uint) bool {
	return p.IsPublished || (userID != 0 && userID == p.CreatorID)
}
