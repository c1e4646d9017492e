package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Polls        []Poll    `gorm:"foreignKey:CreatorID" json:"polls,omitempty"`
	Votes        []Vote    `gorm:"foreignKey:UserID" json:"votes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserInfo is the public identity shape attached to authenticated
// requests and socket sessions.
type UserInfo struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Info() UserInfo {
	return UserInfo{ID: u.ID, Name: u.Name, Email: u.Email}
}
