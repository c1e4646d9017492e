package models

type Option struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	PollID uint   `gorm:"not null;index" json:"poll_id"`
	Poll   Poll   `gorm:"foreignKey:PollID;constraint:OnDelete:CASCADE" json:"-"`
	Text   string `gorm:"size:200;not null" json:"text"`
	Votes  []Vote `gorm:"foreignKey:OptionID;constraint:OnDelete:CASCADE" json:"votes,omitempty"`
}
