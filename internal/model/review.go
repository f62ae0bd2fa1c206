package model

import "time"

// Review 活动结束后参与者的评价，每人每活动至多一条未删除的评价
type Review struct {
	Model
	ActivityID   string     `gorm:"type:varchar(32);not null;index:idx_review_activity_user" json:"activity_id"`
	UserID       string     `gorm:"type:varchar(64);not null;index:idx_review_activity_user;index" json:"user_id"`
	UserName     string     `gorm:"type:varchar(50)" json:"user_name"`
	Rating       int        `gorm:"not null;index" json:"rating"` // 1-5
	Content      string     `gorm:"type:varchar(500)" json:"content"`
	IsDeleted    bool       `gorm:"default:false;index" json:"-"`
	DeleteReason string     `gorm:"type:varchar(255)" json:"-"`
	DeletedBy    string     `gorm:"type:varchar(64)" json:"-"`
	DeletedAt    *time.Time `json:"-"`
}

func (r *Review) Clone() *Review {
	c := *r
	return &c
}
