package model

import "time"

// Checkin 创建后不再修改，无效签到同样保留
type Checkin struct {
	Model
	ActivityID     string    `gorm:"type:varchar(32);not null;index:idx_checkin_activity_user" json:"activity_id"`
	RegistrationID string    `gorm:"type:varchar(32);index" json:"registration_id"` // 免报名签到时为空
	UserID         string    `gorm:"type:varchar(64);not null;index:idx_checkin_activity_user;index" json:"user_id"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Address        string    `gorm:"type:varchar(255)" json:"address"`
	Distance       float64   `json:"distance"` // 米
	CheckinTime    time.Time `gorm:"not null" json:"checkin_time"`
	IsLate         bool      `json:"is_late"`
	IsValid        bool      `json:"is_valid"`
	Note           string    `gorm:"type:varchar(255)" json:"note"`
}
