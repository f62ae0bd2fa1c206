package model

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationApproved  RegistrationStatus = "approved"
	RegistrationRejected  RegistrationStatus = "rejected"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

type CheckinStatus string

const (
	CheckinNone    CheckinStatus = "none"
	CheckinChecked CheckinStatus = "checked"
	CheckinLate    CheckinStatus = "late"
)

type Registration struct {
	Model
	ActivityID string                     `gorm:"type:varchar(32);not null;index:idx_registration_activity_user" json:"activity_id"`
	UserID     string                     `gorm:"type:varchar(64);not null;index:idx_registration_activity_user;index" json:"user_id"`
	GroupID    string                     `gorm:"type:varchar(32)" json:"group_id,omitempty"`
	Name       string                     `gorm:"type:varchar(50)" json:"name"`
	Mobile     string                     `gorm:"type:varchar(20)" json:"mobile"`
	CustomData datatypes.JSONSlice[Field] `json:"custom_data"`
	Status     RegistrationStatus         `gorm:"type:varchar(16);not null;index" json:"status"`
	DecidedAt  *time.Time                 `json:"decided_at"`
	DecidedBy  string                     `gorm:"type:varchar(64)" json:"decided_by"`
	Note       string                     `gorm:"type:varchar(255)" json:"note"`

	CheckinStatus CheckinStatus `gorm:"type:varchar(16);default:none" json:"checkin_status"`
	CheckinTime   *time.Time    `json:"checkin_time"`
}

// Active 未取消的报名（含待审核、已拒绝）会阻止重复报名
func (r *Registration) Active() bool {
	return r.Status != RegistrationCancelled
}

func (r *Registration) Clone() *Registration {
	c := *r
	c.CustomData = slices.Clone(r.CustomData)
	return &c
}
