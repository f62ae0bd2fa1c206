package model

import "time"

// Model 业务主键为字符串，由 idgen 生成
type Model struct {
	ID        string    `gorm:"primaryKey;type:varchar(32)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Field 报名表单中的一项，按提交顺序保存
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
