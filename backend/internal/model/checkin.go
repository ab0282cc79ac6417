package model

import "time"

// 访客类别（服务端不强制校验）
const (
	ProfileCasal    = "CASAL"
	ProfileSolteiro = "SOLTEIRO"
)

// CheckIn 入场登记表，对应 checkins
// 只追加、不更新；仅能通过清空操作整体删除
type CheckIn struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"           json:"id"`
	Name      string    `gorm:"type:text;not null"                 json:"name"`
	WhatsApp  string    `gorm:"column:whatsapp;type:text;not null" json:"whatsapp"`
	Profile   string    `gorm:"type:text;not null"                 json:"profile"`
	CreatedAt time.Time `gorm:"not null;index"                     json:"created_at"`
}

// TableName 指定表名
func (CheckIn) TableName() string { return "checkins" }
