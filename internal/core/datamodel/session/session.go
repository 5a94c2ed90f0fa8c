package session

import "time"

// Session is keyed by the SHA-256 of the opaque cookie token.
type Session struct {
	ID                 string    `gorm:"primaryKey;column:id"`
	UserID             int64     `gorm:"column:user_id;not null;index"`
	SelectedDivisionID *int64    `gorm:"column:selected_division_id"`
	IPAddress          string    `gorm:"column:ip_address"`
	UserAgent          string    `gorm:"column:user_agent"`
	ExpiresAt          time.Time `gorm:"column:expires_at;not null;index"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
}
