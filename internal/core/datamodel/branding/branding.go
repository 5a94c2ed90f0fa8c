package branding

import "time"

// BrandingSettings holds the single global branding row.
type BrandingSettings struct {
	ID               int64     `gorm:"primaryKey"`
	OrganizationName string    `gorm:"column:organization_name"`
	LogoURL          string    `gorm:"column:logo_url"`
	FaviconURL       string    `gorm:"column:favicon_url"`
	PrimaryColor     string    `gorm:"column:primary_color"`
	SecondaryColor   string    `gorm:"column:secondary_color"`
	AccentColor      string    `gorm:"column:accent_color"`
	FontFamily       string    `gorm:"column:font_family"`
	CustomCSS        string    `gorm:"column:custom_css"`
	ShowFooter       bool      `gorm:"column:show_footer;not null"`
	FooterText       string    `gorm:"column:footer_text"`
	UpdatedBy        *int64    `gorm:"column:updated_by"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (BrandingSettings) TableName() string {
	return "branding_settings"
}
