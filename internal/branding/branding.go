package branding

import (
	"fmt"
	"strings"
	"time"

	brandingDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/branding"
)

// Built-in values used when neither the division nor the global row sets one.
const (
	DefaultOrganizationName = "ContactHub"
	DefaultPrimaryColor     = "#1E40AF"
	DefaultSecondaryColor   = "#64748B"
	DefaultAccentColor      = "#F59E0B"
	DefaultFontFamily       = "Inter, sans-serif"
	DefaultLogoURL          = ""
	DefaultFaviconURL       = ""
)

// Settings is the global branding row as exposed over the API.
type Settings struct {
	OrganizationName string     `json:"organizationName"`
	LogoURL          string     `json:"logoUrl"`
	FaviconURL       string     `json:"faviconUrl"`
	PrimaryColor     string     `json:"primaryColor"`
	SecondaryColor   string     `json:"secondaryColor"`
	AccentColor      string     `json:"accentColor"`
	FontFamily       string     `json:"fontFamily"`
	CustomCSS        string     `json:"customCss"`
	ShowFooter       bool       `json:"showFooter"`
	FooterText       string     `json:"footerText"`
	UpdatedBy        *int64     `json:"updatedBy,omitempty"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
}

// DivisionOverride is the subset of a division that can override branding.
type DivisionOverride struct {
	ID             int64
	Name           string
	LogoURL        string
	PrimaryColor   string
	SecondaryColor string
}

// Theme is the effective branding for one request. It is computed, never
// stored or mutated after construction.
type Theme struct {
	OrganizationName string `json:"organizationName"`
	LogoURL          string `json:"logoUrl"`
	FaviconURL       string `json:"faviconUrl"`
	PrimaryColor     string `json:"primaryColor"`
	SecondaryColor   string `json:"secondaryColor"`
	AccentColor      string `json:"accentColor"`
	FontFamily       string `json:"fontFamily"`
	CustomCSS        string `json:"customCss"`
	ShowFooter       bool   `json:"showFooter"`
	FooterText       string `json:"footerText"`
	DivisionID       *int64 `json:"divisionId,omitempty"`
	DivisionName     string `json:"divisionName,omitempty"`
}

// Resolve computes the effective theme. Division values win over global
// ones, global values win over defaults, and every field falls back on its
// own. Either argument may be nil.
func Resolve(division *DivisionOverride, global *Settings) Theme {
	g := Settings{}
	if global != nil {
		g = *global
	}

	theme := Theme{
		OrganizationName: first(g.OrganizationName, DefaultOrganizationName),
		LogoURL:          first(g.LogoURL, DefaultLogoURL),
		FaviconURL:       first(g.FaviconURL, DefaultFaviconURL),
		PrimaryColor:     first(g.PrimaryColor, DefaultPrimaryColor),
		SecondaryColor:   first(g.SecondaryColor, DefaultSecondaryColor),
		AccentColor:      first(g.AccentColor, DefaultAccentColor),
		FontFamily:       first(g.FontFamily, DefaultFontFamily),
		CustomCSS:        g.CustomCSS,
		ShowFooter:       g.ShowFooter,
		FooterText:       g.FooterText,
	}

	if division != nil {
		id := division.ID
		theme.DivisionID = &id
		theme.DivisionName = division.Name
		theme.LogoURL = first(division.LogoURL, theme.LogoURL)
		theme.PrimaryColor = first(division.PrimaryColor, theme.PrimaryColor)
		theme.SecondaryColor = first(division.SecondaryColor, theme.SecondaryColor)
	}
	return theme
}

func first(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// CSS renders the theme as custom properties followed by the admin's CSS.
func (t Theme) CSS() string {
	var b strings.Builder
	b.WriteString(":root {\n")
	fmt.Fprintf(&b, "  --color-primary: %s;\n", t.PrimaryColor)
	fmt.Fprintf(&b, "  --color-secondary: %s;\n", t.SecondaryColor)
	fmt.Fprintf(&b, "  --color-accent: %s;\n", t.AccentColor)
	fmt.Fprintf(&b, "  --font-family: %s;\n", t.FontFamily)
	b.WriteString("}\n")
	if t.CustomCSS != "" {
		b.WriteString(t.CustomCSS)
		b.WriteString("\n")
	}
	return b.String()
}

func FromDataModel(b *brandingDatamodel.BrandingSettings) *Settings {
	updatedAt := b.UpdatedAt
	return &Settings{
		OrganizationName: b.OrganizationName,
		LogoURL:          b.LogoURL,
		FaviconURL:       b.FaviconURL,
		PrimaryColor:     b.PrimaryColor,
		SecondaryColor:   b.SecondaryColor,
		AccentColor:      b.AccentColor,
		FontFamily:       b.FontFamily,
		CustomCSS:        b.CustomCSS,
		ShowFooter:       b.ShowFooter,
		FooterText:       b.FooterText,
		UpdatedBy:        b.UpdatedBy,
		UpdatedAt:        &updatedAt,
	}
}

func snapshot(s *Settings) map[string]interface{} {
	return map[string]interface{}{
		"organizationName": s.OrganizationName,
		"logoUrl":          s.LogoURL,
		"faviconUrl":       s.FaviconURL,
		"primaryColor":     s.PrimaryColor,
		"secondaryColor":   s.SecondaryColor,
		"accentColor":      s.AccentColor,
		"fontFamily":       s.FontFamily,
		"showFooter":       s.ShowFooter,
		"footerText":       s.FooterText,
	}
}
