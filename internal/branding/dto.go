package branding

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/core/common/validation"
)

var (
	strictPolicy      = bluemonday.StrictPolicy()
	fontFamilyPattern = regexp.MustCompile(`^[A-Za-z0-9 ,'"\-]*$`)
)

// UpdateBrandingDTO is a partial update of the global row.
type UpdateBrandingDTO struct {
	OrganizationName *string `json:"organizationName"`
	LogoURL          *string `json:"logoUrl"`
	FaviconURL       *string `json:"faviconUrl"`
	PrimaryColor     *string `json:"primaryColor"`
	SecondaryColor   *string `json:"secondaryColor"`
	AccentColor      *string `json:"accentColor"`
	FontFamily       *string `json:"fontFamily"`
	CustomCSS        *string `json:"customCss"`
	ShowFooter       *bool   `json:"showFooter"`
	FooterText       *string `json:"footerText"`
}

func (d *UpdateBrandingDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("organizationName", d.OrganizationName).As("Organization name").MaxLength(255)
	v.Field("primaryColor", d.PrimaryColor).As("Primary color").HexColor()
	v.Field("secondaryColor", d.SecondaryColor).As("Secondary color").HexColor()
	v.Field("accentColor", d.AccentColor).As("Accent color").HexColor()
	v.Field("fontFamily", d.FontFamily).As("Font family").MaxLength(255).Custom(func(value interface{}) *internal.ValidationError {
		if s, ok := value.(*string); ok && s != nil && !fontFamilyPattern.MatchString(*s) {
			return &internal.ValidationError{Field: "fontFamily", Message: "Font family contains invalid characters", Code: string(internal.ErrCodeBrandingInvalid)}
		}
		return nil
	})
	v.Field("logoUrl", d.LogoURL).Custom(assetURL("logoUrl", "Logo URL"))
	v.Field("faviconUrl", d.FaviconURL).Custom(assetURL("faviconUrl", "Favicon URL"))
	v.Field("footerText", d.FooterText).As("Footer text").MaxLength(500)
	v.Field("customCss", d.CustomCSS).As("Custom CSS").MaxLength(20000)
	return v.Validate()
}

// assetURL accepts empty, root-relative or absolute http(s) URLs.
func assetURL(field, label string) validation.ValidatorFunc {
	return func(value interface{}) *internal.ValidationError {
		s, ok := value.(*string)
		if !ok || s == nil || *s == "" {
			return nil
		}
		if strings.HasPrefix(*s, "/") && !strings.HasPrefix(*s, "//") {
			return nil
		}
		u, err := url.Parse(*s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return &internal.ValidationError{Field: field, Message: label + " must be an http(s) URL or an absolute path", Code: string(internal.ErrCodeBrandingInvalid)}
		}
		return nil
	}
}

// Sanitize strips markup from free-text fields. Stylesheets additionally
// lose any '<' so they cannot close the surrounding style element.
func (d *UpdateBrandingDTO) Sanitize() {
	for _, p := range []*string{d.OrganizationName, d.FooterText, d.FontFamily} {
		if p != nil {
			*p = sanitizeText(*p)
		}
	}
	if d.CustomCSS != nil {
		*d.CustomCSS = SanitizeCSS(*d.CustomCSS)
	}
}

func sanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

func SanitizeCSS(css string) string {
	cleaned := html.UnescapeString(strictPolicy.Sanitize(css))
	return strings.TrimSpace(strings.ReplaceAll(cleaned, "<", ""))
}
