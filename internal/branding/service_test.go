package branding_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/audit"
	"github.com/frahmantamala/contacthub/internal/branding"
	brandingPostgres "github.com/frahmantamala/contacthub/internal/branding/postgres"
	divisionDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/division"
	"github.com/frahmantamala/contacthub/internal/division"
	divisionPostgres "github.com/frahmantamala/contacthub/internal/division/postgres"
	"github.com/frahmantamala/contacthub/internal/testutil"
	"github.com/frahmantamala/contacthub/pkg/logger"
)

type nopAuditor struct{}

func (nopAuditor) Record(context.Context, audit.Entry) {}

func strPtr(s string) *string { return &s }

var _ = Describe("Branding Service", func() {
	var (
		db  *gorm.DB
		svc *branding.Service
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())
		lg := logger.LoggerWrapper()
		divisions := division.NewService(divisionPostgres.NewDivisionRepository(db), nopAuditor{}, lg)
		svc = branding.NewService(brandingPostgres.NewBrandingRepository(db), divisions, nopAuditor{}, lg)
		ctx = context.Background()
	})

	It("creates the global row on first update and strips markup", func() {
		admin := testutil.Principal(1, internal.RoleAdmin)
		settings, err := svc.Update(ctx, admin, branding.UpdateBrandingDTO{
			OrganizationName: strPtr("<b>Acme</b> Corp"),
			PrimaryColor:     strPtr("#0F0F0F"),
			CustomCSS:        strPtr(".nav > a { color: red; }</style><script>alert(1)</script>"),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(settings.OrganizationName).To(Equal("Acme Corp"))
		Expect(settings.CustomCSS).To(ContainSubstring(".nav > a"))
		Expect(settings.CustomCSS).NotTo(ContainSubstring("<"))
		Expect(settings.CustomCSS).NotTo(ContainSubstring("script"))
		Expect(*settings.UpdatedBy).To(Equal(int64(1)))

		again, err := svc.Get(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(again.PrimaryColor).To(Equal("#0F0F0F"))
	})

	It("rejects invalid colors and urls together", func() {
		_, err := svc.Update(ctx, nil, branding.UpdateBrandingDTO{
			PrimaryColor: strPtr("red"),
			AccentColor:  strPtr("#12345"),
			LogoURL:      strPtr("javascript:alert(1)"),
		})
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Details.(internal.ValidationErrors).Messages()).To(HaveLen(3))
	})

	It("resolves the selected division for effective branding", func() {
		d := &divisionDatamodel.Division{Name: "Sales", PrimaryColor: "#ABCDEF", IsActive: true}
		Expect(db.Create(d).Error).To(Succeed())
		user := testutil.Principal(5, internal.RoleUser, d.ID)
		user.SelectedDivisionID = &d.ID

		theme, err := svc.Effective(ctx, user)
		Expect(err).NotTo(HaveOccurred())
		Expect(theme.PrimaryColor).To(Equal("#ABCDEF"))
		Expect(theme.DivisionName).To(Equal("Sales"))

		outsider := testutil.Principal(6, internal.RoleUser)
		outsider.SelectedDivisionID = &d.ID
		theme, err = svc.Effective(ctx, outsider)
		Expect(err).NotTo(HaveOccurred())
		Expect(theme.PrimaryColor).To(Equal(branding.DefaultPrimaryColor))
	})
})
