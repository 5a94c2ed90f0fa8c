package report_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/frahmantamala/contacthub/internal"
	categoryDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/category"
	contactDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/contact"
	uploadDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/upload"
	"github.com/frahmantamala/contacthub/internal/report"
	reportPostgres "github.com/frahmantamala/contacthub/internal/report/postgres"
	"github.com/frahmantamala/contacthub/internal/testutil"
)

var _ = Describe("Report Service", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		service *report.Service
		now     time.Time
		sales   int64
		support int64
		vip     int64
	)

	contact := func(c contactDatamodel.Contact) {
		c.IsActive = true
		Expect(db.Create(&c).Error).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		var err error
		db, err = testutil.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())

		d, err := testutil.CreateDivision(db, "Sales", true)
		Expect(err).NotTo(HaveOccurred())
		sales = d.ID
		d, err = testutil.CreateDivision(db, "Support", true)
		Expect(err).NotTo(HaveOccurred())
		support = d.ID
		_, err = testutil.CreateDivision(db, "Archive", false)
		Expect(err).NotTo(HaveOccurred())

		cat := &categoryDatamodel.ContactCategory{Name: "VIP", Color: "#FFAA00", DivisionID: &sales, IsActive: true}
		Expect(db.Create(cat).Error).To(Succeed())
		vip = cat.ID

		contact(contactDatamodel.Contact{FirstName: "A", Email: "a@example.com", Phone: "1", DivisionID: &sales, CategoryID: &vip,
			CustomFields: datatypes.JSONMap{"tier": "gold"}})
		contact(contactDatamodel.Contact{FirstName: "B", Email: "b@example.com", Company: "Acme", DivisionID: &sales})
		contact(contactDatamodel.Contact{FirstName: "C", Address: "Main St", DivisionID: &sales})
		contact(contactDatamodel.Contact{FirstName: "D", Email: "d@example.com", DivisionID: &support})

		inactive := &contactDatamodel.Contact{FirstName: "Gone", Email: "gone@example.com", DivisionID: &sales, IsActive: true}
		Expect(db.Create(inactive).Error).To(Succeed())
		Expect(db.Model(inactive).Update("is_active", false).Error).To(Succeed())

		member, err := testutil.CreateUser(db, "member@example.com", internal.RoleUser, "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(testutil.AssignDivision(db, member.ID, sales, false)).To(Succeed())
		_, err = testutil.CreateUser(db, "admin@example.com", internal.RoleAdmin, "x")
		Expect(err).NotTo(HaveOccurred())

		recent := &uploadDatamodel.Upload{FileName: "r.csv", OriginalName: "r.csv", Status: "completed",
			UploadedBy: member.ID, DivisionID: &sales, CreatedAt: now.Add(-48 * time.Hour)}
		old := &uploadDatamodel.Upload{FileName: "o.csv", OriginalName: "o.csv", Status: "completed",
			UploadedBy: member.ID, DivisionID: &sales, CreatedAt: now.Add(-60 * 24 * time.Hour)}
		Expect(db.Create(recent).Error).To(Succeed())
		Expect(db.Create(old).Error).To(Succeed())

		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		repo := reportPostgres.NewReportRepository(sqlx.NewDb(sqlDB, "sqlite3"))
		service = report.NewService(repo, slogger).WithClock(func() time.Time { return now })
	})

	Describe("ContactStats", func() {
		It("counts active contacts in the caller's divisions", func() {
			stats, err := service.ContactStats(ctx, testutil.Principal(1, internal.RoleUser, sales), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Total).To(Equal(int64(3)))
			Expect(stats.WithEmail).To(Equal(int64(2)))
			Expect(stats.WithPhone).To(Equal(int64(1)))
			Expect(stats.WithCompany).To(Equal(int64(1)))
			Expect(stats.WithAddress).To(Equal(int64(1)))
			Expect(stats.WithCustomFields).To(Equal(int64(1)))
			Expect(stats.Percentages.Email).To(Equal(66.7))
			Expect(stats.Percentages.Phone).To(Equal(33.3))
		})

		It("groups contacts without a category as uncategorized", func() {
			stats, err := service.ContactStats(ctx, testutil.Principal(1, internal.RoleUser, sales), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Categories).To(HaveLen(2))
			Expect(stats.Categories[0].Name).To(Equal(report.UncategorizedLabel))
			Expect(stats.Categories[0].CategoryID).To(BeNil())
			Expect(stats.Categories[0].Count).To(Equal(int64(2)))
			Expect(stats.Categories[1].Name).To(Equal("VIP"))
			Expect(*stats.Categories[1].CategoryID).To(Equal(vip))
			Expect(stats.Categories[1].Percentage).To(Equal(33.3))
		})

		It("sees every division for exco", func() {
			stats, err := service.ContactStats(ctx, testutil.Principal(1, internal.RoleExco), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Total).To(Equal(int64(4)))
		})

		It("narrows to a requested division", func() {
			stats, err := service.ContactStats(ctx, testutil.Principal(1, internal.RoleAdmin), &support)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Total).To(Equal(int64(1)))
		})

		It("rejects a division outside the caller's scope", func() {
			_, err := service.ContactStats(ctx, testutil.Principal(1, internal.RoleUser, sales), &support)
			Expect(err).To(MatchError(internal.ErrDivisionForbidden))
		})

		It("returns zeros for a user without divisions", func() {
			stats, err := service.ContactStats(ctx, testutil.Principal(1, internal.RoleUser), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Total).To(BeZero())
			Expect(stats.Percentages.Email).To(BeZero())
			Expect(stats.Categories).To(BeEmpty())
		})
	})

	Describe("CompanyStats", func() {
		It("breaks figures down per active division", func() {
			stats, err := service.CompanyStats(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Contacts.Total).To(Equal(int64(4)))
			Expect(stats.ActiveUsers).To(Equal(int64(2)))
			Expect(stats.ActiveDivisions).To(Equal(int64(2)))
			Expect(stats.RecentUploads).To(Equal(int64(1)))
			Expect(stats.WindowDays).To(Equal(30))
			Expect(stats.GeneratedAt).To(Equal(now))

			Expect(stats.Divisions).To(HaveLen(2))
			byName := map[string]report.DivisionStats{}
			for _, d := range stats.Divisions {
				byName[d.Name] = d
			}
			Expect(byName["Sales"].Contacts.Total).To(Equal(int64(3)))
			Expect(byName["Sales"].ActiveUsers).To(Equal(int64(1)))
			Expect(byName["Sales"].RecentUploads).To(Equal(int64(1)))
			Expect(byName["Support"].Contacts.Total).To(Equal(int64(1)))
			Expect(byName["Support"].ActiveUsers).To(BeZero())
		})
	})
})
