package contact_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/category"
	categoryPostgres "github.com/frahmantamala/contacthub/internal/category/postgres"
	"github.com/frahmantamala/contacthub/internal/contact"
	contactPostgres "github.com/frahmantamala/contacthub/internal/contact/postgres"
	categoryDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/category"
	contactDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/contact"
	customfieldDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/customfield"
	"github.com/frahmantamala/contacthub/internal/customfield"
	customfieldPostgres "github.com/frahmantamala/contacthub/internal/customfield/postgres"
	"github.com/frahmantamala/contacthub/internal/division"
	divisionPostgres "github.com/frahmantamala/contacthub/internal/division/postgres"
	"github.com/frahmantamala/contacthub/internal/testutil"
)

var _ = Describe("Contact Service", func() {
	var (
		ctx      context.Context
		db       *gorm.DB
		service  *contact.Service
		sales    int64
		support  int64
		admin    *internal.User
		uploader *internal.User
		viewer   *internal.User
		leads    int64
		tickets  int64
	)

	seed := func(email string, divisionID *int64) *contactDatamodel.Contact {
		c := &contactDatamodel.Contact{FirstName: "Seed", Email: email, DivisionID: divisionID, IsActive: true}
		Expect(db.Create(c).Error).To(Succeed())
		return c
	}

	BeforeEach(func() {
		ctx = context.Background()
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

		l := &categoryDatamodel.ContactCategory{Name: "Leads", DivisionID: &sales, IsActive: true}
		t := &categoryDatamodel.ContactCategory{Name: "Tickets", DivisionID: &support, IsActive: true}
		Expect(db.Create(l).Error).To(Succeed())
		Expect(db.Create(t).Error).To(Succeed())
		leads, tickets = l.ID, t.ID

		Expect(db.Create(&customfieldDatamodel.CustomFieldDefinition{
			Key: "tier", Label: "Tier", FieldType: string(customfield.TypeSelect),
			Options: datatypes.JSONSlice[string]{"gold", "silver"}, IsRequired: true, IsGlobal: true, IsActive: true,
		}).Error).To(Succeed())

		divisions := division.NewService(divisionPostgres.NewDivisionRepository(db), nopAuditor{}, slogger)
		categories := category.NewService(categoryPostgres.NewCategoryRepository(db), divisions, nopAuditor{}, slogger)
		fields := customfield.NewService(customfieldPostgres.NewCustomFieldRepository(db), divisions, nopAuditor{}, slogger)
		service = contact.NewService(contactPostgres.NewContactRepository(db), divisions, categories, fields, nopAuditor{}, slogger)

		admin = testutil.Principal(1, internal.RoleAdmin)
		uploader = testutil.Principal(2, internal.RoleUploader, sales)
		viewer = testutil.Principal(3, internal.RoleUser, support)
	})

	Describe("Create", func() {
		It("creates a validated contact", func() {
			c, err := service.Create(ctx, uploader, contact.CreateContactDTO{
				FirstName:    " Ann ",
				Email:        "Ann@Example.COM",
				CategoryID:   &leads,
				DivisionID:   &sales,
				CustomFields: map[string]interface{}{"tier": "gold"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.FirstName).To(Equal("Ann"))
			Expect(c.Email).To(Equal("ann@example.com"))
			Expect(c.IsActive).To(BeTrue())
			Expect(c.CustomFields).To(HaveKeyWithValue("tier", "gold"))
			Expect(*c.CreatedBy).To(Equal(uploader.ID))
		})

		It("reports every invalid field", func() {
			_, err := service.Create(ctx, uploader, contact.CreateContactDTO{Email: "nope", DivisionID: &sales, CustomFields: map[string]interface{}{"tier": "gold"}})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Details.(internal.ValidationErrors).Messages()).To(ContainElement("email must be a valid email address"))

			_, err = service.Create(ctx, uploader, contact.CreateContactDTO{DivisionID: &sales})
			Expect(err).To(HaveOccurred())
		})

		It("enforces custom field definitions", func() {
			_, err := service.Create(ctx, uploader, contact.CreateContactDTO{
				Email: "a@example.com", DivisionID: &sales,
				CustomFields: map[string]interface{}{"tier": "bronze", "unknown": "x"},
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Details.(internal.ValidationErrors).Errors).To(HaveLen(3))
		})

		It("rejects a category from another division", func() {
			_, err := service.Create(ctx, uploader, contact.CreateContactDTO{
				Email: "a@example.com", DivisionID: &sales, CategoryID: &tickets,
				CustomFields: map[string]interface{}{"tier": "gold"},
			})
			Expect(err).To(HaveOccurred())
			Expect(err.(*internal.AppError).StatusCode).To(Equal(400))
		})

		It("rejects a division outside the caller's scope", func() {
			_, err := service.Create(ctx, uploader, contact.CreateContactDTO{Email: "a@example.com", DivisionID: &support})
			Expect(err).To(MatchError(internal.ErrDivisionForbidden))

			_, err = service.Create(ctx, uploader, contact.CreateContactDTO{Email: "a@example.com"})
			Expect(err).To(MatchError(internal.ErrDivisionForbidden))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			seed("ann@sales.example.com", &sales)
			seed("bob@sales.example.com", &sales)
			seed("cid@support.example.com", &support)
			seed("orphan@example.com", nil)
		})

		It("scopes the user role to its divisions", func() {
			resp, err := service.List(ctx, viewer, contact.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Total).To(Equal(int64(1)))
			Expect(resp.Contacts[0].Email).To(Equal("cid@support.example.com"))

			_, err = service.List(ctx, viewer, contact.ListFilter{DivisionID: &sales})
			Expect(err).To(MatchError(internal.ErrDivisionForbidden))
		})

		It("shows everything to admins", func() {
			resp, err := service.List(ctx, admin, contact.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Total).To(Equal(int64(4)))
			Expect(resp.Limit).To(Equal(50))
		})

		It("searches case-insensitively and pages", func() {
			resp, err := service.List(ctx, admin, contact.ListFilter{Search: "SALES", Limit: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Total).To(Equal(int64(2)))
			Expect(resp.Contacts).To(HaveLen(1))
			Expect(resp.Contacts[0].Email).To(Equal("bob@sales.example.com"))
		})

		It("returns nothing for a user without divisions", func() {
			resp, err := service.List(ctx, testutil.Principal(9, internal.RoleUser), contact.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Contacts).To(BeEmpty())
		})
	})

	Describe("Update", func() {
		It("applies a partial update and merges custom values", func() {
			c := seed("ann@example.com", &sales)
			Expect(db.Model(c).Update("custom_fields", datatypes.JSONMap{"tier": "gold"}).Error).To(Succeed())

			updated, err := service.Update(ctx, uploader, c.ID, contact.UpdateContactDTO{
				Company:      testutil.StringPtr("Acme"),
				CustomFields: map[string]interface{}{"tier": nil},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Company).To(Equal("Acme"))
			Expect(updated.FirstName).To(Equal("Seed"))
			Expect(updated.CustomFields).NotTo(HaveKey("tier"))
		})

		It("clears division and category on an explicit null", func() {
			c := seed("bea@example.com", &sales)
			Expect(db.Model(c).Update("category_id", leads).Error).To(Succeed())

			updated, err := service.Update(ctx, admin, c.ID, contact.UpdateContactDTO{
				DivisionID: contact.ClearID(),
				CategoryID: contact.ClearID(),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.DivisionID).To(BeNil())
			Expect(updated.CategoryID).To(BeNil())

			var stored contactDatamodel.Contact
			Expect(db.First(&stored, c.ID).Error).To(Succeed())
			Expect(stored.DivisionID).To(BeNil())
			Expect(stored.CategoryID).To(BeNil())
		})

		It("keeps a division-scoped caller from clearing the division", func() {
			c := seed("dan@example.com", &sales)
			_, err := service.Update(ctx, uploader, c.ID, contact.UpdateContactDTO{DivisionID: contact.ClearID()})
			Expect(err).To(MatchError(internal.ErrDivisionForbidden))
		})

		It("moves a contact to a category of its division", func() {
			c := seed("eli@example.com", &sales)
			updated, err := service.Update(ctx, uploader, c.ID, contact.UpdateContactDTO{CategoryID: contact.SetID(leads)})
			Expect(err).NotTo(HaveOccurred())
			Expect(*updated.CategoryID).To(Equal(leads))

			_, err = service.Update(ctx, uploader, c.ID, contact.UpdateContactDTO{CategoryID: contact.SetID(tickets)})
			Expect(err).To(HaveOccurred())
		})

		It("hides contacts outside the caller's scope", func() {
			c := seed("cid@example.com", &support)
			_, err := service.Update(ctx, uploader, c.ID, contact.UpdateContactDTO{Company: testutil.StringPtr("x")})
			Expect(err).To(MatchError(internal.ErrContactNotFound))
		})
	})

	Describe("Delete", func() {
		It("soft deletes and is idempotent", func() {
			c := seed("ann@example.com", &sales)

			Expect(service.Delete(ctx, uploader, c.ID)).To(Succeed())
			Expect(service.Delete(ctx, uploader, c.ID)).To(Succeed())

			_, err := service.Get(ctx, uploader, c.ID)
			Expect(err).To(MatchError(internal.ErrContactNotFound))

			resp, err := service.List(ctx, uploader, contact.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Contacts).To(BeEmpty())

			var row contactDatamodel.Contact
			Expect(db.First(&row, c.ID).Error).To(Succeed())
			Expect(row.IsActive).To(BeFalse())
		})

		It("bulk deletes only visible active contacts", func() {
			a := seed("a@example.com", &sales)
			b := seed("b@example.com", &sales)
			other := seed("c@example.com", &support)
			Expect(service.Delete(ctx, uploader, b.ID)).To(Succeed())

			resp, err := service.BulkDelete(ctx, uploader, contact.BulkDeleteDTO{IDs: []int64{a.ID, a.ID, b.ID, other.ID, 9999}})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Deleted).To(Equal(int64(1)))

			got, err := service.Get(ctx, admin, other.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.IsActive).To(BeTrue())
		})

		It("rejects an empty id list", func() {
			_, err := service.BulkDelete(ctx, uploader, contact.BulkDeleteDTO{})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Export", func() {
		BeforeEach(func() {
			c := seed("ann@example.com", &sales)
			Expect(db.Model(c).Update("custom_fields", datatypes.JSONMap{"tier": "silver"}).Error).To(Succeed())
			seed("cid@example.com", &support)
		})

		It("writes scoped rows as csv", func() {
			table, err := service.Export(ctx, uploader, contact.ListFilter{})
			Expect(err).NotTo(HaveOccurred())

			var buf bytes.Buffer
			Expect(table.WriteCSV(&buf)).To(Succeed())
			records, err := csv.NewReader(&buf).ReadAll()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
			Expect(records[0]).To(ContainElement("Email Address"))
			Expect(records[0][len(records[0])-1]).To(Equal("Tier"))
			Expect(records[1]).To(ContainElement("ann@example.com"))
			Expect(records[1][len(records[1])-1]).To(Equal("silver"))
		})

		It("writes a readable workbook", func() {
			table, err := service.Export(ctx, admin, contact.ListFilter{})
			Expect(err).NotTo(HaveOccurred())

			var buf bytes.Buffer
			Expect(table.WriteXLSX(&buf)).To(Succeed())
			f, err := excelize.OpenReader(&buf)
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()
			rows, err := f.GetRows("Contacts")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(3))
			Expect(rows[0][0]).To(Equal("First Name"))
		})
	})
})
