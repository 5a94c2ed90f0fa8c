package customfield_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/audit"
	"github.com/frahmantamala/contacthub/internal/customfield"
	customfieldPostgres "github.com/frahmantamala/contacthub/internal/customfield/postgres"
	"github.com/frahmantamala/contacthub/internal/division"
	divisionPostgres "github.com/frahmantamala/contacthub/internal/division/postgres"
	"github.com/frahmantamala/contacthub/internal/testutil"
	"github.com/frahmantamala/contacthub/pkg/logger"
)

func TestCustomField(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Custom Field Suite")
}

type nopAuditor struct{}

func (nopAuditor) Record(context.Context, audit.Entry) {}

func intPtr(v int) *int { return &v }

var _ = Describe("Definition.Coerce", func() {
	It("parses numbers and enforces ranges", func() {
		max := 10.0
		d := &customfield.Definition{Label: "Score", FieldType: customfield.TypeNumber, Validation: customfield.Rules{Max: &max}}
		v, msg := d.Coerce(" 7.5 ")
		Expect(msg).To(BeEmpty())
		Expect(v).To(Equal(7.5))

		_, msg = d.Coerce("11")
		Expect(msg).To(Equal("Score must be at most 10"))
		_, msg = d.Coerce("seven")
		Expect(msg).To(Equal("Score must be a number"))
	})

	It("normalizes checkbox and date values", func() {
		cb := &customfield.Definition{Label: "Opt in", FieldType: customfield.TypeCheckbox}
		v, _ := cb.Coerce("Yes")
		Expect(v).To(Equal(true))

		date := &customfield.Definition{Label: "Birthday", FieldType: customfield.TypeDate}
		v, msg := date.Coerce("2024/02/29")
		Expect(msg).To(BeEmpty())
		Expect(v).To(Equal("2024-02-29"))
	})

	It("restricts select values to the options", func() {
		d := &customfield.Definition{Label: "Tier", FieldType: customfield.TypeSelect, Options: []string{"Gold", "Silver"}}
		_, msg := d.Coerce("Bronze")
		Expect(msg).To(ContainSubstring("must be one of: Gold, Silver"))
	})

	It("treats blank values as absent", func() {
		d := &customfield.Definition{Label: "Note", FieldType: customfield.TypeText, Validation: customfield.Rules{MinLength: intPtr(3)}}
		v, msg := d.Coerce("   ")
		Expect(v).To(BeNil())
		Expect(msg).To(BeEmpty())
	})
})

var _ = Describe("ValidateValues", func() {
	defs := []*customfield.Definition{
		{Key: "tier", Label: "Tier", FieldType: customfield.TypeText, IsRequired: true},
		{Key: "score", Label: "Score", FieldType: customfield.TypeNumber},
	}

	It("reports unknown keys and missing required fields together", func() {
		_, errs := customfield.ValidateValues(defs, map[string]interface{}{"shoe_size": "9", "score": "x"}, false)
		messages := []string{}
		for _, e := range errs {
			messages = append(messages, e.Message)
		}
		Expect(messages).To(ConsistOf(`Unknown custom field "shoe_size"`, "Score must be a number", "Tier is required"))
	})

	It("skips the required check for partial updates", func() {
		out, errs := customfield.ValidateValues(defs, map[string]interface{}{"score": "3"}, true)
		Expect(errs).To(BeEmpty())
		Expect(out).To(HaveKeyWithValue("score", 3.0))
	})
})

var _ = Describe("Custom Field Service", func() {
	var (
		db    *gorm.DB
		svc   *customfield.Service
		ctx   context.Context
		admin *internal.User
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())
		lg := logger.LoggerWrapper()
		divisions := division.NewService(divisionPostgres.NewDivisionRepository(db), nopAuditor{}, lg)
		svc = customfield.NewService(customfieldPostgres.NewCustomFieldRepository(db), divisions, nopAuditor{}, lg)
		ctx = context.Background()
		admin = testutil.Principal(1, internal.RoleAdmin)
	})

	It("derives the key from the label and keeps keys unique per scope", func() {
		d, err := testutil.CreateDivision(db, "Sales", true)
		Expect(err).NotTo(HaveOccurred())

		def, err := svc.Create(ctx, admin, customfield.CreateCustomFieldDTO{Label: "Lead Source", FieldType: "text"})
		Expect(err).NotTo(HaveOccurred())
		Expect(def.Key).To(Equal("lead_source"))
		Expect(def.IsGlobal).To(BeTrue())

		_, err = svc.Create(ctx, admin, customfield.CreateCustomFieldDTO{Label: "lead source", FieldType: "text"})
		Expect(err).To(MatchError(internal.ErrCustomFieldExists))

		scoped, err := svc.Create(ctx, admin, customfield.CreateCustomFieldDTO{Label: "Lead Source", FieldType: "text", DivisionID: &d.ID})
		Expect(err).NotTo(HaveOccurred())
		Expect(scoped.IsGlobal).To(BeFalse())
	})

	It("requires options for select fields", func() {
		_, err := svc.Create(ctx, admin, customfield.CreateCustomFieldDTO{Label: "Tier", FieldType: "select"})
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Details.(internal.ValidationErrors).Messages()).To(ContainElement("Select fields need at least one option"))
	})

	It("lists global and division fields, hiding deactivated ones", func() {
		a, _ := testutil.CreateDivision(db, "A", true)
		b, _ := testutil.CreateDivision(db, "B", true)
		_, err := svc.Create(ctx, admin, customfield.CreateCustomFieldDTO{Label: "Global", FieldType: "text", SortOrder: 2})
		Expect(err).NotTo(HaveOccurred())
		own, err := svc.Create(ctx, admin, customfield.CreateCustomFieldDTO{Label: "Own", FieldType: "text", DivisionID: &a.ID, SortOrder: 1})
		Expect(err).NotTo(HaveOccurred())
		_, err = svc.Create(ctx, admin, customfield.CreateCustomFieldDTO{Label: "Other", FieldType: "text", DivisionID: &b.ID})
		Expect(err).NotTo(HaveOccurred())

		defs, err := svc.ForDivision(ctx, &a.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(defs).To(HaveLen(2))
		Expect(defs[0].Key).To(Equal("own"))

		Expect(svc.Deactivate(ctx, own.ID)).To(Succeed())
		Expect(svc.Deactivate(ctx, own.ID)).To(Succeed())
		defs, err = svc.List(ctx, testutil.Principal(3, internal.RoleUser, a.ID), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(defs).To(HaveLen(1))
		Expect(defs[0].Key).To(Equal("global"))
	})

	It("updates label and rules without touching the key", func() {
		def, err := svc.Create(ctx, admin, customfield.CreateCustomFieldDTO{Label: "Notes", FieldType: "textarea"})
		Expect(err).NotTo(HaveOccurred())
		label := "Extra notes"
		updated, err := svc.Update(ctx, def.ID, customfield.UpdateCustomFieldDTO{Label: &label, Validation: &customfield.Rules{MaxLength: intPtr(20)}})
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Key).To(Equal("notes"))
		Expect(updated.Label).To(Equal("Extra notes"))
		Expect(*updated.Validation.MaxLength).To(Equal(20))
	})
})
