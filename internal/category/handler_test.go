package category_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/category"
	categoryPostgres "github.com/frahmantamala/contacthub/internal/category/postgres"
	categoryDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/category"
	"github.com/frahmantamala/contacthub/internal/division"
	divisionPostgres "github.com/frahmantamala/contacthub/internal/division/postgres"
	"github.com/frahmantamala/contacthub/internal/testutil"
	"github.com/frahmantamala/contacthub/internal/transport"
)

var _ = Describe("Category Handler Integration", func() {
	var (
		db       *gorm.DB
		handler  *category.Handler
		slogger  *slog.Logger
		sales    int64
		uploader *internal.User
	)

	BeforeEach(func() {
		var err error
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = testutil.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())

		d, err := testutil.CreateDivision(db, "Sales", true)
		Expect(err).NotTo(HaveOccurred())
		sales = d.ID
		other, err := testutil.CreateDivision(db, "Support", true)
		Expect(err).NotTo(HaveOccurred())

		divisions := division.NewService(divisionPostgres.NewDivisionRepository(db), nopAuditor{}, slogger)
		service := category.NewService(categoryPostgres.NewCategoryRepository(db), divisions, nopAuditor{}, slogger)
		handler = category.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
		uploader = testutil.Principal(2, internal.RoleUploader, sales)

		for _, cat := range []*categoryDatamodel.ContactCategory{
			{Name: "VIP", Color: "#FF0000", IsActive: true},
			{Name: "Leads", Color: "#00FF00", DivisionID: &sales, IsActive: true},
			{Name: "Tickets", Color: "#0000FF", DivisionID: &other.ID, IsActive: true},
		} {
			Expect(db.Create(cat).Error).NotTo(HaveOccurred())
		}
	})

	It("should handle GET /contact-categories request successfully", func() {
		req := testutil.WithUser(httptest.NewRequest(http.MethodGet, "/contact-categories", nil), uploader)
		w := httptest.NewRecorder()

		handler.GetCategories(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var response category.CategoriesResponse
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())

		names := make([]string, len(response.Categories))
		for i, cat := range response.Categories {
			names[i] = cat.Name
		}
		Expect(names).To(ConsistOf("VIP", "Leads"))
	})

	It("should reject an unauthenticated request", func() {
		w := httptest.NewRecorder()
		handler.GetCategories(w, httptest.NewRequest(http.MethodGet, "/contact-categories", nil))
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should create a category in the uploader's division", func() {
		body, _ := json.Marshal(map[string]interface{}{"name": "Prospects", "color": "#123456", "divisionId": sales})
		req := testutil.WithUser(httptest.NewRequest(http.MethodPost, "/contact-categories", bytes.NewReader(body)), uploader)
		w := httptest.NewRecorder()

		handler.CreateCategory(w, req)

		Expect(w.Code).To(Equal(http.StatusCreated))
		var created category.Category
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.Name).To(Equal("Prospects"))
		Expect(*created.DivisionID).To(Equal(sales))
	})

	It("should return the error envelope for a bad id", func() {
		req := testutil.WithChiURLParam(httptest.NewRequest(http.MethodPatch, "/contact-categories/x", bytes.NewReader([]byte("{}"))), "id", "x")
		req = testutil.WithUser(req, uploader)
		w := httptest.NewRecorder()

		handler.UpdateCategory(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		var envelope internal.Response
		Expect(json.NewDecoder(w.Body).Decode(&envelope)).To(Succeed())
		Expect(envelope.Error.Code).To(Equal(internal.ErrCodeInvalidID))
	})
})
