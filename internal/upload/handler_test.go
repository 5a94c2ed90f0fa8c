package upload_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/customfield"
	customfieldPostgres "github.com/frahmantamala/contacthub/internal/customfield/postgres"
	"github.com/frahmantamala/contacthub/internal/division"
	divisionPostgres "github.com/frahmantamala/contacthub/internal/division/postgres"
	"github.com/frahmantamala/contacthub/internal/storage"
	"github.com/frahmantamala/contacthub/internal/testutil"
	"github.com/frahmantamala/contacthub/internal/transport"
	"github.com/frahmantamala/contacthub/internal/upload"
	uploadPostgres "github.com/frahmantamala/contacthub/internal/upload/postgres"
)

var _ = Describe("Upload Handler", func() {
	var (
		handler  *upload.Handler
		queue    *fakeQueue
		sales    int64
		uploader *internal.User
	)

	multipartRequest := func(filename, body string, divisionID string) *http.Request {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", filename)
		Expect(err).NotTo(HaveOccurred())
		_, err = io.Copy(part, strings.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		if divisionID != "" {
			Expect(mw.WriteField("divisionId", divisionID)).To(Succeed())
		}
		Expect(mw.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, "/uploads", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return testutil.WithUser(req, uploader)
	}

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		db, err := testutil.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())

		d, err := testutil.CreateDivision(db, "Sales", true)
		Expect(err).NotTo(HaveOccurred())
		sales = d.ID

		files, err := storage.NewLocal(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		auditor := &recordingAuditor{}
		queue = &fakeQueue{}
		divisions := division.NewService(divisionPostgres.NewDivisionRepository(db), auditor, slogger)
		fields := customfield.NewService(customfieldPostgres.NewCustomFieldRepository(db), divisions, auditor, slogger)
		service := upload.NewService(uploadPostgres.NewUploadRepository(db), files, divisions, fields, queue, auditor, slogger, 64<<10)
		handler = upload.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
		uploader = testutil.Principal(2, internal.RoleUploader, sales)
	})

	It("accepts a multipart csv upload", func() {
		w := httptest.NewRecorder()
		handler.CreateUpload(w, multipartRequest("people.csv", "Email\na@example.com\n", strconv.FormatInt(sales, 10)))

		Expect(w.Code).To(Equal(http.StatusCreated))
		var up upload.Upload
		Expect(json.NewDecoder(w.Body).Decode(&up)).To(Succeed())
		Expect(up.Status).To(Equal("pending"))
		Expect(*up.DivisionID).To(Equal(sales))
	})

	It("returns 400 for a disallowed type", func() {
		w := httptest.NewRecorder()
		handler.CreateUpload(w, multipartRequest("virus.exe", "MZ\x90\x00", ""))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("Invalid file type. Only .xlsx, .xls and .csv files are allowed."))
	})

	It("returns 413 for an oversized body", func() {
		w := httptest.NewRecorder()
		big := "Email\n" + strings.Repeat("x", 2<<20)
		handler.CreateUpload(w, multipartRequest("big.csv", big, ""))

		Expect(w.Code).To(Equal(http.StatusRequestEntityTooLarge))
		Expect(w.Body.String()).To(ContainSubstring("File too large. Maximum size is 10MB."))
	})

	It("returns 202 when an import is triggered", func() {
		w := httptest.NewRecorder()
		handler.CreateUpload(w, multipartRequest("people.csv", "Email\na@example.com\n", ""))
		Expect(w.Code).To(Equal(http.StatusCreated))
		var created upload.Upload
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

		body := `{"status":"processing","fieldMapping":{"Email":"email"},"divisionId":` + strconv.FormatInt(sales, 10) + `}`
		req := httptest.NewRequest(http.MethodPatch, "/uploads/"+strconv.FormatInt(created.ID, 10), strings.NewReader(body))
		req = testutil.WithChiURLParam(testutil.WithUser(req, uploader), "id", strconv.FormatInt(created.ID, 10))
		w = httptest.NewRecorder()
		handler.ProcessUpload(w, req)

		Expect(w.Code).To(Equal(http.StatusAccepted))
		Expect(queue.submitted).To(Equal([]int64{created.ID}))

		w = httptest.NewRecorder()
		handler.ProcessUpload(w, testutil.WithChiURLParam(testutil.WithUser(
			httptest.NewRequest(http.MethodPatch, "/uploads/x", strings.NewReader(body)), uploader), "id", strconv.FormatInt(created.ID, 10)))
		Expect(w.Code).To(Equal(http.StatusConflict))
	})
})
