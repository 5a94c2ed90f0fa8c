package upload_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/audit"
	contactDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/contact"
	uploadDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/upload"
	"github.com/frahmantamala/contacthub/internal/customfield"
	customfieldPostgres "github.com/frahmantamala/contacthub/internal/customfield/postgres"
	"github.com/frahmantamala/contacthub/internal/division"
	divisionPostgres "github.com/frahmantamala/contacthub/internal/division/postgres"
	"github.com/frahmantamala/contacthub/internal/fieldmap"
	"github.com/frahmantamala/contacthub/internal/importer"
	"github.com/frahmantamala/contacthub/internal/storage"
	"github.com/frahmantamala/contacthub/internal/testutil"
	"github.com/frahmantamala/contacthub/internal/upload"
	uploadPostgres "github.com/frahmantamala/contacthub/internal/upload/postgres"
)

var _ = Describe("Upload Service", func() {
	var (
		ctx      context.Context
		db       *gorm.DB
		dir      string
		queue    *fakeQueue
		auditor  *recordingAuditor
		service  *upload.Service
		sales    int64
		closed   int64
		uploader *internal.User
		outsider *internal.User
	)

	csvBody := "First Name,Last Name,Email,Phone\nAnn,Lee,ann@example.com,555-0100\nBob,Ray,bob@example.com,555-0101\n"

	intake := func(name, body string, divisionID *int64) upload.Intake {
		return upload.Intake{OriginalName: name, Size: int64(len(body)), Content: strings.NewReader(body), DivisionID: divisionID}
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
		c, err := testutil.CreateDivision(db, "Closed", false)
		Expect(err).NotTo(HaveOccurred())
		closed = c.ID
		other, err := testutil.CreateDivision(db, "Support", true)
		Expect(err).NotTo(HaveOccurred())

		dir = GinkgoT().TempDir()
		files, err := storage.NewLocal(dir)
		Expect(err).NotTo(HaveOccurred())

		auditor = &recordingAuditor{}
		queue = &fakeQueue{}
		divisions := division.NewService(divisionPostgres.NewDivisionRepository(db), auditor, slogger)
		fields := customfield.NewService(customfieldPostgres.NewCustomFieldRepository(db), divisions, auditor, slogger)
		service = upload.NewService(uploadPostgres.NewUploadRepository(db), files, divisions, fields, queue, auditor, slogger, 64<<10)

		uploader = testutil.Principal(2, internal.RoleUploader, sales, closed)
		outsider = testutil.Principal(3, internal.RoleUploader, other.ID)
	})

	storedFiles := func() []string {
		entries, err := os.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		return names
	}

	Describe("Create", func() {
		It("stores a csv as pending under a generated name", func() {
			up, err := service.Create(ctx, uploader, intake("People.CSV", csvBody, &sales))
			Expect(err).NotTo(HaveOccurred())
			Expect(up.Status).To(Equal(upload.StatusPending))
			Expect(up.OriginalName).To(Equal("People.CSV"))
			Expect(up.FileSize).To(Equal(int64(len(csvBody))))
			Expect(up.MimeType).To(HavePrefix("text/"))

			names := storedFiles()
			Expect(names).To(HaveLen(1))
			Expect(filepath.Ext(names[0])).To(Equal(".csv"))
			Expect(names[0]).NotTo(ContainSubstring("People"))
			Expect(auditor.actions()).To(Equal([]string{audit.ActionUploadCreated}))
		})

		It("accepts an xlsx workbook", func() {
			f := excelize.NewFile()
			Expect(f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Email"})).To(Succeed())
			buf, err := f.WriteToBuffer()
			Expect(err).NotTo(HaveOccurred())

			up, err := service.Create(ctx, uploader, upload.Intake{
				OriginalName: "book.xlsx",
				Size:         int64(buf.Len()),
				Content:      bytes.NewReader(buf.Bytes()),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(up.Status).To(Equal(upload.StatusPending))
		})

		It("rejects an unsupported extension", func() {
			_, err := service.Create(ctx, uploader, intake("notes.txt", csvBody, nil))
			Expect(err).To(MatchError(internal.ErrInvalidFileType))
			Expect(storedFiles()).To(BeEmpty())
		})

		It("rejects content that does not match the extension", func() {
			png := "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01"
			_, err := service.Create(ctx, uploader, intake("contacts.xlsx", png, nil))
			Expect(err).To(MatchError(internal.ErrInvalidFileType))
		})

		It("rejects files over the size limit", func() {
			big := "Email\n" + strings.Repeat("someone@example.com\n", 4000)
			_, err := service.Create(ctx, uploader, intake("big.csv", big, nil))
			Expect(err).To(MatchError(internal.ErrFileTooLarge))

			_, err = service.Create(ctx, uploader, upload.Intake{OriginalName: "lying.csv", Size: 10, Content: strings.NewReader(big)})
			Expect(err).To(MatchError(internal.ErrFileTooLarge))
			Expect(storedFiles()).To(BeEmpty())
		})

		It("rejects an inactive or foreign division", func() {
			_, err := service.Create(ctx, uploader, intake("a.csv", csvBody, &closed))
			Expect(err).To(MatchError(internal.ErrDivisionInactive))

			_, err = service.Create(ctx, outsider, intake("a.csv", csvBody, &sales))
			Expect(err).To(MatchError(internal.ErrDivisionForbidden))
		})
	})

	Describe("Columns", func() {
		It("previews the header and suggests a mapping", func() {
			up, err := service.Create(ctx, uploader, intake("a.csv", csvBody, &sales))
			Expect(err).NotTo(HaveOccurred())

			cols, err := service.Columns(ctx, uploader, up.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(cols.Headers).To(Equal([]string{"First Name", "Last Name", "Email", "Phone"}))
			Expect(cols.SampleRows).To(HaveLen(2))
			Expect(cols.TotalRows).To(Equal(2))
			Expect(cols.Suggested).To(Equal(fieldmap.Mapping{
				"First Name": "firstName",
				"Last Name":  "lastName",
				"Email":      "email",
				"Phone":      "phone",
			}))
		})

		It("hides uploads outside the caller's divisions", func() {
			up, err := service.Create(ctx, uploader, intake("a.csv", csvBody, &sales))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Columns(ctx, outsider, up.ID)
			Expect(err).To(MatchError(internal.ErrDivisionForbidden))
		})
	})

	Describe("Process", func() {
		var up *upload.Upload
		mapping := fieldmap.Mapping{"First Name": "firstName", "Email": "email", "Phone": "__skip__"}

		BeforeEach(func() {
			var err error
			up, err = service.Create(ctx, uploader, intake("a.csv", csvBody, nil))
			Expect(err).NotTo(HaveOccurred())
		})

		It("claims the upload and queues the import", func() {
			got, err := service.Process(ctx, uploader, up.ID, upload.ProcessUploadDTO{
				Status: "processing", FieldMapping: mapping, DivisionID: &sales,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(upload.StatusProcessing))
			Expect(got.DivisionID).To(Equal(&sales))
			Expect(got.FieldMapping).To(Equal(mapping))
			Expect(queue.submitted).To(Equal([]int64{up.ID}))
			Expect(auditor.actions()).To(ContainElement(audit.ActionUploadProcessing))
		})

		It("reports every mapping problem together", func() {
			_, err := service.Process(ctx, uploader, up.ID, upload.ProcessUploadDTO{
				Status:       "processing",
				FieldMapping: fieldmap.Mapping{"First Name": "firstName", "Last Name": "firstName", "Phone": "custom:nope"},
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidMapping))
			Expect(appErr.Details.(internal.ValidationErrors).Messages()).To(Equal([]string{
				"At least one required field (Email Address) must be mapped.",
				"First Name is mapped from more than one column (First Name, Last Name).",
				"Please select a division.",
				`Column "Phone" maps to unknown field "custom:nope".`,
			}))
			Expect(queue.submitted).To(BeEmpty())
		})

		It("rejects a status other than processing", func() {
			_, err := service.Process(ctx, uploader, up.ID, upload.ProcessUploadDTO{Status: "completed", FieldMapping: mapping, DivisionID: &sales})
			Expect(err).To(HaveOccurred())
			Expect(err.(*internal.AppError).StatusCode).To(Equal(400))
		})

		It("rejects an inactive division", func() {
			_, err := service.Process(ctx, uploader, up.ID, upload.ProcessUploadDTO{Status: "processing", FieldMapping: mapping, DivisionID: &closed})
			Expect(err).To(MatchError(internal.ErrDivisionInactive))
		})

		It("lets only one of two triggers win", func() {
			dto := upload.ProcessUploadDTO{Status: "processing", FieldMapping: mapping, DivisionID: &sales}
			_, err := service.Process(ctx, uploader, up.ID, dto)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Process(ctx, uploader, up.ID, dto)
			Expect(err).To(MatchError(internal.ErrUploadNotPending))
			Expect(queue.submitted).To(HaveLen(1))
		})

		It("fails the upload when the queue is full", func() {
			queue.err = importer.ErrQueueFull
			got, err := service.Process(ctx, uploader, up.ID, upload.ProcessUploadDTO{Status: "processing", FieldMapping: mapping, DivisionID: &sales})
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(upload.StatusFailed))
			Expect(*got.ErrorMessage).To(Equal("import queue is full"))
		})
	})

	Describe("List", func() {
		It("returns the caller's visible uploads newest first", func() {
			first, err := service.Create(ctx, uploader, intake("a.csv", csvBody, &sales))
			Expect(err).NotTo(HaveOccurred())
			second, err := service.Create(ctx, uploader, intake("b.csv", csvBody, nil))
			Expect(err).NotTo(HaveOccurred())

			list, err := service.List(ctx, uploader, upload.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].ID).To(Equal(second.ID))
			Expect(list[1].ID).To(Equal(first.ID))

			list, err = service.List(ctx, outsider, upload.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())

			_, err = service.List(ctx, outsider, upload.ListFilter{DivisionID: &sales})
			Expect(err).To(MatchError(internal.ErrDivisionForbidden))

			_, err = service.List(ctx, uploader, upload.ListFilter{Status: "bogus"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Delete", func() {
		It("removes the record and file and detaches contacts", func() {
			up, err := service.Create(ctx, uploader, intake("a.csv", csvBody, &sales))
			Expect(err).NotTo(HaveOccurred())
			contact := &contactDatamodel.Contact{Email: "ann@example.com", UploadID: &up.ID, IsActive: true}
			Expect(db.Create(contact).Error).To(Succeed())

			Expect(service.Delete(ctx, uploader, up.ID)).To(Succeed())
			Expect(storedFiles()).To(BeEmpty())

			_, err = service.Get(ctx, uploader, up.ID)
			Expect(err).To(MatchError(internal.ErrUploadNotFound))

			var reloaded contactDatamodel.Contact
			Expect(db.First(&reloaded, contact.ID).Error).To(Succeed())
			Expect(reloaded.UploadID).To(BeNil())
			Expect(auditor.actions()).To(ContainElement(audit.ActionUploadDeleted))
		})

		It("refuses while the import is processing", func() {
			up, err := service.Create(ctx, uploader, intake("a.csv", csvBody, &sales))
			Expect(err).NotTo(HaveOccurred())
			Expect(db.Model(&uploadDatamodel.Upload{}).Where("id = ?", up.ID).Update("status", "processing").Error).To(Succeed())

			Expect(service.Delete(ctx, uploader, up.ID)).To(MatchError(internal.ErrUploadProcessing))
			Expect(storedFiles()).To(HaveLen(1))
		})
	})
})
