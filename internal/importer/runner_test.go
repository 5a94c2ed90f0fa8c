package importer_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/datatypes"

	contactDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/contact"
	uploadDatamodel "github.com/frahmantamala/contacthub/internal/core/datamodel/upload"
	"github.com/frahmantamala/contacthub/internal/core/events"
	"github.com/frahmantamala/contacthub/internal/customfield"
	"github.com/frahmantamala/contacthub/internal/importer"
	"github.com/frahmantamala/contacthub/internal/storage"
	"github.com/frahmantamala/contacthub/pkg/logger"
)

type fakeUploads struct {
	mu      sync.Mutex
	uploads map[int64]*uploadDatamodel.Upload
}

func (f *fakeUploads) GetByID(_ context.Context, id int64) (*uploadDatamodel.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads[id], nil
}

func (f *fakeUploads) Complete(_ context.Context, id int64, r importer.Result, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.uploads[id]
	u.Status = importer.StatusCompleted
	u.RecordsTotal, u.RecordsImported, u.RecordsSkipped = r.Total, r.Imported, r.Skipped
	u.ProcessedAt = &at
	return nil
}

func (f *fakeUploads) Fail(ctx context.Context, id int64, message string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.uploads[id]
	u.Status = importer.StatusFailed
	u.ErrorMessage = &message
	u.ProcessedAt = &at
	return nil
}

func (f *fakeUploads) FailProcessing(_ context.Context, message string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, u := range f.uploads {
		if u.Status == importer.StatusProcessing {
			u.Status = importer.StatusFailed
			u.ErrorMessage = &message
			n++
		}
	}
	return n, nil
}

type fakeContacts struct {
	created []*contactDatamodel.Contact
	failOn  string
}

func (f *fakeContacts) Create(_ context.Context, c *contactDatamodel.Contact) error {
	if f.failOn != "" && c.Email == f.failOn {
		return errors.New("constraint violation")
	}
	f.created = append(f.created, c)
	return nil
}

type fakeFields struct {
	defs []*customfield.Definition
}

func (f fakeFields) ForDivision(context.Context, *int64) ([]*customfield.Definition, error) {
	return f.defs, nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

var _ = Describe("Runner", func() {
	var (
		ctx       context.Context
		files     *storage.Local
		uploads   *fakeUploads
		contacts  *fakeContacts
		publisher *capturePublisher
		registry  *prometheus.Registry
		runner    *importer.Runner
		division  int64
	)

	ageField := &customfield.Definition{Key: "age", Label: "Age", FieldType: customfield.TypeNumber, IsActive: true}

	save := func(name, body string) {
		_, err := files.Save(name, strings.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
	}

	addUpload := func(id int64, fileName string, mapping datatypes.JSONMap) {
		uploads.uploads[id] = &uploadDatamodel.Upload{
			ID:           id,
			FileName:     fileName,
			OriginalName: "contacts" + fileName[strings.LastIndex(fileName, "."):],
			Status:       importer.StatusProcessing,
			FieldMapping: mapping,
			UploadedBy:   9,
			DivisionID:   &division,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		files, err = storage.NewLocal(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		division = 4
		uploads = &fakeUploads{uploads: map[int64]*uploadDatamodel.Upload{}}
		contacts = &fakeContacts{}
		publisher = &capturePublisher{}
		registry = prometheus.NewRegistry()
		runner = importer.NewRunner(uploads, contacts, files, fakeFields{defs: []*customfield.Definition{ageField}},
			publisher, importer.NewMetrics(registry), logger.LoggerWrapper())
	})

	mapping := datatypes.JSONMap{
		"Name":   "firstName",
		"E-mail": "email",
		"Age":    "custom:age",
		"Junk":   "__skip__",
	}

	It("keeps rows with an unfit custom value and skips rows without a usable email", func() {
		save("a.csv", "Name,E-mail,Age,Junk\n"+
			"Ann, ANN@Example.com ,34,x\n"+
			"Bob,,20,x\n"+
			",,,\n"+
			"Cid,not-an-email,1,x\n"+
			"Dee,dee@example.com,old,x\n"+
			"Eve,eve@example.com,,x\n")
		addUpload(1, "a.csv", mapping)

		Expect(runner.Run(ctx, 1)).To(Succeed())

		up := uploads.uploads[1]
		Expect(up.Status).To(Equal(importer.StatusCompleted))
		Expect(up.RecordsTotal).To(Equal(5))
		Expect(up.RecordsImported).To(Equal(3))
		Expect(up.RecordsSkipped).To(Equal(2))
		Expect(up.ProcessedAt).NotTo(BeNil())

		Expect(contacts.created).To(HaveLen(3))
		ann := contacts.created[0]
		Expect(ann.Email).To(Equal("ann@example.com"))
		Expect(ann.FirstName).To(Equal("Ann"))
		Expect(ann.CustomFields).To(HaveKeyWithValue("age", float64(34)))
		Expect(ann.DivisionID).To(Equal(&division))
		Expect(*ann.UploadID).To(Equal(int64(1)))
		Expect(*ann.CreatedBy).To(Equal(int64(9)))
		Expect(ann.IsActive).To(BeTrue())

		dee := contacts.created[1]
		Expect(dee.Email).To(Equal("dee@example.com"))
		Expect(dee.CustomFields).NotTo(HaveKey("age"))
		Expect(contacts.created[2].CustomFields).NotTo(HaveKey("age"))

		Expect(publisher.events).To(HaveLen(1))
		completed, ok := publisher.events[0].(*events.ImportCompletedEvent)
		Expect(ok).To(BeTrue())
		Expect(completed.Imported).To(Equal(3))
		Expect(completed.Skipped).To(Equal(2))
	})

	It("counts failed inserts as skipped", func() {
		contacts.failOn = "bad@example.com"
		save("b.csv", "Name,E-mail\nA,a@example.com\nB,bad@example.com\n")
		addUpload(2, "b.csv", datatypes.JSONMap{"Name": "firstName", "E-mail": "email"})

		Expect(runner.Run(ctx, 2)).To(Succeed())
		Expect(uploads.uploads[2].RecordsImported).To(Equal(1))
		Expect(uploads.uploads[2].RecordsSkipped).To(Equal(1))
	})

	It("fails legacy xls workbooks with an actionable message", func() {
		save("c.xls", "binary")
		addUpload(3, "c.xls", mapping)

		Expect(runner.Run(ctx, 3)).To(Succeed())
		up := uploads.uploads[3]
		Expect(up.Status).To(Equal(importer.StatusFailed))
		Expect(*up.ErrorMessage).To(ContainSubstring("save the file as .xlsx or .csv"))
		Expect(contacts.created).To(BeEmpty())

		Expect(publisher.events).To(HaveLen(1))
		Expect(publisher.events[0].EventType()).To(Equal(events.EventTypeImportFailed))
	})

	It("fails when the stored file is missing", func() {
		addUpload(4, "missing.csv", mapping)

		Expect(runner.Run(ctx, 4)).To(Succeed())
		Expect(uploads.uploads[4].Status).To(Equal(importer.StatusFailed))
		Expect(*uploads.uploads[4].ErrorMessage).To(Equal("the uploaded file could not be opened"))
	})

	It("leaves uploads that are not processing untouched", func() {
		save("d.csv", "E-mail\na@example.com\n")
		addUpload(5, "d.csv", datatypes.JSONMap{"E-mail": "email"})
		uploads.uploads[5].Status = importer.StatusCompleted

		Expect(runner.Run(ctx, 5)).To(Succeed())
		Expect(contacts.created).To(BeEmpty())
		Expect(publisher.events).To(BeEmpty())
	})

	It("records job metrics", func() {
		save("e.csv", "E-mail\na@example.com\n\nb@example.com\n")
		addUpload(6, "e.csv", datatypes.JSONMap{"E-mail": "email"})

		Expect(runner.Run(ctx, 6)).To(Succeed())

		count, err := testutil.GatherAndCount(registry, "contacthub_import_jobs_total")
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(1))
	})

	It("marks the upload failed when the job context is cancelled mid-run", func() {
		save("f.csv", "E-mail\na@example.com\nb@example.com\n")
		addUpload(9, "f.csv", datatypes.JSONMap{"E-mail": "email"})

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		Expect(runner.Run(cancelled, 9)).To(Succeed())
		up := uploads.uploads[9]
		Expect(up.Status).To(Equal(importer.StatusFailed))
		Expect(*up.ErrorMessage).To(Equal("import interrupted before all rows were processed"))
		Expect(contacts.created).To(BeEmpty())
		Expect(publisher.events).To(HaveLen(1))
		Expect(publisher.events[0].EventType()).To(Equal(events.EventTypeImportFailed))
	})

	It("fails interrupted imports on recovery", func() {
		addUpload(7, "x.csv", mapping)
		addUpload(8, "y.csv", mapping)
		uploads.uploads[8].Status = importer.StatusPending

		n, err := runner.RecoverInterrupted(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)))
		Expect(uploads.uploads[7].Status).To(Equal(importer.StatusFailed))
		Expect(uploads.uploads[8].Status).To(Equal(importer.StatusPending))
	})
})
