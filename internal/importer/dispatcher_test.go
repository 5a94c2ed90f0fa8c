package importer_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/contacthub/internal/importer"
	"github.com/frahmantamala/contacthub/pkg/logger"
)

var _ = Describe("Dispatcher", func() {
	var (
		mu        sync.Mutex
		processed []int64
	)

	record := func(_ context.Context, job importer.Job) {
		mu.Lock()
		defer mu.Unlock()
		processed = append(processed, job.UploadID)
	}

	BeforeEach(func() {
		mu.Lock()
		processed = nil
		mu.Unlock()
	})

	It("processes submitted jobs", func() {
		d := importer.NewDispatcher(importer.Config{MaxWorkers: 2, JobQueueSize: 10}, record, logger.LoggerWrapper())
		d.Start()

		Expect(d.Submit(1)).To(Succeed())
		Expect(d.Submit(2)).To(Succeed())

		Eventually(func() []int64 {
			mu.Lock()
			defer mu.Unlock()
			return append([]int64(nil), processed...)
		}).Should(ConsistOf(int64(1), int64(2)))

		Expect(d.Shutdown(context.Background())).To(Succeed())
	})

	It("rejects jobs when the queue is full", func() {
		d := importer.NewDispatcher(importer.Config{MaxWorkers: 1, JobQueueSize: 1}, record, logger.LoggerWrapper())

		// not started, so nothing drains the queue
		Expect(d.Submit(1)).To(Succeed())
		Expect(d.Submit(2)).To(MatchError(importer.ErrQueueFull))
		Expect(d.Shutdown(context.Background())).To(Succeed())
	})

	It("drains queued jobs on shutdown", func() {
		release := make(chan struct{})
		slow := func(ctx context.Context, job importer.Job) {
			<-release
			record(ctx, job)
		}
		d := importer.NewDispatcher(importer.Config{MaxWorkers: 1, JobQueueSize: 5}, slow, logger.LoggerWrapper())
		d.Start()

		for id := int64(1); id <= 3; id++ {
			Expect(d.Submit(id)).To(Succeed())
		}
		close(release)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(d.Shutdown(ctx)).To(Succeed())

		mu.Lock()
		defer mu.Unlock()
		Expect(processed).To(Equal([]int64{1, 2, 3}))
	})

	It("refuses jobs after shutdown", func() {
		d := importer.NewDispatcher(importer.Config{}, record, logger.LoggerWrapper())
		d.Start()
		Expect(d.Shutdown(context.Background())).To(Succeed())
		Expect(d.Submit(7)).To(MatchError(importer.ErrStopped))
	})

	It("returns the context error when running jobs outlive the deadline", func() {
		blocked := func(ctx context.Context, _ importer.Job) {
			<-ctx.Done()
		}
		d := importer.NewDispatcher(importer.Config{MaxWorkers: 1, JobQueueSize: 1}, blocked, logger.LoggerWrapper())
		d.Start()
		Expect(d.Submit(1)).To(Succeed())

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		Expect(d.Shutdown(ctx)).To(MatchError(context.DeadlineExceeded))
	})
})
