package report_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/contacthub/internal/report"
)

var _ = Describe("Percent", func() {
	It("rounds to one decimal", func() {
		Expect(report.Percent(1, 3)).To(Equal(33.3))
		Expect(report.Percent(2, 3)).To(Equal(66.7))
		Expect(report.Percent(5, 5)).To(Equal(100.0))
	})

	It("is zero for an empty whole", func() {
		Expect(report.Percent(0, 0)).To(BeZero())
		Expect(report.Percent(3, 0)).To(BeZero())
	})
})
