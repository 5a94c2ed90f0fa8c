package contact_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/contacthub/internal/contact"
)

var _ = Describe("UpdateContactDTO", func() {
	decode := func(body string) contact.UpdateContactDTO {
		var dto contact.UpdateContactDTO
		Expect(json.Unmarshal([]byte(body), &dto)).To(Succeed())
		return dto
	}

	It("leaves absent references unchanged", func() {
		dto := decode(`{"company":"Acme"}`)
		Expect(dto.CategoryID.Set).To(BeFalse())
		Expect(dto.DivisionID.Set).To(BeFalse())
	})

	It("treats null as a clear", func() {
		dto := decode(`{"categoryId":null,"divisionId":null}`)
		Expect(dto.CategoryID).To(Equal(contact.ClearID()))
		Expect(dto.DivisionID).To(Equal(contact.ClearID()))
	})

	It("reads a numeric id", func() {
		dto := decode(`{"divisionId":7}`)
		Expect(dto.DivisionID).To(Equal(contact.SetID(7)))
	})

	It("rejects a non-numeric id", func() {
		var dto contact.UpdateContactDTO
		Expect(json.Unmarshal([]byte(`{"categoryId":"seven"}`), &dto)).NotTo(Succeed())
	})
})
