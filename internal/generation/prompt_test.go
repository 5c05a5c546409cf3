package generation

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RecipePrompt", func() {
	When("the list is the surprise sentinel", func() {
		It("asks for a surprise recipe", func() {
			Expect(RecipePrompt([]string{SurpriseMe})).To(Equal(surprisePrompt))
		})

		It("matches the sentinel regardless of case and padding", func() {
			Expect(RecipePrompt([]string{" Surprise Me "})).To(Equal(surprisePrompt))
		})
	})

	When("the list names ingredients", func() {
		var prompt string

		BeforeEach(func() {
			prompt = RecipePrompt([]string{"eggs", "spinach"})
		})

		It("enumerates the ingredients", func() {
			Expect(prompt).To(ContainSubstring("eggs, spinach"))
		})

		It("asks for a title", func() {
			Expect(prompt).To(ContainSubstring("Include a title"))
		})

		It("is not the surprise prompt", func() {
			Expect(prompt).NotTo(Equal(surprisePrompt))
		})
	})
})

var _ = Describe("IsSurprise", func() {
	It("is false for an ordinary list", func() {
		Expect(IsSurprise([]string{"rice", "beans"})).To(BeFalse())
	})

	It("is true when the sentinel is anywhere in the list", func() {
		Expect(IsSurprise([]string{"rice", "surprise me"})).To(BeTrue())
	})
})
