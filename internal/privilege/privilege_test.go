package privilege_test

import (
	"github.com/frahmantamala/access-control/internal/privilege"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Privilege hierarchy", func() {
	var (
		view    privilege.Action
		edit    privilege.Action
		publish privilege.Action
	)

	BeforeEach(func() {
		view = privilege.NewAction("view", "allows viewing")
		edit = privilege.NewAction("edit", "allows editing")
		publish = privilege.NewAction("publish", "allows publishing")
	})

	Describe("ContainsAction", func() {
		It("should report every member action", func() {
			p := privilege.NewPermission("write-content", view, edit)

			Expect(privilege.ContainsAction(p, view)).To(BeTrue())
			Expect(privilege.ContainsAction(p, edit)).To(BeTrue())
		})

		It("should reject actions outside the permission", func() {
			p := privilege.NewPermission("write-content", view, edit)

			Expect(privilege.ContainsAction(p, publish)).To(BeFalse())
		})

		It("should compare by name rather than by instance", func() {
			p := privilege.NewPermission("write-content", view)
			other := privilege.NewAction("view", "a different description")

			Expect(privilege.ContainsAction(p, other)).To(BeTrue())
		})

		It("should never contain the empty action", func() {
			p := privilege.NewPermission("write-content", view)

			Expect(privilege.ContainsAction(p, privilege.Action{})).To(BeFalse())
		})
	})

	Describe("ContainsPermission", func() {
		It("should report member permissions and reject others", func() {
			read := privilege.NewPermission("read-content", view)
			write := privilege.NewPermission("write-content", view, edit)
			pub := privilege.NewPermission("publish-content", publish)
			role := privilege.NewRole("editor", read, write)

			Expect(privilege.ContainsPermission(role, read)).To(BeTrue())
			Expect(privilege.ContainsPermission(role, write)).To(BeTrue())
			Expect(privilege.ContainsPermission(role, pub)).To(BeFalse())
		})
	})

	Describe("construction", func() {
		It("should collapse duplicate action names to the first occurrence", func() {
			p := privilege.NewPermission("write-content", view, privilege.NewAction("view", "shadow"), edit)

			Expect(p.Actions().Len()).To(Equal(2))
			Expect(p.Actions().Names()).To(Equal([]string{"view", "edit"}))
			got, ok := p.Actions().Get("view")
			Expect(ok).To(BeTrue())
			Expect(got.Description()).To(Equal("allows viewing"))
		})

		It("should collapse duplicate permission names in a role", func() {
			role := privilege.NewRole("editor",
				privilege.NewPermission("read-content", view),
				privilege.NewPermission("read-content", view, edit))

			Expect(role.Permissions().Len()).To(Equal(1))
			p, _ := role.Permissions().Get("read-content")
			Expect(p.Actions().Len()).To(Equal(1))
		})

		It("should skip empty members", func() {
			p := privilege.NewPermission("write-content", privilege.Action{}, view)

			Expect(p.Actions().Names()).To(Equal([]string{"view"}))
		})

		It("should trim names", func() {
			Expect(privilege.NewAction("  view ", "").Name()).To(Equal("view"))
			Expect(privilege.NewRole(" editor").Name()).To(Equal("editor"))
		})

		It("should not let callers alter a built permission through its member list", func() {
			p := privilege.NewPermission("write-content", view, edit)

			members := p.Actions().Members()
			members[0] = publish
			names := p.Actions().Names()
			names[0] = "publish"

			Expect(privilege.ContainsAction(p, publish)).To(BeFalse())
			Expect(p.Actions().Names()).To(Equal([]string{"view", "edit"}))
		})
	})

	Describe("empty values", func() {
		It("should treat zero values as empty", func() {
			Expect(privilege.Action{}.IsEmpty()).To(BeTrue())
			Expect(privilege.Permission{}.IsEmpty()).To(BeTrue())
			Expect(privilege.Role{}.IsEmpty()).To(BeTrue())
		})

		It("should not treat named values as empty", func() {
			Expect(view.IsEmpty()).To(BeFalse())
			Expect(privilege.NewPermission("p").IsEmpty()).To(BeFalse())
			Expect(privilege.NewRole("r").IsEmpty()).To(BeFalse())
		})

		It("should grant nothing from an empty role", func() {
			Expect(privilege.Role{}.Allows("view")).To(BeFalse())
			Expect(privilege.Role{}.Permissions().Len()).To(BeZero())
		})
	})

	Describe("Role", func() {
		It("should allow actions reachable through any permission", func() {
			role := privilege.NewRole("publisher",
				privilege.NewPermission("read-content", view),
				privilege.NewPermission("publish-content", publish))

			Expect(role.Allows("view")).To(BeTrue())
			Expect(role.Allows("publish")).To(BeTrue())
			Expect(role.Allows("edit")).To(BeFalse())
		})

		It("should compare recursively by names", func() {
			a := privilege.NewRole("editor", privilege.NewPermission("write-content", view, edit))
			b := privilege.NewRole("editor", privilege.NewPermission("write-content", edit, view))
			c := privilege.NewRole("editor", privilege.NewPermission("write-content", view))

			Expect(a.Equal(b)).To(BeTrue())
			Expect(a.Equal(c)).To(BeFalse())
		})
	})

	Describe("Set", func() {
		It("should report sorted names and membership", func() {
			s := privilege.NewSet(publish, view, edit)

			Expect(s.SortedNames()).To(Equal([]string{"edit", "publish", "view"}))
			Expect(s.Contains("edit")).To(BeTrue())
			Expect(s.Contains("")).To(BeFalse())
			Expect(s.SameNames(privilege.NewSet(view, edit, publish))).To(BeTrue())
			Expect(s.SameNames(privilege.NewSet(view, edit))).To(BeFalse())
		})

		It("should be usable as a zero value", func() {
			var s privilege.Set[privilege.Action]

			Expect(s.Len()).To(BeZero())
			Expect(s.Contains("view")).To(BeFalse())
			Expect(s.Members()).To(BeEmpty())
		})
	})
})
