package postgres_test

import (
	"context"
	"errors"
	"sync"

	"github.com/frahmantamala/access-control/internal"
	privilegeDatamodel "github.com/frahmantamala/access-control/internal/core/datamodel/privilege"
	"github.com/frahmantamala/access-control/internal/core/persistence"
	"github.com/frahmantamala/access-control/internal/privilege"
	privilegePostgres "github.com/frahmantamala/access-control/internal/privilege/postgres"
	pkgLogger "github.com/frahmantamala/access-control/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Privilege stores", func() {
	var (
		ctx         context.Context
		db          *gorm.DB
		actions     *privilegePostgres.ActionStore
		permissions *privilegePostgres.PermissionStore
		roles       *privilegePostgres.RoleStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = openTestDB()
		lg := pkgLogger.Discard()

		actions = privilegePostgres.NewActionStore(db, lg)
		permissions = privilegePostgres.NewPermissionStore(db, actions, lg)
		roles = privilegePostgres.NewRoleStore(db, permissions, lg)

		for _, ensure := range []func(context.Context) (bool, error){
			actions.EnsureTableExists,
			permissions.EnsureTableExists,
			roles.EnsureTableExists,
		} {
			ok, err := ensure(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		}
	})

	mustCreateAction := func(name, description string) privilege.Action {
		a := privilege.NewAction(name, description)
		ok, err := actions.Create(ctx, a)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		return a
	}

	Describe("ActionStore", func() {
		It("should be safe to ensure the table twice", func() {
			ok, err := actions.EnsureTableExists(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("should round trip an action", func() {
			mustCreateAction("view", "allows viewing")

			got, err := actions.Read(ctx, "view")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name()).To(Equal("view"))
			Expect(got.Description()).To(Equal("allows viewing"))
		})

		It("should return the empty action for a missing name", func() {
			got, err := actions.Read(ctx, "doesNotExist")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.IsEmpty()).To(BeTrue())
		})

		It("should reject a duplicate create", func() {
			mustCreateAction("view", "allows viewing")

			ok, err := actions.Create(ctx, privilege.NewAction("view", "again"))
			Expect(ok).To(BeFalse())
			Expect(errors.Is(err, internal.ErrAlreadyExists)).To(BeTrue())

			got, err := actions.Read(ctx, "view")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Description()).To(Equal("allows viewing"))
		})

		It("should report concurrent duplicates as already existing", func() {
			const callers = 8
			results := make([]error, callers)
			created := make([]bool, callers)

			var wg sync.WaitGroup
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer GinkgoRecover()
					defer wg.Done()
					created[i], results[i] = actions.Create(ctx, privilege.NewAction("publish", "allows publishing"))
				}(i)
			}
			wg.Wait()

			wins := 0
			for i := 0; i < callers; i++ {
				if created[i] {
					wins++
					Expect(results[i]).NotTo(HaveOccurred())
					continue
				}
				Expect(errors.Is(results[i], internal.ErrAlreadyExists)).To(BeTrue(), "caller %d: %v", i, results[i])
			}
			Expect(wins).To(Equal(1))
		})

		It("should refuse invalid names without an error", func() {
			ok, err := actions.Create(ctx, privilege.NewAction("has space", ""))
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())

			ok, err = actions.Create(ctx, privilege.Action{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("should list every action by name", func() {
			mustCreateAction("view", "")
			mustCreateAction("edit", "")

			all, err := actions.ReadAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
			Expect(all[0].Name()).To(Equal("edit"))
			Expect(all[1].Name()).To(Equal("view"))
		})

		It("should return an empty slice when nothing is stored", func() {
			all, err := actions.ReadAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).NotTo(BeNil())
			Expect(all).To(BeEmpty())
		})

		It("should update the description of an existing action", func() {
			mustCreateAction("view", "old")

			ok, err := actions.Update(ctx, "view", privilege.NewAction("view", "new"))
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			got, _ := actions.Read(ctx, "view")
			Expect(got.Description()).To(Equal("new"))
		})

		It("should refuse renames and missing targets", func() {
			mustCreateAction("view", "")

			ok, err := actions.Update(ctx, "view", privilege.NewAction("look", ""))
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())

			ok, err = actions.Update(ctx, "ghost", privilege.NewAction("ghost", ""))
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("should delete once", func() {
			mustCreateAction("view", "")

			ok, err := actions.Delete(ctx, "view")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			ok, err = actions.Delete(ctx, "view")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("should hydrate the same way with properties-first construction", func() {
			mustCreateAction("view", "allows viewing")
			propertiesFirst := privilegePostgres.NewActionStore(db, pkgLogger.Discard(), persistence.WithConstructorColumns())

			a, err := actions.Read(ctx, "view")
			Expect(err).NotTo(HaveOccurred())
			b, err := propertiesFirst.Read(ctx, "view")
			Expect(err).NotTo(HaveOccurred())
			Expect(a).To(Equal(b))
		})

		It("should surface a closed database as store unavailable", func() {
			sqlDB, err := db.DB()
			Expect(err).NotTo(HaveOccurred())
			Expect(sqlDB.Close()).To(Succeed())

			_, err = actions.Read(ctx, "view")
			Expect(errors.Is(err, internal.ErrStoreUnavailable)).To(BeTrue())
		})
	})

	Describe("PermissionStore", func() {
		var view, edit privilege.Action

		BeforeEach(func() {
			view = mustCreateAction("view", "allows viewing")
			edit = mustCreateAction("edit", "allows editing")
		})

		It("should hydrate member actions through the action store", func() {
			ok, err := permissions.Create(ctx, privilege.NewPermission("write-content", view, edit))
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			got, err := permissions.Read(ctx, "write-content")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Actions().Names()).To(Equal([]string{"view", "edit"}))
			a, _ := got.Actions().Get("edit")
			Expect(a.Description()).To(Equal("allows editing"))
		})

		It("should return an empty permission for a missing name", func() {
			got, err := permissions.Read(ctx, "doesNotExist")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.IsEmpty()).To(BeTrue())
			Expect(got.Actions().Len()).To(BeZero())
		})

		It("should drop actions that no longer resolve", func() {
			_, err := permissions.Create(ctx, privilege.NewPermission("write-content", view, edit))
			Expect(err).NotTo(HaveOccurred())

			_, err = actions.Delete(ctx, "edit")
			Expect(err).NotTo(HaveOccurred())

			got, err := permissions.Read(ctx, "write-content")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name()).To(Equal("write-content"))
			Expect(got.Actions().Names()).To(Equal([]string{"view"}))
		})

		It("should produce equal but independent values on repeated reads", func() {
			_, err := permissions.Create(ctx, privilege.NewPermission("write-content", view, edit))
			Expect(err).NotTo(HaveOccurred())

			first, err := permissions.Read(ctx, "write-content")
			Expect(err).NotTo(HaveOccurred())
			second, err := permissions.Read(ctx, "write-content")
			Expect(err).NotTo(HaveOccurred())

			Expect(first.Equal(second)).To(BeTrue())
			members := first.Actions().Members()
			members[0] = privilege.NewAction("publish", "")
			Expect(second.Actions().Contains("publish")).To(BeFalse())
		})

		It("should replace member links on update", func() {
			_, err := permissions.Create(ctx, privilege.NewPermission("write-content", view))
			Expect(err).NotTo(HaveOccurred())

			ok, err := permissions.Update(ctx, "write-content", privilege.NewPermission("write-content", edit))
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			got, _ := permissions.Read(ctx, "write-content")
			Expect(got.Actions().Names()).To(Equal([]string{"edit"}))
		})

		It("should reject a duplicate create", func() {
			_, err := permissions.Create(ctx, privilege.NewPermission("write-content", view))
			Expect(err).NotTo(HaveOccurred())

			ok, err := permissions.Create(ctx, privilege.NewPermission("write-content", edit))
			Expect(ok).To(BeFalse())
			Expect(errors.Is(err, internal.ErrAlreadyExists)).To(BeTrue())
		})

		It("should delete the permission and its own links only", func() {
			_, err := permissions.Create(ctx, privilege.NewPermission("write-content", view, edit))
			Expect(err).NotTo(HaveOccurred())

			ok, err := permissions.Delete(ctx, "write-content")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			var links int64
			Expect(db.Model(&privilegeDatamodel.PermissionAction{}).Count(&links).Error).To(Succeed())
			Expect(links).To(BeZero())

			a, err := actions.Read(ctx, "view")
			Expect(err).NotTo(HaveOccurred())
			Expect(a.IsEmpty()).To(BeFalse())
		})
	})

	Describe("RoleStore", func() {
		var readContent, writeContent privilege.Permission

		BeforeEach(func() {
			view := mustCreateAction("view", "")
			edit := mustCreateAction("edit", "")
			readContent = privilege.NewPermission("read-content", view)
			writeContent = privilege.NewPermission("write-content", view, edit)
			for _, p := range []privilege.Permission{readContent, writeContent} {
				ok, err := permissions.Create(ctx, p)
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeTrue())
			}
		})

		It("should hydrate the full hierarchy", func() {
			ok, err := roles.Create(ctx, privilege.NewRole("editor", readContent, writeContent))
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			got, err := roles.Read(ctx, "editor")
			Expect(err).NotTo(HaveOccurred())
			Expect(privilege.ContainsPermission(got, readContent)).To(BeTrue())
			Expect(privilege.ContainsPermission(got, writeContent)).To(BeTrue())
			Expect(got.Allows("edit")).To(BeTrue())
			Expect(got.Equal(privilege.NewRole("editor", readContent, writeContent))).To(BeTrue())
		})

		It("should return an empty role for a missing name", func() {
			got, err := roles.Read(ctx, "doesNotExist")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.IsEmpty()).To(BeTrue())
			Expect(got.Allows("view")).To(BeFalse())
		})

		It("should drop permissions that no longer resolve", func() {
			_, err := roles.Create(ctx, privilege.NewRole("editor", readContent, writeContent))
			Expect(err).NotTo(HaveOccurred())

			_, err = permissions.Delete(ctx, "write-content")
			Expect(err).NotTo(HaveOccurred())

			got, err := roles.Read(ctx, "editor")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name()).To(Equal("editor"))
			Expect(got.Permissions().Names()).To(Equal([]string{"read-content"}))
			Expect(got.Allows("edit")).To(BeFalse())
		})

		It("should list roles with their members", func() {
			_, err := roles.Create(ctx, privilege.NewRole("viewer", readContent))
			Expect(err).NotTo(HaveOccurred())
			_, err = roles.Create(ctx, privilege.NewRole("editor", readContent, writeContent))
			Expect(err).NotTo(HaveOccurred())

			all, err := roles.ReadAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
			Expect(all[0].Name()).To(Equal("editor"))
			Expect(all[0].Permissions().Len()).To(Equal(2))
			Expect(all[1].Name()).To(Equal("viewer"))
		})

		It("should refuse renames through update", func() {
			_, err := roles.Create(ctx, privilege.NewRole("editor", readContent))
			Expect(err).NotTo(HaveOccurred())

			ok, err := roles.Update(ctx, "editor", privilege.NewRole("writer", readContent))
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("should refuse members with invalid names", func() {
			ok, err := roles.Create(ctx, privilege.NewRole("editor", privilege.NewPermission("bad name")))
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())

			got, err := roles.Read(ctx, "editor")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.IsEmpty()).To(BeTrue())
		})
	})
})
