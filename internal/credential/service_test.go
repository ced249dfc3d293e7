package credential_test

import (
	"context"
	"errors"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/credential"
	credentialPostgres "github.com/frahmantamala/access-control/internal/credential/postgres"
	"github.com/frahmantamala/access-control/internal/privilege"
	"github.com/frahmantamala/access-control/internal/user"
	pkgLogger "github.com/frahmantamala/access-control/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

// countingHasher records how many comparisons ran.
type countingHasher struct {
	credential.BcryptHasher
	compares int
}

func (h *countingHasher) Compare(hash, secret string) bool {
	h.compares++
	return h.BcryptHasher.Compare(hash, secret)
}

var _ = Describe("Credential", func() {
	var (
		ctx     context.Context
		store   *credentialPostgres.CredentialStore
		hasher  *countingHasher
		service *credential.Service
		alice   user.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		db := openTestDB()
		lg := pkgLogger.Discard()

		store = credentialPostgres.NewCredentialStore(db, lg)
		ok, err := store.EnsureTableExists(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		hasher = &countingHasher{BcryptHasher: credential.NewBcryptHasher(bcrypt.MinCost)}
		service = credential.NewService(store, hasher, lg)
		alice = user.New("alice", nil, nil)
	})

	Describe("New", func() {
		It("should never keep the plaintext or the raw id", func() {
			c, err := credential.New(alice, "correct", hasher)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.PasswordHash()).NotTo(Equal("correct"))
			Expect(c.PasswordHash()).NotTo(ContainSubstring("correct"))
			Expect(c.UserIDHash()).NotTo(Equal(alice.ID()))
			Expect(c.OwnerUserName()).To(Equal("alice"))
		})

		It("should refuse an empty password or user", func() {
			_, err := credential.New(alice, "", hasher)
			Expect(err).To(MatchError(credential.ErrEmptyPassword))

			_, err = credential.New(user.User{}, "correct", hasher)
			Expect(err).To(MatchError(credential.ErrEmptyUser))
		})

		It("should fall back to the default cost for out of range costs", func() {
			Expect(credential.NewBcryptHasher(1).Cost).To(Equal(bcrypt.DefaultCost))
			Expect(credential.NewBcryptHasher(99).Cost).To(Equal(bcrypt.DefaultCost))
		})
	})

	Describe("Verify", func() {
		BeforeEach(func() {
			_, err := service.CreateCredential(ctx, alice, "correct")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should accept the right password", func() {
			ok, err := service.Verify(ctx, alice, "correct")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("should reject a wrong password", func() {
			ok, err := service.Verify(ctx, alice, "wrong")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("should reject a recreated user holding the same name", func() {
			recreated := user.New("alice", nil, nil)

			ok, err := service.Verify(ctx, recreated, "correct")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("should run as many comparisons for unknown users as for a wrong password", func() {
			hasher.compares = 0
			_, err := service.Verify(ctx, alice, "wrong")
			Expect(err).NotTo(HaveOccurred())
			wrongPassword := hasher.compares

			hasher.compares = 0
			_, err = service.Verify(ctx, user.New("mallory", nil, nil), "wrong")
			Expect(err).NotTo(HaveOccurred())
			unknownUser := hasher.compares

			hasher.compares = 0
			_, err = service.Verify(ctx, user.User{}, "wrong")
			Expect(err).NotTo(HaveOccurred())
			emptyUser := hasher.compares

			Expect(wrongPassword).To(Equal(2))
			Expect(unknownUser).To(Equal(wrongPassword))
			Expect(emptyUser).To(Equal(wrongPassword))
		})

		It("should reject the empty user", func() {
			ok, err := service.Verify(ctx, user.User{}, "correct")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("should store only hashes", func() {
			c, err := store.Read(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.IsEmpty()).To(BeFalse())
			Expect(c.PasswordHash()).NotTo(Equal("correct"))
			Expect(c.UserIDHash()).NotTo(Equal(alice.ID()))
		})
	})

	Describe("Replace", func() {
		It("should swap the password", func() {
			original, err := service.CreateCredential(ctx, alice, "correct")
			Expect(err).NotTo(HaveOccurred())

			replaced, err := service.Replace(ctx, alice, "changed")
			Expect(err).NotTo(HaveOccurred())
			Expect(replaced.PasswordHash()).NotTo(Equal(original.PasswordHash()))

			ok, _ := service.Verify(ctx, alice, "correct")
			Expect(ok).To(BeFalse())
			ok, _ = service.Verify(ctx, alice, "changed")
			Expect(ok).To(BeTrue())
		})

		It("should create a credential when none exists", func() {
			_, err := service.Replace(ctx, alice, "fresh")
			Expect(err).NotTo(HaveOccurred())

			ok, _ := service.Verify(ctx, alice, "fresh")
			Expect(ok).To(BeTrue())
		})
	})

	Describe("CredentialStore", func() {
		It("should return the empty credential for a missing owner", func() {
			c, err := store.Read(ctx, "doesNotExist")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.IsEmpty()).To(BeTrue())
		})

		It("should reject a second credential for the same owner", func() {
			_, err := service.CreateCredential(ctx, alice, "correct")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateCredential(ctx, alice, "again")
			Expect(errors.Is(err, internal.ErrAlreadyExists)).To(BeTrue())
		})

		It("should refuse to move a credential to another owner", func() {
			c, err := service.CreateCredential(ctx, alice, "correct")
			Expect(err).NotTo(HaveOccurred())

			ok, err := store.Update(ctx, "bob", c)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("should list and delete credentials", func() {
			_, err := service.CreateCredential(ctx, alice, "correct")
			Expect(err).NotTo(HaveOccurred())

			all, err := store.ReadAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))

			ok, err := service.Remove(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			c, err := store.Read(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.IsEmpty()).To(BeTrue())
		})
	})

	Describe("Hydrator", func() {
		It("should discard columns beyond the declared attributes", func() {
			row := privilege.Row{
				"password_hash":   "h1",
				"user_id_hash":    "h2",
				"owner_user_name": "alice",
				"plaintext":       "correct",
			}

			c := credential.Hydrator.Hydrate(row, credential.Columns...)
			Expect(c.OwnerUserName()).To(Equal("alice"))
			Expect(credential.Hydrator.Discarded(row, credential.Columns...)).To(Equal([]string{"plaintext"}))
		})

		It("should yield the empty credential for incomplete rows", func() {
			c := credential.Hydrator.Hydrate(privilege.Row{"owner_user_name": "alice"})
			Expect(c.IsEmpty()).To(BeTrue())
		})
	})
})
