package session_test

import (
	"context"
	"errors"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/session"
	pkgLogger "github.com/frahmantamala/access-control/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var _ = Describe("TokenProvider", func() {
	var (
		ctx      context.Context
		provider *session.TokenProvider
	)

	BeforeEach(func() {
		ctx = context.Background()
		provider = session.NewTokenProvider(testSecret, time.Hour, pkgLogger.Discard())
	})

	It("should resolve the username of an issued token", func() {
		token, err := provider.Issue(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())

		username, err := provider.CurrentUsername(internal.ContextWithSessionToken(ctx, token))
		Expect(err).NotTo(HaveOccurred())
		Expect(username).To(Equal("alice"))
	})

	It("should report no session without a token", func() {
		username, err := provider.CurrentUsername(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(username).To(BeEmpty())
	})

	It("should ignore tokens signed with another secret", func() {
		other := session.NewTokenProvider("ffffffffffffffffffffffffffffffff", time.Hour, pkgLogger.Discard())
		token, err := other.Issue(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())

		username, err := provider.CurrentUsername(internal.ContextWithSessionToken(ctx, token))
		Expect(err).NotTo(HaveOccurred())
		Expect(username).To(BeEmpty())

		_, err = provider.Parse(token)
		Expect(errors.Is(err, internal.ErrInvalidSession)).To(BeTrue())
	})

	It("should ignore expired tokens", func() {
		expired := session.NewTokenProvider(testSecret, -time.Minute, pkgLogger.Discard())
		token, err := expired.Issue(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())

		username, err := provider.CurrentUsername(internal.ContextWithSessionToken(ctx, token))
		Expect(err).NotTo(HaveOccurred())
		Expect(username).To(BeEmpty())
	})

	It("should ignore garbage", func() {
		username, err := provider.CurrentUsername(internal.ContextWithSessionToken(ctx, "not-a-token"))
		Expect(err).NotTo(HaveOccurred())
		Expect(username).To(BeEmpty())
	})

	It("should refuse to issue a token for nobody", func() {
		_, err := provider.Issue(ctx, "")
		Expect(err).To(MatchError(session.ErrEmptyUsername))
	})
})

var _ = Describe("RedisStore", func() {
	var (
		ctx    context.Context
		mr     *miniredis.Miniredis
		client *redis.Client
		store  *session.RedisStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(mr.Close)

		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		DeferCleanup(client.Close)

		store = session.NewRedisStore(client, time.Hour, pkgLogger.Discard())
	})

	It("should resolve an issued session", func() {
		id, err := store.Issue(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		Expect(mr.Exists("session:" + id)).To(BeTrue())

		username, err := store.CurrentUsername(internal.ContextWithSessionToken(ctx, id))
		Expect(err).NotTo(HaveOccurred())
		Expect(username).To(Equal("alice"))
	})

	It("should end a revoked session immediately", func() {
		id, err := store.Issue(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())

		Expect(store.Revoke(ctx, id)).To(Succeed())

		username, err := store.CurrentUsername(internal.ContextWithSessionToken(ctx, id))
		Expect(err).NotTo(HaveOccurred())
		Expect(username).To(BeEmpty())
	})

	It("should expire sessions after the ttl", func() {
		id, err := store.Issue(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())

		mr.FastForward(2 * time.Hour)

		username, err := store.CurrentUsername(internal.ContextWithSessionToken(ctx, id))
		Expect(err).NotTo(HaveOccurred())
		Expect(username).To(BeEmpty())
	})

	It("should report no session for unknown or malformed ids", func() {
		username, err := store.CurrentUsername(internal.ContextWithSessionToken(ctx, "1b4e28ba-2fa1-11d2-883f-0016d3cca427"))
		Expect(err).NotTo(HaveOccurred())
		Expect(username).To(BeEmpty())

		username, err = store.CurrentUsername(internal.ContextWithSessionToken(ctx, "../../etc"))
		Expect(err).NotTo(HaveOccurred())
		Expect(username).To(BeEmpty())
	})

	It("should surface an unreachable redis as store unavailable", func() {
		id, err := store.Issue(ctx, "alice")
		Expect(err).NotTo(HaveOccurred())
		mr.Close()

		_, err = store.CurrentUsername(internal.ContextWithSessionToken(ctx, id))
		Expect(errors.Is(err, internal.ErrStoreUnavailable)).To(BeTrue())
	})
})
