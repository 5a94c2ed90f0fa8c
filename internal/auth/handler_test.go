package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/contacthub/internal"
	. "github.com/frahmantamala/contacthub/internal/auth"
	authPostgres "github.com/frahmantamala/contacthub/internal/auth/postgres"
	"github.com/frahmantamala/contacthub/internal/testutil"
	"github.com/frahmantamala/contacthub/internal/transport"
	"github.com/frahmantamala/contacthub/pkg/logger"
)

var _ = ginkgo.Describe("Auth Handler", func() {
	var (
		handler *Handler
		rbac    *RBACAuthorization
		cookies *CookieManager
	)

	ginkgo.BeforeEach(func() {
		db, err := testutil.NewSQLiteDB()
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		hash, err := HashPassword("correct_password", bcrypt.MinCost)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		_, err = testutil.CreateUser(db, "user@example.com", internal.RoleUser, hash)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		lg := logger.LoggerWrapper()
		svc := NewService(authPostgres.NewRepository(db), &recordingAuditor{}, Config{
			BCryptCost: bcrypt.MinCost,
			SessionTTL: time.Hour,
		}, lg)
		cookies = NewCookieManager("contacthub_session", strings.Repeat("k", 32), true, time.Hour)
		handler = NewHandler(transport.NewBaseHandler(lg), svc, cookies)
		rbac = NewRBACAuthorization(NewPermissionChecker(), lg)
	})

	login := func() *http.Cookie {
		body, _ := json.Marshal(LoginDTO{Email: "user@example.com", Password: "correct_password"})
		rec := httptest.NewRecorder()
		handler.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body)))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		res := rec.Result()
		gomega.Expect(res.Cookies()).To(gomega.HaveLen(1))
		return res.Cookies()[0]
	}

	ginkgo.It("sets a host-only HttpOnly Lax cookie on login", func() {
		c := login()
		gomega.Expect(c.Name).To(gomega.Equal("contacthub_session"))
		gomega.Expect(c.HttpOnly).To(gomega.BeTrue())
		gomega.Expect(c.Secure).To(gomega.BeTrue())
		gomega.Expect(c.SameSite).To(gomega.Equal(http.SameSiteLaxMode))
		gomega.Expect(c.Path).To(gomega.Equal("/"))
		gomega.Expect(c.Domain).To(gomega.BeEmpty())
	})

	ginkgo.It("returns 401 for bad credentials", func() {
		body := `{"email":"user@example.com","password":"nope"}`
		rec := httptest.NewRecorder()
		handler.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring(string(internal.ErrCodeInvalidCredentials)))
		gomega.Expect(rec.Result().Cookies()).To(gomega.BeEmpty())
	})

	ginkgo.It("authenticates requests carrying the cookie", func() {
		c := login()
		protected := handler.Authenticate(http.HandlerFunc(handler.CurrentUser))

		req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
		req.AddCookie(c)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

		var resp struct {
			User internal.User `json:"user"`
		}
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(gomega.Succeed())
		gomega.Expect(resp.User.Email).To(gomega.Equal("user@example.com"))
	})

	ginkgo.It("rejects missing and tampered cookies", func() {
		protected := handler.Authenticate(http.HandlerFunc(handler.CurrentUser))

		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/user", nil))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))

		c := login()
		c.Value = c.Value + "x"
		req := httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
		req.AddCookie(c)
		rec = httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("clears the cookie on logout", func() {
		c := login()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
		req.AddCookie(c)
		rec := httptest.NewRecorder()
		handler.Logout(rec, req)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
		gomega.Expect(rec.Result().Cookies()[0].MaxAge).To(gomega.BeNumerically("<", 0))

		protected := handler.Authenticate(http.HandlerFunc(handler.CurrentUser))
		req = httptest.NewRequest(http.MethodGet, "/api/auth/user", nil)
		req.AddCookie(c)
		rec = httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.Describe("RBAC", func() {
		ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

		serve := func(user *internal.User, capability Capability) int {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if user != nil {
				req = req.WithContext(internal.ContextWithUser(context.Background(), user))
			}
			rec := httptest.NewRecorder()
			rbac.Require(capability)(ok).ServeHTTP(rec, req)
			return rec.Code
		}

		ginkgo.It("answers 401 without a principal", func() {
			gomega.Expect(serve(nil, CapManageUsers)).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("answers 403 for an insufficient role", func() {
			gomega.Expect(serve(testutil.Principal(1, internal.RoleUser), CapManageUsers)).To(gomega.Equal(http.StatusForbidden))
			gomega.Expect(serve(testutil.Principal(1, internal.RoleExco), CapUploadFiles)).To(gomega.Equal(http.StatusForbidden))
		})

		ginkgo.It("passes granted roles through", func() {
			gomega.Expect(serve(testutil.Principal(1, internal.RoleUploader), CapUploadFiles)).To(gomega.Equal(http.StatusOK))
			gomega.Expect(serve(testutil.Principal(1, internal.RoleExco), CapViewCompanyStats)).To(gomega.Equal(http.StatusOK))
		})
	})
})
