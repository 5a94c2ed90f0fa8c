package middleware_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/frahmantamala/contacthub/internal"
	"github.com/frahmantamala/contacthub/internal/transport/middleware"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

var _ = Describe("RequestID", func() {
	It("echoes an inbound id", func() {
		h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		Expect(rec.Header().Get(middleware.RequestIDHeader)).To(Equal("abc-123"))
	})

	It("mints an id when none is sent", func() {
		h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Header().Get(middleware.RequestIDHeader)).To(HaveLen(36))
	})
})

var _ = Describe("RequestInfo", func() {
	var captured internal.RequestInfo
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = internal.RequestInfoFromContext(r.Context())
	})

	newRequest := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.9:5123"
		req.Header.Set("User-Agent", "ginkgo")
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		return req
	}

	It("uses the socket address by default", func() {
		middleware.RequestInfo(false)(next).ServeHTTP(httptest.NewRecorder(), newRequest())
		Expect(captured.IPAddress).To(Equal("10.0.0.9"))
		Expect(captured.UserAgent).To(Equal("ginkgo"))
	})

	It("takes the first forwarded address behind a trusted proxy", func() {
		middleware.RequestInfo(true)(next).ServeHTTP(httptest.NewRecorder(), newRequest())
		Expect(captured.IPAddress).To(Equal("203.0.113.7"))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("answers with the internal error envelope", func() {
		h := middleware.RecoveryMiddleware(quiet)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		var body map[string]map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["error"]["code"]).To(Equal("INTERNAL_ERROR"))
		Expect(rec.Body.String()).NotTo(ContainSubstring("boom"))
	})
})

var _ = Describe("RateLimit", func() {
	It("rejects requests over the rate with 429", func() {
		mw, err := middleware.RateLimit("2-M", false, quiet)
		Expect(err).NotTo(HaveOccurred())
		h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		codes := make([]int, 0, 3)
		for range 3 {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			req.RemoteAddr = "192.0.2.1:4000"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
		}
		Expect(codes).To(Equal([]int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}))
	})

	It("rejects a malformed rate", func() {
		_, err := middleware.RateLimit("ten per minute", false, quiet)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("LoggingMiddleware", func() {
	It("leaves the request body readable for the handler", func() {
		var got string
		h := middleware.LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			got = string(b)
		}))
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","password":"secret"}`))
		req.Header.Set("Content-Type", "application/json")
		h.ServeHTTP(httptest.NewRecorder(), req)
		Expect(got).To(Equal(`{"email":"a@b.co","password":"secret"}`))
	})
})

var _ = Describe("HTTPMetrics", func() {
	It("counts requests by status", func() {
		reg := prometheus.NewRegistry()
		m := middleware.NewHTTPMetrics(reg)
		h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		n, err := promtest.GatherAndCount(reg, "contacthub_http_requests_total")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
	})
})
