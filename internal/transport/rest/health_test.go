package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/role-permission-api/internal/transport"
	"github.com/frahmantamala/role-permission-api/internal/transport/rest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubPinger struct {
	err error
}

func (s stubPinger) PingContext(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("ping without deadline")
	}
	return s.err
}

var _ = Describe("HealthHandler", func() {
	var base *transport.BaseHandler

	BeforeEach(func() {
		base = &transport.BaseHandler{Logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))}
	})

	decode := func(w *httptest.ResponseRecorder) (transport.Meta, rest.HealthResponse) {
		var env struct {
			Meta   transport.Meta      `json:"meta"`
			Result rest.HealthResponse `json:"result"`
		}
		Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
		return env.Meta, env.Result
	}

	It("should report a healthy database", func() {
		w := httptest.NewRecorder()
		rest.NewHealthHandler(base, stubPinger{}).HealthCheck(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		meta, result := decode(w)
		Expect(meta.Message).To(Equal("Service healthy."))
		Expect(result.Status).To(Equal(rest.HealthHealthy))
		Expect(result.Components).To(HaveKey("database"))
	})

	It("should report an unreachable database as unavailable", func() {
		w := httptest.NewRecorder()
		rest.NewHealthHandler(base, stubPinger{err: errors.New("connection refused")}).
			HealthCheck(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		meta, result := decode(w)
		Expect(meta.Success).To(BeFalse())
		Expect(result.Status).To(Equal(rest.HealthUnhealthy))
		Expect(result.Components["database"].Message).To(Equal("connection refused"))
	})

	It("should answer ping without touching the database", func() {
		w := httptest.NewRecorder()
		rest.NewHealthHandler(base, stubPinger{err: errors.New("down")}).Ping(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
	})
})
