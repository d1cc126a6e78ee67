package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	adapthttp "github.com/jsamuelsen11/healthgate/internal/adapters/http"
	"github.com/jsamuelsen11/healthgate/internal/adapters/http/handlers"
	"github.com/jsamuelsen11/healthgate/internal/adapters/http/middleware"
	"github.com/jsamuelsen11/healthgate/internal/domain"
)

type staticState struct {
	snaps []domain.Snapshot
}

func (s *staticState) Snapshots() []domain.Snapshot { return s.snaps }
func (s *staticState) Ready() bool                  { return domain.Ready(s.snaps) }

func newTestRouter(snaps []domain.Snapshot) http.Handler {
	h := handlers.NewHealthHandler(&staticState{snaps: snaps})
	return adapthttp.NewRouter(h,
		middleware.Recovery(discardLogger()),
		middleware.RequestID(),
	)
}

func TestRouter_Routes(t *testing.T) {
	t.Parallel()

	failing := domain.Snapshot{
		Name:             "backend-api",
		Status:           domain.StatusUnhealthy,
		AffectsReadiness: true,
		Passing:          false,
	}
	router := newTestRouter([]domain.Snapshot{failing})

	tests := []struct {
		path     string
		wantCode int
	}{
		{"/health/live", http.StatusOK},
		{"/health/ready", http.StatusServiceUnavailable},
		{"/health/checks", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

		if rec.Code != tt.wantCode {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.wantCode)
		}
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	t.Parallel()

	router := newTestRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing, want middleware chain applied")
	}
}
