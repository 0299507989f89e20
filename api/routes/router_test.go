package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dcervantes/equiplend-backend/internal/auth"
	equipmentsvc "github.com/dcervantes/equiplend-backend/internal/equipment"
	requestsvc "github.com/dcervantes/equiplend-backend/internal/requests"
	"github.com/dcervantes/equiplend-backend/internal/users"
	pkgAuth "github.com/dcervantes/equiplend-backend/pkg/auth"
	"github.com/dcervantes/equiplend-backend/pkg/auth/session"
	"github.com/dcervantes/equiplend-backend/pkg/config"
	"github.com/dcervantes/equiplend-backend/pkg/db/models"
	"github.com/dcervantes/equiplend-backend/pkg/enums"
	"github.com/dcervantes/equiplend-backend/pkg/logger"
	"github.com/dcervantes/equiplend-backend/pkg/pagination"
	"github.com/dcervantes/equiplend-backend/pkg/redis"
	"github.com/google/uuid"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{}, nil
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error { return nil }

func (stubAuthService) Profile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{ID: userID}, nil
}

type stubEquipmentService struct{}

func (stubEquipmentService) Create(ctx context.Context, input equipmentsvc.CreateInput) (*models.Equipment, error) {
	return &models.Equipment{}, nil
}

func (stubEquipmentService) Update(ctx context.Context, id uuid.UUID, input equipmentsvc.UpdateInput) (*models.Equipment, error) {
	return &models.Equipment{ID: id}, nil
}

func (stubEquipmentService) Delete(ctx context.Context, id, actorID uuid.UUID) error { return nil }

func (stubEquipmentService) Get(ctx context.Context, id uuid.UUID) (*models.Equipment, error) {
	return &models.Equipment{ID: id}, nil
}

func (stubEquipmentService) List(ctx context.Context, params pagination.Params) (*equipmentsvc.ListResult, error) {
	return &equipmentsvc.ListResult{}, nil
}

func (stubEquipmentService) GetAvailability(ctx context.Context, id uuid.UUID) (*equipmentsvc.Availability, error) {
	return &equipmentsvc.Availability{EquipmentID: id}, nil
}

type stubRequestService struct{}

func (stubRequestService) Create(ctx context.Context, input requestsvc.CreateInput) (*models.Request, error) {
	return &models.Request{}, nil
}

func (stubRequestService) Transition(ctx context.Context, input requestsvc.TransitionInput) (*models.Request, error) {
	return &models.Request{ID: input.RequestID, Status: input.Target}, nil
}

func (stubRequestService) Get(ctx context.Context, id, actorID uuid.UUID, actorRole enums.UserRole) (*requestsvc.Detail, error) {
	return &requestsvc.Detail{}, nil
}

func (stubRequestService) List(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, status *enums.RequestStatus) ([]models.Request, error) {
	return nil, nil
}

func (stubRequestService) ListPending(ctx context.Context) ([]models.Request, error) {
	return nil, nil
}

func (stubRequestService) MarkOverdue(ctx context.Context, asOf time.Time, limit int) (int, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "equiplend",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubSessionChecker{},
		stubAuthService{},
		stubEquipmentService{},
		stubRequestService{},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func jsonBody(body string) io.Reader {
	return strings.NewReader(body)
}

func TestHealthEndpointsArePublic(t *testing.T) {
	router := newTestRouter(testConfig())
	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestEquipmentRequiresJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/equipment", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestEquipmentListAllowsAnyRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/equipment", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStudent))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for student list got %d", resp.Code)
	}
}

func TestEquipmentWriteRequiresAdmin(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	body := `{"name":"Projector","category":"av","total_quantity":3}`

	student := httptest.NewRequest(http.MethodPost, "/api/equipment", jsonBody(body))
	student.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStudent))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, student)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for student create got %d", resp.Code)
	}

	staff := httptest.NewRequest(http.MethodPost, "/api/equipment", jsonBody(body))
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStaff))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff create got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodPost, "/api/equipment", jsonBody(body))
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for admin create got %d", resp.Code)
	}
}

func TestPendingQueueRequiresPrivilegedRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	student := httptest.NewRequest(http.MethodGet, "/api/requests/pending", nil)
	student.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStudent))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, student)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for student pending view got %d", resp.Code)
	}

	staff := httptest.NewRequest(http.MethodGet, "/api/requests/pending", nil)
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStaff))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for staff pending view got %d", resp.Code)
	}
}

func TestApproveConvenienceRouteRequiresPrivilegedRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	path := "/api/requests/" + uuid.NewString() + "/approve"

	student := httptest.NewRequest(http.MethodPut, path, nil)
	student.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStudent))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, student)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for student approve got %d", resp.Code)
	}

	staff := httptest.NewRequest(http.MethodPut, path, nil)
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStaff))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for staff approve got %d", resp.Code)
	}
}

func TestReturnConvenienceRouteAllowsStudent(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	path := "/api/requests/" + uuid.NewString() + "/return"

	// no role gate here, the service checks ownership
	student := httptest.NewRequest(http.MethodPut, path, nil)
	student.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStudent))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, student)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for student return got %d", resp.Code)
	}
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
}
