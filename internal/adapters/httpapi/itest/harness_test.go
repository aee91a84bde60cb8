package itest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/olivezebra/mensa-api/internal/adapters/httpapi"
	"github.com/olivezebra/mensa-api/internal/adapters/httpclient"
	memclock "github.com/olivezebra/mensa-api/internal/adapters/memory/clock"
	memgrouprepo "github.com/olivezebra/mensa-api/internal/adapters/memory/grouprepo"
	memmensarepo "github.com/olivezebra/mensa-api/internal/adapters/memory/mensarepo"
	memsessionrepo "github.com/olivezebra/mensa-api/internal/adapters/memory/sessionrepo"
	memuserrepo "github.com/olivezebra/mensa-api/internal/adapters/memory/userrepo"
	pggrouprepo "github.com/olivezebra/mensa-api/internal/adapters/postgres/grouprepo"
	pgmensarepo "github.com/olivezebra/mensa-api/internal/adapters/postgres/mensarepo"
	pgsessionrepo "github.com/olivezebra/mensa-api/internal/adapters/postgres/sessionrepo"
	postgres_testutil "github.com/olivezebra/mensa-api/internal/adapters/postgres/testutil"
	pguserrepo "github.com/olivezebra/mensa-api/internal/adapters/postgres/userrepo"
	redisadapter "github.com/olivezebra/mensa-api/internal/adapters/redis"
	rdgrouprepo "github.com/olivezebra/mensa-api/internal/adapters/redis/grouprepo"
	rdmensarepo "github.com/olivezebra/mensa-api/internal/adapters/redis/mensarepo"
	"github.com/olivezebra/mensa-api/internal/adapters/redis/redistest"
	rdsessionrepo "github.com/olivezebra/mensa-api/internal/adapters/redis/sessionrepo"
	rduserrepo "github.com/olivezebra/mensa-api/internal/adapters/redis/userrepo"
	"github.com/olivezebra/mensa-api/internal/app/groups"
	"github.com/olivezebra/mensa-api/internal/app/layout"
	"github.com/olivezebra/mensa-api/internal/app/mensas"
	"github.com/olivezebra/mensa-api/internal/app/users"
	"github.com/olivezebra/mensa-api/internal/platform/seed"
	"github.com/olivezebra/mensa-api/internal/ports/out/grouprepo"
	"github.com/olivezebra/mensa-api/internal/ports/out/mensarepo"
	"github.com/olivezebra/mensa-api/internal/ports/out/sessionrepo"
	"github.com/olivezebra/mensa-api/internal/ports/out/userrepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendRedis    backend = "redis"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory, backendRedis}
	case "redis":
		return []backend{backendRedis}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendRedis, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|redis|postgres|all)")
		return nil
	}
}

type storage struct {
	mensas   mensarepo.Repository
	groups   grouprepo.Repository
	users    userrepo.Repository
	sessions sessionrepo.Repository
	writers  seed.Stores
}

func newStorage(t *testing.T, b backend) storage {
	t.Helper()

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		m, g, u, s := pgmensarepo.NewRepo(pool), pggrouprepo.NewRepo(pool), pguserrepo.NewRepo(pool), pgsessionrepo.NewRepo(pool)
		return storage{m, g, u, s, seed.Stores{Mensas: m, Groups: g, Users: u, Sessions: s}}
	case backendRedis:
		client, _ := redistest.NewClient(t)
		keys := redisadapter.NewKeys("itest:")
		m, g, u, s := rdmensarepo.NewRepo(client, keys), rdgrouprepo.NewRepo(client, keys), rduserrepo.NewRepo(client, keys), rdsessionrepo.NewRepo(client, keys)
		return storage{m, g, u, s, seed.Stores{Mensas: m, Groups: g, Users: u, Sessions: s}}
	case backendMemory:
		m, g, u, s := memmensarepo.NewRepo(), memgrouprepo.NewRepo(), memuserrepo.NewRepo(), memsessionrepo.NewRepo()
		return storage{m, g, u, s, seed.Stores{Mensas: m, Groups: g, Users: u, Sessions: s}}
	default:
		t.Fatalf("unknown backend: %s", b)
		return storage{}
	}
}

type serverOptions struct {
	// render answers the renderer's POST /render.
	render          http.HandlerFunc
	renderTimeout   time.Duration
	breakerFailures int
	now             time.Time
}

type testServer struct {
	baseURL string
	client  *http.Client
}

func newTestServer(t *testing.T, b backend, fixtureYAML string, opts serverOptions) *testServer {
	t.Helper()

	st := newStorage(t, b)
	f, err := seed.Parse(strings.NewReader(fixtureYAML))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	if _, err := seed.Apply(context.Background(), f, st.writers); err != nil {
		t.Fatalf("apply fixture: %v", err)
	}

	render := opts.render
	if render == nil {
		render = func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/svg+xml")
			_, _ = io.WriteString(w, "<svg/>")
		}
	}
	renderer := httptest.NewServer(render)
	t.Cleanup(renderer.Close)

	outbound := httpclient.New(httpclient.Options{
		Name:    "layout-" + string(b),
		Breaker: httpclient.BreakerSettings{ConsecutiveFailures: opts.breakerFailures, Cooldown: time.Minute},
	})
	proxy := layout.NewProxy(outbound, renderer.URL, nil)
	if opts.renderTimeout > 0 {
		proxy.Timeout = opts.renderTimeout
	}

	now := opts.now
	if now.IsZero() {
		now = time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	}

	api := httpapi.NewServer(
		mensas.NewService(st.mensas, proxy),
		groups.NewService(st.groups, st.sessions, memclock.NewManualClock(now)),
		users.NewService(st.users),
		nil,
	)

	// Integration tests use the dev auth middleware to stay fully local and deterministic.
	// We pass empty default subject to ensure requests MUST provide X-Debug-Subject, allowing
	// auth-failure coverage.
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{AuthMiddleware: httpapi.NewDevAuthMiddleware("")})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) get(t *testing.T, path string, subject string) (int, []byte, http.Header) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, s.url(path), nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if subject != "" {
		req.Header.Set("X-Debug-Subject", subject)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestId string `json:"requestId"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("status=%d want=%d body=%s", status, wantStatus, string(body))
	}
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
	if got.Error.RequestId == "" {
		t.Fatalf("expected requestId in error body: %s", string(body))
	}
}
