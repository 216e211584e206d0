package integration

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/hanieyo1407/official-voting-system-sub001/internal/adapters/gateway/electionapi"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/adapters/storage/memory"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/domain"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/services"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/devserver"
)

const testVoucher = "TEST-0001"

type testApp struct {
	Server   *httptest.Server
	Store    *memory.Store
	Guard    *services.LockoutService
	Auth     *services.AuthService
	Ballots  *services.BallotService
	Verify   *services.VerifyService
	requests atomic.Int64
}

func testCatalog() []domain.Position {
	return []domain.Position{
		{ID: 1, Name: "President", Candidates: []domain.Candidate{
			{ID: 10, Name: "Amara Obi"},
			{ID: 11, Name: "Liam Carter"},
		}},
		{ID: 2, Name: "Treasurer", Candidates: []domain.Candidate{
			{ID: 20, Name: "Maya Patel"},
		}},
	}
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()

	app := &testApp{}
	backend := devserver.New(testCatalog(), []string{testVoucher})
	handler := backend.Handler()
	app.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.requests.Add(1)
		handler.ServeHTTP(w, r)
	}))

	gateway := electionapi.New(app.Server.URL, nil)
	app.Store = memory.New()
	app.Guard = services.NewLockoutService(app.Store, nil, nil)
	app.Ballots = services.NewBallotService(gateway, app.Store, nil)
	app.Auth = services.NewAuthService(gateway, app.Guard, app.Ballots, nil)
	app.Verify = services.NewVerifyService(gateway, app.Guard, nil)
	return app
}

func (a *testApp) Teardown(t *testing.T) {
	t.Helper()
	a.Server.Close()
}

func (a *testApp) Requests() int64 {
	return a.requests.Load()
}
