package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unwindlabs/tranchegate/internal/engine"
	"github.com/unwindlabs/tranchegate/internal/middleware"
	"github.com/unwindlabs/tranchegate/internal/model"
	"github.com/unwindlabs/tranchegate/internal/repository"
	"github.com/unwindlabs/tranchegate/internal/vault"
)

type manualClock struct{ now int64 }

func (c *manualClock) Now() int64 { return c.now }

type testGateway struct {
	router *gin.Engine
	bank   *vault.Bank
	clock  *manualClock
}

func setupGateway(t *testing.T) *testGateway {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bank := vault.NewBank()
	store := repository.NewMemoryStore()
	clock := &manualClock{now: time.Now().Unix()}

	eng, err := engine.New(bank, engine.Options{Orders: store, Policy: store, Clock: clock})
	require.NoError(t, err)

	orderHandler := NewOrderHandler(eng)
	policyHandler := NewPolicyHandler(eng, model.DefaultTrancheInterval, model.DefaultMaxTxPercentBP)

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	v1 := r.Group("/v1")
	{
		v1.POST("/config/init", policyHandler.Init)
		v1.GET("/config", policyHandler.Get)
		v1.POST("/orders", orderHandler.Submit)
		v1.GET("/orders", orderHandler.List)
		v1.GET("/orders/:id", orderHandler.Get)
		v1.POST("/orders/:id/execute", orderHandler.Execute)
	}

	return &testGateway{router: r, bank: bank, clock: clock}
}

func (g *testGateway) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	g.router.ServeHTTP(w, req)
	return w
}

func (g *testGateway) initPolicy(t *testing.T) {
	w := g.do(t, http.MethodPost, "/v1/config/init", model.InitConfigRequest{Owner: "owner"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestSubmitAndExecuteOverHTTP(t *testing.T) {
	g := setupGateway(t)
	g.initPolicy(t)
	require.NoError(t, g.bank.Deposit(engine.AssetAccount("alice"), "alice", 1_000))
	require.NoError(t, g.bank.Deposit("vault:anchor", engine.MechanismIdentity, 500))

	w := g.do(t, http.MethodPost, "/v1/orders", model.SubmitOrderRequest{
		Seller: "alice", TotalAmount: 1_000, TrancheAmount: 340,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order model.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, uint64(1_000), order.Remaining)
	assert.True(t, order.Active)

	w = g.do(t, http.MethodPost, "/v1/orders/"+order.ID+"/execute", model.ExecuteTrancheRequest{
		Keeper: "keeper-1", ExpectedAnchorOut: 100,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp model.ExecuteTrancheResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint64(340), resp.Released)
	assert.Equal(t, uint64(34), resp.Reward)
	assert.Equal(t, uint64(660), resp.Remaining)
}

func TestExecuteErrorMapping(t *testing.T) {
	g := setupGateway(t)
	g.initPolicy(t)
	require.NoError(t, g.bank.Deposit(engine.AssetAccount("alice"), "alice", 100))

	w := g.do(t, http.MethodPost, "/v1/orders", model.SubmitOrderRequest{
		Seller: "alice", TotalAmount: 100, TrancheAmount: 100,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var order model.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))

	// Empty reserve: payout cannot be covered.
	w = g.do(t, http.MethodPost, "/v1/orders/"+order.ID+"/execute", model.ExecuteTrancheRequest{
		Keeper: "keeper-1", ExpectedAnchorOut: 50,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INSUFFICIENT_ANCHOR")

	// Zero payout is allowed; this completes the order.
	w = g.do(t, http.MethodPost, "/v1/orders/"+order.ID+"/execute", model.ExecuteTrancheRequest{
		Keeper: "keeper-1", ExpectedAnchorOut: 0,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Completed order is inactive.
	g.clock.now += 90_000
	w = g.do(t, http.MethodPost, "/v1/orders/"+order.ID+"/execute", model.ExecuteTrancheRequest{
		Keeper: "keeper-1", ExpectedAnchorOut: 0,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ORDER_INACTIVE")
}

func TestTrancheNotReadyMapsTo425(t *testing.T) {
	g := setupGateway(t)
	g.initPolicy(t)
	require.NoError(t, g.bank.Deposit(engine.AssetAccount("alice"), "alice", 200))

	w := g.do(t, http.MethodPost, "/v1/orders", model.SubmitOrderRequest{
		Seller: "alice", TotalAmount: 200, TrancheAmount: 100,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var order model.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))

	w = g.do(t, http.MethodPost, "/v1/orders/"+order.ID+"/execute", model.ExecuteTrancheRequest{Keeper: "k"})
	require.Equal(t, http.StatusOK, w.Code)

	w = g.do(t, http.MethodPost, "/v1/orders/"+order.ID+"/execute", model.ExecuteTrancheRequest{Keeper: "k"})
	assert.Equal(t, http.StatusTooEarly, w.Code)
	assert.Contains(t, w.Body.String(), "TRANCHE_NOT_READY")
}

func TestUnknownOrderIs404(t *testing.T) {
	g := setupGateway(t)
	g.initPolicy(t)

	w := g.do(t, http.MethodPost, "/v1/orders/missing/execute", model.ExecuteTrancheRequest{Keeper: "k"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = g.do(t, http.MethodGet, "/v1/orders/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfigInitConflict(t *testing.T) {
	g := setupGateway(t)
	g.initPolicy(t)

	w := g.do(t, http.MethodPost, "/v1/config/init", model.InitConfigRequest{Owner: "intruder"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = g.do(t, http.MethodGet, "/v1/config", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pol model.PolicyConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pol))
	assert.Equal(t, "owner", pol.Owner)
	assert.Equal(t, model.DefaultTrancheInterval, pol.TrancheInterval)
}
