// Keeper daemon: polls the gateway for orders whose interval gate has
// elapsed and triggers tranche executions, quoting the counter-asset payout
// at a configured anchor-per-unit rate.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unwindlabs/tranchegate/internal/model"
	"github.com/unwindlabs/tranchegate/internal/pkg/logger"
)

type keeperConfig struct {
	gatewayURL    string
	keeperID      string
	anchorPerUnit decimal.Decimal
	pollInterval  time.Duration
}

func main() {
	var (
		gatewayURL = flag.String("gateway", envOr("TRANCHEGATE_KEEPER_GATEWAY", "http://localhost:8080"), "gateway base URL")
		keeperID   = flag.String("keeper", envOr("TRANCHEGATE_KEEPER_ID", "keeper-1"), "keeper identity")
		rateStr    = flag.String("anchor-per-unit", envOr("TRANCHEGATE_KEEPER_RATE", "1"), "counter-asset quote per unit of tranche")
		pollSec    = flag.Int("poll-seconds", 30, "poll interval in seconds")
		logLevel   = flag.String("log-level", "info", "log level")
	)
	flag.Parse()
	logger.Init(*logLevel, "")

	rate, err := decimal.NewFromString(*rateStr)
	if err != nil {
		logger.Error("bad anchor-per-unit rate", "rate", *rateStr, "error", err)
		os.Exit(1)
	}

	cfg := keeperConfig{
		gatewayURL:    *gatewayURL,
		keeperID:      *keeperID,
		anchorPerUnit: rate,
		pollInterval:  time.Duration(*pollSec) * time.Second,
	}

	client := &http.Client{Timeout: 10 * time.Second}
	ticker := time.NewTicker(cfg.pollInterval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("keeper started", "gateway", cfg.gatewayURL, "keeper", cfg.keeperID, "rate", rate.String())
	runOnce(client, cfg)
	for {
		select {
		case <-ticker.C:
			runOnce(client, cfg)
		case <-quit:
			logger.Info("keeper exiting")
			return
		}
	}
}

func runOnce(client *http.Client, cfg keeperConfig) {
	orders, err := fetchReadyOrders(client, cfg)
	if err != nil {
		logger.Warn("listing ready orders failed", "error", err)
		return
	}
	for _, o := range orders {
		if err := execute(client, cfg, o); err != nil {
			logger.Warn("tranche execution failed", "order_id", o.ID, "error", err)
		}
	}
}

func fetchReadyOrders(client *http.Client, cfg keeperConfig) ([]*model.Order, error) {
	resp, err := client.Get(cfg.gatewayURL + "/v1/orders?ready=1")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned %d", resp.StatusCode)
	}
	var body struct {
		Orders []*model.Order `json:"orders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Orders, nil
}

func execute(client *http.Client, cfg keeperConfig, o *model.Order) error {
	effective := o.EffectiveTranche()
	quote := cfg.anchorPerUnit.Mul(decimal.NewFromUint64(effective))

	req := model.ExecuteTrancheRequest{
		Keeper:            cfg.keeperID,
		ExpectedAnchorOut: uint64(quote.IntPart()),
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	resp, err := client.Post(cfg.gatewayURL+"/v1/orders/"+o.ID+"/execute", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return fmt.Errorf("gateway returned %d (%s: %s)", resp.StatusCode, errBody.Code, errBody.Message)
	}

	var out model.ExecuteTrancheResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	logger.Info("tranche executed",
		"order_id", out.OrderID, "released", out.Released,
		"reward", out.Reward, "remaining", out.Remaining)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
