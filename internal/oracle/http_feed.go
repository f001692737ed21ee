package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/unwindlabs/tranchegate/internal/pkg/apperrors"
)

// feedResponse matches the Hermes-style price endpoint: mantissa and exponent
// as strings plus a publish timestamp.
type feedResponse struct {
	Price struct {
		Price       string `json:"price"`
		Expo        int32  `json:"expo"`
		PublishTime int64  `json:"publish_time"`
	} `json:"price"`
}

// HTTPFeed polls a JSON price endpoint and rejects stale readings.
type HTTPFeed struct {
	url        string
	staleAfter time.Duration
	httpClient *http.Client
	now        func() time.Time
}

func NewHTTPFeed(url string, timeout time.Duration, staleAfter time.Duration) *HTTPFeed {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPFeed{
		url:        url,
		staleAfter: staleAfter,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

func (f *HTTPFeed) Price(ctx context.Context) (Price, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return Price{}, apperrors.New(apperrors.ErrBadOracle, "building feed request", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Price{}, apperrors.New(apperrors.ErrBadOracle, "price feed unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Price{}, apperrors.Newf(apperrors.ErrBadOracle, "price feed returned %d", resp.StatusCode)
	}

	var body feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Price{}, apperrors.New(apperrors.ErrBadOracle, "decoding price feed", err)
	}

	mantissa, err := strconv.ParseInt(body.Price.Price, 10, 64)
	if err != nil {
		return Price{}, apperrors.New(apperrors.ErrBadOracle, fmt.Sprintf("bad mantissa %q", body.Price.Price), err)
	}

	p := Price{
		Mantissa:    mantissa,
		Expo:        body.Price.Expo,
		PublishTime: body.Price.PublishTime,
	}

	if f.staleAfter > 0 {
		age := f.now().Unix() - p.PublishTime
		if age > int64(f.staleAfter.Seconds()) {
			return Price{}, apperrors.Newf(apperrors.ErrBadOracle, "price feed stale (%ds old)", age)
		}
	}

	return p, nil
}
