package avatax

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"time"

	"github.com/shopforge/taxbridge/pkg/cache"
)

const (
	// requestCacheKeyPrefix keys cached (request, response) pairs by the
	// checkout token.
	requestCacheKeyPrefix = "avatax:request:"
	// taxCodesCacheKey holds the code -> description map fetched from
	// the tax code definitions endpoint.
	taxCodesCacheKey = "avatax:tax-codes"
)

// cachedTaxData is the (request, response) pair stored per checkout.
type cachedTaxData struct {
	Request  *RequestData `json:"request"`
	Response Payload      `json:"response"`
}

func requestCacheKey(token string) string {
	return requestCacheKeyPrefix + token
}

func cachedDataFor(
	ctx context.Context,
	c cache.Cache,
	token string,
) (*cachedTaxData, bool) {
	raw, err := c.Get(ctx, requestCacheKey(token))
	if err != nil {
		return nil, false
	}
	var cached cachedTaxData
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false
	}
	if cached.Request == nil {
		return nil, false
	}
	return &cached, true
}

// TaxesNeedNewFetch reports whether the tax service must be called again
// for this checkout: true when no response is cached under the token, or
// when the cached request payload differs from data.
func TaxesNeedNewFetch(
	ctx context.Context,
	c cache.Cache,
	data *RequestData,
	token string,
) bool {
	cached, ok := cachedDataFor(ctx, c, token)
	if !ok {
		return true
	}
	return !reflect.DeepEqual(cached.Request, data)
}

// GetCheckoutTaxData returns the tax service response for the checkout,
// from cache when the request payload is unchanged. Fresh successful
// responses are cached together with the request that produced them;
// failed responses are returned but never cached.
func GetCheckoutTaxData(
	ctx context.Context,
	c cache.Cache,
	client *Client,
	data *RequestData,
	token string,
	ttl time.Duration,
	logger *slog.Logger,
) Payload {
	if !TaxesNeedNewFetch(ctx, c, data, token) {
		cached, _ := cachedDataFor(ctx, c, token)
		logger.Debug("Using cached tax data", "token", token)
		return cached.Response
	}

	url := client.ResolveURL("transactions/createoradjust")
	response := client.PostRequest(ctx, url, data)
	if response.Empty() || response.HasError() {
		return response
	}

	raw, err := json.Marshal(cachedTaxData{Request: data, Response: response})
	if err != nil {
		logger.Warn("Failed to encode tax data for caching",
			"token", token, "error", err)
		return response
	}
	if err := c.Set(ctx, requestCacheKey(token), raw, ttl); err != nil {
		logger.Warn("Failed to cache tax data", "token", token, "error", err)
	}
	return response
}

// taxCodesResponse is the definitions/taxcodes response shape.
type taxCodesResponse struct {
	Value []struct {
		TaxCode     string `json:"taxCode"`
		Description string `json:"description"`
	} `json:"value"`
}

// GetCachedTaxCodesOrFetch returns the tax code definitions, fetching
// and caching them when absent. Fetch failures yield an empty map.
func GetCachedTaxCodesOrFetch(
	ctx context.Context,
	c cache.Cache,
	client *Client,
	ttl time.Duration,
	logger *slog.Logger,
) map[string]string {
	if raw, err := c.Get(ctx, taxCodesCacheKey); err == nil {
		var codes map[string]string
		if err := json.Unmarshal(raw, &codes); err == nil && len(codes) > 0 {
			return codes
		}
	}

	response := client.GetRequest(ctx, client.ResolveURL("definitions/taxcodes"))
	var decoded taxCodesResponse
	if err := response.Decode(&decoded); err != nil {
		logger.Warn("Failed to decode tax code definitions", "error", err)
		return map[string]string{}
	}

	codes := make(map[string]string, len(decoded.Value))
	for _, entry := range decoded.Value {
		codes[entry.TaxCode] = entry.Description
	}
	if len(codes) == 0 {
		return codes
	}

	raw, err := json.Marshal(codes)
	if err != nil {
		logger.Warn("Failed to encode tax codes for caching", "error", err)
		return codes
	}
	if err := c.Set(ctx, taxCodesCacheKey, raw, ttl); err != nil {
		logger.Warn("Failed to cache tax codes", "error", err)
	}
	return codes
}
