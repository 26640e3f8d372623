// Package api provides types and functions to interact with the Romanian
// price monitor service (monitorulpreturilor.info), resolve administrative
// units by name and search fuel stations by coordinate or by unit.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://monitorulpreturilor.info/pmonsvc"
	DefaultTimeout = 30 * time.Second

	// MetersPerKm converts the search radius to the buffer unit the service expects.
	MetersPerKm = 1000

	orderByDistance = "dist"
	maxErrorBody    = 512
)

// Endpoint names, also used as metric labels.
const (
	EndpointUATByName = "uat_by_name"
	EndpointByLatLon  = "gas_by_latlon"
	EndpointByUAT     = "gas_by_uat"
)

// TransportError is returned when the service answers with a non-success
// status, the request cannot be completed, or the payload is malformed.
type TransportError struct {
	Endpoint   string
	StatusCode int // zero when no response was received
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status code %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Observer is notified after every request. It may be nil.
type Observer func(endpoint string, d time.Duration, err error)

// PriceMonitorAPI is a client for the price monitor gas endpoints.
type PriceMonitorAPI struct {
	baseURL    string
	httpClient *http.Client
	observe    Observer
}

// Option configures a PriceMonitorAPI.
type Option func(*PriceMonitorAPI)

// WithBaseURL points the client at another service root.
func WithBaseURL(u string) Option {
	return func(a *PriceMonitorAPI) {
		a.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets the per request timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *PriceMonitorAPI) {
		a.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *PriceMonitorAPI) {
		a.httpClient = c
	}
}

// WithObserver registers a callback run after every request.
func WithObserver(o Observer) Option {
	return func(a *PriceMonitorAPI) {
		a.observe = o
	}
}

// NewPriceMonitorAPI creates a new client with default settings.
func NewPriceMonitorAPI(opts ...Option) *PriceMonitorAPI {
	a := &PriceMonitorAPI{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// UATByName looks up administrative units matching a town name. The service
// ranks items by relevance.
func (api *PriceMonitorAPI) UATByName(ctx context.Context, name string) (*UATList, error) {
	params := url.Values{}
	params.Set("uatname", name)

	var list UATList
	if err := api.get(ctx, EndpointUATByName, "/Gas/GetUATByName", params, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GasItemsByLatLon searches stations selling the given products within
// radiusKm of a coordinate. The radius is sent as a buffer in meters.
func (api *PriceMonitorAPI) GasItemsByLatLon(ctx context.Context, lat, lon float64, radiusKm int, productIDs ...string) (*GasItemList, error) {
	params := url.Values{}
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("buffer", strconv.Itoa(radiusKm*MetersPerKm))
	params.Set("CSVGasCatalogProductIds", strings.Join(productIDs, ","))
	params.Set("OrderBy", orderByDistance)

	return api.gasItems(ctx, EndpointByLatLon, "/Gas/GetGasItemsByLatLon", params)
}

// GasItemsByUAT searches stations selling the given products inside an
// administrative unit.
func (api *PriceMonitorAPI) GasItemsByUAT(ctx context.Context, uatID string, productIDs ...string) (*GasItemList, error) {
	params := url.Values{}
	params.Set("UatId", uatID)
	params.Set("CSVGasCatalogProductIds", strings.Join(productIDs, ","))
	params.Set("OrderBy", orderByDistance)

	return api.gasItems(ctx, EndpointByUAT, "/Gas/GetGasItemsByUat", params)
}

func (api *PriceMonitorAPI) gasItems(ctx context.Context, endpoint, path string, params url.Values) (*GasItemList, error) {
	var list GasItemList
	if err := api.get(ctx, endpoint, path, params, &list); err != nil {
		return nil, err
	}
	for i := range list.Stations {
		if _, _, ok := list.Stations[i].Coordinates(); !ok {
			return nil, &TransportError{
				Endpoint: endpoint,
				Message:  fmt.Sprintf("malformed payload: station %q has no location", list.Stations[i].ID),
			}
		}
	}
	return &list, nil
}

func (api *PriceMonitorAPI) get(ctx context.Context, endpoint, path string, params url.Values, out any) (err error) {
	if api.observe != nil {
		start := time.Now()
		defer func() {
			api.observe(endpoint, time.Since(start), err)
		}()
	}

	u := api.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Message: "error creating request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := api.httpClient.Do(req)
	if err != nil {
		return &TransportError{Endpoint: endpoint, Message: "error fetching data", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: msg}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: "error reading response body", Err: err}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: "error unmarshaling JSON", Err: err}
	}

	return nil
}
