package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"roomworks/channelsync/internal/constants"
	"roomworks/channelsync/internal/metrics"
	"roomworks/channelsync/internal/models/dtos"
	gormModels "roomworks/channelsync/internal/models/gorm"
	"roomworks/channelsync/internal/vault"

	"golang.org/x/time/rate"
)

// TokenSource resolves access tokens for connections. Satisfied by
// *vault.Vault; tests substitute a stub.
type TokenSource interface {
	GetAccessToken(ctx context.Context, conn *gormModels.ChannelConnection, tokenType string) (string, error)
	Refresh(ctx context.Context, conn *gormModels.ChannelConnection, tokenType string) (*vault.Token, error)
}

// CallMeta carries the rate-limit accounting parsed from response headers,
// recorded by the audit logger for every remote call.
type CallMeta struct {
	RequestCost     int
	CreditRemaining int
	CreditResetsIn  int
}

// Add folds another call's accounting into this one.
func (m *CallMeta) Add(other *CallMeta) {
	if other == nil {
		return
	}
	m.RequestCost += other.RequestCost
	m.CreditRemaining = other.CreditRemaining
	m.CreditResetsIn = other.CreditResetsIn
}

// RemoteResponse is a raw provider response plus its accounting.
type RemoteResponse struct {
	StatusCode int
	Body       []byte
	Meta       CallMeta
}

// Beds24Provider is the HTTP client for the Beds24 v2 API
type Beds24Provider struct {
	client     *http.Client
	baseURL    string
	tokens     TokenSource
	limiter    *rate.Limiter
	metricsReg *metrics.MetricsRegistry

	mu            sync.Mutex
	creditLeft    int
	creditResetAt time.Time
}

// NewBeds24Provider creates a new Beds24 API client. metricsReg may be nil.
func NewBeds24Provider(tokens TokenSource, metricsReg *metrics.MetricsRegistry) *Beds24Provider {
	baseURL := os.Getenv("BEDS24_API_URL")
	if baseURL == "" {
		baseURL = "https://api.beds24.com/v2"
	}
	return &Beds24Provider{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:    baseURL,
		tokens:     tokens,
		metricsReg: metricsReg,
		// Beds24 credits refill on a five-minute window; two requests per
		// second with a small burst keeps a sync run well inside it.
		limiter: rate.NewLimiter(rate.Limit(2), 5),
	}
}

// GetProviderType returns the provider type identifier
func (p *Beds24Provider) GetProviderType() string {
	return constants.ProviderBeds24
}

// Call executes one request against the remote API. A valid access token is
// resolved first; a 401 response triggers exactly one forced refresh and a
// single replay, never a loop.
func (p *Beds24Provider) Call(ctx context.Context, conn *gormModels.ChannelConnection, method, path string, query url.Values, body interface{}, tokenType string) (*RemoteResponse, error) {
	if err := p.checkCredit(); err != nil {
		return nil, err
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}

	token, err := p.tokens.GetAccessToken(ctx, conn, tokenType)
	if err != nil {
		return nil, err
	}

	resp, err := p.doRequest(ctx, method, path, query, body, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Stale token: force one refresh and replay once.
		tok, refreshErr := p.tokens.Refresh(ctx, conn, tokenType)
		if refreshErr != nil {
			return nil, refreshErr
		}
		resp, err = p.doRequest(ctx, method, path, query, body, tok.Value)
		if err != nil {
			return nil, err
		}
	}

	p.recordCredit(&resp.Meta)

	if err := p.classify(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (p *Beds24Provider) doRequest(ctx context.Context, method, path string, query url.Values, body interface{}, token string) (*RemoteResponse, error) {
	fullURL := p.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("token", token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}

	return &RemoteResponse{
		StatusCode: resp.StatusCode,
		Body:       raw,
		Meta:       parseRateHeaders(resp.Header),
	}, nil
}

// parseRateHeaders extracts Beds24 credit accounting from response headers.
func parseRateHeaders(h http.Header) CallMeta {
	meta := CallMeta{RequestCost: 1, CreditRemaining: -1}
	if v := h.Get("X-RequestCost"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			meta.RequestCost = n
		}
	}
	if v := h.Get("X-FiveMinCreditLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			meta.CreditRemaining = n
		}
	}
	if v := h.Get("X-FiveMinCreditLimit-ResetsIn"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			meta.CreditResetsIn = n
		}
	}
	return meta
}

// checkCredit refuses new calls while the remote credit budget is exhausted,
// instead of burning the last credits on calls that will be throttled.
func (p *Beds24Provider) checkCredit() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.creditLeft >= 0 && p.creditLeft < constants.CreditFloor && time.Now().Before(p.creditResetAt) {
		return &ProviderError{
			Code:    constants.ErrCodeRateLimited,
			Message: constants.GetErrorMessage(constants.ErrCodeRateLimited),
			Details: fmt.Sprintf("credit remaining %d, resets at %s", p.creditLeft, p.creditResetAt.Format(time.RFC3339)),
		}
	}
	return nil
}

func (p *Beds24Provider) recordCredit(meta *CallMeta) {
	if p.metricsReg != nil && meta.RequestCost > 0 {
		p.metricsReg.RemoteRequestCost.Add(float64(meta.RequestCost))
	}
	if meta.CreditRemaining < 0 {
		return
	}
	if p.metricsReg != nil {
		p.metricsReg.RemoteCreditLeft.Set(float64(meta.CreditRemaining))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creditLeft = meta.CreditRemaining
	p.creditResetAt = time.Now().Add(time.Duration(meta.CreditResetsIn) * time.Second)
}

// classify maps HTTP statuses onto the error taxonomy: 4xx are client errors
// (not retried), 429/5xx are retryable, transport failures are transient.
func (p *Beds24Provider) classify(resp *RemoteResponse) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &ProviderError{
			Code:    constants.ErrCodeRateLimited,
			Message: constants.GetErrorMessage(constants.ErrCodeRateLimited),
			Details: string(resp.Body),
		}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &ProviderError{
			Code:    constants.ErrCodeInvalidToken,
			Message: constants.GetErrorMessage(constants.ErrCodeInvalidToken),
			Details: string(resp.Body),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ProviderError{
			Code:    constants.ErrCodeClientError,
			Message: constants.GetErrorMessage(constants.ErrCodeClientError),
			Details: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(resp.Body)),
		}
	default:
		return &ProviderError{
			Code:    constants.ErrCodeRetryableError,
			Message: constants.GetErrorMessage(constants.ErrCodeRetryableError),
			Details: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(resp.Body)),
		}
	}
}

// FetchProperty fetches the property record including its room types.
func (p *Beds24Provider) FetchProperty(ctx context.Context, conn *gormModels.ChannelConnection, propertyID string) (*dtos.RemoteProperty, *CallMeta, error) {
	query := url.Values{}
	query.Set("id", propertyID)
	query.Set("includeAllRooms", "true")

	resp, err := p.Call(ctx, conn, http.MethodGet, "/properties", query, nil, vault.TokenRead)
	if err != nil {
		return nil, nil, err
	}

	var envelope struct {
		Success bool                  `json:"success"`
		Data    []dtos.RemoteProperty `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, &resp.Meta, p.payloadError(err)
	}
	if len(envelope.Data) == 0 {
		return nil, &resp.Meta, &ProviderError{
			Code:    constants.ErrCodeClientError,
			Message: "property not found on remote side",
			Details: "id " + propertyID,
		}
	}
	return &envelope.Data[0], &resp.Meta, nil
}

// BookingsPage is one page of remote bookings.
type BookingsPage struct {
	Bookings   []dtos.RemoteBooking
	HasMore    bool
	NextOffset int
}

// FetchBookings fetches bookings modified since the given cursor, paged.
// A nil modifiedFrom fetches the full lookback window (bootstrap).
func (p *Beds24Provider) FetchBookings(ctx context.Context, conn *gormModels.ChannelConnection, propertyID string, modifiedFrom *time.Time, offset int) (*BookingsPage, *CallMeta, error) {
	query := url.Values{}
	query.Set("propertyId", propertyID)
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(constants.DefaultBookingsPageSize))
	if modifiedFrom != nil {
		query.Set("modifiedFrom", modifiedFrom.Format(dtos.Beds24TimeLayout))
	}

	resp, err := p.Call(ctx, conn, http.MethodGet, "/bookings", query, nil, vault.TokenRead)
	if err != nil {
		return nil, nil, err
	}

	var envelope struct {
		Success bool                 `json:"success"`
		Data    []dtos.RemoteBooking `json:"data"`
		Count   int                  `json:"count"`
		Pages   struct {
			NextPageExists bool `json:"nextPageExists"`
		} `json:"pages"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, &resp.Meta, p.payloadError(err)
	}

	return &BookingsPage{
		Bookings:   envelope.Data,
		HasMore:    envelope.Pages.NextPageExists,
		NextOffset: offset + len(envelope.Data),
	}, &resp.Meta, nil
}

// FetchCalendar fetches the availability/rate calendar for a window and
// flattens the remote per-range encoding into daily cells.
func (p *Beds24Provider) FetchCalendar(ctx context.Context, conn *gormModels.ChannelConnection, propertyID string, start, end time.Time) ([]dtos.RemoteCalendarCell, *CallMeta, error) {
	query := url.Values{}
	query.Set("propertyId", propertyID)
	query.Set("startDate", start.Format("2006-01-02"))
	query.Set("endDate", end.Format("2006-01-02"))

	resp, err := p.Call(ctx, conn, http.MethodGet, "/inventory/rooms/calendar", query, nil, vault.TokenRead)
	if err != nil {
		return nil, nil, err
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    []struct {
			RoomID   string `json:"roomId"`
			Calendar []struct {
				From          string  `json:"from"`
				To            string  `json:"to"`
				Rate          float64 `json:"price1"`
				Available     int     `json:"numAvail"`
				StopSell      bool    `json:"stopSell"`
				ClosedArrival bool    `json:"closedArrival"`
			} `json:"calendar"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return nil, &resp.Meta, p.payloadError(err)
	}

	var cells []dtos.RemoteCalendarCell
	for _, room := range envelope.Data {
		for _, span := range room.Calendar {
			from, err := time.Parse("2006-01-02", span.From)
			if err != nil {
				continue
			}
			to, err := time.Parse("2006-01-02", span.To)
			if err != nil {
				to = from
			}
			for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
				cells = append(cells, dtos.RemoteCalendarCell{
					RoomID:        room.RoomID,
					Date:          d.Format("2006-01-02"),
					Rate:          span.Rate,
					Available:     span.Available,
					StopSell:      span.StopSell,
					ClosedArrival: span.ClosedArrival,
				})
			}
		}
	}
	return cells, &resp.Meta, nil
}

// PushCalendar sends one batch of rate/availability updates. Requires the
// write-scoped token.
func (p *Beds24Provider) PushCalendar(ctx context.Context, conn *gormModels.ChannelConnection, updates []dtos.CalendarUpdate) (*CallMeta, error) {
	resp, err := p.Call(ctx, conn, http.MethodPost, "/inventory/rooms/calendar", nil, updates, vault.TokenWrite)
	if err != nil {
		return nil, err
	}
	return &resp.Meta, nil
}

func (p *Beds24Provider) payloadError(err error) error {
	return &ProviderError{
		Code:    constants.ErrCodeInvalidPayload,
		Message: constants.GetErrorMessage(constants.ErrCodeInvalidPayload),
		Err:     err,
	}
}

// ProviderError represents a provider-specific error
type ProviderError struct {
	Code    string
	Message string
	Details string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the error is eligible for backoff retry on a
// later scheduler tick.
func (e *ProviderError) Retryable() bool {
	switch e.Code {
	case constants.ErrCodeRateLimited, constants.ErrCodeRetryableError, constants.ErrCodeNetworkError:
		return true
	}
	return false
}
