package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"salonbook/internal/metrics"
	"salonbook/internal/models"
)

// Client calls the availability and booking service over HTTP JSON.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration
	limiter  *rate.Limiter
}

// NewClient constructs a client with baseURL and API key.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UseRedisCache configures optional Redis caching for slot and capacity reads.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// UseRateLimit caps outbound requests per second.
func (c *Client) UseRateLimit(rps float64, burst int) {
	if rps <= 0 {
		c.limiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

type slotsRequest struct {
	Date     string     `json:"date"`
	Services []SlotLine `json:"services"`
}

type slotsResponse struct {
	Slots []time.Time `json:"slots"`
}

type capacityResponse struct {
	Capacity []models.DayCapacity `json:"capacity"`
}

type appointmentResponse struct {
	Appointment models.Appointment `json:"appointment"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetSlots fetches bookable start times for a date.
func (c *Client) GetSlots(ctx context.Context, salonID string, date time.Time, lines []SlotLine) ([]time.Time, error) {
	day := models.DateKey(date)
	endpoint := fmt.Sprintf("%s/api/v1/salons/%s/slots", c.baseURL, url.PathEscape(salonID))
	cacheKey := fmt.Sprintf("%s:%s", slotsPrefix(salonID, day), lineKey(lines))
	var resp slotsResponse

	if c.readCache(ctx, cacheKey, &resp) {
		metrics.IncBackendRequest("get_slots", "cache_hit")
		return resp.Slots, nil
	}

	if err := c.doPost(ctx, "get_slots", endpoint, slotsRequest{Date: day, Services: lines}, &resp); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, resp)
	return resp.Slots, nil
}

// GetMonthCapacity fetches per-day capacity for the month containing month.
func (c *Client) GetMonthCapacity(ctx context.Context, salonID string, month time.Time) ([]models.DayCapacity, error) {
	m := month.Format("2006-01")
	endpoint := fmt.Sprintf("%s/api/v1/salons/%s/capacity?month=%s", c.baseURL, url.PathEscape(salonID), url.QueryEscape(m))
	cacheKey := capacityKey(salonID, m)
	var resp capacityResponse

	if c.readCache(ctx, cacheKey, &resp) {
		metrics.IncBackendRequest("get_capacity", "cache_hit")
		return resp.Capacity, nil
	}

	if err := c.doGet(ctx, "get_capacity", endpoint, &resp); err != nil {
		return nil, err
	}
	c.writeCache(ctx, cacheKey, resp)
	return resp.Capacity, nil
}

// CreateAppointment books an appointment. Cached reads for the affected date
// and month are dropped on success and on conflict.
func (c *Client) CreateAppointment(ctx context.Context, req AppointmentRequest) (*models.Appointment, error) {
	endpoint := fmt.Sprintf("%s/api/v1/appointments", c.baseURL)
	var resp appointmentResponse
	if err := c.doPost(ctx, "create_appointment", endpoint, req, &resp); err != nil {
		if IsConflict(err) {
			c.invalidate(ctx, req.SalonID, req.StartTime)
		}
		return nil, err
	}
	c.invalidate(ctx, req.SalonID, req.StartTime)
	return &resp.Appointment, nil
}

// HealthCheck checks that the booking service is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/healthz", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %d", resp.StatusCode)
	}
	return nil
}

func slotsPrefix(salonID, day string) string {
	return fmt.Sprintf("slots:%s:%s", salonID, day)
}

func capacityKey(salonID, month string) string {
	return fmt.Sprintf("capacity:%s:%s", salonID, month)
}

func lineKey(lines []SlotLine) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = fmt.Sprintf("%s/%s/%d", l.ServiceID, l.StaffID, l.DurationMinutes)
	}
	return strings.Join(parts, ",")
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) invalidate(ctx context.Context, salonID string, start time.Time) {
	if c.redis == nil || start.IsZero() {
		return
	}
	keys := []string{capacityKey(salonID, start.Format("2006-01"))}
	iter := c.redis.Scan(ctx, 0, slotsPrefix(salonID, models.DateKey(start))+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	_ = c.redis.Del(ctx, keys...).Err()
}

func (c *Client) doGet(ctx context.Context, op, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	c.addHeaders(req)
	return c.do(op, req, out)
}

func (c *Client) doPost(ctx context.Context, op, endpoint string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.addHeaders(req)
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			metrics.IncBackendRequest(op, "error")
			return &Error{Kind: KindOther, Op: op, Err: err}
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncBackendRequest(op, "error")
		return &Error{Kind: KindOther, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		kind := kindForStatus(resp.StatusCode)
		metrics.IncBackendRequest(op, string(kind))
		return &Error{Kind: kind, Op: op, Status: resp.StatusCode, Message: readMessage(resp.Body)}
	}

	metrics.IncBackendRequest(op, "ok")
	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		return &Error{Kind: KindOther, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func readMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var e errorResponse
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(data))
}

func (c *Client) addHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
}
