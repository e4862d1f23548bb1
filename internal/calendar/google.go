package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/oauth2/google"
)

const (
	// calendarScope is the OAuth scope for full calendar access.
	calendarScope = "https://www.googleapis.com/auth/calendar"
	// defaultBaseURL is the Google Calendar v3 REST endpoint.
	defaultBaseURL = "https://www.googleapis.com/calendar/v3"
	// requestTimeout bounds each API call so a slow calendar backend can
	// never stall meeting creation or deletion.
	requestTimeout = 15 * time.Second
)

// Google implements Gateway against the Google Calendar v3 REST API,
// authenticated with a service account via two-legged OAuth.
type Google struct {
	client     *http.Client
	calendarID string
	baseURL    string
}

// GoogleOpts holds parameters for creating a Google gateway.
type GoogleOpts struct {
	CredentialsFile string // path to the service account key JSON
	CalendarID      string // target calendar, e.g. "primary" or a shared id
	// For testing: inject an HTTP client and API endpoint instead of the
	// service-account flow.
	HTTPClient *http.Client
	BaseURL    string
}

// NewGoogle creates a Google gateway. It reads and validates the service
// account key up front so that a misconfigured credential shows up at
// startup, not on the first meeting.
func NewGoogle(ctx context.Context, opts GoogleOpts) (*Google, error) {
	if opts.CalendarID == "" {
		return nil, fmt.Errorf("calendar: google: calendar id is required")
	}

	g := &Google{
		client:     opts.HTTPClient,
		calendarID: opts.CalendarID,
		baseURL:    opts.BaseURL,
	}
	if g.baseURL == "" {
		g.baseURL = defaultBaseURL
	}

	if g.client == nil {
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("calendar: google: read credentials %s: %w", opts.CredentialsFile, err)
		}
		conf, err := google.JWTConfigFromJSON(data, calendarScope)
		if err != nil {
			return nil, fmt.Errorf("calendar: google: parse credentials: %w", err)
		}
		g.client = conf.Client(ctx)
	}
	g.client.Timeout = requestTimeout

	return g, nil
}

// eventBody is the wire format of a Calendar v3 event.
type eventBody struct {
	Summary     string        `json:"summary"`
	Description string        `json:"description,omitempty"`
	Start       eventDateTime `json:"start"`
	End         eventDateTime `json:"end"`
}

type eventDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// eventResponse is the subset of the API response Quorum consumes.
type eventResponse struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
}

// CreateEvent inserts an event on the configured calendar and returns its
// remote id and browser link.
func (g *Google) CreateEvent(ctx context.Context, ev Event) (RemoteEvent, error) {
	body := eventBody{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       eventDateTime{DateTime: ev.Start.UTC().Format(time.RFC3339), TimeZone: "UTC"},
		End:         eventDateTime{DateTime: ev.End.UTC().Format(time.RFC3339), TimeZone: "UTC"},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return RemoteEvent{}, fmt.Errorf("calendar: google: marshal event: %w", err)
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events", g.baseURL, url.PathEscape(g.calendarID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return RemoteEvent{}, fmt.Errorf("calendar: google: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return RemoteEvent{}, fmt.Errorf("calendar: google: insert event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return RemoteEvent{}, apiError("insert event", resp)
	}

	var created eventResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return RemoteEvent{}, fmt.Errorf("calendar: google: decode response: %w", err)
	}
	if created.ID == "" {
		return RemoteEvent{}, fmt.Errorf("calendar: google: response missing event id")
	}

	return RemoteEvent{ID: created.ID, Link: created.HTMLLink}, nil
}

// DeleteEvent removes an event from the configured calendar. An event that
// is already gone (404/410) counts as deleted.
func (g *Google) DeleteEvent(ctx context.Context, eventID string) error {
	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s",
		g.baseURL, url.PathEscape(g.calendarID), url.PathEscape(eventID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("calendar: google: build request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("calendar: google: delete event: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299,
		resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusGone:
		io.Copy(io.Discard, resp.Body)
		return nil
	default:
		return apiError("delete event", resp)
	}
}

// apiError formats a non-2xx API response into an error, keeping a short
// snippet of the body for diagnosis.
func apiError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return fmt.Errorf("calendar: google: %s: %s: %s", op, resp.Status, bytes.TrimSpace(snippet))
}
