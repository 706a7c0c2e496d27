package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"

	"bikeshare.trentomobility.org/internal/models"
)

// Client talks to the provider's ASP.NET status endpoint. The endpoint wants
// a session cookie from the public station page before it answers the
// RefreshStations web method.
type Client struct {
	http      *http.Client
	baseURL   string
	cityID    string
	userAgent string
	logger    *slog.Logger
}

// NewClient builds a status client with its own cookie jar.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("error creating cookie jar: %w", err)
	}
	return &Client{
		http:      &http.Client{Jar: jar, Timeout: cfg.Timeout},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		cityID:    cfg.CityID,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}, nil
}

// refererURL is the public station page; fetching it primes the session
// cookie the web method checks.
func (c *Client) refererURL() string {
	return fmt.Sprintf("%s?ID=%s", c.baseURL, c.cityID)
}

// FetchOnce runs one poll cycle and returns the parsed station records.
// Records that do not parse are logged and skipped; an unreachable endpoint
// or an empty payload is an error.
func (c *Client) FetchOnce(ctx context.Context) ([]models.StatusSnapshot, error) {
	if err := c.primeSession(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]string{"IDComune": c.cityID})
	if err != nil {
		return nil, fmt.Errorf("error encoding request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/RefreshStations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("error building status request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*;q=0.1")
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", c.refererURL())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling status endpoint: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint returned %s", resp.Status)
	}

	var body struct {
		D []any `json:"d"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("error decoding status response: %w", err)
	}
	if len(body.D) < 2 {
		return nil, fmt.Errorf("status response carries no station records")
	}

	// element 0 is the marker-image base URL
	var out []models.StatusSnapshot
	for _, el := range body.D[1:] {
		rec, ok := el.(string)
		if !ok {
			continue
		}
		snap, err := parseStationRecord(rec)
		if err != nil {
			c.logger.Warn("skipping malformed station record", slog.String("error", err.Error()))
			continue
		}
		out = append(out, snap)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no station records parsed from status response")
	}
	return out, nil
}

func (c *Client) primeSession(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.refererURL(), nil)
	if err != nil {
		return fmt.Errorf("error building session request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error priming session: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("session page returned %s", resp.Status)
	}
	return nil
}

// parseStationRecord decodes one '§'-separated record:
// id § lat § lon § name § internal code § bikes § free docks. Coordinates use
// the Italian comma decimal separator.
func parseStationRecord(rec string) (models.StatusSnapshot, error) {
	parts := strings.Split(rec, "§")
	if len(parts) < 7 {
		return models.StatusSnapshot{}, fmt.Errorf("record has %d fields, want at least 7", len(parts))
	}

	lat, err := strconv.ParseFloat(strings.Replace(parts[1], ",", ".", 1), 64)
	if err != nil {
		return models.StatusSnapshot{}, fmt.Errorf("bad latitude %q: %w", parts[1], err)
	}
	lon, err := strconv.ParseFloat(strings.Replace(parts[2], ",", ".", 1), 64)
	if err != nil {
		return models.StatusSnapshot{}, fmt.Errorf("bad longitude %q: %w", parts[2], err)
	}
	bikes, err := strconv.Atoi(strings.TrimSpace(parts[5]))
	if err != nil {
		return models.StatusSnapshot{}, fmt.Errorf("bad bike count %q: %w", parts[5], err)
	}
	docks, err := strconv.Atoi(strings.TrimSpace(parts[6]))
	if err != nil {
		return models.StatusSnapshot{}, fmt.Errorf("bad dock count %q: %w", parts[6], err)
	}

	return models.StatusSnapshot{
		StationID: strings.TrimSpace(parts[0]),
		Name:      strings.TrimSpace(parts[3]),
		Lat:       lat,
		Lon:       lon,
		Bikes:     bikes,
		Docks:     docks,
	}, nil
}
