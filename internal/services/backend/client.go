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

	"github.com/user/fleet-dashboard-api/internal/config"
	"github.com/user/fleet-dashboard-api/internal/models"
)

// Client - typed client for the fleet backend REST API
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a new backend client
func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// vesselColumns - the backend's column-oriented vessel list payload.
// Parallel arrays indexed by row; id is the authoritative length.
type vesselColumns struct {
	ID          []string `json:"id"`
	Name        []string `json:"name"`
	Callsign    []string `json:"callsign"`
	IMO         []int64  `json:"imo"`
	MMSI        []int64  `json:"mmsi"`
	VpnIP       []string `json:"vpnip"`
	Enabled     []bool   `json:"enabled"`
	Description []string `json:"description"`
}

// transposeVessels turns the column-oriented payload into row objects.
// Ragged columns are tolerated: rows past a column's end get zero values.
func transposeVessels(cols vesselColumns) []models.Vessel {
	vessels := make([]models.Vessel, 0, len(cols.ID))
	for i, id := range cols.ID {
		v := models.Vessel{ID: id}
		if i < len(cols.Name) {
			v.Name = cols.Name[i]
		}
		if i < len(cols.Callsign) {
			v.Callsign = cols.Callsign[i]
		}
		if i < len(cols.IMO) {
			v.IMO = cols.IMO[i]
		}
		if i < len(cols.MMSI) {
			v.MMSI = cols.MMSI[i]
		}
		if i < len(cols.VpnIP) {
			v.VpnIP = cols.VpnIP[i]
		}
		if i < len(cols.Enabled) {
			v.Enabled = cols.Enabled[i]
		}
		if i < len(cols.Description) {
			v.Description = cols.Description[i]
		}
		vessels = append(vessels, v)
	}
	return vessels
}

// ListVessels fetches the full vessel collection
func (c *Client) ListVessels(ctx context.Context) ([]models.Vessel, error) {
	body, err := c.get(ctx, "/getvessel", nil)
	if err != nil {
		return nil, err
	}

	var cols vesselColumns
	if err := json.Unmarshal(body, &cols); err != nil {
		return nil, fmt.Errorf("vessel list decode: %w, raw: %s", err, truncate(body, 200))
	}

	return transposeVessels(cols), nil
}

// ListAccounts fetches the account name list
func (c *Client) ListAccounts(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/getaccount", nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Acct []string `json:"acct"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("account list decode: %w", err)
	}

	return result.Acct, nil
}

// === Duplicate checks ===

// CheckSerialDuplicate asks the backend whether a serial number is taken
func (c *Client) CheckSerialDuplicate(ctx context.Context, serialNumber string) (bool, error) {
	body, err := c.post(ctx, "/serialnumberduplicate", map[string]string{"serialNumber": serialNumber})
	if err != nil {
		return false, err
	}
	var result struct {
		Duplicated bool `json:"sn_duplicated"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("serial check decode: %w", err)
	}
	return result.Duplicated, nil
}

// CheckVPNIPDuplicate asks the backend whether a VPN IP is taken
func (c *Client) CheckVPNIPDuplicate(ctx context.Context, vpnIP string) (bool, error) {
	body, err := c.post(ctx, "/vpnipisduplicate", map[string]string{"vpnip": vpnIP})
	if err != nil {
		return false, err
	}
	var result struct {
		Duplicated bool `json:"ip_duplicated"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("vpn ip check decode: %w", err)
	}
	return result.Duplicated, nil
}

// CheckVesselIDDuplicate asks the backend whether a vessel id is taken
func (c *Client) CheckVesselIDDuplicate(ctx context.Context, id string) (bool, error) {
	body, err := c.post(ctx, "/vesselisduplicate", map[string]string{"id": id})
	if err != nil {
		return false, err
	}
	var result struct {
		Duplicated bool `json:"id_duplicated"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("vessel id check decode: %w", err)
	}
	return result.Duplicated, nil
}

// === Mutations ===

// NewVessel - payload for vessel registration
type NewVessel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Callsign    string `json:"callsign"`
	IMO         int64  `json:"imo"`
	MMSI        int64  `json:"mmsi"`
	VpnIP       string `json:"vpnip"`
	Description string `json:"description"`
}

// AddVessel registers a vessel. The endpoint answers with a plain-text body;
// success is signaled by the first line being exactly "true". That quirk is
// absorbed here so callers only ever see an error or nil.
func (c *Client) AddVessel(ctx context.Context, v NewVessel) error {
	body, err := c.post(ctx, "/addvessel", v)
	if err != nil {
		return err
	}

	firstLine, _, _ := strings.Cut(string(body), "\n")
	if strings.TrimRight(firstLine, "\r") != "true" {
		return fmt.Errorf("backend rejected vessel: %s", truncate(body, 200))
	}
	return nil
}

// DeviceCredentials - payload for gateway device registration.
// IMO and port arrive from the form layer as strings and are coerced here.
type DeviceCredentials struct {
	VesselID string `json:"vesselId"`
	IMO      int64  `json:"imo"`
	Port     int64  `json:"port"`
	ClientID string `json:"clientId"`
	Token    string `json:"token"`
}

// RegisterDeviceCredentials stores gateway credentials for a vessel
func (c *Client) RegisterDeviceCredentials(ctx context.Context, creds DeviceCredentials) error {
	_, err := c.post(ctx, "/vessels/device-credentials", creds)
	return err
}

// === Telemetry ===

// ListRouteCoordinates fetches telemetry samples for a vessel and window.
// startAt/endAt are ISO-8601; empty values mean an open bound.
func (c *Client) ListRouteCoordinates(ctx context.Context, vesselID, startAt, endAt string) ([]models.RouteCoordinate, error) {
	params := url.Values{}
	params.Set("id", vesselID)
	if startAt != "" {
		params.Set("startAt", startAt)
	}
	if endAt != "" {
		params.Set("endAt", endAt)
	}

	body, err := c.get(ctx, "/getroutecoordinate", params)
	if err != nil {
		return nil, err
	}

	var coords []models.RouteCoordinate
	if err := json.Unmarshal(body, &coords); err != nil {
		return nil, fmt.Errorf("route decode: %w, raw: %s", err, truncate(body, 200))
	}
	return coords, nil
}

// === Transport ===

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("backend %s: status %d: %s", req.URL.Path, resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
