package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/user/fleet-dashboard-api/internal/config"
	"github.com/user/fleet-dashboard-api/internal/models"
)

// ReservedAccount is the service account present on every gateway.
// It is never exposed to the dashboard.
const ReservedAccount = "synersat"

// Client - client for the embedded per-vessel gateway APIs. One client
// serves the whole fleet; the target vessel is addressed per call by its
// VPN IP. Credentials are fixed and come from config.
type Client struct {
	scheme      string
	port        string
	clientID    string
	clientToken string
	basicUser   string
	basicPass   string
	client      *http.Client
}

// NewClient creates a new gateway client
func NewClient(cfg config.GatewayConfig) *Client {
	return &Client{
		scheme:      cfg.Scheme,
		port:        cfg.Port,
		clientID:    cfg.ClientID,
		clientToken: cfg.ClientToken,
		basicUser:   cfg.BasicUser,
		basicPass:   cfg.BasicPassword,
		client: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				// Gateways present self-signed certificates on the VPN.
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

// envelope - the gateway's standard response wrapper
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) baseURL(vpnIP string) string {
	return fmt.Sprintf("%s://%s:%s", c.scheme, vpnIP, c.port)
}

// ListCrewUsers fetches the RADIUS account list from a vessel gateway.
// The gateway requires a JSON body on this GET request with the client
// credential pair - a fixed protocol quirk, isolated here and nowhere else.
// The reserved service account is filtered out before returning.
func (c *Client) ListCrewUsers(ctx context.Context, vpnIP string) ([]models.CrewUser, error) {
	payload, _ := json.Marshal(map[string]string{
		"client-id":    c.clientID,
		"client-token": c.clientToken,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL(vpnIP)+"/api/v1/freeradiususer", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := c.do(req, vpnIP)
	if err != nil {
		return nil, err
	}

	var users []models.CrewUser
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("crew list decode: %w", err)
	}

	filtered := make([]models.CrewUser, 0, len(users))
	for _, u := range users {
		if u.Username == ReservedAccount {
			continue
		}
		filtered = append(filtered, u)
	}
	return filtered, nil
}

// ListInterfaces fetches the gateway interface map (key -> description).
// This endpoint authenticates with a Basic-Auth header.
func (c *Client) ListInterfaces(ctx context.Context, vpnIP string) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL(vpnIP)+"/api/v1/interface", nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.basicUser, c.basicPass)

	data, err := c.do(req, vpnIP)
	if err != nil {
		return nil, err
	}

	var interfaces map[string]string
	if err := json.Unmarshal(data, &interfaces); err != nil {
		return nil, fmt.Errorf("interface decode: %w", err)
	}
	return interfaces, nil
}

// ListPortForwards fetches the ordered NAT rule list. Rule order is the only
// identity contract the gateway offers. This endpoint takes the credential
// pair as query parameters.
func (c *Client) ListPortForwards(ctx context.Context, vpnIP string) ([]models.PortForwardRule, error) {
	params := url.Values{}
	params.Set("client-id", c.clientID)
	params.Set("client-token", c.clientToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL(vpnIP)+"/api/v1/firewall/nat/port_forward?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	data, err := c.do(req, vpnIP)
	if err != nil {
		return nil, err
	}

	var rules []models.PortForwardRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("port forward decode: %w", err)
	}
	return rules, nil
}

// savePayload - rule edit addressed by list position
type savePayload struct {
	ID    int                    `json:"id"`
	Rule  models.PortForwardRule `json:"rule"`
	Apply bool                   `json:"apply"`
}

// SavePortForward replaces the rule at the given list position. Callers must
// re-fetch the full list afterwards instead of patching their copy.
func (c *Client) SavePortForward(ctx context.Context, vpnIP string, index int, rule models.PortForwardRule) error {
	body, _ := json.Marshal(savePayload{ID: index, Rule: rule, Apply: true})

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL(vpnIP)+"/api/v1/firewall/nat/port_forward", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.signBody(req)

	_, err = c.do(req, vpnIP)
	return err
}

// TogglePortForward flips the enabled state of the rule at index. The caller
// supplies the state it currently sees; the flip is computed here so the
// wire carries presence-of-disabled, never a boolean.
func (c *Client) TogglePortForward(ctx context.Context, vpnIP string, index int, currentlyEnabled bool) error {
	payload := map[string]interface{}{
		"id":    index,
		"apply": true,
	}
	if currentlyEnabled {
		// Presence of the key disables the rule; the value is irrelevant.
		payload["disabled"] = ""
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL(vpnIP)+"/api/v1/firewall/nat/port_forward", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.signBody(req)

	_, err = c.do(req, vpnIP)
	return err
}

// signBody adds the credential pair as query parameters on mutating calls
func (c *Client) signBody(req *http.Request) {
	q := req.URL.Query()
	q.Set("client-id", c.clientID)
	q.Set("client-token", c.clientToken)
	req.URL.RawQuery = q.Encode()
}

// do executes a request and unwraps the gateway envelope
func (c *Client) do(req *http.Request, vpnIP string) (json.RawMessage, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway %s unreachable: %w", vpnIP, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("gateway %s: status %d", vpnIP, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("gateway %s: bad response: %w", vpnIP, err)
	}
	if env.Code != 0 && env.Code != http.StatusOK {
		return nil, fmt.Errorf("gateway %s: code %d: %s", vpnIP, env.Code, env.Message)
	}
	return env.Data, nil
}
