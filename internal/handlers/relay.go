package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/fleet-dashboard-api/internal/export"
	"github.com/user/fleet-dashboard-api/internal/models"
	"github.com/user/fleet-dashboard-api/internal/repository"
	"github.com/user/fleet-dashboard-api/internal/services/gateway"
	"github.com/user/fleet-dashboard-api/internal/store"
)

// RelayHandler - dashboard-facing proxy over the per-vessel gateways.
// Vessels are addressed by id; the VPN IP is resolved from the store so a
// request can never reach a host outside the fleet.
type RelayHandler struct {
	gateway *gateway.Client
	store   *store.Store
	repo    *repository.Repository
}

// NewRelayHandler creates the relay handler set
func NewRelayHandler(gw *gateway.Client, st *store.Store, repo *repository.Repository) *RelayHandler {
	return &RelayHandler{gateway: gw, store: st, repo: repo}
}

// resolveVpnIP maps the :id route parameter to the vessel's VPN IP.
// Responds 404 and returns "" when the vessel is unknown.
func (h *RelayHandler) resolveVpnIP(c *gin.Context) string {
	vesselID := c.Param("id")
	for _, v := range h.store.Vessels() {
		if v.ID == vesselID {
			if v.VpnIP == "" {
				c.JSON(http.StatusConflict, gin.H{"error": "Vessel has no VPN IP"})
				return ""
			}
			return v.VpnIP
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Unknown vessel"})
	return ""
}

// === Crew accounts ===

// GetCrewUsers returns the RADIUS account list of a vessel gateway
func (h *RelayHandler) GetCrewUsers(c *gin.Context) {
	vpnIP := h.resolveVpnIP(c)
	if vpnIP == "" {
		return
	}

	users, err := h.gateway.ListCrewUsers(c.Request.Context(), vpnIP)
	if err != nil {
		log.Printf("[Relay] crew list %s failed: %v", vpnIP, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Gateway unreachable"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// ExportCrewCSV streams the crew-account list as a CSV download
func (h *RelayHandler) ExportCrewCSV(c *gin.Context) {
	vpnIP := h.resolveVpnIP(c)
	if vpnIP == "" {
		return
	}

	users, err := h.gateway.ListCrewUsers(c.Request.Context(), vpnIP)
	if err != nil {
		log.Printf("[Relay] crew export %s failed: %v", vpnIP, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Gateway unreachable"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="crew-`+c.Param("id")+`.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", export.CrewUsersCSV(users))
}

// CheckCrewPassword compares a submitted password against the stored one.
// The gateway exposes passwords in its account list; the comparison happens
// here so the dashboard never needs them.
func (h *RelayHandler) CheckCrewPassword(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username required"})
		return
	}
	if req.Username == gateway.ReservedAccount {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown account"})
		return
	}

	vpnIP := h.resolveVpnIP(c)
	if vpnIP == "" {
		return
	}

	users, err := h.gateway.ListCrewUsers(c.Request.Context(), vpnIP)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Gateway unreachable"})
		return
	}

	for _, u := range users {
		if u.Username == req.Username {
			c.JSON(http.StatusOK, gin.H{"match": u.Password == req.Password})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Unknown account"})
}

// BulkCrewAction accepts the bulk account actions the dashboard offers.
// The gateway firmware has no bulk endpoints yet, so everything except the
// local password check answers 501.
func (h *RelayHandler) BulkCrewAction(c *gin.Context) {
	var req struct {
		Action    string   `json:"action" binding:"required"`
		Usernames []string `json:"usernames"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action required"})
		return
	}

	switch req.Action {
	case "reset_password", "reset_data", "delete":
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Action not supported by gateway firmware",
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown action"})
	}
}

// === Interfaces ===

// GetInterfaces returns the gateway interface map
func (h *RelayHandler) GetInterfaces(c *gin.Context) {
	vpnIP := h.resolveVpnIP(c)
	if vpnIP == "" {
		return
	}

	interfaces, err := h.gateway.ListInterfaces(c.Request.Context(), vpnIP)
	if err != nil {
		log.Printf("[Relay] interfaces %s failed: %v", vpnIP, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Gateway unreachable"})
		return
	}
	c.JSON(http.StatusOK, interfaces)
}

// === Port forwards ===

// portForwardView - rule plus the derived state the dashboard renders
type portForwardView struct {
	Index   int                    `json:"index"`
	Enabled bool                   `json:"enabled"`
	Rule    models.PortForwardRule `json:"rule"`
}

func portForwardViews(rules []models.PortForwardRule) []portForwardView {
	views := make([]portForwardView, 0, len(rules))
	for i, r := range rules {
		views = append(views, portForwardView{Index: i, Enabled: r.IsEnabled(), Rule: r})
	}
	return views
}

// GetPortForwards returns the ordered NAT rule list with derived state
func (h *RelayHandler) GetPortForwards(c *gin.Context) {
	vpnIP := h.resolveVpnIP(c)
	if vpnIP == "" {
		return
	}

	rules, err := h.gateway.ListPortForwards(c.Request.Context(), vpnIP)
	if err != nil {
		log.Printf("[Relay] port forwards %s failed: %v", vpnIP, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Gateway unreachable"})
		return
	}
	c.JSON(http.StatusOK, portForwardViews(rules))
}

// SavePortForward replaces the rule at :index and returns the re-fetched
// list. The edited copy is never trusted: what the gateway now holds is
// what the dashboard gets back.
func (h *RelayHandler) SavePortForward(c *gin.Context) {
	vpnIP := h.resolveVpnIP(c)
	if vpnIP == "" {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rule index"})
		return
	}

	var rule models.PortForwardRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rule payload"})
		return
	}

	ctx := c.Request.Context()
	if err := h.gateway.SavePortForward(ctx, vpnIP, index, rule); err != nil {
		log.Printf("[Relay] save rule %d on %s failed: %v", index, vpnIP, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to save rule"})
		return
	}

	appendAudit(c, h.repo, "portforward.save", c.Param("id"), gin.H{"index": index, "rule": rule})

	rules, err := h.gateway.ListPortForwards(ctx, vpnIP)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Rule saved but re-fetch failed"})
		return
	}
	c.JSON(http.StatusOK, portForwardViews(rules))
}

// TogglePortForward flips the enabled state of the rule at :index. The body
// carries the state the dashboard currently sees so a stale view cannot flip
// a rule the wrong way twice.
func (h *RelayHandler) TogglePortForward(c *gin.Context) {
	vpnIP := h.resolveVpnIP(c)
	if vpnIP == "" {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rule index"})
		return
	}

	var req struct {
		Enabled *bool `json:"enabled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled state required"})
		return
	}

	ctx := c.Request.Context()
	if err := h.gateway.TogglePortForward(ctx, vpnIP, index, *req.Enabled); err != nil {
		log.Printf("[Relay] toggle rule %d on %s failed: %v", index, vpnIP, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to toggle rule"})
		return
	}

	appendAudit(c, h.repo, "portforward.toggle", c.Param("id"), gin.H{"index": index, "wasEnabled": *req.Enabled})

	rules, err := h.gateway.ListPortForwards(ctx, vpnIP)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Rule toggled but re-fetch failed"})
		return
	}
	c.JSON(http.StatusOK, portForwardViews(rules))
}
