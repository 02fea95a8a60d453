package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/user/fleet-dashboard-api/internal/export"
	"github.com/user/fleet-dashboard-api/internal/models"
	"github.com/user/fleet-dashboard-api/internal/repository"
	"github.com/user/fleet-dashboard-api/internal/search"
	"github.com/user/fleet-dashboard-api/internal/services/backend"
	"github.com/user/fleet-dashboard-api/internal/services/routecache"
	"github.com/user/fleet-dashboard-api/internal/store"
	"github.com/user/fleet-dashboard-api/internal/usage"
)

// Handler - HTTP handlers for vessels, selection, search and usage
type Handler struct {
	repo    *repository.Repository
	store   *store.Store
	backend *backend.Client
	cache   *routecache.Cache
	pdf     *export.PDFGenerator
}

// NewHandler creates the handler set
func NewHandler(
	repo *repository.Repository,
	st *store.Store,
	backendClient *backend.Client,
	cache *routecache.Cache,
) *Handler {
	return &Handler{
		repo:    repo,
		store:   st,
		backend: backendClient,
		cache:   cache,
		pdf:     export.NewPDFGenerator(),
	}
}

// appendAudit records a mutating action, best-effort
func appendAudit(c *gin.Context, repo *repository.Repository, action, vesselID string, detail interface{}) {
	if repo == nil {
		return
	}
	actor, _ := c.Get("email")
	actorStr, _ := actor.(string)

	var detailJSON string
	if detail != nil {
		if data, err := json.Marshal(detail); err == nil {
			detailJSON = string(data)
		}
	}

	entry := &models.AuditEntry{
		RequestID: uuid.NewString(),
		Actor:     actorStr,
		Action:    action,
		VesselID:  vesselID,
		Detail:    detailJSON,
	}
	if err := repo.AppendAudit(entry); err != nil {
		log.Printf("[Audit] append %s failed: %v", action, err)
	}
}

// === Vessels ===

// GetVessels returns the current store snapshot
func (h *Handler) GetVessels(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.GetSnapshot())
}

// RefreshVessels re-fetches the vessel collection. A refresh that overlaps
// an in-flight one is dropped by the store; either way the current snapshot
// comes back.
func (h *Handler) RefreshVessels(c *gin.Context) {
	h.store.RefreshVessels(c.Request.Context())
	c.JSON(http.StatusOK, h.store.GetSnapshot())
}

// AddVesselRequest - vessel registration payload
type AddVesselRequest struct {
	ID          string `json:"id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Callsign    string `json:"callsign"`
	IMO         int64  `json:"imo"`
	MMSI        int64  `json:"mmsi"`
	VpnIP       string `json:"vpnIp" binding:"required"`
	Description string `json:"description"`
}

// AddVessel registers a vessel after server-side duplicate checks, then
// refreshes the collection so the new vessel is immediately listed
func (h *Handler) AddVessel(c *gin.Context) {
	var req AddVesselRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id, name and vpnIp are required"})
		return
	}

	ctx := c.Request.Context()

	if dup, err := h.backend.CheckVesselIDDuplicate(ctx, req.ID); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to check vessel id"})
		return
	} else if dup {
		c.JSON(http.StatusConflict, gin.H{"error": "Vessel id already in use"})
		return
	}
	if dup, err := h.backend.CheckVPNIPDuplicate(ctx, req.VpnIP); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to check VPN IP"})
		return
	} else if dup {
		c.JSON(http.StatusConflict, gin.H{"error": "VPN IP already in use"})
		return
	}

	err := h.backend.AddVessel(ctx, backend.NewVessel{
		ID:          req.ID,
		Name:        req.Name,
		Callsign:    req.Callsign,
		IMO:         req.IMO,
		MMSI:        req.MMSI,
		VpnIP:       req.VpnIP,
		Description: req.Description,
	})
	if err != nil {
		log.Printf("[Vessels] add %s failed: %v", req.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to add vessel"})
		return
	}

	appendAudit(c, h.repo, "vessel.add", req.ID, req)
	h.store.RefreshVessels(ctx)

	c.JSON(http.StatusCreated, gin.H{"message": "Vessel added"})
}

// === Duplicate checks ===

// CheckSerial reports whether a device serial number is already registered
func (h *Handler) CheckSerial(c *gin.Context) {
	var req struct {
		SerialNumber string `json:"serialNumber" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "serialNumber required"})
		return
	}
	dup, err := h.backend.CheckSerialDuplicate(c.Request.Context(), req.SerialNumber)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to check serial number"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"duplicated": dup})
}

// CheckVPNIP reports whether a VPN IP is already assigned
func (h *Handler) CheckVPNIP(c *gin.Context) {
	var req struct {
		VpnIP string `json:"vpnip" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vpnip required"})
		return
	}
	dup, err := h.backend.CheckVPNIPDuplicate(c.Request.Context(), req.VpnIP)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to check VPN IP"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"duplicated": dup})
}

// CheckVesselID reports whether a vessel id is already taken
func (h *Handler) CheckVesselID(c *gin.Context) {
	var req struct {
		ID string `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	}
	dup, err := h.backend.CheckVesselIDDuplicate(c.Request.Context(), req.ID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to check vessel id"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"duplicated": dup})
}

// RegisterDeviceCredentials stores gateway credentials for a vessel.
// imo and port arrive as strings from the form and are coerced here.
func (h *Handler) RegisterDeviceCredentials(c *gin.Context) {
	var req struct {
		VesselID string `json:"vesselId" binding:"required"`
		IMO      string `json:"imo" binding:"required"`
		Port     string `json:"port" binding:"required"`
		ClientID string `json:"clientId"`
		Token    string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vesselId, imo and port are required"})
		return
	}

	imo, err := strconv.ParseInt(req.IMO, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "imo must be numeric"})
		return
	}
	port, err := strconv.ParseInt(req.Port, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "port must be numeric"})
		return
	}

	creds := backend.DeviceCredentials{
		VesselID: req.VesselID,
		IMO:      imo,
		Port:     port,
		ClientID: req.ClientID,
		Token:    req.Token,
	}
	if err := h.backend.RegisterDeviceCredentials(c.Request.Context(), creds); err != nil {
		log.Printf("[Vessels] device credentials for %s failed: %v", req.VesselID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to register device credentials"})
		return
	}

	appendAudit(c, h.repo, "vessel.device-credentials", req.VesselID, gin.H{"imo": imo, "port": port})
	c.JSON(http.StatusOK, gin.H{"message": "Device credentials registered"})
}

// === Selection ===

// GetSelection returns the current selection, 204 when none
func (h *Handler) GetSelection(c *gin.Context) {
	selected := h.store.SelectedVessel()
	if selected == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, selected)
}

// SetSelection replaces the selection with the posted projection
func (h *Handler) SetSelection(c *gin.Context) {
	var req models.SelectedVessel
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vessel id required"})
		return
	}
	h.store.SetSelectedVessel(&req)
	c.JSON(http.StatusOK, &req)
}

// ClearSelection drops the selection
func (h *Handler) ClearSelection(c *gin.Context) {
	h.store.ClearSelectedVessel()
	c.Status(http.StatusNoContent)
}

// === Search ===

// searchItem - one match plus its highlight segmentation
type searchItem struct {
	Vessel   models.Vessel    `json:"vessel"`
	Segments []search.Segment `json:"segments"`
}

// Search filters the in-memory collection by name. The reveal window grows
// in batches of 30; `batches` selects how many are open (default 1).
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")

	batches := 1
	if batchStr := c.Query("batches"); batchStr != "" {
		if b, err := strconv.Atoi(batchStr); err == nil && b > 0 {
			batches = b
		}
	}

	results := search.NewResults(h.store.Vessels(), query)
	for i := 1; i < batches; i++ {
		results.Extend()
	}

	visible := results.Visible()
	items := make([]searchItem, 0, len(visible))
	for _, v := range visible {
		items = append(items, searchItem{
			Vessel:   v,
			Segments: search.Segments(v.Name, query),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"total":        results.Total(),
		"visibleCount": results.VisibleCount(),
		"items":        items,
	})
}

// === Route & usage ===

// fetchRoute reads a coordinate window through the cache
func (h *Handler) fetchRoute(c *gin.Context, vesselID, startAt, endAt string) ([]models.RouteCoordinate, error) {
	ctx := c.Request.Context()

	if coords, ok := h.cache.Get(ctx, vesselID, startAt, endAt); ok {
		return coords, nil
	}

	coords, err := h.backend.ListRouteCoordinates(ctx, vesselID, startAt, endAt)
	if err != nil {
		return nil, err
	}
	h.cache.Set(ctx, vesselID, startAt, endAt, coords)
	return coords, nil
}

// GetVesselRoute returns the raw coordinate samples for a window
func (h *Handler) GetVesselRoute(c *gin.Context) {
	vesselID := c.Param("id")
	startAt := c.Query("startAt")
	endAt := c.Query("endAt")

	coords, err := h.fetchRoute(c, vesselID, startAt, endAt)
	if err != nil {
		log.Printf("[Route] fetch %s failed: %v", vesselID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load route data"})
		return
	}
	c.JSON(http.StatusOK, coords)
}

// parseWindow builds the aggregation window from query parameters.
// Both bounds must parse for a window to apply; otherwise the 24h default
// inside the aggregation takes over.
func parseWindow(startAt, endAt string) *usage.Window {
	if startAt == "" || endAt == "" {
		return nil
	}
	start, err1 := time.Parse(time.RFC3339, startAt)
	end, err2 := time.Parse(time.RFC3339, endAt)
	if err1 != nil || err2 != nil {
		return nil
	}
	return &usage.Window{StartAt: start, EndAt: end}
}

// GetVesselUsage returns per-antenna aggregated usage for a window
func (h *Handler) GetVesselUsage(c *gin.Context) {
	vesselID := c.Param("id")
	startAt := c.Query("startAt")
	endAt := c.Query("endAt")

	coords, err := h.fetchRoute(c, vesselID, startAt, endAt)
	if err != nil {
		log.Printf("[Usage] fetch %s failed: %v", vesselID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load usage data"})
		return
	}

	window := parseWindow(startAt, endAt)
	c.JSON(http.StatusOK, gin.H{
		"vesselId":      vesselID,
		"windowSeconds": usage.WindowSeconds(window),
		"antennas":      usage.Aggregate(coords, window),
	})
}

// GetUsageReportPDF renders the aggregated usage as a PDF download
func (h *Handler) GetUsageReportPDF(c *gin.Context) {
	vesselID := c.Param("id")
	startAt := c.Query("startAt")
	endAt := c.Query("endAt")

	coords, err := h.fetchRoute(c, vesselID, startAt, endAt)
	if err != nil {
		log.Printf("[Usage] fetch %s failed: %v", vesselID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load usage data"})
		return
	}

	vesselName := vesselID
	for _, v := range h.store.Vessels() {
		if v.ID == vesselID {
			vesselName = v.Name
			break
		}
	}

	window := parseWindow(startAt, endAt)
	report, err := h.pdf.GenerateUsageReport(vesselName, window, usage.Aggregate(coords, window))
	if err != nil {
		log.Printf("[Usage] pdf for %s failed: %v", vesselID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="usage-`+vesselID+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", report)
}

// === Accounts & audit ===

// GetAccounts returns the backend account list
func (h *Handler) GetAccounts(c *gin.Context) {
	accounts, err := h.backend.ListAccounts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load accounts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"acct": accounts})
}

// GetAudit returns recent audit entries, optionally filtered by vessel
func (h *Handler) GetAudit(c *gin.Context) {
	limit := 100
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	var entries []models.AuditEntry
	var err error
	if vesselID := c.Query("vessel"); vesselID != "" {
		entries, err = h.repo.GetAuditEntriesForVessel(vesselID, limit)
	} else {
		entries, err = h.repo.GetAuditEntries(limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load audit log"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
