package models

// Vessel - one fleet unit as served by the backend vessel list
type Vessel struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Callsign    string        `json:"callsign"`
	IMO         int64         `json:"imo"`
	MMSI        int64         `json:"mmsi"`
	VpnIP       string        `json:"vpnIp"`
	Enabled     bool          `json:"enabled"`
	Description string        `json:"description"` // shown as company name
	Status      *VesselStatus `json:"status,omitempty"`
}

// VesselStatus - last known connectivity/antenna snapshot
type VesselStatus struct {
	Online            bool    `json:"online"`
	ActiveAntenna     string  `json:"activeAntenna,omitempty"`
	SatID             string  `json:"satId,omitempty"`
	SatSignalStrength float64 `json:"satSignalStrength,omitempty"`
	LastSeen          string  `json:"lastSeen,omitempty"`
}

// SelectedVessel - projection of Vessel that represents the dashboard focus.
// Only this projection survives a restart; the full collection never does.
type SelectedVessel struct {
	ID    string `json:"id"`
	IMO   int64  `json:"imo"`
	Name  string `json:"name"`
	VpnIP string `json:"vpnIp"`
}

// Projection extracts the selectable subset of a vessel
func (v Vessel) Projection() SelectedVessel {
	return SelectedVessel{ID: v.ID, IMO: v.IMO, Name: v.Name, VpnIP: v.VpnIP}
}

// RouteCoordinate - one timestamped telemetry sample.
// TimeStamp values are not guaranteed to arrive sorted.
type RouteCoordinate struct {
	Latitude          float64       `json:"latitude"`
	Longitude         float64       `json:"longitude"`
	VesselSpeed       float64       `json:"vesselSpeed"`
	VesselHeading     float64       `json:"vesselHeading"`
	SatSignalStrength float64       `json:"satSignalStrength"`
	SatID             string        `json:"satId"`
	TimeStamp         string        `json:"timeStamp"` // ISO-8601
	Status            *VesselStatus `json:"status,omitempty"`
	DataUsage         []DataUsage   `json:"dataUsage"`
}

// DataUsage - bytes observed on one antenna/interface at one sample
type DataUsage struct {
	AntennaName   string `json:"antennaName"`
	InterfaceName string `json:"interfaceName"`
	Bytes         int64  `json:"bytes"`
}

// RuleEndpoint - source or destination of a NAT rule. The gateway encodes
// "any" as a present key, same as it encodes disabled below.
type RuleEndpoint struct {
	Address string  `json:"address,omitempty"`
	Network string  `json:"network,omitempty"`
	Any     *string `json:"any,omitempty"`
	Port    string  `json:"port,omitempty"`
}

// IsAny reports whether the endpoint matches any address
func (e RuleEndpoint) IsAny() bool {
	return e.Any != nil
}

// PortForwardRule - one NAT rule on a vessel gateway. Rules carry no stable
// identifier; their position in the fetched list is the only handle for
// subsequent edits.
type PortForwardRule struct {
	Interface        string       `json:"interface"`
	Protocol         string       `json:"protocol"`
	Source           RuleEndpoint `json:"source"`
	Destination      RuleEndpoint `json:"destination"`
	Target           string       `json:"target"`
	LocalPort        string       `json:"local-port"`
	Descr            string       `json:"descr"`
	Disabled         *string      `json:"disabled,omitempty"`
	AssociatedRuleID string       `json:"associated-rule-id,omitempty"`
}

// IsEnabled reports the rule state. Presence of the disabled key governs,
// not its value: an empty string still means disabled.
func (r PortForwardRule) IsEnabled() bool {
	return r.Disabled == nil
}

// CrewUser - one RADIUS-style VPN account on a vessel gateway.
// Field names follow the gateway's freeradius wire format.
type CrewUser struct {
	Username       string `json:"varusersusername"`
	Password       string `json:"varuserspassword"`
	Description    string `json:"description"`
	Duty           string `json:"duty"`
	TerminalType   string `json:"varusersterminaltype"`
	MaxTotalOctets string `json:"varusersmaxtotaloctets"`
	OctetTimeRange string `json:"varusersmaxtotaloctetstimerange"`
	HalfTimePeriod string `json:"varusershalftimeperiod"`
}
