package model

// -----------------------------------------------------------------
// Monitor API Response Models
// -----------------------------------------------------------------

// MonitorResponse is the main response for the monitor API
type MonitorResponse struct {
	Status      string          `json:"status"` // "healthy", "idle"
	Connections ConnectionStats `json:"connections"`
	Clients     []ClientInfo    `json:"clients"`
	RoleCount   map[string]int  `json:"roleCount"` // connected identities by role
}

// ConnectionStats holds connection-related statistics
type ConnectionStats struct {
	TotalConnected int `json:"totalConnected"` // identities with a live connection
	TotalAnonymous int `json:"totalAnonymous"` // sockets open but not yet authenticated
}

// ClientInfo contains information about a connected client
type ClientInfo struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
	Role     string `json:"role"`
}
