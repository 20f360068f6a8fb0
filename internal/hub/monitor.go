package hub

import (
	"github.com/mamoonayoob/Quick-Mart-Server/internal/model"
)

// MonitorService provides methods to gather hub statistics
type MonitorService struct {
	hub *Hub
}

// NewMonitorService creates a new monitor service
func NewMonitorService(hub *Hub) *MonitorService {
	return &MonitorService{hub: hub}
}

// GetStats gathers and returns all hub statistics
func (ms *MonitorService) GetStats() model.MonitorResponse {
	connectionStats := ms.getConnectionStats()
	clients := ms.getClientList()
	roleCount := make(map[string]int)

	for _, c := range clients {
		if c.UserID != "" {
			roleCount[c.Role]++
		}
	}

	// Determine overall health status
	status := "healthy"
	if connectionStats.TotalConnected == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status:      status,
		Connections: connectionStats,
		Clients:     clients,
		RoleCount:   roleCount,
	}
}

// getConnectionStats returns connection statistics
func (ms *MonitorService) getConnectionStats() model.ConnectionStats {
	ms.hub.clientsMu.RLock()
	total := len(ms.hub.clients)
	ms.hub.clientsMu.RUnlock()

	return model.ConnectionStats{
		TotalConnected: ms.hub.registry.Len(),
		TotalAnonymous: total - ms.hub.registry.Len(),
	}
}

// getClientList returns list of all connected clients
func (ms *MonitorService) getClientList() []model.ClientInfo {
	ms.hub.clientsMu.RLock()
	defer ms.hub.clientsMu.RUnlock()

	clients := make([]model.ClientInfo, 0, len(ms.hub.clients))

	for client := range ms.hub.clients {
		clientInfo := model.ClientInfo{
			ClientID: client.ID,
			UserID:   client.Identity(),
			Role:     client.Role(),
		}
		clients = append(clients, clientInfo)
	}

	return clients
}
