package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/enterprise/backend/internal/domain/channel"
)

// ClientRegistry holds the configured channel clients, keyed by channel code
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[channel.Code]channel.Client
}

// NewClientRegistry creates a registry with the given clients
func NewClientRegistry(clients ...channel.Client) *ClientRegistry {
	registry := &ClientRegistry{
		clients: make(map[channel.Code]channel.Client),
	}
	for _, client := range clients {
		registry.clients[client.ChannelCode()] = client
	}
	return registry
}

// Register adds or replaces the client for its channel code
func (r *ClientRegistry) Register(client channel.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.ChannelCode()] = client
}

// GetClient returns the client for the specified channel code
func (r *ClientRegistry) GetClient(code channel.Code) (channel.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", channel.ErrChannelUnknownCode, code)
	}
	return client, nil
}

// ListClients returns all registered clients in stable channel-code order
func (r *ClientRegistry) ListClients() []channel.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]channel.Client, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].ChannelCode() < clients[j].ChannelCode()
	})
	return clients
}

// ListActiveClients returns the clients active for the customer
func (r *ClientRegistry) ListActiveClients(ctx context.Context, customerID uuid.UUID) ([]channel.Client, error) {
	var active []channel.Client
	for _, client := range r.ListClients() {
		enabled, err := client.IsActive(ctx, customerID)
		if err != nil {
			return nil, err
		}
		if enabled {
			active = append(active, client)
		}
	}
	return active, nil
}

// CustomerConfigurable is implemented by clients that accept per-customer
// configuration as raw settings
type CustomerConfigurable interface {
	Configure(customerID uuid.UUID, settings json.RawMessage) error
}

// ApplyConfiguration pushes a stored channel configuration into the live client
func (r *ClientRegistry) ApplyConfiguration(config *channel.Configuration) error {
	client, err := r.GetClient(config.ChannelCode)
	if err != nil {
		return err
	}
	configurable, ok := client.(CustomerConfigurable)
	if !ok {
		return fmt.Errorf("%w: %s client does not accept customer configuration",
			channel.ErrChannelUnknownCode, config.ChannelCode)
	}
	return configurable.Configure(config.EnterpriseCustomerID, config.Settings)
}

var _ channel.Registry = (*ClientRegistry)(nil)
