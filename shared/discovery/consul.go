package discovery

import (
	"fmt"

	"github.com/hashicorp/consul/api"
)

// Config holds the Consul agent settings. An empty Address disables registration.
type Config struct {
	Address        string `env:"CONSUL_ADDRESS"`
	ServiceName    string `env:"CONSUL_SERVICE_NAME"    envDefault:"marketplace-service"`
	ServiceAddress string `env:"CONSUL_SERVICE_ADDRESS" envDefault:"127.0.0.1"`
}

// Enabled reports whether a Consul agent address is configured.
func (c Config) Enabled() bool {
	return c.Address != ""
}

// Registrar registers this service instance with the local Consul agent.
type Registrar struct {
	client    *api.Client
	config    Config
	serviceID string
}

// NewRegistrar creates a Consul API client for cfg.
func NewRegistrar(cfg Config) (*Registrar, error) {
	consulCfg := api.DefaultConfig()
	consulCfg.Address = cfg.Address

	client, err := api.NewClient(consulCfg)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	return &Registrar{client: client, config: cfg}, nil
}

// Registration builds the service definition for an instance listening on httpPort.
// With a grpcHealthPort the agent probes the gRPC health service, otherwise GET /health.
func (r *Registrar) Registration(httpPort, grpcHealthPort int) *api.AgentServiceRegistration {
	check := &api.AgentServiceCheck{
		Interval:                       "10s",
		Timeout:                        "3s",
		DeregisterCriticalServiceAfter: "1m",
	}
	if grpcHealthPort > 0 {
		check.GRPC = fmt.Sprintf("%s:%d", r.config.ServiceAddress, grpcHealthPort)
	} else {
		check.HTTP = fmt.Sprintf("http://%s:%d/health", r.config.ServiceAddress, httpPort)
	}

	return &api.AgentServiceRegistration{
		ID:      fmt.Sprintf("%s-%s-%d", r.config.ServiceName, r.config.ServiceAddress, httpPort),
		Name:    r.config.ServiceName,
		Address: r.config.ServiceAddress,
		Port:    httpPort,
		Tags:    []string{"http", "api"},
		Check:   check,
	}
}

// Register announces the service to Consul.
func (r *Registrar) Register(httpPort, grpcHealthPort int) error {
	reg := r.Registration(httpPort, grpcHealthPort)
	if err := r.client.Agent().ServiceRegister(reg); err != nil {
		return fmt.Errorf("register service %s: %w", reg.ID, err)
	}

	r.serviceID = reg.ID
	return nil
}

// Deregister removes the service registered by Register.
func (r *Registrar) Deregister() error {
	if r.serviceID == "" {
		return nil
	}

	return r.client.Agent().ServiceDeregister(r.serviceID)
}
