package payments

import (
	"fmt"
	"sort"
)

// Registry maps a payment-method key to its gateway. Registration happens at
// startup; a failed Resolve is a configuration bug, not a user error.
type Registry struct {
	gateways map[string]Gateway
}

func NewRegistry() *Registry {
	return &Registry{gateways: make(map[string]Gateway)}
}

// Register overwrites silently if the key already exists.
func (r *Registry) Register(key string, gw Gateway) {
	r.gateways[key] = gw
}

func (r *Registry) Resolve(key string) (Gateway, error) {
	gw, ok := r.gateways[key]
	if !ok {
		return nil, fmt.Errorf("payments: no gateway registered for method %q", key)
	}
	return gw, nil
}

func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.gateways))
	for k := range r.gateways {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
