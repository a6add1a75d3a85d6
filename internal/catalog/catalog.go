// Package catalog holds the normalized policy definitions of every service.
package catalog

import (
	"sort"

	"github.com/ancients-collective/guardrail/internal/engine"
	"github.com/ancients-collective/guardrail/internal/types"
)

// Service owns the policies of one service keyed by display name.
// It is read-only after Build.
type Service struct {
	name     string
	policies map[string]*types.PolicyDefinition
}

// Name returns the service name.
func (s *Service) Name() string { return s.name }

// Len returns the number of policies in the service.
func (s *Service) Len() int { return len(s.policies) }

// Get looks up a policy by display name.
func (s *Service) Get(displayName string) (*types.PolicyDefinition, bool) {
	def, ok := s.policies[displayName]
	return def, ok
}

// DisplayNames returns every display name, sorted.
func (s *Service) DisplayNames() []string {
	names := make([]string, 0, len(s.policies))
	for name := range s.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Names returns the sorted display names of the given cardinality that pass
// the quality gate and the selection policy.
func (s *Service) Names(c types.Cardinality, policy *engine.SelectionPolicy) []string {
	var names []string
	for _, name := range s.DisplayNames() {
		def := s.policies[name]
		if def.Cardinality() != c {
			continue
		}
		if skip, _ := engine.Screen(def, policy); skip {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Catalog maps service names to services. It is read-only after Build.
type Catalog struct {
	services  map[string]*Service
	malformed int
}

// New builds a catalog from already normalized definitions. Later
// duplicates of a (service, display name) pair are ignored.
func New(defs ...*types.PolicyDefinition) *Catalog {
	c := &Catalog{services: make(map[string]*Service)}
	for _, def := range defs {
		svc, ok := c.services[def.ServiceName]
		if !ok {
			svc = &Service{name: def.ServiceName, policies: make(map[string]*types.PolicyDefinition)}
			c.services[def.ServiceName] = svc
		}
		if _, dup := svc.policies[def.DisplayName]; !dup {
			svc.policies[def.DisplayName] = def
		}
	}
	return c
}

// ServiceNames returns every service name, sorted.
func (c *Catalog) ServiceNames() []string {
	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Service looks up a service by name.
func (c *Catalog) Service(name string) (*Service, bool) {
	svc, ok := c.services[name]
	return svc, ok
}

// Lookup finds a policy by service and display name.
func (c *Catalog) Lookup(service, displayName string) (*types.PolicyDefinition, bool) {
	svc, ok := c.services[service]
	if !ok {
		return nil, false
	}
	return svc.Get(displayName)
}

// Malformed returns the number of documents Build rejected as malformed.
func (c *Catalog) Malformed() int { return c.malformed }

// Len returns the total number of policies.
func (c *Catalog) Len() int {
	n := 0
	for _, svc := range c.services {
		n += svc.Len()
	}
	return n
}

// Select returns the eligible policies of one cardinality as
// service → short id → ref. Services without eligible policies are omitted.
func (c *Catalog) Select(card types.Cardinality, policy *engine.SelectionPolicy) map[string]map[string]types.PolicyRef {
	out := make(map[string]map[string]types.PolicyRef)
	for _, name := range c.ServiceNames() {
		svc := c.services[name]
		for _, display := range svc.Names(card, policy) {
			def := svc.policies[display]
			if out[name] == nil {
				out[name] = make(map[string]types.PolicyRef)
			}
			out[name][def.ShortID] = types.PolicyRef{DisplayName: def.DisplayName, ShortID: def.ShortID}
		}
	}
	return out
}
