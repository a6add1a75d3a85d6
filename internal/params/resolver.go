package params

import (
	"log/slog"

	"github.com/ancients-collective/guardrail/internal/catalog"
	"github.com/ancients-collective/guardrail/internal/types"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for mismatch records.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// Resolver answers parameter lookups from the catalog's declarations and the
// supplied values. It implements initiative.ValueSource.
type Resolver struct {
	cat    *catalog.Catalog
	values Values
	log    *slog.Logger
}

// NewResolver pairs a catalog with supplied values. Supplied entries that do
// not match a declared parameter are reported at debug level and ignored.
func NewResolver(cat *catalog.Catalog, values Values, opts ...Option) *Resolver {
	r := &Resolver{cat: cat, values: values, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(r)
	}
	r.report()
	return r
}

func (r *Resolver) report() {
	for svc, policies := range r.values {
		for display, pv := range policies {
			def, ok := r.cat.Lookup(svc, display)
			if !ok {
				r.log.Debug("values supplied for unknown policy", "service", svc, "policy", display)
				continue
			}
			if pv.PolicyID != "" && pv.PolicyID != def.ShortID {
				r.log.Warn("policy_id does not match the catalog",
					"service", svc,
					"policy", display,
					"policy_id", pv.PolicyID,
					"short_id", def.ShortID)
			}
			for _, m := range pv.Parameters {
				if _, declared := def.Parameter(m.Key); !declared {
					r.log.Debug("ignoring undeclared parameter",
						"service", svc,
						"policy", display,
						"parameter", m.Key)
				}
			}
		}
	}
}

// Parameters returns the declared parameter names of a policy in
// declaration order, or nil for an unknown policy.
func (r *Resolver) Parameters(service, displayName string) []string {
	def, ok := r.cat.Lookup(service, displayName)
	if !ok || len(def.Parameters) == 0 {
		return nil
	}
	return def.ParameterNames()
}

// Value returns the supplied value, else the declared default, else null.
// A supplied null counts as unset.
func (r *Resolver) Value(service, displayName, parameter string) types.Value {
	if v, ok := r.values[service][displayName].Get(parameter); ok && !v.IsNull() {
		return v
	}
	def, ok := r.cat.Lookup(service, displayName)
	if !ok {
		return types.Null()
	}
	p, ok := def.Parameter(parameter)
	if !ok {
		return types.Null()
	}
	return p.Default()
}

// Missing returns the required parameters of a policy that have no
// supplied value. A supplied null is missing, so an unfilled template
// still reports its required entries.
func (r *Resolver) Missing(service, displayName string) []string {
	def, ok := r.cat.Lookup(service, displayName)
	if !ok {
		return nil
	}
	var missing []string
	for _, name := range def.RequiredParameters() {
		if v, ok := r.values[service][displayName].Get(name); !ok || v.IsNull() {
			missing = append(missing, name)
		}
	}
	return missing
}
