// Package initiative assembles selected policies and their parameter values
// into an initiative document.
package initiative

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ancients-collective/guardrail/internal/types"
)

// DefaultCategory is used when a request names no category.
const DefaultCategory = "Testing"

// reservedParameter is bookkeeping in parameter value files, never a policy parameter.
const reservedParameter = "policy_id"

// validate is safe for concurrent use and caches struct metadata.
var validate = validator.New()

// ValueSource supplies the parameters and values of selected policies.
type ValueSource interface {
	// Parameters returns the parameter names to emit for a policy, in order.
	Parameters(service, displayName string) []string

	// Value returns the resolved value of one parameter.
	Value(service, displayName, parameter string) types.Value
}

// Request describes an initiative to assemble.
type Request struct {
	Subscription    string
	ManagementGroup string

	// RequirementLabel names the parameter class, e.g. "NoParams".
	RequirementLabel string `validate:"required"`

	Enforce  bool
	Category string

	// Policies maps service → short id → policy.
	Policies map[string]map[string]types.PolicyRef `validate:"dive,dive"`
}

// Option configures Assemble.
type Option func(*assembler)

// WithLogger sets the logger used for empty-value warnings.
func WithLogger(l *slog.Logger) Option {
	return func(a *assembler) {
		if l != nil {
			a.log = l
		}
	}
}

// WithKnownServices rejects selections that name other services.
func WithKnownServices(names []string) Option {
	return func(a *assembler) {
		a.known = make(map[string]struct{}, len(names))
		for _, n := range names {
			a.known[n] = struct{}{}
		}
	}
}

type assembler struct {
	log   *slog.Logger
	known map[string]struct{}
}

// Assemble validates req and builds the initiative document. A nil values
// source produces a document without parameter blocks.
func Assemble(req Request, values ValueSource, opts ...Option) (*Document, error) {
	a := &assembler{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.check(req); err != nil {
		return nil, err
	}

	suffix := "-Audit"
	if req.Enforce {
		suffix = "-Enforce"
	}
	scope := req.Subscription
	if scope == "" {
		scope = req.ManagementGroup
	}
	category := req.Category
	if category == "" {
		category = DefaultCategory
	}

	doc := &Document{
		Name:             FormatName(scope, req.RequirementLabel+suffix),
		SubscriptionName: req.Subscription,
		ManagementGroup:  req.ManagementGroup,
		Enforce:          req.Enforce,
		EnforcementMode:  fmt.Sprintf("%t", req.Enforce),
		Category:         category,
		PolicyIDPairs:    make(map[string]map[string]types.PolicyRef, len(req.Policies)),
		ParameterBlocks:  make(map[string]map[string]map[string]ParameterValue),
	}
	for svc, refs := range req.Policies {
		copied := make(map[string]types.PolicyRef, len(refs))
		for id, ref := range refs {
			copied[id] = ref
		}
		doc.PolicyIDPairs[svc] = copied
	}

	if values != nil {
		a.fillParameters(doc, values)
	}
	return doc, nil
}

func (a *assembler) check(req Request) error {
	if (req.Subscription == "") == (req.ManagementGroup == "") {
		return &ScopeError{Subscription: req.Subscription, ManagementGroup: req.ManagementGroup}
	}

	if err := validate.Struct(req); err != nil {
		return formatRequestError(err)
	}

	for _, svc := range sortedKeys(req.Policies) {
		if a.known != nil {
			if _, ok := a.known[svc]; !ok {
				return fmt.Errorf("%w: %q", ErrUnknownService, svc)
			}
		}
		for _, id := range sortedKeys(req.Policies[svc]) {
			if ref := req.Policies[svc][id]; ref.ShortID != id {
				return fmt.Errorf("%w: %s policy %q is filed under %q but has short id %q",
					ErrInvalidPolicyPair, svc, ref.DisplayName, id, ref.ShortID)
			}
		}
	}
	return nil
}

func (a *assembler) fillParameters(doc *Document, values ValueSource) {
	for _, svc := range sortedKeys(doc.PolicyIDPairs) {
		refs := doc.PolicyIDPairs[svc]
		for _, id := range sortedKeys(refs) {
			display := refs[id].DisplayName

			block := make(map[string]ParameterValue)
			for _, param := range values.Parameters(svc, display) {
				if param == reservedParameter {
					continue
				}
				v := EscapeBackslashes(values.Value(svc, display, param))
				if !v.Truthy() {
					a.log.Warn("no value supplied for parameter",
						"service", svc,
						"policy", display,
						"parameter", param)
				}
				block[param] = ParameterValue{
					ParameterName:  param,
					ParameterValue: SerializeValue(v),
				}
			}
			if len(block) == 0 {
				continue
			}

			if doc.ParameterBlocks[svc] == nil {
				doc.ParameterBlocks[svc] = make(map[string]map[string]ParameterValue)
			}
			doc.ParameterBlocks[svc][display] = block
		}
	}
}

// formatRequestError converts validator errors into sentinel-wrapped messages.
func formatRequestError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var pairs, other []string
	for _, fe := range validationErrors {
		ns := fe.StructNamespace()
		if _, after, ok := strings.Cut(ns, "."); ok {
			ns = after
		}
		msg := fmt.Sprintf("%s is %s", ns, fe.Tag())
		if strings.HasPrefix(ns, "Policies") {
			pairs = append(pairs, msg)
		} else {
			other = append(other, msg)
		}
	}
	if len(other) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(other, "; "))
	}
	return fmt.Errorf("%w: %s", ErrInvalidPolicyPair, strings.Join(pairs, "; "))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
