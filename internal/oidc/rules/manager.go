package rules

import (
	"context"
	"time"

	"oidcop/internal/oidc/metrics"
	"oidcop/internal/oidc/oautherr"
	"oidcop/internal/platform/logger"
	dErrors "oidcop/pkg/domain-errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Manager runs named rules in the order given by the caller.
type Manager struct {
	rules   map[Key]Rule
	metrics *metrics.Metrics
	logger  *zap.Logger
	tracer  trace.Tracer
}

type ManagerOption func(*Manager)

func WithMetrics(m *metrics.Metrics) ManagerOption {
	return func(mgr *Manager) { mgr.metrics = m }
}

func WithLogger(l *zap.Logger) ManagerOption {
	return func(mgr *Manager) { mgr.logger = l }
}

func WithTracer(t trace.Tracer) ManagerOption {
	return func(mgr *Manager) { mgr.tracer = t }
}

// NewManager registers rules by key. Registering two rules under one key is a
// configuration error.
func NewManager(rules []Rule, opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		rules:  make(map[Key]Rule, len(rules)),
		logger: zap.NewNop(),
		tracer: otel.Tracer("oidcop/internal/oidc/rules"),
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, r := range rules {
		if _, dup := m.rules[r.Key()]; dup {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "rule %q registered twice", r.Key())
		}
		m.rules[r.Key()] = r
	}
	return m, nil
}

// ValidateOrder checks that every rule in keys is registered and that each
// declared dependency is computed by an earlier rule or predefined.
func (m *Manager) ValidateOrder(keys []Key, predefined ...Key) error {
	available := make(map[Key]bool, len(keys)+len(predefined))
	for _, k := range predefined {
		available[k] = true
	}
	for _, k := range keys {
		rule, ok := m.rules[k]
		if !ok {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "rule %q is not registered", k)
		}
		for _, dep := range rule.Dependencies() {
			if !available[dep] {
				return dErrors.Newf(dErrors.CodeInvariantViolation, "rule %q depends on %q, which does not run before it", k, dep)
			}
		}
		available[k] = true
	}
	return nil
}

// Check runs keys in order and stops at the first failure. Predefined results
// are placed in the bag before the first rule runs.
func (m *Manager) Check(ctx context.Context, req *Request, keys []Key, data Data, predefined ...*Result) (*ResultBag, error) {
	ctx, span := m.tracer.Start(ctx, "rules.Check", trace.WithAttributes(
		attribute.Int("rules.count", len(keys)),
	))
	defer span.End()

	start := time.Now()
	defer func() { m.metrics.ObserveValidation(time.Since(start)) }()

	predefinedKeys := make([]Key, 0, len(predefined))
	for _, r := range predefined {
		predefinedKeys = append(predefinedKeys, r.Key())
	}
	if err := m.ValidateOrder(keys, predefinedKeys...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid rule order")
		return nil, err
	}

	bag := NewResultBag()
	for _, r := range predefined {
		bag.Add(r)
	}
	for _, k := range keys {
		result, err := m.rules[k].CheckRule(ctx, req, bag, data)
		if err != nil {
			m.recordFailure(ctx, span, k, err)
			return nil, err
		}
		if result != nil {
			bag.Add(result)
		}
	}
	return bag, nil
}

func (m *Manager) recordFailure(ctx context.Context, span trace.Span, key Key, err error) {
	code := string(dErrors.CodeOf(err))
	if oe, ok := oautherr.As(err); ok {
		code = oe.Code
	}
	m.metrics.IncRuleFailure(string(key), code)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(key))
	span.SetAttributes(attribute.String("rules.failed", string(key)), attribute.String("oauth.error", code))

	log := logger.From(ctx, m.logger)
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		log.Error("rule chain misconfigured", logger.Rule(string(key)), logger.Err(err))
		return
	}
	log.Debug("rule rejected request", logger.Rule(string(key)), logger.OAuthError(code))
}
