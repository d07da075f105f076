package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/skillskit/skillskit/pkg/logger"
	"github.com/skillskit/skillskit/pkg/telemetry"
)

var (
	// ErrSkillNotFound is returned when no skill is registered under an ID
	ErrSkillNotFound = errors.New("skill not found")
	// ErrInvalidInput wraps every input validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when a skill requires an auth token and none was given
	ErrUnauthorized = errors.New("authentication required")
	// ErrRateLimited is returned when a skill's rate limit is exhausted
	ErrRateLimited = errors.New("rate limit exceeded")
)

var tracer = telemetry.Tracer("skillskit.registry")

// Execute validates input against the skill's parameters, fills defaults and
// runs the handler. The result metadata gains executionTime in milliseconds
// and a unique executionId.
func (r *Registry) Execute(ctx context.Context, id string, input map[string]any, sc *Context) (*Result, error) {
	skill, ok := r.Get(id)
	if !ok {
		return nil, errors.Wrapf(ErrSkillNotFound, "skill '%s'", id)
	}
	if skill.Handler == nil {
		return nil, errors.Errorf("skill '%s' has no handler", id)
	}

	def := skill.Definition
	if def.RequiresAuth && (sc == nil || sc.AuthToken == "") {
		return nil, errors.Wrapf(ErrUnauthorized, "skill '%s'", id)
	}

	args, err := def.PrepareInput(input)
	if err != nil {
		return nil, err
	}

	if lim := r.limiterFor(def); lim != nil && !lim.Allow() {
		return nil, errors.Wrapf(ErrRateLimited, "skill '%s' allows %d requests per %s", id, def.RateLimit.Requests, def.RateLimit.Period)
	}

	executionID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "registry.execute", trace.WithAttributes(
		telemetry.SkillIDKey.String(id),
		attribute.String("skill.execution_id", executionID),
	))
	defer span.End()

	ctx = logger.WithFields(ctx, map[string]any{"skill_id": id, "execution_id": executionID})

	start := time.Now()
	result, err := skill.Handler(ctx, args, sc)
	elapsed := time.Since(start)

	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.G(ctx).WithError(err).Debug("skill execution failed")
		return nil, errors.Wrapf(err, "skill '%s' failed", id)
	}

	if result == nil {
		result = &Result{Success: true}
	}
	if result.Metadata == nil {
		result.Metadata = make(map[string]any, 2)
	}
	result.Metadata["executionTime"] = elapsed.Milliseconds()
	result.Metadata["executionId"] = executionID

	span.SetAttributes(attribute.Bool("skill.success", result.Success))
	return result, nil
}

// PrepareInput returns a copy of input with parameter defaults applied. Every
// problem found is reported; each one wraps ErrInvalidInput.
func (d Definition) PrepareInput(input map[string]any) (map[string]any, error) {
	args := make(map[string]any, len(input)+len(d.Parameters))
	for k, v := range input {
		args[k] = v
	}

	var result *multierror.Error
	for _, param := range d.Parameters {
		value, present := args[param.Name]
		if !present || value == nil {
			switch {
			case param.Default != nil:
				args[param.Name] = param.Default
			case param.Required:
				result = multierror.Append(result, errors.Wrapf(ErrInvalidInput, "missing required parameter '%s'", param.Name))
			}
			continue
		}

		if !matchesType(value, param.Type) {
			result = multierror.Append(result, errors.Wrapf(ErrInvalidInput, "parameter '%s' must be of type %s", param.Name, param.Type))
			continue
		}
		if len(param.Enum) > 0 && !inEnum(value, param.Enum) {
			result = multierror.Append(result, errors.Wrapf(ErrInvalidInput, "parameter '%s' must be one of %v", param.Name, param.Enum))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return args, nil
}

func matchesType(value any, t ParamType) bool {
	if _, ok := value.(json.Number); ok {
		return t == TypeNumber || t == ""
	}

	kind := reflect.TypeOf(value).Kind()
	switch t {
	case TypeString:
		return kind == reflect.String
	case TypeNumber:
		switch kind {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return true
		}
		return false
	case TypeBoolean:
		return kind == reflect.Bool
	case TypeObject:
		return kind == reflect.Map || kind == reflect.Struct
	case TypeArray:
		return kind == reflect.Slice || kind == reflect.Array
	default:
		return true
	}
}

func inEnum(value any, enum []any) bool {
	s := fmt.Sprint(value)
	for _, allowed := range enum {
		if fmt.Sprint(allowed) == s {
			return true
		}
	}
	return false
}

type limiter struct {
	*rate.Limiter
}

var ratePeriods = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
}

// limiterFor returns the token bucket for def, creating it on first use.
// Definitions without a usable rate limit get nil.
func (r *Registry) limiterFor(def Definition) *limiter {
	if def.RateLimit == nil || def.RateLimit.Requests <= 0 {
		return nil
	}
	period, ok := ratePeriods[def.RateLimit.Period]
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if lim, ok := r.limiters[def.ID]; ok {
		return lim
	}
	lim := &limiter{rate.NewLimiter(rate.Every(period/time.Duration(def.RateLimit.Requests)), def.RateLimit.Requests)}
	r.limiters[def.ID] = lim
	return lim
}
