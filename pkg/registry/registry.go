package registry

import (
	"context"
	"sync"

	"github.com/skillskit/skillskit/pkg/logger"
)

// Registry maps skill IDs to skills. The zero value is not usable; create one
// with New. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	skills   map[string]Skill
	limiters map[string]*limiter
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		skills:   make(map[string]Skill),
		limiters: make(map[string]*limiter),
	}
}

// Default is the process-wide registry used by the package-level functions
var Default = New()

// Register adds skill under its definition ID. Registering an ID twice
// replaces the earlier skill in place and logs a warning.
func (r *Registry) Register(ctx context.Context, skill Skill) {
	id := skill.Definition.ID

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.skills[id]; exists {
		logger.G(ctx).WithField("skill_id", id).Warn("skill is already registered, overwriting")
	} else {
		r.order = append(r.order, id)
	}

	r.skills[id] = skill
	delete(r.limiters, id)
}

// Get returns the skill registered under id
func (r *Registry) Get(id string) (Skill, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	skill, ok := r.skills[id]
	return skill, ok
}

// All returns every skill in registration order
func (r *Registry) All() []Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Skill, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.skills[id])
	}
	return all
}

// ByCategory returns the skills whose category equals category exactly
func (r *Registry) ByCategory(category string) []Skill {
	matched := []Skill{}
	for _, skill := range r.All() {
		if skill.Definition.Category == category {
			matched = append(matched, skill)
		}
	}
	return matched
}

// Categories returns the distinct non-empty categories in first-seen order
func (r *Registry) Categories() []string {
	seen := make(map[string]struct{})
	categories := []string{}
	for _, skill := range r.All() {
		category := skill.Definition.Category
		if category == "" {
			continue
		}
		if _, ok := seen[category]; ok {
			continue
		}
		seen[category] = struct{}{}
		categories = append(categories, category)
	}
	return categories
}

// Register adds skill to the Default registry
func Register(ctx context.Context, skill Skill) {
	Default.Register(ctx, skill)
}

// Get looks up id in the Default registry
func Get(id string) (Skill, bool) {
	return Default.Get(id)
}

// All returns every skill in the Default registry
func All() []Skill {
	return Default.All()
}

// ByCategory filters the Default registry by category
func ByCategory(category string) []Skill {
	return Default.ByCategory(category)
}

// Categories lists the categories of the Default registry
func Categories() []string {
	return Default.Categories()
}

// Execute runs a skill from the Default registry
func Execute(ctx context.Context, id string, input map[string]any, sc *Context) (*Result, error) {
	return Default.Execute(ctx, id, input, sc)
}
