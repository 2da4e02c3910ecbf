package lifecycle

import (
	"github.com/jonwraymond/lifeops/health"
)

// Builder assembles a Manager. Groups start in the order service,
// entrypoint, then custom groups in order of first use.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	opts         []Option
	groups       []Group
	index        map[string]int
	healthchecks *health.Builder
}

// NewBuilder creates a builder with empty service and entrypoint groups.
func NewBuilder(opts ...Option) *Builder {
	return &Builder{
		opts: opts,
		groups: []Group{
			{Name: GroupService},
			{Name: GroupEntrypoint},
		},
		index: map[string]int{
			GroupService:    0,
			GroupEntrypoint: 1,
		},
	}
}

// AddService registers v in the service group.
func (b *Builder) AddService(name string, v any) *Builder {
	return b.AddUnit(GroupService, name, v)
}

// AddEntrypoint registers v in the entrypoint group.
func (b *Builder) AddEntrypoint(name string, v any) *Builder {
	return b.AddUnit(GroupEntrypoint, name, v)
}

// AddUnit registers v under name in group, creating the group on first use.
func (b *Builder) AddUnit(group, name string, v any) *Builder {
	i, ok := b.index[group]
	if !ok {
		i = len(b.groups)
		b.index[group] = i
		b.groups = append(b.groups, Group{Name: group})
	}
	b.groups[i].Units = append(b.groups[i].Units, Unit{Name: name, Value: v})
	b.registerHealthcheck(name, v)
	return b
}

// WithHealthchecks makes the builder register every unit implementing
// health.Healthcheckable on hb under its unit name, including units added
// before this call.
func (b *Builder) WithHealthchecks(hb *health.Builder) *Builder {
	b.healthchecks = hb
	for _, g := range b.groups {
		for _, u := range g.Units {
			b.registerHealthcheck(u.Name, u.Value)
		}
	}
	return b
}

func (b *Builder) registerHealthcheck(name string, v any) {
	if b.healthchecks == nil {
		return
	}
	if h, ok := v.(health.Healthcheckable); ok {
		b.healthchecks.Add(name, h)
	}
}

// Build returns a Manager over the registered groups.
func (b *Builder) Build() *Manager {
	return NewManager(b.groups, b.opts...)
}
