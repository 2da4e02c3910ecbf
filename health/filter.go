package health

import "strings"

// Filter selects which registered checks run. A nil Filter selects all.
type Filter func(name string) bool

// Only selects the named checks.
func Only(names ...string) Filter {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(name string) bool {
		_, ok := set[name]
		return ok
	}
}

// Except selects every check but the named ones.
func Except(names ...string) Filter {
	only := Only(names...)
	return func(name string) bool {
		return !only(name)
	}
}

// Prefix selects checks whose name starts with p.
func Prefix(p string) Filter {
	return func(name string) bool {
		return strings.HasPrefix(name, p)
	}
}

func (f Filter) match(name string) bool {
	return f == nil || f(name)
}
