package lifecycle

// Well-known group labels, in default start order.
const (
	GroupService    = "service"
	GroupEntrypoint = "entrypoint"
)

// Unit is a named value participating in the lifecycle. Value may implement
// any subset of Startable, Stoppable and health.Healthcheckable, including
// none.
type Unit struct {
	Name  string
	Value any
}

// Group is an ordered phase of the lifecycle. Units inside a group are
// started together and stopped together, in no particular order.
type Group struct {
	Name  string
	Units []Unit
}

func (g Group) clone() Group {
	units := make([]Unit, len(g.Units))
	copy(units, g.Units)
	return Group{Name: g.Name, Units: units}
}

func startables(units []Unit) []Unit {
	out := make([]Unit, 0, len(units))
	for _, u := range units {
		if _, ok := u.Value.(Startable); ok {
			out = append(out, u)
		}
	}
	return out
}

func stoppables(units []Unit) []Unit {
	out := make([]Unit, 0, len(units))
	for _, u := range units {
		if _, ok := u.Value.(Stoppable); ok {
			out = append(out, u)
		}
	}
	return out
}
