package domain

import "sort"

// Home is the route that shows the dashboard instead of a child application.
const Home = "home"

// RouteTable maps a logical route name to the address of the child application it embeds. An empty address
// means "no embedded document".
type RouteTable map[string]string

// Lookup returns the address of a route. ok is false for home, for unknown names and for routes without an
// address.
func (t RouteTable) Lookup(name string) (address string, ok bool) {
	if name == Home {
		return "", false
	}
	address = t[name]
	return address, address != ""
}

// Names returns the routes that embed a child application, sorted.
func (t RouteTable) Names() []string {
	names := make([]string, 0, len(t))
	for name, address := range t {
		if name != Home && address != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
