// Package routes declares HTTP endpoints as data so domain handlers can
// describe their surface and the API module can register and document it.
package routes

import "net/http"

// Group organizes routes under a common prefix. Children inherit the
// accumulated prefix and, when they set none of their own, the tag.
type Group struct {
	Prefix   string
	Tag      string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	walk(groups, func(pattern, _ string, route Route) {
		mux.HandleFunc(pattern, route.Handler)
	})
}

// Patterns lists the ServeMux patterns the groups register, in declaration order.
func Patterns(groups ...Group) []string {
	patterns := []string{}
	walk(groups, func(pattern, _ string, _ Route) {
		patterns = append(patterns, pattern)
	})
	return patterns
}

func walk(groups []Group, fn func(pattern, tag string, route Route)) {
	for _, group := range groups {
		walkGroup("", "", group, fn)
	}
}

func walkGroup(parentPrefix, parentTag string, group Group, fn func(string, string, Route)) {
	fullPrefix := parentPrefix + group.Prefix
	tag := group.Tag
	if tag == "" {
		tag = parentTag
	}
	for _, route := range group.Routes {
		fn(route.Method+" "+fullPrefix+route.Pattern, tag, route)
	}
	for _, child := range group.Children {
		walkGroup(fullPrefix, tag, child, fn)
	}
}
