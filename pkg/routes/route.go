package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler. Summary and Status
// describe the route in the generated OpenAPI document; Status defaults to
// 200.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	Summary string
	Status  int
}
