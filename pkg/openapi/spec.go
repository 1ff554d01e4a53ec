// Package openapi models the subset of OpenAPI 3.1 the service publishes
// about its own routes.
package openapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Spec represents an OpenAPI 3.1 specification document.
type Spec struct {
	OpenAPI    string               `json:"openapi"`
	Info       *Info                `json:"info"`
	Servers    []*Server            `json:"servers,omitempty"`
	Paths      map[string]*PathItem `json:"paths"`
	Components *Components          `json:"components,omitempty"`
}

// NewSpec creates a Spec from cfg with the shared components registered.
func NewSpec(cfg *Config, version string) *Spec {
	return &Spec{
		OpenAPI: "3.1.0",
		Info: &Info{
			Title:       cfg.Title,
			Version:     version,
			Description: cfg.Description,
		},
		Components: NewComponents(),
		Paths:      make(map[string]*PathItem),
	}
}

// AddServer appends a server URL to the spec.
func (s *Spec) AddServer(url string) {
	s.Servers = append(s.Servers, &Server{URL: url})
}

// AddOperation attaches op to path under method. A method that already has
// an operation on path is an error.
func (s *Spec) AddOperation(method, path string, op *Operation) error {
	item, ok := s.Paths[path]
	if !ok {
		item = &PathItem{}
		s.Paths[path] = item
	}

	var slot **Operation
	switch strings.ToUpper(method) {
	case http.MethodGet:
		slot = &item.Get
	case http.MethodHead:
		slot = &item.Head
	case http.MethodPost:
		slot = &item.Post
	case http.MethodPut:
		slot = &item.Put
	case http.MethodDelete:
		slot = &item.Delete
	default:
		return fmt.Errorf("unsupported method %s for %s", method, path)
	}

	if *slot != nil {
		return fmt.Errorf("duplicate operation %s %s", method, path)
	}
	*slot = op
	return nil
}

// MarshalJSON serializes the spec to indented JSON bytes.
func MarshalJSON(spec *Spec) ([]byte, error) {
	return json.MarshalIndent(spec, "", "  ")
}

// ServeSpec returns a handler that serves pre-serialized JSON spec bytes.
func ServeSpec(specBytes []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(specBytes)
	}
}
