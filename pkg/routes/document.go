package routes

import (
	"net/http"
	"strings"

	"github.com/JaimeStill/slate/pkg/openapi"
)

// Document adds an operation to spec for every route in groups. Paths are
// written relative to basePath, wildcard segments lose their "..." suffix,
// and every brace segment becomes a required path parameter.
func Document(spec *openapi.Spec, basePath string, groups ...Group) error {
	var err error
	walk(groups, func(pattern, tag string, route Route) {
		if err != nil {
			return
		}
		_, path, _ := strings.Cut(pattern, " ")
		path, params := openapiPath(basePath + path)

		status := route.Status
		if status == 0 {
			status = http.StatusOK
		}

		op := &openapi.Operation{
			Summary: route.Summary,
			Responses: map[int]*openapi.Response{
				status: {Description: http.StatusText(status)},
			},
		}
		if tag != "" {
			op.Tags = []string{tag}
		}
		for _, name := range params {
			op.Parameters = append(op.Parameters, openapi.PathParam(name))
		}
		if len(params) > 0 {
			op.Responses[http.StatusNotFound] = openapi.ResponseRef("NotFound")
		}
		if route.Method == http.MethodPost {
			op.Responses[http.StatusBadRequest] = openapi.ResponseRef("BadRequest")
		}

		err = spec.AddOperation(route.Method, path, op)
	})
	return err
}

func openapiPath(pattern string) (string, []string) {
	if pattern == "" {
		pattern = "/"
	}

	var params []string
	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		name := strings.TrimSuffix(seg[1:len(seg)-1], "...")
		segments[i] = "{" + name + "}"
		params = append(params, name)
	}
	return strings.Join(segments, "/"), params
}
