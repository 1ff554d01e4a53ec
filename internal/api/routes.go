package api

import (
	"net/http"

	"github.com/JaimeStill/slate/internal/config"
	"github.com/JaimeStill/slate/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) []routes.Group {
	groups := []routes.Group{
		domain.Scripts.Handler(runtime.MaxUploadSize).Routes(),
		domain.Breakdowns.Handler().Routes(),
		newStorageHandler(runtime.Storage, runtime.Logger).routes(),
		newTaxonomyHandler(runtime.Analysis.Engine, runtime.Logger).routes(),
	}

	routes.Register(mux, groups...)
	return groups
}
