package api

import (
	"github.com/JaimeStill/slate/internal/breakdowns"
	"github.com/JaimeStill/slate/internal/scripts"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Scripts    scripts.System
	Breakdowns breakdowns.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	scriptsSystem := scripts.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	breakdownsSystem := breakdowns.New(
		runtime.Database.Connection(),
		runtime.Analysis,
		scriptsSystem,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Scripts:    scriptsSystem,
		Breakdowns: breakdownsSystem,
	}
}
