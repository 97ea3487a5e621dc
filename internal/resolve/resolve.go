// Package resolve assembles nested read models from a tenant-verified root
// and the batch loaders of the operation.
//
// Every graph starts with a scoped repository read. Child keys handed to
// the loaders are taken only from rows reached that way, so each level is
// fetched with one query per relationship no matter how many parents it has.
package resolve

import (
	"context"
	"errors"

	"github.com/husainf4l/gixat2-sub001/internal/loaders"
	"github.com/husainf4l/gixat2-sub001/internal/workshop"
)

// ErrNoLoaders is returned when the operation carries no loader set.
var ErrNoLoaders = errors.New("resolve: operation has no loaders")

// Resolver builds read models.
type Resolver struct {
	repo *workshop.Repository
}

// New returns a Resolver reading roots through repo.
func New(repo *workshop.Repository) *Resolver {
	return &Resolver{repo: repo}
}

func loadersOf(ctx context.Context) (*loaders.Set, error) {
	set, ok := loaders.FromContext(ctx)
	if !ok {
		return nil, ErrNoLoaders
	}
	return set, nil
}
