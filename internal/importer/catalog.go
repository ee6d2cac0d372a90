package importer

import (
	"errors"
	"fmt"

	"github.com/dwes123/fpl-stats-go/internal/fpl"
)

// ErrUnknownReference means a player points at a team or position the
// bootstrap catalog does not list.
var ErrUnknownReference = errors.New("unknown catalog reference")

// Catalog is one run's in-memory snapshot of the bootstrap endpoint.
type Catalog struct {
	Players   []fpl.Element
	teams     map[int]string
	positions map[int]string
}

func NewCatalog(b *fpl.Bootstrap) *Catalog {
	c := &Catalog{
		Players:   b.Elements,
		teams:     make(map[int]string, len(b.Teams)),
		positions: make(map[int]string, len(b.ElementTypes)),
	}
	for _, t := range b.Teams {
		c.teams[t.ID] = t.Name
	}
	for _, et := range b.ElementTypes {
		c.positions[et.ID] = et.SingularName
	}
	return c
}

// Labels returns the team name and position label for a player.
func (c *Catalog) Labels(p fpl.Element) (team, position string, err error) {
	team, ok := c.teams[p.Team]
	if !ok {
		return "", "", fmt.Errorf("%w: team %d for player %d", ErrUnknownReference, p.Team, p.ID)
	}
	position, ok = c.positions[p.ElementType]
	if !ok {
		return "", "", fmt.Errorf("%w: element type %d for player %d", ErrUnknownReference, p.ElementType, p.ID)
	}
	return team, position, nil
}
