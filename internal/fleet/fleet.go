package fleet

import (
	"github.com/jmoiron/sqlx"
)

// Catalog is the read-only list of assignable vehicles, kept in the vehicles
// table and rendered as keyboard options in catalog order.
type Catalog struct {
	db *sqlx.DB
}

func NewCatalog(db *sqlx.DB) *Catalog {
	return &Catalog{db: db}
}

// List returns the vehicle labels in catalog order.
func (c *Catalog) List() ([]string, error) {
	var labels []string
	err := c.db.Select(&labels, `SELECT label FROM vehicles ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	return labels, nil
}
