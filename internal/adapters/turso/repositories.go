package turso

import (
	"database/sql"

	"github.com/emiliopalmerini/framescope/internal/ports"
)

// Repositories holds all turso repository implementations as port interfaces.
type Repositories struct {
	Turns   ports.TurnRepository
	Pricing ports.PricingRepository
}

// NewRepositories creates all turso repository implementations from a database connection.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Turns:   NewTurnRepository(db),
		Pricing: NewPricingRepository(db),
	}
}
