package firm

import (
	"time"
)

// Firm represents a law firm tenant. Solo practitioners have no Firm record;
// their tenancy is keyed by lawyer ID.
type Firm struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Tier      string    `json:"tier"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subscription tiers
const (
	TierSolo       = "solo"
	TierTeam       = "team"
	TierEnterprise = "enterprise"
)
