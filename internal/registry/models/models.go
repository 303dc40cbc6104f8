// Package models defines the registered fowl asset.
package models

import (
	id "fowlgate/pkg/domain"
)

// Fowl is the registry's view of a bird: identity and current owner.
// Detailed husbandry data lives with the farm systems, not here.
type Fowl struct {
	ID      id.FowlID `json:"id"`
	OwnerID id.UserID `json:"ownerId"`
	Name    string    `json:"name"`
	Breed   string    `json:"breed,omitempty"`
}
