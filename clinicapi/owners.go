package clinicapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// GetOwner fetches one owner record.
func (c *Client) GetOwner(ctx context.Context, id int64) (*Owner, error) {
	var owner Owner
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/owners/%d", id), nil, &owner); err != nil {
		return nil, errors.Wrap(err, "[Client.GetOwner]")
	}
	return &owner, nil
}

// ListPets fetches the pets belonging to an owner.
func (c *Client) ListPets(ctx context.Context, ownerID int64) ([]Pet, error) {
	var pets []Pet
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/owners/%d/pets", ownerID), nil, &pets); err != nil {
		return nil, errors.Wrap(err, "[Client.ListPets]")
	}
	return pets, nil
}

// CreatePet registers a new pet under an owner.
func (c *Client) CreatePet(ctx context.Context, pet Pet) (*Pet, error) {
	var created Pet
	if err := c.Do(ctx, http.MethodPost, fmt.Sprintf("/owners/%d/pets", pet.OwnerID), pet, &created); err != nil {
		return nil, errors.Wrap(err, "[Client.CreatePet]")
	}
	return &created, nil
}
