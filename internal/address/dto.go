package address

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/grocery-backend/pkg/db/models"
)

// AddressDTO is a saved delivery address.
type AddressDTO struct {
	ID           uuid.UUID `json:"id"`
	FullName     string    `json:"full_name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	AddressLine1 string    `json:"address_line1"`
	AddressLine2 *string   `json:"address_line2,omitempty"`
	Landmark     *string   `json:"landmark,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Pincode      string    `json:"pincode"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateInput is a new address. FullName, Phone, AddressLine2 and Landmark
// are optional.
type CreateInput struct {
	FullName     string
	Phone        string
	AddressLine1 string
	AddressLine2 *string
	Landmark     *string
	City         string
	State        string
	Pincode      string
}

func mapAddressDTO(a models.Address) AddressDTO {
	return AddressDTO{
		ID:           a.ID,
		FullName:     a.FullName,
		Phone:        a.Phone,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		Landmark:     a.Landmark,
		City:         a.City,
		State:        a.State,
		Pincode:      a.Pincode,
		IsDefault:    a.IsDefault,
		CreatedAt:    a.CreatedAt,
	}
}
