package model

import "time"

// Hall types and statuses accepted by the admin console.
var (
	HallTypes    = []string{"Standard", "IMAX", "VIP", "Premium"}
	HallStatuses = []string{"Active", "Maintenance", "Inactive"}
)

// Hall represents a screening hall.  Names are unique across the cinema.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – unique hall name.
//  Capacity    – number of seats, at least 1.
//  Type        – Standard, IMAX, VIP or Premium.
//  Status      – Active, Maintenance or Inactive.
//  Description – optional free text.
//  Amenities   – optional list of amenity labels.
type Hall struct {
	ID          string    // halls.id
	Name        string    // halls.name
	Capacity    int       // halls.capacity
	Type        string    // halls.type
	Status      string    // halls.status
	Description string    // halls.description
	Amenities   []string  // halls.amenities
	CreatedAt   time.Time // halls.created_at
	UpdatedAt   time.Time // halls.updated_at
}
