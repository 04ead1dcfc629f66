package domain

import "context"

// SnapshotView provides read-only, typed navigation over a frozen entity
// graph for derivation and invariant evaluation. List order is deterministic
// (sorted by identifier) but carries no meaning.
type SnapshotView interface {
	ListResidences() []Residence
	ListBedrooms() []Bedroom
	ListBathrooms() []Bathroom
	ListResidents() []Resident
	ListRents() []Rent
	ListDiscounts() []Discount

	FindResidence(id string) (Residence, bool)
	FindBedroom(id string) (Bedroom, bool)
	FindBathroom(id string) (Bathroom, bool)
	FindResident(id string) (Resident, bool)
	FindRent(id string) (Rent, bool)
	FindDiscount(id string) (Discount, bool)

	BedroomsOfResidence(id string) []Bedroom
	BathroomsOfResidence(id string) []Bathroom
	BathroomsOfBedroom(id string) []Bathroom
	BedroomsOfBathroom(id string) []Bedroom
	OccupantsOfBedroom(id string) []Resident
	TutorsOf(id string) []Resident
	TutoredBy(id string) []Resident
	ConsortsOf(id string) []Resident
	RentsOfTenant(id string) []Rent
	BedroomsOfRent(id string) []Bedroom
	RentsOfBedroom(id string) []Rent
	DiscountsOfRent(id string) []Discount

	// Derived exposes the derived-attribute values computed for this
	// snapshot. It is nil until the evaluator has run.
	Derived() DerivedView
}

// DerivedView exposes derived attribute values computed over a snapshot.
// The boolean result is false when the instance is unknown. Room identifiers
// are only unique per entity type, so the floor lookup takes the room's
// entity type as well. BedroomUnits and ResidenceAvgRate are declared by the
// model but their formulas are undefined; they return ErrNotImplemented.
type DerivedView interface {
	RoomFloor(entity EntityType, roomID string) (int, bool)
	BathroomOnLanding(id string) (bool, bool)
	ResidenceFreeUnits(id string) (int, bool)
	RentDiscount(id string) (float64, bool)
	RentRate(id string) (float64, bool)
	TenantPaidRate(id string) (float64, bool)
	BedroomUnits(id string) (int, error)
	ResidenceAvgRate(id string) (float64, error)
}

// Invariant is a named predicate over every instance of its context entity
// type. Evaluate inspects the whole frozen snapshot and returns one violation
// per failing instance; it never stops at the first failure.
type Invariant interface {
	Name() string
	Context() EntityType
	Evaluate(ctx context.Context, view SnapshotView) (Result, error)
}
