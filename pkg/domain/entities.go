// Package domain defines the residence-management entities, the snapshot
// view consumed by invariants, and the validation report primitives used by
// lodgecore.
package domain

// EntityType identifies the type of record held in the entity store.
type EntityType string

// Supported entity type identifiers used in violations and snapshot records.
const (
	// EntityResidence identifies a managed property record.
	EntityResidence EntityType = "residence"
	// EntityBedroom identifies a rentable bedroom record.
	EntityBedroom EntityType = "bedroom"
	// EntityBathroom identifies a bathroom record, private or on the landing.
	EntityBathroom EntityType = "bathroom"
	// EntityResident identifies an occupant record (plain resident or tenant).
	EntityResident EntityType = "resident"
	// EntityRent identifies a lease record linking a tenant to bedrooms.
	EntityRent EntityType = "rent"
	// EntityDiscount identifies a percentage reduction owned by a rent.
	EntityDiscount EntityType = "discount"
)

// Category represents the service level of a residence.
type Category string

// Canonical residence categories, ordered by service level.
const (
	CategoryEconomy  Category = "economy"
	CategoryStandard Category = "standard"
	CategoryPremium  Category = "premium"
	CategoryPrestige Category = "prestige"
)

// KnownCategory reports whether c is one of the canonical categories.
func KnownCategory(c Category) bool {
	switch c {
	case CategoryEconomy, CategoryStandard, CategoryPremium, CategoryPrestige:
		return true
	}
	return false
}

// Gender records the declared gender of a person.
type Gender string

// Declared gender values carried by person records.
const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
	GenderOther  Gender = "other"
)

// ResidentKind distinguishes the resident variants. A tenant is a resident
// that additionally holds one or more rents.
type ResidentKind string

// Resident variants.
const (
	KindResident ResidentKind = "resident"
	KindTenant   ResidentKind = "tenant"
)

// Residence is a managed property owning rooms. Rooms are a composition:
// deleting a residence deletes its rooms.
type Residence struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	FloorMin int      `json:"floor_min"`
	FloorMax int      `json:"floor_max"`
	Category Category `json:"category"`
}

// Bedroom is the rentable room variant. Rate is the nominal (stored) rate;
// the rate actually paid under a rent is a derived quantity kept separate
// from this field.
type Bedroom struct {
	ID          string  `json:"id"`
	ResidenceID string  `json:"residence_id"`
	Number      int     `json:"number"`
	OutOfOrder  bool    `json:"out_of_order"`
	SingleBeds  int     `json:"single_beds"`
	DoubleBeds  int     `json:"double_beds"`
	Rate        float64 `json:"rate"`
	NonSmoking  bool    `json:"non_smoking"`
}

// Bathroom is the non-rentable room variant. It may be private (linked to a
// bedroom) or on the landing.
type Bathroom struct {
	ID          string `json:"id"`
	ResidenceID string `json:"residence_id"`
	Number      int    `json:"number"`
	OutOfOrder  bool   `json:"out_of_order"`
}

// Room is the capability shared by the bedroom and bathroom variants.
type Room interface {
	RoomEntity() EntityType
	RoomID() string
	RoomNumber() int
	RoomResidence() string
	RoomOutOfOrder() bool
}

// RoomEntity returns EntityBedroom. Room identifiers are only unique per
// entity type, so floor lookups carry the type alongside the id.
func (b Bedroom) RoomEntity() EntityType { return EntityBedroom }

// RoomID returns the bedroom identifier.
func (b Bedroom) RoomID() string { return b.ID }

// RoomNumber returns the stored room number.
func (b Bedroom) RoomNumber() int { return b.Number }

// RoomResidence returns the owning residence identifier.
func (b Bedroom) RoomResidence() string { return b.ResidenceID }

// RoomOutOfOrder reports whether the bedroom is out of order.
func (b Bedroom) RoomOutOfOrder() bool { return b.OutOfOrder }

// RoomEntity returns EntityBathroom.
func (b Bathroom) RoomEntity() EntityType { return EntityBathroom }

// RoomID returns the bathroom identifier.
func (b Bathroom) RoomID() string { return b.ID }

// RoomNumber returns the stored room number.
func (b Bathroom) RoomNumber() int { return b.Number }

// RoomResidence returns the owning residence identifier.
func (b Bathroom) RoomResidence() string { return b.ResidenceID }

// RoomOutOfOrder reports whether the bathroom is out of order.
func (b Bathroom) RoomOutOfOrder() bool { return b.OutOfOrder }

// Resident is an occupant. BedroomID names the occupied bedroom; occupancy
// cardinality is validated by invariant, not at construction. Tutors and
// consorts live in relation tables owned by the store.
type Resident struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Age       int          `json:"age"`
	Gender    Gender       `json:"gender"`
	Kind      ResidentKind `json:"kind"`
	Smoker    bool         `json:"smoker"`
	BedroomID string       `json:"bedroom_id"`
}

// IsTenant reports whether the resident is the tenant variant.
func (r Resident) IsTenant() bool { return r.Kind == KindTenant }

// Rent is an association entity linking at most one tenant to one or more
// bedrooms. Bedroom links live in a relation table; discounts are a
// composition and are deleted with the rent.
type Rent struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
}

// Discount is a named percentage reduction owned by a rent.
type Discount struct {
	ID         string `json:"id"`
	RentID     string `json:"rent_id"`
	Percentage int    `json:"percentage"`
	Label      string `json:"label"`
}
