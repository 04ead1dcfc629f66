package core

import (
	"testing"

	"lodgecore/pkg/domain"
)

func TestBedroomHasBedsInvariant(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-1", Number: 101, Rate: 1}))
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-2", Number: 102, DoubleBeds: 1, Rate: 1}))

	res := evaluateOn(t, NewBedroomHasBedsInvariant(), store.Snapshot())
	if len(res.Violations) != 1 || res.Violations[0].EntityID != "bed-1" {
		t.Fatalf("expected one violation for the bedless bedroom, got %v", res.Violations)
	}
}

func TestNonNegativeBedCountsInvariant(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-1", Number: 101, SingleBeds: -1, DoubleBeds: 2, Rate: 1}))

	res := evaluateOn(t, NewNonNegativeBedCountsInvariant(), store.Snapshot())
	if len(res.Violations) != 1 {
		t.Fatalf("expected a negative bed count violation, got %v", res.Violations)
	}
}

func TestPositiveBedroomRateInvariant(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-1", Number: 101, SingleBeds: 1, Rate: 0}))
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-2", Number: 102, SingleBeds: 1, Rate: 0.5}))

	res := evaluateOn(t, NewPositiveBedroomRateInvariant(), store.Snapshot())
	if len(res.Violations) != 1 || res.Violations[0].EntityID != "bed-1" {
		t.Fatalf("expected one violation for the zero rate, got %v", res.Violations)
	}
}

func TestOccupantsWithinCapacityInvariant(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-1", Number: 101, SingleBeds: 1, Rate: 1}))
	mustAdd(t, store.AddResident(domain.Resident{ID: "p-1", Age: 30, BedroomID: "bed-1"}))
	mustAdd(t, store.AddResident(domain.Resident{ID: "p-2", Age: 31, BedroomID: "bed-1"}))

	res := evaluateOn(t, NewOccupantsWithinCapacityInvariant(), store.Snapshot())
	if len(res.Violations) != 1 {
		t.Fatalf("expected a capacity violation for two occupants on one single bed, got %v", res.Violations)
	}

	// A double bed sleeps two.
	other := NewStore()
	mustAdd(t, other.AddBedroom(domain.Bedroom{ID: "bed-1", Number: 101, DoubleBeds: 1, Rate: 1}))
	mustAdd(t, other.AddResident(domain.Resident{ID: "p-1", Age: 30, BedroomID: "bed-1"}))
	mustAdd(t, other.AddResident(domain.Resident{ID: "p-2", Age: 31, BedroomID: "bed-1"}))
	res = evaluateOn(t, NewOccupantsWithinCapacityInvariant(), other.Snapshot())
	if len(res.Violations) != 0 {
		t.Fatalf("expected no violation for a double bed, got %v", res.Violations)
	}
}

func TestNoOccupantsWhenOutOfOrderInvariant(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-1", Number: 101, SingleBeds: 1, Rate: 1, OutOfOrder: true}))
	mustAdd(t, store.AddResident(domain.Resident{ID: "p-1", Age: 30, BedroomID: "bed-1"}))

	res := evaluateOn(t, NewNoOccupantsWhenOutOfOrderInvariant(), store.Snapshot())
	if len(res.Violations) != 1 {
		t.Fatalf("expected a violation for the occupied out-of-order bedroom, got %v", res.Violations)
	}
}

func TestNonSmokerOccupancyInvariant(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-1", Number: 101, SingleBeds: 2, Rate: 1, NonSmoking: true}))
	mustAdd(t, store.AddResident(domain.Resident{ID: "p-1", Age: 30, Smoker: true, BedroomID: "bed-1"}))
	mustAdd(t, store.AddResident(domain.Resident{ID: "p-2", Age: 31, BedroomID: "bed-1"}))

	res := evaluateOn(t, NewNonSmokerOccupancyInvariant(), store.Snapshot())
	if len(res.Violations) != 1 {
		t.Fatalf("expected one violation for the smoker, got %v", res.Violations)
	}
}

func TestAtMostThreeBathroomsInvariant(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-1", Number: 101, SingleBeds: 1, Rate: 1}))
	for i, id := range []string{"bath-1", "bath-2", "bath-3", "bath-4"} {
		mustAdd(t, store.AddBathroom(domain.Bathroom{ID: id, Number: 200 + i}))
		store.LinkBathroom("bed-1", id)
	}

	res := evaluateOn(t, NewAtMostThreeBathroomsInvariant(), store.Snapshot())
	if len(res.Violations) != 1 {
		t.Fatalf("expected a violation for four linked bathrooms, got %v", res.Violations)
	}
}

func TestBathroomSameResidenceInvariant(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddResidence(domain.Residence{ID: "res-1", Category: domain.CategoryStandard}))
	mustAdd(t, store.AddResidence(domain.Residence{ID: "res-2", Category: domain.CategoryStandard}))
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-1", ResidenceID: "res-1", Number: 101, SingleBeds: 1, Rate: 1}))
	mustAdd(t, store.AddBathroom(domain.Bathroom{ID: "bath-1", ResidenceID: "res-2", Number: 102}))
	store.LinkBathroom("bed-1", "bath-1")

	res := evaluateOn(t, NewBathroomSameResidenceInvariant(), store.Snapshot())
	if len(res.Violations) != 1 {
		t.Fatalf("expected a cross-residence violation, got %v", res.Violations)
	}
}

func TestBedroomSingleRentInvariant(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-1", Number: 101, SingleBeds: 1, Rate: 1}))
	mustAdd(t, store.AddRent(domain.Rent{ID: "rent-1"}))
	mustAdd(t, store.AddRent(domain.Rent{ID: "rent-2"}))
	store.LinkRentBedroom("rent-1", "bed-1")
	store.LinkRentBedroom("rent-2", "bed-1")

	res := evaluateOn(t, NewBedroomSingleRentInvariant(), store.Snapshot())
	if len(res.Violations) != 1 {
		t.Fatalf("expected a violation for two rents on one bedroom, got %v", res.Violations)
	}
}

func TestBathroomSingleBedroomInvariant(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-1", Number: 101, SingleBeds: 1, Rate: 1}))
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-2", Number: 102, SingleBeds: 1, Rate: 1}))
	mustAdd(t, store.AddBathroom(domain.Bathroom{ID: "bath-1", Number: 103}))
	store.LinkBathroom("bed-1", "bath-1")
	store.LinkBathroom("bed-2", "bath-1")

	res := evaluateOn(t, NewBathroomSingleBedroomInvariant(), store.Snapshot())
	if len(res.Violations) != 1 {
		t.Fatalf("expected a violation for a bathroom linked to two bedrooms, got %v", res.Violations)
	}
}
