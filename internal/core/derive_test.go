package core

import (
	"context"
	"errors"
	"testing"

	"lodgecore/pkg/domain"
)

func TestRoomFloorFromNumber(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddResidence(domain.Residence{ID: "res-1", FloorMax: 9, Category: domain.CategoryStandard}))
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-1", ResidenceID: "res-1", Number: 634, SingleBeds: 1, Rate: 1}))
	mustAdd(t, store.AddBathroom(domain.Bathroom{ID: "bath-1", ResidenceID: "res-1", Number: 99}))
	snap := derivedSnapshot(t, store)

	derived := snap.Derived()
	if floor, ok := derived.RoomFloor(domain.EntityBedroom, "bed-1"); !ok || floor != 6 {
		t.Fatalf("expected room 634 on floor 6, got %d (found=%v)", floor, ok)
	}
	if floor, ok := derived.RoomFloor(domain.EntityBathroom, "bath-1"); !ok || floor != 0 {
		t.Fatalf("expected room 99 on floor 0, got %d (found=%v)", floor, ok)
	}
}

func TestRoomFloorSlotsDistinctPerRoomType(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddResidence(domain.Residence{ID: "res-1", FloorMax: 9, Category: domain.CategoryStandard}))
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "room-x", ResidenceID: "res-1", Number: 634, SingleBeds: 1, Rate: 1}))
	mustAdd(t, store.AddBathroom(domain.Bathroom{ID: "room-x", ResidenceID: "res-1", Number: 101}))
	snap := derivedSnapshot(t, store)

	derived := snap.Derived()
	if floor, ok := derived.RoomFloor(domain.EntityBedroom, "room-x"); !ok || floor != 6 {
		t.Fatalf("expected bedroom 634 on floor 6, got %d (found=%v)", floor, ok)
	}
	if floor, ok := derived.RoomFloor(domain.EntityBathroom, "room-x"); !ok || floor != 1 {
		t.Fatalf("expected bathroom 101 on floor 1, got %d (found=%v)", floor, ok)
	}
}

func TestBathroomOnLandingIsAlwaysTrue(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddResidence(domain.Residence{ID: "res-1", Category: domain.CategoryStandard}))
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-1", ResidenceID: "res-1", Number: 1, SingleBeds: 1, Rate: 1}))
	mustAdd(t, store.AddBathroom(domain.Bathroom{ID: "bath-1", ResidenceID: "res-1", Number: 2}))
	store.LinkBathroom("bed-1", "bath-1")
	snap := derivedSnapshot(t, store)

	onLanding, ok := snap.Derived().BathroomOnLanding("bath-1")
	if !ok || !onLanding {
		t.Fatalf("expected isOnTheLanding true even for a linked bathroom, got %v (found=%v)", onLanding, ok)
	}
}

func TestResidenceFreeUnits(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddResidence(domain.Residence{ID: "res-1", Category: domain.CategoryStandard}))
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-1", ResidenceID: "res-1", Number: 1, SingleBeds: 2, DoubleBeds: 1, Rate: 1}))
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-2", ResidenceID: "res-1", Number: 2, SingleBeds: 0, DoubleBeds: 1, Rate: 1}))
	snap := derivedSnapshot(t, store)

	units, ok := snap.Derived().ResidenceFreeUnits("res-1")
	if !ok || units != 4 {
		t.Fatalf("expected 4 free units, got %d (found=%v)", units, ok)
	}
}

func TestRentDiscountAndRate(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddResidence(domain.Residence{ID: "res-1", Category: domain.CategoryStandard}))
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-1", ResidenceID: "res-1", Number: 101, SingleBeds: 1, Rate: 100}))
	mustAdd(t, store.AddResident(domain.Resident{ID: "ten-1", Age: 25, Kind: domain.KindTenant, BedroomID: "bed-1"}))
	mustAdd(t, store.AddRent(domain.Rent{ID: "rent-1", TenantID: "ten-1"}))
	store.LinkRentBedroom("rent-1", "bed-1")
	mustAdd(t, store.AddDiscount(domain.Discount{ID: "d-1", RentID: "rent-1", Percentage: 30, Label: "early"}))
	mustAdd(t, store.AddDiscount(domain.Discount{ID: "d-2", RentID: "rent-1", Percentage: 50, Label: "long stay"}))
	snap := derivedSnapshot(t, store)

	derived := snap.Derived()
	discount, ok := derived.RentDiscount("rent-1")
	if !ok || discount != 80 {
		t.Fatalf("expected discount 80 for basis 100 at 30+50 percent, got %v (found=%v)", discount, ok)
	}
	rate, ok := derived.RentRate("rent-1")
	if !ok || rate != 20 {
		t.Fatalf("expected derived rate 20, got %v (found=%v)", rate, ok)
	}
	paid, ok := derived.TenantPaidRate("ten-1")
	if !ok || paid != 20 {
		t.Fatalf("expected paid rate 20 with a single floor, got %v (found=%v)", paid, ok)
	}
}

func TestTenantPaidRateFloorSpreadDeduction(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddResidence(domain.Residence{ID: "res-1", FloorMax: 9, Category: domain.CategoryStandard}))
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-1", ResidenceID: "res-1", Number: 101, SingleBeds: 1, Rate: 100}))
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-2", ResidenceID: "res-1", Number: 201, SingleBeds: 1, Rate: 50}))
	mustAdd(t, store.AddResident(domain.Resident{ID: "ten-1", Age: 25, Kind: domain.KindTenant, BedroomID: "bed-1"}))
	mustAdd(t, store.AddResident(domain.Resident{ID: "p-2", Age: 25, BedroomID: "bed-2"}))
	mustAdd(t, store.AddRent(domain.Rent{ID: "rent-1", TenantID: "ten-1"}))
	store.LinkRentBedroom("rent-1", "bed-1")
	store.LinkRentBedroom("rent-1", "bed-2")
	snap := derivedSnapshot(t, store)

	// Rent rate is 150; the occupant group spans floors 1 and 2.
	paid, ok := snap.Derived().TenantPaidRate("ten-1")
	if !ok || paid != 130 {
		t.Fatalf("expected paid rate 130 after floor spread deduction, got %v (found=%v)", paid, ok)
	}
}

func TestRentWithoutBedroomAbortsDerivation(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddResident(domain.Resident{ID: "ten-1", Age: 25, Kind: domain.KindTenant}))
	mustAdd(t, store.AddRent(domain.Rent{ID: "rent-1", TenantID: "ten-1"}))
	snap := store.Snapshot()

	err := evaluateDerived(context.Background(), snap)
	var unresolved *domain.UnresolvedDerivationError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedDerivationError, got %v", err)
	}
	if unresolved.Entity != domain.EntityRent || unresolved.EntityID != "rent-1" {
		t.Fatalf("unexpected error subject: %+v", unresolved)
	}
}

func TestUndefinedDerivationsReturnNotImplemented(t *testing.T) {
	snap := derivedSnapshot(t, validStore(t))
	derived := snap.Derived()
	if _, err := derived.BedroomUnits("bed-1"); !errors.Is(err, domain.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented for bedroom units, got %v", err)
	}
	if _, err := derived.ResidenceAvgRate("res-1"); !errors.Is(err, domain.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented for residence average rate, got %v", err)
	}
}

func TestTopoLayersOrdersDependencies(t *testing.T) {
	a := attrKey{domain.EntityRent, "r1", "discount"}
	b := attrKey{domain.EntityRent, "r1", "rate"}
	c := attrKey{domain.EntityResident, "t1", "paidRate"}
	nodes := []node{
		{key: c, deps: []attrKey{b}},
		{key: b, deps: []attrKey{a}},
		{key: a},
	}
	layers, err := topoLayers(nodes)
	if err != nil {
		t.Fatalf("layer acyclic graph: %v", err)
	}
	if len(layers) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(layers))
	}
	if layers[0][0].key != a || layers[1][0].key != b || layers[2][0].key != c {
		t.Fatalf("unexpected layering: %v", layers)
	}
}

func TestTopoLayersIgnoresStoredAttributeDeps(t *testing.T) {
	stored := attrKey{domain.EntityBedroom, "b1", "rate"}
	derivedKey := attrKey{domain.EntityRent, "r1", "discount"}
	layers, err := topoLayers([]node{{key: derivedKey, deps: []attrKey{stored}}})
	if err != nil {
		t.Fatalf("dependency on a stored attribute must not count: %v", err)
	}
	if len(layers) != 1 || len(layers[0]) != 1 {
		t.Fatalf("unexpected layering: %v", layers)
	}
}

func TestTopoLayersDetectsCycle(t *testing.T) {
	a := attrKey{domain.EntityRent, "r1", "discount"}
	b := attrKey{domain.EntityRent, "r1", "rate"}
	nodes := []node{
		{key: a, deps: []attrKey{b}},
		{key: b, deps: []attrKey{a}},
	}
	_, err := topoLayers(nodes)
	var cyclic *domain.CyclicDerivationError
	if !errors.As(err, &cyclic) {
		t.Fatalf("expected CyclicDerivationError, got %v", err)
	}
	if len(cyclic.Cycle) != 2 {
		t.Fatalf("expected both members in the reported cycle, got %v", cyclic.Cycle)
	}
}
