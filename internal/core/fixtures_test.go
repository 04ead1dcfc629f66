package core

import (
	"context"
	"testing"

	"lodgecore/pkg/domain"
)

func mustAdd(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("register entity: %v", err)
	}
}

// validStore builds a small graph that satisfies every active invariant:
// one standard residence, two bedrooms and a landing bathroom on floor one,
// and an adult tenant renting and occupying the first bedroom with a single
// labelled discount.
func validStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	mustAdd(t, store.AddResidence(domain.Residence{
		ID: "res-1", Name: "Maple House", FloorMin: 0, FloorMax: 6,
		Category: domain.CategoryStandard,
	}))
	mustAdd(t, store.AddBedroom(domain.Bedroom{
		ID: "bed-1", ResidenceID: "res-1", Number: 101,
		SingleBeds: 2, DoubleBeds: 1, Rate: 100, NonSmoking: true,
	}))
	mustAdd(t, store.AddBedroom(domain.Bedroom{
		ID: "bed-2", ResidenceID: "res-1", Number: 102,
		SingleBeds: 1, Rate: 50,
	}))
	mustAdd(t, store.AddBathroom(domain.Bathroom{
		ID: "bath-1", ResidenceID: "res-1", Number: 103,
	}))
	mustAdd(t, store.AddResident(domain.Resident{
		ID: "ten-1", Name: "Ada", Age: 30, Gender: domain.GenderFemale,
		Kind: domain.KindTenant, BedroomID: "bed-1",
	}))
	mustAdd(t, store.AddRent(domain.Rent{ID: "rent-1", TenantID: "ten-1"}))
	store.LinkRentBedroom("rent-1", "bed-1")
	mustAdd(t, store.AddDiscount(domain.Discount{
		ID: "disc-1", RentID: "rent-1", Percentage: 10, Label: "loyalty",
	}))
	return store
}

// derivedSnapshot freezes the store and runs the derivation pass so tests
// can exercise invariants that read derived attributes.
func derivedSnapshot(t *testing.T, store *Store) *Snapshot {
	t.Helper()
	snap := store.Snapshot()
	if err := evaluateDerived(context.Background(), snap); err != nil {
		t.Fatalf("evaluate derived attributes: %v", err)
	}
	return snap
}

func evaluateOn(t *testing.T, inv domain.Invariant, view domain.SnapshotView) domain.Result {
	t.Helper()
	res, err := inv.Evaluate(context.Background(), view)
	if err != nil {
		t.Fatalf("evaluate %s: %v", inv.Name(), err)
	}
	return res
}
