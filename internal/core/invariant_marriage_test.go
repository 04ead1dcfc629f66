package core

import (
	"testing"

	"lodgecore/pkg/domain"
)

func TestAtMostOneConsortInvariant(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddResident(domain.Resident{ID: "p-1", Age: 30}))
	mustAdd(t, store.AddResident(domain.Resident{ID: "p-2", Age: 30}))
	mustAdd(t, store.AddResident(domain.Resident{ID: "p-3", Age: 30}))
	store.LinkConsort("p-1", "p-2")
	store.LinkConsort("p-1", "p-3")

	res := evaluateOn(t, NewAtMostOneConsortInvariant(), store.Snapshot())
	if len(res.Violations) != 1 || res.Violations[0].EntityID != "p-1" {
		t.Fatalf("expected a violation for the twice-married resident, got %v", res.Violations)
	}
}

func TestMarriageIrreflexiveInvariant(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddResident(domain.Resident{ID: "p-1", Age: 30}))
	store.LinkConsort("p-1", "p-1")

	res := evaluateOn(t, NewMarriageIrreflexiveInvariant(), store.Snapshot())
	if len(res.Violations) != 1 {
		t.Fatalf("expected a self-marriage violation, got %v", res.Violations)
	}
}

func TestMarriageSymmetricInvariant(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddResident(domain.Resident{ID: "p-1", Age: 30}))
	mustAdd(t, store.AddResident(domain.Resident{ID: "p-2", Age: 30}))
	store.LinkConsort("p-1", "p-2")

	res := evaluateOn(t, NewMarriageSymmetricInvariant(), store.Snapshot())
	if len(res.Violations) != 1 || res.Violations[0].EntityID != "p-1" {
		t.Fatalf("expected an asymmetry violation for p-1, got %v", res.Violations)
	}

	store.LinkConsort("p-2", "p-1")
	res = evaluateOn(t, NewMarriageSymmetricInvariant(), store.Snapshot())
	if len(res.Violations) != 0 {
		t.Fatalf("expected no violation once both directions exist, got %v", res.Violations)
	}
}

func TestAdultMarriedBoundaryIsEighteen(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddResident(domain.Resident{ID: "p-17", Age: 17}))
	mustAdd(t, store.AddResident(domain.Resident{ID: "p-18", Age: 18}))
	store.LinkConsort("p-17", "p-18")
	store.LinkConsort("p-18", "p-17")

	res := evaluateOn(t, NewAdultMarriedInvariant(), store.Snapshot())
	if len(res.Violations) != 1 || res.Violations[0].EntityID != "p-17" {
		t.Fatalf("expected only the 17-year-old consort to violate, got %v", res.Violations)
	}
}

func TestMarriedSameResidenceInvariant(t *testing.T) {
	store := NewStore()
	mustAdd(t, store.AddResidence(domain.Residence{ID: "res-1", Category: domain.CategoryStandard}))
	mustAdd(t, store.AddResidence(domain.Residence{ID: "res-2", Category: domain.CategoryStandard}))
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-1", ResidenceID: "res-1", Number: 101, SingleBeds: 1, Rate: 1}))
	mustAdd(t, store.AddBedroom(domain.Bedroom{ID: "bed-2", ResidenceID: "res-2", Number: 101, SingleBeds: 1, Rate: 1}))
	mustAdd(t, store.AddResident(domain.Resident{ID: "p-1", Age: 30, BedroomID: "bed-1"}))
	mustAdd(t, store.AddResident(domain.Resident{ID: "p-2", Age: 30, BedroomID: "bed-2"}))
	store.LinkConsort("p-1", "p-2")
	store.LinkConsort("p-2", "p-1")

	res := evaluateOn(t, NewMarriedSameResidenceInvariant(), store.Snapshot())
	if len(res.Violations) != 2 {
		t.Fatalf("expected both consorts to violate, got %v", res.Violations)
	}
}
