package core

import (
	"context"
	"fmt"

	"lodgecore/pkg/domain"
)

func violation(name string, entity domain.EntityType, id, format string, args ...any) domain.Violation {
	return domain.Violation{
		Invariant: name,
		Entity:    entity,
		EntityID:  id,
		Message:   fmt.Sprintf(format, args...),
	}
}

// NewFloorOrderingInvariant checks that a residence's floor bounds are ordered.
func NewFloorOrderingInvariant() domain.Invariant { return floorOrderingInvariant{} }

type floorOrderingInvariant struct{}

func (floorOrderingInvariant) Name() string               { return "floorOrdering" }
func (floorOrderingInvariant) Context() domain.EntityType { return domain.EntityResidence }

func (i floorOrderingInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidences() {
		if r.FloorMin > r.FloorMax {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResidence, r.ID,
				"floorMin %d exceeds floorMax %d", r.FloorMin, r.FloorMax))
		}
	}
	return res, nil
}

// NewKnownCategoryInvariant checks that every residence carries a canonical category.
func NewKnownCategoryInvariant() domain.Invariant { return knownCategoryInvariant{} }

type knownCategoryInvariant struct{}

func (knownCategoryInvariant) Name() string               { return "knownCategory" }
func (knownCategoryInvariant) Context() domain.EntityType { return domain.EntityResidence }

func (i knownCategoryInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidences() {
		if !domain.KnownCategory(r.Category) {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResidence, r.ID,
				"unknown category %q", r.Category))
		}
	}
	return res, nil
}

// NewRoomFloorsWithinBoundsInvariant checks that every room's derived floor
// falls within its residence's floor range.
func NewRoomFloorsWithinBoundsInvariant() domain.Invariant { return roomFloorsInvariant{} }

type roomFloorsInvariant struct{}

func (roomFloorsInvariant) Name() string               { return "roomFloorsWithinBounds" }
func (roomFloorsInvariant) Context() domain.EntityType { return domain.EntityResidence }

func (i roomFloorsInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	derived := view.Derived()
	for _, r := range view.ListResidences() {
		rooms := make([]domain.Room, 0)
		for _, b := range view.BedroomsOfResidence(r.ID) {
			rooms = append(rooms, b)
		}
		for _, b := range view.BathroomsOfResidence(r.ID) {
			rooms = append(rooms, b)
		}
		for _, room := range rooms {
			floor, ok := derived.RoomFloor(room.RoomEntity(), room.RoomID())
			if !ok {
				continue
			}
			if floor < r.FloorMin || floor > r.FloorMax {
				res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResidence, r.ID,
					"room %s (number %d) is on floor %d outside [%d, %d]",
					room.RoomID(), room.RoomNumber(), floor, r.FloorMin, r.FloorMax))
			}
		}
	}
	return res, nil
}

// NewUniqueNumberInvariant checks that room numbers are unique within a
// residence, except for private bathrooms, which conventionally share their
// bedroom's number.
func NewUniqueNumberInvariant() domain.Invariant { return uniqueNumberInvariant{} }

type uniqueNumberInvariant struct{}

func (uniqueNumberInvariant) Name() string               { return "uniqueNumberApartForPrivateBathroom" }
func (uniqueNumberInvariant) Context() domain.EntityType { return domain.EntityResidence }

func (i uniqueNumberInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidences() {
		numbered := make(map[int][]string)
		for _, b := range view.BedroomsOfResidence(r.ID) {
			numbered[b.Number] = append(numbered[b.Number], b.ID)
		}
		for _, b := range view.BathroomsOfResidence(r.ID) {
			if len(view.BedroomsOfBathroom(b.ID)) > 0 {
				continue // private bathroom, exempt
			}
			numbered[b.Number] = append(numbered[b.Number], b.ID)
		}
		for number, rooms := range numbered {
			if len(rooms) > 1 {
				res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResidence, r.ID,
					"number %d used by %d rooms %v", number, len(rooms), rooms))
			}
		}
	}
	return res, nil
}

// NewSmokingPrestigePolicyInvariant checks that prestige residences contain
// only non-smoking bedrooms.
func NewSmokingPrestigePolicyInvariant() domain.Invariant { return smokingPrestigeInvariant{} }

type smokingPrestigeInvariant struct{}

func (smokingPrestigeInvariant) Name() string               { return "smokingPrestigePolicy" }
func (smokingPrestigeInvariant) Context() domain.EntityType { return domain.EntityResidence }

func (i smokingPrestigeInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidences() {
		if r.Category != domain.CategoryPrestige {
			continue
		}
		for _, b := range view.BedroomsOfResidence(r.ID) {
			if !b.NonSmoking {
				res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResidence, r.ID,
					"prestige residence has smoking bedroom %s (number %d)", b.ID, b.Number))
			}
		}
	}
	return res, nil
}
