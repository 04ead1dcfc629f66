package core

import (
	"context"

	"lodgecore/pkg/domain"
)

// NewBedroomHasBedsInvariant checks that every bedroom offers at least one bed.
func NewBedroomHasBedsInvariant() domain.Invariant { return bedroomHasBedsInvariant{} }

type bedroomHasBedsInvariant struct{}

func (bedroomHasBedsInvariant) Name() string               { return "bedroomHasBeds" }
func (bedroomHasBedsInvariant) Context() domain.EntityType { return domain.EntityBedroom }

func (i bedroomHasBedsInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, b := range view.ListBedrooms() {
		if b.SingleBeds+b.DoubleBeds < 1 {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityBedroom, b.ID,
				"bedroom %d has no beds", b.Number))
		}
	}
	return res, nil
}

// NewNonNegativeBedCountsInvariant checks that bed counts are not negative.
func NewNonNegativeBedCountsInvariant() domain.Invariant { return nonNegativeBedCountsInvariant{} }

type nonNegativeBedCountsInvariant struct{}

func (nonNegativeBedCountsInvariant) Name() string               { return "nonNegativeBedCounts" }
func (nonNegativeBedCountsInvariant) Context() domain.EntityType { return domain.EntityBedroom }

func (i nonNegativeBedCountsInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, b := range view.ListBedrooms() {
		if b.SingleBeds < 0 || b.DoubleBeds < 0 {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityBedroom, b.ID,
				"negative bed counts: %d single, %d double", b.SingleBeds, b.DoubleBeds))
		}
	}
	return res, nil
}

// NewPositiveBedroomRateInvariant checks that the nominal rate is positive.
func NewPositiveBedroomRateInvariant() domain.Invariant { return positiveBedroomRateInvariant{} }

type positiveBedroomRateInvariant struct{}

func (positiveBedroomRateInvariant) Name() string               { return "positiveBedroomRate" }
func (positiveBedroomRateInvariant) Context() domain.EntityType { return domain.EntityBedroom }

func (i positiveBedroomRateInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, b := range view.ListBedrooms() {
		if b.Rate <= 0 {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityBedroom, b.ID,
				"nominal rate %.2f is not positive", b.Rate))
		}
	}
	return res, nil
}

// NewOccupantsWithinCapacityInvariant checks that occupants fit the beds: a
// single bed sleeps one, a double bed two.
func NewOccupantsWithinCapacityInvariant() domain.Invariant { return occupantsCapacityInvariant{} }

type occupantsCapacityInvariant struct{}

func (occupantsCapacityInvariant) Name() string               { return "occupantsWithinCapacity" }
func (occupantsCapacityInvariant) Context() domain.EntityType { return domain.EntityBedroom }

func (i occupantsCapacityInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, b := range view.ListBedrooms() {
		capacity := b.SingleBeds + 2*b.DoubleBeds
		occupants := view.OccupantsOfBedroom(b.ID)
		if len(occupants) > capacity {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityBedroom, b.ID,
				"%d occupants exceed capacity %d", len(occupants), capacity))
		}
	}
	return res, nil
}

// NewNoOccupantsWhenOutOfOrderInvariant checks that out-of-order bedrooms are empty.
func NewNoOccupantsWhenOutOfOrderInvariant() domain.Invariant { return outOfOrderOccupancyInvariant{} }

type outOfOrderOccupancyInvariant struct{}

func (outOfOrderOccupancyInvariant) Name() string               { return "noOccupantsWhenOutOfOrder" }
func (outOfOrderOccupancyInvariant) Context() domain.EntityType { return domain.EntityBedroom }

func (i outOfOrderOccupancyInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, b := range view.ListBedrooms() {
		if !b.OutOfOrder {
			continue
		}
		if occupants := view.OccupantsOfBedroom(b.ID); len(occupants) > 0 {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityBedroom, b.ID,
				"out-of-order bedroom %d has %d occupants", b.Number, len(occupants)))
		}
	}
	return res, nil
}

// NewNonSmokerOccupancyInvariant checks that non-smoking bedrooms host only
// non-smokers.
func NewNonSmokerOccupancyInvariant() domain.Invariant { return nonSmokerOccupancyInvariant{} }

type nonSmokerOccupancyInvariant struct{}

func (nonSmokerOccupancyInvariant) Name() string               { return "nonSmokerOccupancy" }
func (nonSmokerOccupancyInvariant) Context() domain.EntityType { return domain.EntityBedroom }

func (i nonSmokerOccupancyInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, b := range view.ListBedrooms() {
		if !b.NonSmoking {
			continue
		}
		for _, occupant := range view.OccupantsOfBedroom(b.ID) {
			if occupant.Smoker {
				res.Violations = append(res.Violations, violation(i.Name(), domain.EntityBedroom, b.ID,
					"smoker %s occupies non-smoking bedroom %d", occupant.ID, b.Number))
			}
		}
	}
	return res, nil
}

// NewAtMostThreeBathroomsInvariant checks the bedroom side of the
// bedroom/bathroom multiplicity (0..3).
func NewAtMostThreeBathroomsInvariant() domain.Invariant { return bathroomCountInvariant{} }

type bathroomCountInvariant struct{}

func (bathroomCountInvariant) Name() string               { return "atMostThreeBathrooms" }
func (bathroomCountInvariant) Context() domain.EntityType { return domain.EntityBedroom }

func (i bathroomCountInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, b := range view.ListBedrooms() {
		if n := len(view.BathroomsOfBedroom(b.ID)); n > 3 {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityBedroom, b.ID,
				"bedroom %d is linked to %d bathrooms", b.Number, n))
		}
	}
	return res, nil
}

// NewBathroomSameResidenceInvariant checks that a bedroom's private bathrooms
// belong to the same residence.
func NewBathroomSameResidenceInvariant() domain.Invariant { return bathroomResidenceInvariant{} }

type bathroomResidenceInvariant struct{}

func (bathroomResidenceInvariant) Name() string               { return "bathroomSameResidence" }
func (bathroomResidenceInvariant) Context() domain.EntityType { return domain.EntityBedroom }

func (i bathroomResidenceInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, b := range view.ListBedrooms() {
		for _, bathroom := range view.BathroomsOfBedroom(b.ID) {
			if bathroom.ResidenceID != b.ResidenceID {
				res.Violations = append(res.Violations, violation(i.Name(), domain.EntityBedroom, b.ID,
					"bathroom %s belongs to residence %s, bedroom to %s",
					bathroom.ID, bathroom.ResidenceID, b.ResidenceID))
			}
		}
	}
	return res, nil
}

// NewBedroomSingleRentInvariant checks that a bedroom is covered by at most
// one rent.
func NewBedroomSingleRentInvariant() domain.Invariant { return bedroomSingleRentInvariant{} }

type bedroomSingleRentInvariant struct{}

func (bedroomSingleRentInvariant) Name() string               { return "bedroomSingleRent" }
func (bedroomSingleRentInvariant) Context() domain.EntityType { return domain.EntityBedroom }

func (i bedroomSingleRentInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, b := range view.ListBedrooms() {
		if n := len(view.RentsOfBedroom(b.ID)); n > 1 {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityBedroom, b.ID,
				"bedroom %d is covered by %d rents", b.Number, n))
		}
	}
	return res, nil
}

// NewBathroomSingleBedroomInvariant checks the bathroom side of the
// bedroom/bathroom multiplicity (0..1).
func NewBathroomSingleBedroomInvariant() domain.Invariant { return bathroomSingleBedroomInvariant{} }

type bathroomSingleBedroomInvariant struct{}

func (bathroomSingleBedroomInvariant) Name() string               { return "bathroomSingleBedroom" }
func (bathroomSingleBedroomInvariant) Context() domain.EntityType { return domain.EntityBathroom }

func (i bathroomSingleBedroomInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, b := range view.ListBathrooms() {
		if n := len(view.BedroomsOfBathroom(b.ID)); n > 1 {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityBathroom, b.ID,
				"bathroom %d is linked to %d bedrooms", b.Number, n))
		}
	}
	return res, nil
}
