package core

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"lodgecore/pkg/domain"
)

// Catalog is the closed set of named invariants evaluated on every run. It
// is assembled once at start-up, like a configuration table, and is not a
// runtime-mutable registry.
type Catalog struct {
	invariants  []domain.Invariant
	unsupported []domain.Invariant
}

// NewDefaultCatalog builds the full invariant catalog of the residence
// model. The ABOOO/SBOOO discount rules are registered as unsupported: their
// conditions are only partially stated by the model and are never guessed.
func NewDefaultCatalog() *Catalog {
	return &Catalog{
		invariants: []domain.Invariant{
			NewFloorOrderingInvariant(),
			NewKnownCategoryInvariant(),
			NewRoomFloorsWithinBoundsInvariant(),
			NewUniqueNumberInvariant(),
			NewSmokingPrestigePolicyInvariant(),
			NewBedroomHasBedsInvariant(),
			NewNonNegativeBedCountsInvariant(),
			NewPositiveBedroomRateInvariant(),
			NewOccupantsWithinCapacityInvariant(),
			NewNoOccupantsWhenOutOfOrderInvariant(),
			NewNonSmokerOccupancyInvariant(),
			NewAtMostThreeBathroomsInvariant(),
			NewBathroomSameResidenceInvariant(),
			NewBedroomSingleRentInvariant(),
			NewBathroomSingleBedroomInvariant(),
			NewRentHasBedroomsInvariant(),
			NewTenantOfRentExistsInvariant(),
			NewNoRentingOutOfOrderInvariant(),
			NewCumulatedDiscountsInvariant(),
			NewUniqueDiscountLabelsInvariant(),
			NewDiscountPercentageCeilingInvariant(),
			NewNonNegativeRentRateInvariant(),
			NewPercentageRangeInvariant(),
			NewDiscountHasLabelInvariant(),
			NewResidentOccupiesBedroomInvariant(),
			NewAdultTenantInvariant(),
			NewTenantRentsSomethingInvariant(),
			NewTenantOccupiesRentedBedroomInvariant(),
			NewMinorHasTutorInvariant(),
			NewAtMostTwoTutorsInvariant(),
			NewAdultTutorInvariant(),
			NewTutorNotSelfInvariant(),
			NewTutorNotReciprocalInvariant(),
			NewTutorSameResidenceInvariant(),
			NewAtMostOneConsortInvariant(),
			NewMarriageIrreflexiveInvariant(),
			NewMarriageSymmetricInvariant(),
			NewAdultMarriedInvariant(),
			NewMarriedSameResidenceInvariant(),
		},
		unsupported: []domain.Invariant{
			newUnsupportedInvariant("aboooDiscount", domain.EntityRent,
				"discount granted when all bathrooms of a rented bedroom are out of order; granting conditions undefined"),
			newUnsupportedInvariant("sboooDiscount", domain.EntityRent,
				"discount granted when some bathrooms of a rented bedroom are out of order; granting conditions undefined"),
			newUnsupportedInvariant("sboooEligibility", domain.EntityRent,
				"eligibility condition left undefined by the model"),
		},
	}
}

// Invariants returns the active catalog entries.
func (c *Catalog) Invariants() []domain.Invariant {
	return append([]domain.Invariant(nil), c.invariants...)
}

// Unsupported returns the entries the model declares but does not define.
// Evaluating one yields ErrNotImplemented.
func (c *Catalog) Unsupported() []domain.Invariant {
	return append([]domain.Invariant(nil), c.unsupported...)
}

// Evaluate runs every active invariant against the frozen view and merges
// the violations. Evaluation is batch: it never stops at the first failing
// instance. Cancellation is checked between invariants, never mid-predicate;
// on cancellation the partial result is returned together with the context
// error. With parallelism above one, invariants run concurrently and append
// to a locked collector.
func (c *Catalog) Evaluate(ctx context.Context, view domain.SnapshotView, parallelism int) (domain.Result, int, error) {
	if parallelism > 1 {
		return c.evaluateParallel(ctx, view, parallelism)
	}
	var combined domain.Result
	checked := 0
	for _, inv := range c.invariants {
		if err := ctx.Err(); err != nil {
			return combined, checked, err
		}
		res, err := inv.Evaluate(ctx, view)
		if err != nil {
			return combined, checked, err
		}
		combined.Merge(res)
		checked++
	}
	return combined, checked, nil
}

func (c *Catalog) evaluateParallel(ctx context.Context, view domain.SnapshotView, parallelism int) (domain.Result, int, error) {
	var (
		mu       sync.Mutex
		combined domain.Result
		checked  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for _, inv := range c.invariants {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			res, err := inv.Evaluate(gctx, view)
			if err != nil {
				return err
			}
			mu.Lock()
			combined.Merge(res)
			checked++
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return combined, checked, err
}

// unsupportedInvariant is a declared but undefined catalog entry.
type unsupportedInvariant struct {
	name    string
	context domain.EntityType
	reason  string
}

func newUnsupportedInvariant(name string, entity domain.EntityType, reason string) domain.Invariant {
	return unsupportedInvariant{name: name, context: entity, reason: reason}
}

func (u unsupportedInvariant) Name() string               { return u.name }
func (u unsupportedInvariant) Context() domain.EntityType { return u.context }

func (u unsupportedInvariant) Evaluate(context.Context, domain.SnapshotView) (domain.Result, error) {
	return domain.Result{}, domain.ErrNotImplemented
}
