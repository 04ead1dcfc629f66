package core

import (
	"context"

	"lodgecore/pkg/domain"
)

// NewRentHasBedroomsInvariant checks the 1..* rent/bedroom multiplicity.
func NewRentHasBedroomsInvariant() domain.Invariant { return rentHasBedroomsInvariant{} }

type rentHasBedroomsInvariant struct{}

func (rentHasBedroomsInvariant) Name() string               { return "rentHasBedrooms" }
func (rentHasBedroomsInvariant) Context() domain.EntityType { return domain.EntityRent }

func (i rentHasBedroomsInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListRents() {
		if len(view.BedroomsOfRent(r.ID)) == 0 {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityRent, r.ID,
				"rent covers no bedroom"))
		}
	}
	return res, nil
}

// NewTenantOfRentExistsInvariant checks that a rent's tenant reference, when
// set, resolves to a tenant-kind resident.
func NewTenantOfRentExistsInvariant() domain.Invariant { return tenantOfRentInvariant{} }

type tenantOfRentInvariant struct{}

func (tenantOfRentInvariant) Name() string               { return "tenantOfRentExists" }
func (tenantOfRentInvariant) Context() domain.EntityType { return domain.EntityRent }

func (i tenantOfRentInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListRents() {
		if r.TenantID == "" {
			continue
		}
		tenant, ok := view.FindResident(r.TenantID)
		switch {
		case !ok:
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityRent, r.ID,
				"tenant %s does not exist", r.TenantID))
		case !tenant.IsTenant():
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityRent, r.ID,
				"resident %s holds the rent but is not a tenant", r.TenantID))
		}
	}
	return res, nil
}

// NewNoRentingOutOfOrderInvariant checks that no rent covers an out-of-order
// bedroom.
func NewNoRentingOutOfOrderInvariant() domain.Invariant { return noRentingOutOfOrderInvariant{} }

type noRentingOutOfOrderInvariant struct{}

func (noRentingOutOfOrderInvariant) Name() string               { return "noRentingOutOfOrder" }
func (noRentingOutOfOrderInvariant) Context() domain.EntityType { return domain.EntityRent }

func (i noRentingOutOfOrderInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListRents() {
		for _, b := range view.BedroomsOfRent(r.ID) {
			if b.OutOfOrder {
				res.Violations = append(res.Violations, violation(i.Name(), domain.EntityRent, r.ID,
					"rent covers out-of-order bedroom %s (number %d)", b.ID, b.Number))
			}
		}
	}
	return res, nil
}

// NewCumulatedDiscountsInvariant checks the derived discount amount against
// the sum of the granted percentages, as the model states it: the amount must
// not exceed the percentage sum taken as a plain number.
func NewCumulatedDiscountsInvariant() domain.Invariant { return cumulatedDiscountsInvariant{} }

type cumulatedDiscountsInvariant struct{}

func (cumulatedDiscountsInvariant) Name() string               { return "cumulatedDiscounts" }
func (cumulatedDiscountsInvariant) Context() domain.EntityType { return domain.EntityRent }

func (i cumulatedDiscountsInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	derived := view.Derived()
	for _, r := range view.ListRents() {
		discount, ok := derived.RentDiscount(r.ID)
		if !ok {
			continue
		}
		pct := 0
		for _, d := range view.DiscountsOfRent(r.ID) {
			pct += d.Percentage
		}
		if discount > float64(pct) {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityRent, r.ID,
				"discount amount %.2f exceeds cumulated percentages %d", discount, pct))
		}
	}
	return res, nil
}

// NewUniqueDiscountLabelsInvariant checks pairwise distinctness of discount
// labels within a rent. Empty and singleton label sets are trivially unique.
func NewUniqueDiscountLabelsInvariant() domain.Invariant { return uniqueDiscountLabelsInvariant{} }

type uniqueDiscountLabelsInvariant struct{}

func (uniqueDiscountLabelsInvariant) Name() string               { return "uniqueDiscountLabels" }
func (uniqueDiscountLabelsInvariant) Context() domain.EntityType { return domain.EntityRent }

func (i uniqueDiscountLabelsInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListRents() {
		seen := make(map[string]string)
		for _, d := range view.DiscountsOfRent(r.ID) {
			if prev, dup := seen[d.Label]; dup {
				res.Violations = append(res.Violations, violation(i.Name(), domain.EntityRent, r.ID,
					"label %q used by discounts %s and %s", d.Label, prev, d.ID))
				continue
			}
			seen[d.Label] = d.ID
		}
	}
	return res, nil
}

// NewDiscountPercentageCeilingInvariant checks that the cumulated percentages
// of a rent stay at or below 100.
func NewDiscountPercentageCeilingInvariant() domain.Invariant {
	return discountCeilingInvariant{}
}

type discountCeilingInvariant struct{}

func (discountCeilingInvariant) Name() string               { return "discountPercentageCeiling" }
func (discountCeilingInvariant) Context() domain.EntityType { return domain.EntityRent }

func (i discountCeilingInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListRents() {
		pct := 0
		for _, d := range view.DiscountsOfRent(r.ID) {
			pct += d.Percentage
		}
		if pct > 100 {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityRent, r.ID,
				"cumulated discount percentages reach %d", pct))
		}
	}
	return res, nil
}

// NewNonNegativeRentRateInvariant checks that the derived rent rate never
// goes below zero.
func NewNonNegativeRentRateInvariant() domain.Invariant { return nonNegativeRentRateInvariant{} }

type nonNegativeRentRateInvariant struct{}

func (nonNegativeRentRateInvariant) Name() string               { return "nonNegativeRentRate" }
func (nonNegativeRentRateInvariant) Context() domain.EntityType { return domain.EntityRent }

func (i nonNegativeRentRateInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	derived := view.Derived()
	for _, r := range view.ListRents() {
		if rate, ok := derived.RentRate(r.ID); ok && rate < 0 {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityRent, r.ID,
				"derived rate %.2f is negative", rate))
		}
	}
	return res, nil
}

// NewPercentageRangeInvariant checks that a discount percentage lies in 1..100.
func NewPercentageRangeInvariant() domain.Invariant { return percentageRangeInvariant{} }

type percentageRangeInvariant struct{}

func (percentageRangeInvariant) Name() string               { return "percentageRange" }
func (percentageRangeInvariant) Context() domain.EntityType { return domain.EntityDiscount }

func (i percentageRangeInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, d := range view.ListDiscounts() {
		if d.Percentage < 1 || d.Percentage > 100 {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityDiscount, d.ID,
				"percentage %d outside 1..100", d.Percentage))
		}
	}
	return res, nil
}

// NewDiscountHasLabelInvariant checks that every discount carries a label.
func NewDiscountHasLabelInvariant() domain.Invariant { return discountHasLabelInvariant{} }

type discountHasLabelInvariant struct{}

func (discountHasLabelInvariant) Name() string               { return "discountHasLabel" }
func (discountHasLabelInvariant) Context() domain.EntityType { return domain.EntityDiscount }

func (i discountHasLabelInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, d := range view.ListDiscounts() {
		if d.Label == "" {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityDiscount, d.ID,
				"discount has no label"))
		}
	}
	return res, nil
}
