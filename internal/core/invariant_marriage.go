package core

import (
	"context"

	"lodgecore/pkg/domain"
)

// NewAtMostOneConsortInvariant checks the 0..1 consort multiplicity.
func NewAtMostOneConsortInvariant() domain.Invariant { return consortCountInvariant{} }

type consortCountInvariant struct{}

func (consortCountInvariant) Name() string               { return "atMostOneConsort" }
func (consortCountInvariant) Context() domain.EntityType { return domain.EntityResident }

func (i consortCountInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidents() {
		if n := len(view.ConsortsOf(r.ID)); n > 1 {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResident, r.ID,
				"resident has %d consorts", n))
		}
	}
	return res, nil
}

// NewMarriageIrreflexiveInvariant checks that nobody is their own consort.
func NewMarriageIrreflexiveInvariant() domain.Invariant { return marriageIrreflexiveInvariant{} }

type marriageIrreflexiveInvariant struct{}

func (marriageIrreflexiveInvariant) Name() string               { return "marriageIrreflexive" }
func (marriageIrreflexiveInvariant) Context() domain.EntityType { return domain.EntityResident }

func (i marriageIrreflexiveInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidents() {
		for _, consort := range view.ConsortsOf(r.ID) {
			if consort.ID == r.ID {
				res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResident, r.ID,
					"resident is their own consort"))
			}
		}
	}
	return res, nil
}

// NewMarriageSymmetricInvariant checks that the consort relation holds in
// both directions: if a lists b, b must list a.
func NewMarriageSymmetricInvariant() domain.Invariant { return marriageSymmetricInvariant{} }

type marriageSymmetricInvariant struct{}

func (marriageSymmetricInvariant) Name() string               { return "marriageSymmetric" }
func (marriageSymmetricInvariant) Context() domain.EntityType { return domain.EntityResident }

func (i marriageSymmetricInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidents() {
		for _, consort := range view.ConsortsOf(r.ID) {
			back := false
			for _, other := range view.ConsortsOf(consort.ID) {
				if other.ID == r.ID {
					back = true
				}
			}
			if !back {
				res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResident, r.ID,
					"consort %s does not list resident back", consort.ID))
			}
		}
	}
	return res, nil
}

// NewAdultMarriedInvariant checks that married residents are at least 18.
// This boundary is age >= 18 by the model's own wording and is intentionally
// a different literal than the tenant boundary (age > 17).
func NewAdultMarriedInvariant() domain.Invariant { return adultMarriedInvariant{} }

type adultMarriedInvariant struct{}

func (adultMarriedInvariant) Name() string               { return "adultMarried" }
func (adultMarriedInvariant) Context() domain.EntityType { return domain.EntityResident }

func (i adultMarriedInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidents() {
		if len(view.ConsortsOf(r.ID)) > 0 && !(r.Age >= 18) {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResident, r.ID,
				"married resident is %d years old", r.Age))
		}
	}
	return res, nil
}

// NewMarriedSameResidenceInvariant checks that consorts occupy the same
// residence.
func NewMarriedSameResidenceInvariant() domain.Invariant { return marriedResidenceInvariant{} }

type marriedResidenceInvariant struct{}

func (marriedResidenceInvariant) Name() string               { return "marriedSameResidence" }
func (marriedResidenceInvariant) Context() domain.EntityType { return domain.EntityResident }

func (i marriedResidenceInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidents() {
		home, ok := residenceOf(view, r)
		if !ok {
			continue
		}
		for _, consort := range view.ConsortsOf(r.ID) {
			consortHome, ok := residenceOf(view, consort)
			if ok && consortHome.ID != home.ID {
				res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResident, r.ID,
					"consort %s lives in residence %s, resident in %s", consort.ID, consortHome.ID, home.ID))
			}
		}
	}
	return res, nil
}
