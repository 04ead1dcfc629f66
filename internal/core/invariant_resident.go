package core

import (
	"context"

	"lodgecore/pkg/domain"
)

// NewResidentOccupiesBedroomInvariant checks the exactly-one occupancy
// multiplicity: every resident names a bedroom that exists.
func NewResidentOccupiesBedroomInvariant() domain.Invariant { return occupancyInvariant{} }

type occupancyInvariant struct{}

func (occupancyInvariant) Name() string               { return "residentOccupiesBedroom" }
func (occupancyInvariant) Context() domain.EntityType { return domain.EntityResident }

func (i occupancyInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidents() {
		if r.BedroomID == "" {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResident, r.ID,
				"resident occupies no bedroom"))
			continue
		}
		if _, ok := view.FindBedroom(r.BedroomID); !ok {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResident, r.ID,
				"occupied bedroom %s does not exist", r.BedroomID))
		}
	}
	return res, nil
}

// NewAdultTenantInvariant checks that tenants are adults. The model states
// this boundary as age > 17, which is not the same literal as the age >= 18
// used for marriage; the two must stay distinct.
func NewAdultTenantInvariant() domain.Invariant { return adultTenantInvariant{} }

type adultTenantInvariant struct{}

func (adultTenantInvariant) Name() string               { return "adultTenant" }
func (adultTenantInvariant) Context() domain.EntityType { return domain.EntityResident }

func (i adultTenantInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidents() {
		if r.IsTenant() && !(r.Age > 17) {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResident, r.ID,
				"tenant is %d years old", r.Age))
		}
	}
	return res, nil
}

// NewTenantRentsSomethingInvariant checks the 1..* tenant/rent multiplicity.
func NewTenantRentsSomethingInvariant() domain.Invariant { return tenantRentsInvariant{} }

type tenantRentsInvariant struct{}

func (tenantRentsInvariant) Name() string               { return "tenantRentsSomething" }
func (tenantRentsInvariant) Context() domain.EntityType { return domain.EntityResident }

func (i tenantRentsInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidents() {
		if r.IsTenant() && len(view.RentsOfTenant(r.ID)) == 0 {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResident, r.ID,
				"tenant holds no rent"))
		}
	}
	return res, nil
}

// NewTenantOccupiesRentedBedroomInvariant checks that a tenant's occupied
// bedroom is one of its own rented bedrooms.
func NewTenantOccupiesRentedBedroomInvariant() domain.Invariant {
	return tenantOccupancyInvariant{}
}

type tenantOccupancyInvariant struct{}

func (tenantOccupancyInvariant) Name() string               { return "tenantOccupiesRentedBedroom" }
func (tenantOccupancyInvariant) Context() domain.EntityType { return domain.EntityResident }

func (i tenantOccupancyInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidents() {
		if !r.IsTenant() || r.BedroomID == "" {
			continue
		}
		rented := false
		for _, rent := range view.RentsOfTenant(r.ID) {
			for _, b := range view.BedroomsOfRent(rent.ID) {
				if b.ID == r.BedroomID {
					rented = true
				}
			}
		}
		if !rented {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResident, r.ID,
				"tenant occupies bedroom %s outside its rented bedrooms", r.BedroomID))
		}
	}
	return res, nil
}

// NewMinorHasTutorInvariant checks that minors have at least one tutor,
// except when they live in a prestige residence.
func NewMinorHasTutorInvariant() domain.Invariant { return minorHasTutorInvariant{} }

type minorHasTutorInvariant struct{}

func (minorHasTutorInvariant) Name() string               { return "minorHasTutor" }
func (minorHasTutorInvariant) Context() domain.EntityType { return domain.EntityResident }

func (i minorHasTutorInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidents() {
		if r.Age >= 18 {
			continue
		}
		if residence, ok := residenceOf(view, r); ok && residence.Category == domain.CategoryPrestige {
			continue
		}
		if len(view.TutorsOf(r.ID)) == 0 {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResident, r.ID,
				"minor aged %d has no tutor", r.Age))
		}
	}
	return res, nil
}

// NewAtMostTwoTutorsInvariant checks the 0..2 tutor multiplicity.
func NewAtMostTwoTutorsInvariant() domain.Invariant { return tutorCountInvariant{} }

type tutorCountInvariant struct{}

func (tutorCountInvariant) Name() string               { return "atMostTwoTutors" }
func (tutorCountInvariant) Context() domain.EntityType { return domain.EntityResident }

func (i tutorCountInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidents() {
		if n := len(view.TutorsOf(r.ID)); n > 2 {
			res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResident, r.ID,
				"resident has %d tutors", n))
		}
	}
	return res, nil
}

// NewAdultTutorInvariant checks that tutors are adults (age >= 18).
func NewAdultTutorInvariant() domain.Invariant { return adultTutorInvariant{} }

type adultTutorInvariant struct{}

func (adultTutorInvariant) Name() string               { return "adultTutor" }
func (adultTutorInvariant) Context() domain.EntityType { return domain.EntityResident }

func (i adultTutorInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidents() {
		for _, tutor := range view.TutorsOf(r.ID) {
			if tutor.Age < 18 {
				res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResident, r.ID,
					"tutor %s is %d years old", tutor.ID, tutor.Age))
			}
		}
	}
	return res, nil
}

// NewTutorNotSelfInvariant checks that nobody tutors themselves.
func NewTutorNotSelfInvariant() domain.Invariant { return tutorNotSelfInvariant{} }

type tutorNotSelfInvariant struct{}

func (tutorNotSelfInvariant) Name() string               { return "tutorNotSelf" }
func (tutorNotSelfInvariant) Context() domain.EntityType { return domain.EntityResident }

func (i tutorNotSelfInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidents() {
		for _, tutor := range view.TutorsOf(r.ID) {
			if tutor.ID == r.ID {
				res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResident, r.ID,
					"resident is their own tutor"))
			}
		}
	}
	return res, nil
}

// NewTutorNotReciprocalInvariant checks that two residents do not tutor each
// other; the relation is intended acyclic and a two-cycle is the observable
// defect.
func NewTutorNotReciprocalInvariant() domain.Invariant { return tutorReciprocalInvariant{} }

type tutorReciprocalInvariant struct{}

func (tutorReciprocalInvariant) Name() string               { return "tutorNotReciprocal" }
func (tutorReciprocalInvariant) Context() domain.EntityType { return domain.EntityResident }

func (i tutorReciprocalInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidents() {
		for _, tutor := range view.TutorsOf(r.ID) {
			for _, back := range view.TutorsOf(tutor.ID) {
				if back.ID == r.ID && tutor.ID != r.ID {
					res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResident, r.ID,
						"resident and tutor %s tutor each other", tutor.ID))
				}
			}
		}
	}
	return res, nil
}

// NewTutorSameResidenceInvariant checks that tutor and tutored occupy the
// same residence.
func NewTutorSameResidenceInvariant() domain.Invariant { return tutorResidenceInvariant{} }

type tutorResidenceInvariant struct{}

func (tutorResidenceInvariant) Name() string               { return "tutorSameResidence" }
func (tutorResidenceInvariant) Context() domain.EntityType { return domain.EntityResident }

func (i tutorResidenceInvariant) Evaluate(_ context.Context, view domain.SnapshotView) (domain.Result, error) {
	var res domain.Result
	for _, r := range view.ListResidents() {
		home, ok := residenceOf(view, r)
		if !ok {
			continue
		}
		for _, tutor := range view.TutorsOf(r.ID) {
			tutorHome, ok := residenceOf(view, tutor)
			if ok && tutorHome.ID != home.ID {
				res.Violations = append(res.Violations, violation(i.Name(), domain.EntityResident, r.ID,
					"tutor %s lives in residence %s, tutored in %s", tutor.ID, tutorHome.ID, home.ID))
			}
		}
	}
	return res, nil
}

// residenceOf resolves the residence a resident lives in through its
// occupied bedroom.
func residenceOf(view domain.SnapshotView, r domain.Resident) (domain.Residence, bool) {
	bedroom, ok := view.FindBedroom(r.BedroomID)
	if !ok {
		return domain.Residence{}, false
	}
	return view.FindResidence(bedroom.ResidenceID)
}
