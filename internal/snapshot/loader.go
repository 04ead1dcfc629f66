// Package snapshot ingests the canonical snapshot representation of typed
// entity records plus association links and populates an entity store.
// Malformed input is rejected as a whole: a store is only returned when every
// record and link resolved, so callers never observe a partially loaded
// graph.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"

	"lodgecore/internal/core"
	"lodgecore/pkg/domain"
)

// Association role names accepted in links.
const (
	// AssocBathroom links a bedroom (from) to a bathroom (to).
	AssocBathroom = "bathroom"
	// AssocTutor links a tutor (from) to a tutored resident (to).
	AssocTutor = "tutor"
	// AssocConsort records one direction of the consort relation. Symmetric
	// input carries two links; symmetry itself is validated, not repaired.
	AssocConsort = "consort"
	// AssocRentBedroom links a rent (from) to a bedroom (to).
	AssocRentBedroom = "rent_bedroom"
)

// Record is one entity instance: a type tag plus the type-specific payload.
type Record struct {
	Type domain.EntityType `json:"type"`
	Data json.RawMessage   `json:"data"`
}

// Link is one association edge between two identifiers.
type Link struct {
	Association string `json:"association"`
	From        string `json:"from"`
	To          string `json:"to"`
}

// Document is the full snapshot handed to the engine by an external loader.
type Document struct {
	Records []Record `json:"records"`
	Links   []Link   `json:"links"`
}

// Decode reads a JSON document from r.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return Document{}, &domain.LoadError{Message: fmt.Sprintf("decode document: %v", err)}
	}
	return doc, nil
}

// Load builds an entity store from the document. Unknown entity types,
// unknown associations, duplicate identifiers and dangling references are
// all LoadErrors. Multiplicity rules are deliberately not enforced here;
// they surface later as invariant violations.
func Load(doc Document) (*core.Store, error) {
	staged := &stagedGraph{
		residences: map[string]domain.Residence{},
		bedrooms:   map[string]domain.Bedroom{},
		bathrooms:  map[string]domain.Bathroom{},
		residents:  map[string]domain.Resident{},
		rents:      map[string]domain.Rent{},
		discounts:  map[string]domain.Discount{},
	}
	for i, record := range doc.Records {
		if err := staged.add(i, record); err != nil {
			return nil, err
		}
	}
	if err := staged.checkReferences(); err != nil {
		return nil, err
	}
	for i, link := range doc.Links {
		if err := staged.checkLink(i, link); err != nil {
			return nil, err
		}
	}
	return staged.build(doc.Links), nil
}

type stagedGraph struct {
	residences map[string]domain.Residence
	bedrooms   map[string]domain.Bedroom
	bathrooms  map[string]domain.Bathroom
	residents  map[string]domain.Resident
	rents      map[string]domain.Rent
	discounts  map[string]domain.Discount
}

func (g *stagedGraph) add(index int, record Record) error {
	switch record.Type {
	case domain.EntityResidence:
		var r domain.Residence
		if err := decodeInto(index, record, &r, func() string { return r.ID }); err != nil {
			return err
		}
		if _, dup := g.residences[r.ID]; dup {
			return duplicateErr(record.Type, r.ID)
		}
		g.residences[r.ID] = r
	case domain.EntityBedroom:
		var b domain.Bedroom
		if err := decodeInto(index, record, &b, func() string { return b.ID }); err != nil {
			return err
		}
		if _, dup := g.bedrooms[b.ID]; dup {
			return duplicateErr(record.Type, b.ID)
		}
		g.bedrooms[b.ID] = b
	case domain.EntityBathroom:
		var b domain.Bathroom
		if err := decodeInto(index, record, &b, func() string { return b.ID }); err != nil {
			return err
		}
		if _, dup := g.bathrooms[b.ID]; dup {
			return duplicateErr(record.Type, b.ID)
		}
		g.bathrooms[b.ID] = b
	case domain.EntityResident:
		var r domain.Resident
		if err := decodeInto(index, record, &r, func() string { return r.ID }); err != nil {
			return err
		}
		if _, dup := g.residents[r.ID]; dup {
			return duplicateErr(record.Type, r.ID)
		}
		if r.Kind == "" {
			r.Kind = domain.KindResident
		}
		if r.Kind != domain.KindResident && r.Kind != domain.KindTenant {
			return &domain.LoadError{Message: fmt.Sprintf("resident %s has unknown kind %q", r.ID, r.Kind)}
		}
		g.residents[r.ID] = r
	case domain.EntityRent:
		var r domain.Rent
		if err := decodeInto(index, record, &r, func() string { return r.ID }); err != nil {
			return err
		}
		if _, dup := g.rents[r.ID]; dup {
			return duplicateErr(record.Type, r.ID)
		}
		g.rents[r.ID] = r
	case domain.EntityDiscount:
		var d domain.Discount
		if err := decodeInto(index, record, &d, func() string { return d.ID }); err != nil {
			return err
		}
		if _, dup := g.discounts[d.ID]; dup {
			return duplicateErr(record.Type, d.ID)
		}
		g.discounts[d.ID] = d
	default:
		return &domain.LoadError{Message: fmt.Sprintf("record %d: unknown entity type %q", index, record.Type)}
	}
	return nil
}

func decodeInto(index int, record Record, target any, id func() string) error {
	if err := json.Unmarshal(record.Data, target); err != nil {
		return &domain.LoadError{Message: fmt.Sprintf("record %d (%s): %v", index, record.Type, err)}
	}
	if id() == "" {
		return &domain.LoadError{Message: fmt.Sprintf("record %d (%s): missing id", index, record.Type)}
	}
	return nil
}

func duplicateErr(entity domain.EntityType, id string) error {
	return &domain.LoadError{Message: fmt.Sprintf("duplicate %s identifier %s", entity, id)}
}

// checkReferences rejects dangling identifier fields. An empty field is an
// absent association and is left to the invariants.
func (g *stagedGraph) checkReferences() error {
	for _, b := range g.bedrooms {
		if _, ok := g.residences[b.ResidenceID]; b.ResidenceID == "" || !ok {
			return danglingErr(domain.EntityBedroom, b.ID, "residence", b.ResidenceID)
		}
	}
	for _, b := range g.bathrooms {
		if _, ok := g.residences[b.ResidenceID]; b.ResidenceID == "" || !ok {
			return danglingErr(domain.EntityBathroom, b.ID, "residence", b.ResidenceID)
		}
	}
	for _, r := range g.residents {
		if r.BedroomID != "" {
			if _, ok := g.bedrooms[r.BedroomID]; !ok {
				return danglingErr(domain.EntityResident, r.ID, "bedroom", r.BedroomID)
			}
		}
	}
	for _, r := range g.rents {
		if r.TenantID != "" {
			if _, ok := g.residents[r.TenantID]; !ok {
				return danglingErr(domain.EntityRent, r.ID, "tenant", r.TenantID)
			}
		}
	}
	for _, d := range g.discounts {
		if _, ok := g.rents[d.RentID]; d.RentID == "" || !ok {
			return danglingErr(domain.EntityDiscount, d.ID, "rent", d.RentID)
		}
	}
	return nil
}

func danglingErr(entity domain.EntityType, id, role, ref string) error {
	return &domain.LoadError{Message: fmt.Sprintf("%s %s references unknown %s %q", entity, id, role, ref)}
}

func (g *stagedGraph) checkLink(index int, link Link) error {
	switch link.Association {
	case AssocBathroom:
		if _, ok := g.bedrooms[link.From]; !ok {
			return linkErr(index, link, "bedroom", link.From)
		}
		if _, ok := g.bathrooms[link.To]; !ok {
			return linkErr(index, link, "bathroom", link.To)
		}
	case AssocTutor, AssocConsort:
		if _, ok := g.residents[link.From]; !ok {
			return linkErr(index, link, "resident", link.From)
		}
		if _, ok := g.residents[link.To]; !ok {
			return linkErr(index, link, "resident", link.To)
		}
	case AssocRentBedroom:
		if _, ok := g.rents[link.From]; !ok {
			return linkErr(index, link, "rent", link.From)
		}
		if _, ok := g.bedrooms[link.To]; !ok {
			return linkErr(index, link, "bedroom", link.To)
		}
	default:
		return &domain.LoadError{Message: fmt.Sprintf("link %d: unknown association %q", index, link.Association)}
	}
	return nil
}

func linkErr(index int, link Link, role, ref string) error {
	return &domain.LoadError{
		Message: fmt.Sprintf("link %d (%s): unknown %s %q", index, link.Association, role, ref),
	}
}

func (g *stagedGraph) build(links []Link) *core.Store {
	store := core.NewStore()
	for _, r := range g.residences {
		_ = store.AddResidence(r)
	}
	for _, b := range g.bedrooms {
		_ = store.AddBedroom(b)
	}
	for _, b := range g.bathrooms {
		_ = store.AddBathroom(b)
	}
	for _, r := range g.residents {
		_ = store.AddResident(r)
	}
	for _, r := range g.rents {
		_ = store.AddRent(r)
	}
	for _, d := range g.discounts {
		_ = store.AddDiscount(d)
	}
	for _, link := range links {
		switch link.Association {
		case AssocBathroom:
			store.LinkBathroom(link.From, link.To)
		case AssocTutor:
			store.LinkTutor(link.From, link.To)
		case AssocConsort:
			store.LinkConsort(link.From, link.To)
		case AssocRentBedroom:
			store.LinkRentBedroom(link.From, link.To)
		}
	}
	return store
}
