// Package core implements the lodgecore validation engine: the entity store,
// the derived-attribute evaluator, the invariant catalog and the engine that
// ties them into a validation report.
package core

import (
	"fmt"
	"sort"
	"sync"

	"lodgecore/pkg/domain"
)

// Store owns all entity instances and association links. Associations are
// kept as relation tables keyed by identifier and indexed in both directions;
// multiplicities are recorded but never enforced at link time, so any
// cardinality rule surfaces later as an invariant violation. The only
// enforced behavior beyond storage is composition: deleting an owner cascades
// to the owned instances.
//
// A Store must not be mutated while a validation run is in flight; runs
// operate on the frozen view returned by Snapshot.
type Store struct {
	mu sync.RWMutex

	residences map[string]domain.Residence
	bedrooms   map[string]domain.Bedroom
	bathrooms  map[string]domain.Bathroom
	residents  map[string]domain.Resident
	rents      map[string]domain.Rent
	discounts  map[string]domain.Discount

	// Relation tables. Each holds raw links as registered; duplicates and
	// over-multiplicity links are kept so invariants can observe them.
	bedroomBathrooms map[string][]string // bedroom -> bathrooms
	bathroomBedrooms map[string][]string // bathroom -> bedrooms
	tutorsOf         map[string][]string // tutored -> tutors
	tutoredBy        map[string][]string // tutor -> tutored
	consortsOf       map[string][]string // resident -> consorts
	rentBedrooms     map[string][]string // rent -> bedrooms
	bedroomRents     map[string][]string // bedroom -> rents
}

// NewStore returns an empty entity store.
func NewStore() *Store {
	return &Store{
		residences:       make(map[string]domain.Residence),
		bedrooms:         make(map[string]domain.Bedroom),
		bathrooms:        make(map[string]domain.Bathroom),
		residents:        make(map[string]domain.Resident),
		rents:            make(map[string]domain.Rent),
		discounts:        make(map[string]domain.Discount),
		bedroomBathrooms: make(map[string][]string),
		bathroomBedrooms: make(map[string][]string),
		tutorsOf:         make(map[string][]string),
		tutoredBy:        make(map[string][]string),
		consortsOf:       make(map[string][]string),
		rentBedrooms:     make(map[string][]string),
		bedroomRents:     make(map[string][]string),
	}
}

// AddResidence registers a residence. Identifiers must be unique per type.
func (s *Store) AddResidence(r domain.Residence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.residences[r.ID]; exists {
		return fmt.Errorf("residence %s already registered", r.ID)
	}
	s.residences[r.ID] = r
	return nil
}

// AddBedroom registers a bedroom.
func (s *Store) AddBedroom(b domain.Bedroom) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bedrooms[b.ID]; exists {
		return fmt.Errorf("bedroom %s already registered", b.ID)
	}
	s.bedrooms[b.ID] = b
	return nil
}

// AddBathroom registers a bathroom.
func (s *Store) AddBathroom(b domain.Bathroom) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bathrooms[b.ID]; exists {
		return fmt.Errorf("bathroom %s already registered", b.ID)
	}
	s.bathrooms[b.ID] = b
	return nil
}

// AddResident registers a resident or tenant.
func (s *Store) AddResident(r domain.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.residents[r.ID]; exists {
		return fmt.Errorf("resident %s already registered", r.ID)
	}
	if r.Kind == "" {
		r.Kind = domain.KindResident
	}
	s.residents[r.ID] = r
	return nil
}

// AddRent registers a rent.
func (s *Store) AddRent(r domain.Rent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rents[r.ID]; exists {
		return fmt.Errorf("rent %s already registered", r.ID)
	}
	s.rents[r.ID] = r
	return nil
}

// AddDiscount registers a discount owned by a rent.
func (s *Store) AddDiscount(d domain.Discount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.discounts[d.ID]; exists {
		return fmt.Errorf("discount %s already registered", d.ID)
	}
	s.discounts[d.ID] = d
	return nil
}

// LinkBathroom associates a bathroom with a bedroom. The 0..3 / 0..1
// multiplicity is not enforced here.
func (s *Store) LinkBathroom(bedroomID, bathroomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bedroomBathrooms[bedroomID] = append(s.bedroomBathrooms[bedroomID], bathroomID)
	s.bathroomBedrooms[bathroomID] = append(s.bathroomBedrooms[bathroomID], bedroomID)
}

// LinkTutor records that tutor tutors tutored.
func (s *Store) LinkTutor(tutorID, tutoredID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tutorsOf[tutoredID] = append(s.tutorsOf[tutoredID], tutorID)
	s.tutoredBy[tutorID] = append(s.tutoredBy[tutorID], tutoredID)
}

// LinkConsort records a one-directional consort entry. The relation is
// intended symmetric; symmetry is checked by invariant, never forced here.
func (s *Store) LinkConsort(residentID, consortID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consortsOf[residentID] = append(s.consortsOf[residentID], consortID)
}

// LinkRentBedroom associates a bedroom with a rent.
func (s *Store) LinkRentBedroom(rentID, bedroomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rentBedrooms[rentID] = append(s.rentBedrooms[rentID], bedroomID)
	s.bedroomRents[bedroomID] = append(s.bedroomRents[bedroomID], rentID)
}

// DeleteResidence removes a residence and cascades to its rooms.
func (s *Store) DeleteResidence(id string) error {
	s.mu.Lock()
	if _, ok := s.residences[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("residence %s not found", id)
	}
	var bedroomIDs, bathroomIDs []string
	for bid, b := range s.bedrooms {
		if b.ResidenceID == id {
			bedroomIDs = append(bedroomIDs, bid)
		}
	}
	for bid, b := range s.bathrooms {
		if b.ResidenceID == id {
			bathroomIDs = append(bathroomIDs, bid)
		}
	}
	delete(s.residences, id)
	s.mu.Unlock()

	for _, bid := range bedroomIDs {
		if err := s.DeleteBedroom(bid); err != nil {
			return err
		}
	}
	for _, bid := range bathroomIDs {
		if err := s.DeleteBathroom(bid); err != nil {
			return err
		}
	}
	return nil
}

// DeleteBedroom removes a bedroom, evicts (deletes) its occupants per the
// composition contract, and drops its bathroom and rent links.
func (s *Store) DeleteBedroom(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bedrooms[id]; !ok {
		return fmt.Errorf("bedroom %s not found", id)
	}
	delete(s.bedrooms, id)
	for rid, r := range s.residents {
		if r.BedroomID == id {
			s.removeResidentLocked(rid)
		}
	}
	for _, bathroomID := range s.bedroomBathrooms[id] {
		s.bathroomBedrooms[bathroomID] = removeAll(s.bathroomBedrooms[bathroomID], id)
	}
	delete(s.bedroomBathrooms, id)
	for _, rentID := range s.bedroomRents[id] {
		s.rentBedrooms[rentID] = removeAll(s.rentBedrooms[rentID], id)
	}
	delete(s.bedroomRents, id)
	return nil
}

// DeleteBathroom removes a bathroom and drops its bedroom links.
func (s *Store) DeleteBathroom(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bathrooms[id]; !ok {
		return fmt.Errorf("bathroom %s not found", id)
	}
	delete(s.bathrooms, id)
	for _, bedroomID := range s.bathroomBedrooms[id] {
		s.bedroomBathrooms[bedroomID] = removeAll(s.bedroomBathrooms[bedroomID], id)
	}
	delete(s.bathroomBedrooms, id)
	return nil
}

// DeleteResident removes a resident together with its tutor and consort
// links. Rents held by a tenant lose their tenant reference but survive.
func (s *Store) DeleteResident(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.residents[id]; !ok {
		return fmt.Errorf("resident %s not found", id)
	}
	s.removeResidentLocked(id)
	return nil
}

// DeleteRent removes a rent and cascades to its discounts.
func (s *Store) DeleteRent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rents[id]; !ok {
		return fmt.Errorf("rent %s not found", id)
	}
	delete(s.rents, id)
	for did, d := range s.discounts {
		if d.RentID == id {
			delete(s.discounts, did)
		}
	}
	for _, bedroomID := range s.rentBedrooms[id] {
		s.bedroomRents[bedroomID] = removeAll(s.bedroomRents[bedroomID], id)
	}
	delete(s.rentBedrooms, id)
	return nil
}

func (s *Store) removeResidentLocked(id string) {
	delete(s.residents, id)
	for _, tutorID := range s.tutorsOf[id] {
		s.tutoredBy[tutorID] = removeAll(s.tutoredBy[tutorID], id)
	}
	delete(s.tutorsOf, id)
	for _, tuteeID := range s.tutoredBy[id] {
		s.tutorsOf[tuteeID] = removeAll(s.tutorsOf[tuteeID], id)
	}
	delete(s.tutoredBy, id)
	delete(s.consortsOf, id)
	for rid, consorts := range s.consortsOf {
		s.consortsOf[rid] = removeAll(consorts, id)
	}
	for rid, rent := range s.rents {
		if rent.TenantID == id {
			rent.TenantID = ""
			s.rents[rid] = rent
		}
	}
}

func removeAll(ids []string, id string) []string {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}

// Snapshot returns a frozen, read-only copy of the store for one validation
// run. Derived values are attached by the evaluator afterwards.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Snapshot{
		residences:       cloneMap(s.residences),
		bedrooms:         cloneMap(s.bedrooms),
		bathrooms:        cloneMap(s.bathrooms),
		residents:        cloneMap(s.residents),
		rents:            cloneMap(s.rents),
		discounts:        cloneMap(s.discounts),
		bedroomBathrooms: cloneRelation(s.bedroomBathrooms),
		bathroomBedrooms: cloneRelation(s.bathroomBedrooms),
		tutorsOf:         cloneRelation(s.tutorsOf),
		tutoredBy:        cloneRelation(s.tutoredBy),
		consortsOf:       cloneRelation(s.consortsOf),
		rentBedrooms:     cloneRelation(s.rentBedrooms),
		bedroomRents:     cloneRelation(s.bedroomRents),
	}
}

func cloneMap[T any](in map[string]T) map[string]T {
	out := make(map[string]T, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneRelation(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Snapshot is the frozen view handed to the evaluator and the invariant
// catalog. It implements domain.SnapshotView.
type Snapshot struct {
	residences map[string]domain.Residence
	bedrooms   map[string]domain.Bedroom
	bathrooms  map[string]domain.Bathroom
	residents  map[string]domain.Resident
	rents      map[string]domain.Rent
	discounts  map[string]domain.Discount

	bedroomBathrooms map[string][]string
	bathroomBedrooms map[string][]string
	tutorsOf         map[string][]string
	tutoredBy        map[string][]string
	consortsOf       map[string][]string
	rentBedrooms     map[string][]string
	bedroomRents     map[string][]string

	derived *derivedValues
}

var _ domain.SnapshotView = (*Snapshot)(nil)

// ListResidences returns all residences sorted by identifier.
func (s *Snapshot) ListResidences() []domain.Residence { return sortedValues(s.residences) }

// ListBedrooms returns all bedrooms sorted by identifier.
func (s *Snapshot) ListBedrooms() []domain.Bedroom { return sortedValues(s.bedrooms) }

// ListBathrooms returns all bathrooms sorted by identifier.
func (s *Snapshot) ListBathrooms() []domain.Bathroom { return sortedValues(s.bathrooms) }

// ListResidents returns all residents sorted by identifier.
func (s *Snapshot) ListResidents() []domain.Resident { return sortedValues(s.residents) }

// ListRents returns all rents sorted by identifier.
func (s *Snapshot) ListRents() []domain.Rent { return sortedValues(s.rents) }

// ListDiscounts returns all discounts sorted by identifier.
func (s *Snapshot) ListDiscounts() []domain.Discount { return sortedValues(s.discounts) }

// FindResidence looks up a residence by identifier.
func (s *Snapshot) FindResidence(id string) (domain.Residence, bool) {
	r, ok := s.residences[id]
	return r, ok
}

// FindBedroom looks up a bedroom by identifier.
func (s *Snapshot) FindBedroom(id string) (domain.Bedroom, bool) {
	b, ok := s.bedrooms[id]
	return b, ok
}

// FindBathroom looks up a bathroom by identifier.
func (s *Snapshot) FindBathroom(id string) (domain.Bathroom, bool) {
	b, ok := s.bathrooms[id]
	return b, ok
}

// FindResident looks up a resident by identifier.
func (s *Snapshot) FindResident(id string) (domain.Resident, bool) {
	r, ok := s.residents[id]
	return r, ok
}

// FindRent looks up a rent by identifier.
func (s *Snapshot) FindRent(id string) (domain.Rent, bool) {
	r, ok := s.rents[id]
	return r, ok
}

// FindDiscount looks up a discount by identifier.
func (s *Snapshot) FindDiscount(id string) (domain.Discount, bool) {
	d, ok := s.discounts[id]
	return d, ok
}

// BedroomsOfResidence returns the bedrooms owned by a residence.
func (s *Snapshot) BedroomsOfResidence(id string) []domain.Bedroom {
	var out []domain.Bedroom
	for _, b := range sortedValues(s.bedrooms) {
		if b.ResidenceID == id {
			out = append(out, b)
		}
	}
	return out
}

// BathroomsOfResidence returns the bathrooms owned by a residence.
func (s *Snapshot) BathroomsOfResidence(id string) []domain.Bathroom {
	var out []domain.Bathroom
	for _, b := range sortedValues(s.bathrooms) {
		if b.ResidenceID == id {
			out = append(out, b)
		}
	}
	return out
}

// BathroomsOfBedroom returns the bathrooms linked to a bedroom.
func (s *Snapshot) BathroomsOfBedroom(id string) []domain.Bathroom {
	return resolve(s.bedroomBathrooms[id], s.bathrooms)
}

// BedroomsOfBathroom returns the bedrooms linked to a bathroom. More than one
// entry is an invariant violation, not a storage error.
func (s *Snapshot) BedroomsOfBathroom(id string) []domain.Bedroom {
	return resolve(s.bathroomBedrooms[id], s.bedrooms)
}

// OccupantsOfBedroom returns the residents occupying a bedroom.
func (s *Snapshot) OccupantsOfBedroom(id string) []domain.Resident {
	var out []domain.Resident
	for _, r := range sortedValues(s.residents) {
		if r.BedroomID == id {
			out = append(out, r)
		}
	}
	return out
}

// TutorsOf returns the tutors of a resident.
func (s *Snapshot) TutorsOf(id string) []domain.Resident {
	return resolve(s.tutorsOf[id], s.residents)
}

// TutoredBy returns the residents tutored by a resident.
func (s *Snapshot) TutoredBy(id string) []domain.Resident {
	return resolve(s.tutoredBy[id], s.residents)
}

// ConsortsOf returns the consorts recorded for a resident, as loaded. The
// intended multiplicity is 0..1 and the relation is intended symmetric; both
// are checked by invariants.
func (s *Snapshot) ConsortsOf(id string) []domain.Resident {
	return resolve(s.consortsOf[id], s.residents)
}

// RentsOfTenant returns the rents held by a tenant.
func (s *Snapshot) RentsOfTenant(id string) []domain.Rent {
	var out []domain.Rent
	for _, r := range sortedValues(s.rents) {
		if r.TenantID == id {
			out = append(out, r)
		}
	}
	return out
}

// BedroomsOfRent returns the bedrooms covered by a rent.
func (s *Snapshot) BedroomsOfRent(id string) []domain.Bedroom {
	return resolve(s.rentBedrooms[id], s.bedrooms)
}

// RentsOfBedroom returns the rents covering a bedroom.
func (s *Snapshot) RentsOfBedroom(id string) []domain.Rent {
	return resolve(s.bedroomRents[id], s.rents)
}

// DiscountsOfRent returns the discounts owned by a rent.
func (s *Snapshot) DiscountsOfRent(id string) []domain.Discount {
	var out []domain.Discount
	for _, d := range sortedValues(s.discounts) {
		if d.RentID == id {
			out = append(out, d)
		}
	}
	return out
}

// Derived returns the derived-attribute view, nil before evaluation.
func (s *Snapshot) Derived() domain.DerivedView {
	if s.derived == nil {
		return nil
	}
	return s.derived
}

func resolve[T any](ids []string, table map[string]T) []T {
	var out []T
	for _, id := range ids {
		if v, ok := table[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

func sortedValues[T any](in map[string]T) []T {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, in[k])
	}
	return out
}
