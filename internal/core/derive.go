package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"lodgecore/pkg/domain"
)

// Attribute names used as dependency-graph keys. Bedroom nominal rate and
// rent derived rate are deliberately distinct named quantities; collapsing
// them is what makes the discount/rate pair look circular.
const (
	attrFloor        = "floor"
	attrOnLanding    = "isOnTheLanding"
	attrFreeUnits    = "maxNbOfFreeUnits"
	attrRentDiscount = "discount"
	attrRentRate     = "rate"
	attrPaidRate     = "paidRate"
)

// floorSpreadDeduction is subtracted from a tenant's paid rate when the
// tenant's occupant group spans more than one floor.
const floorSpreadDeduction = 20

// attrKey identifies one derived attribute slot of one entity instance.
type attrKey struct {
	Entity domain.EntityType
	ID     string
	Attr   string
}

func (k attrKey) String() string {
	return fmt.Sprintf("%s(%s).%s", k.Entity, k.ID, k.Attr)
}

// node is one derivation: a target slot, the slots it reads, and the
// computation writing it.
type node struct {
	key  attrKey
	deps []attrKey
	eval func(v *derivedValues) error
}

// roomSlot keys a derived floor value. Identifiers are only unique per
// entity type, so a bedroom and a bathroom sharing an id occupy distinct
// slots.
type roomSlot struct {
	Entity domain.EntityType
	ID     string
}

// derivedValues holds every derived attribute computed for one snapshot.
// Slots are written once during evaluation and read-only afterwards.
type derivedValues struct {
	mu                 sync.RWMutex
	roomFloor          map[roomSlot]int
	bathroomOnLanding  map[string]bool
	residenceFreeUnits map[string]int
	rentDiscount       map[string]float64
	rentRate           map[string]float64
	tenantPaidRate     map[string]float64
}

var _ domain.DerivedView = (*derivedValues)(nil)

func newDerivedValues() *derivedValues {
	return &derivedValues{
		roomFloor:          make(map[roomSlot]int),
		bathroomOnLanding:  make(map[string]bool),
		residenceFreeUnits: make(map[string]int),
		rentDiscount:       make(map[string]float64),
		rentRate:           make(map[string]float64),
		tenantPaidRate:     make(map[string]float64),
	}
}

// RoomFloor returns the derived floor of a room of the given entity type.
func (v *derivedValues) RoomFloor(entity domain.EntityType, roomID string) (int, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	f, ok := v.roomFloor[roomSlot{entity, roomID}]
	return f, ok
}

// BathroomOnLanding returns the derived isOnTheLanding flag of a bathroom.
func (v *derivedValues) BathroomOnLanding(id string) (bool, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	b, ok := v.bathroomOnLanding[id]
	return b, ok
}

// ResidenceFreeUnits returns the derived maxNbOfFreeUnits of a residence.
func (v *derivedValues) ResidenceFreeUnits(id string) (int, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n, ok := v.residenceFreeUnits[id]
	return n, ok
}

// RentDiscount returns the derived discount amount of a rent.
func (v *derivedValues) RentDiscount(id string) (float64, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	d, ok := v.rentDiscount[id]
	return d, ok
}

// RentRate returns the derived rate of a rent. This is distinct from the
// nominal Bedroom.Rate it is computed from.
func (v *derivedValues) RentRate(id string) (float64, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	r, ok := v.rentRate[id]
	return r, ok
}

// TenantPaidRate returns the derived paid rate of a tenant.
func (v *derivedValues) TenantPaidRate(id string) (float64, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	r, ok := v.tenantPaidRate[id]
	return r, ok
}

// BedroomUnits is declared by the model without a formula.
func (v *derivedValues) BedroomUnits(string) (int, error) {
	return 0, domain.ErrNotImplemented
}

// ResidenceAvgRate is declared by the model without a formula.
func (v *derivedValues) ResidenceAvgRate(string) (float64, error) {
	return 0, domain.ErrNotImplemented
}

// evaluateDerived computes every derived attribute of the snapshot in
// dependency order and attaches the result to it. Independent derivations
// within one topological layer run concurrently; they read prior layers and
// write disjoint slots.
func evaluateDerived(ctx context.Context, snap *Snapshot) error {
	nodes := buildDerivationGraph(snap)
	layers, err := topoLayers(nodes)
	if err != nil {
		return err
	}
	values := newDerivedValues()
	for _, layer := range layers {
		g, _ := errgroup.WithContext(ctx)
		for _, n := range layer {
			g.Go(func() error { return n.eval(values) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	snap.derived = values
	return nil
}

func buildDerivationGraph(snap *Snapshot) []node {
	var nodes []node

	for _, bedroom := range snap.ListBedrooms() {
		number := bedroom.Number
		id := bedroom.ID
		nodes = append(nodes, node{
			key: attrKey{domain.EntityBedroom, id, attrFloor},
			eval: func(v *derivedValues) error {
				v.set(func() { v.roomFloor[roomSlot{domain.EntityBedroom, id}] = number / 100 })
				return nil
			},
		})
	}
	for _, bathroom := range snap.ListBathrooms() {
		number := bathroom.Number
		id := bathroom.ID
		nodes = append(nodes, node{
			key: attrKey{domain.EntityBathroom, id, attrFloor},
			eval: func(v *derivedValues) error {
				v.set(func() { v.roomFloor[roomSlot{domain.EntityBathroom, id}] = number / 100 })
				return nil
			},
		})
		// The source model fixes isOnTheLanding to true for every bathroom.
		// TODO: decide whether linkage to a bedroom should flip this to false.
		nodes = append(nodes, node{
			key: attrKey{domain.EntityBathroom, id, attrOnLanding},
			eval: func(v *derivedValues) error {
				v.set(func() { v.bathroomOnLanding[id] = true })
				return nil
			},
		})
	}

	for _, residence := range snap.ListResidences() {
		id := residence.ID
		nodes = append(nodes, node{
			key: attrKey{domain.EntityResidence, id, attrFreeUnits},
			eval: func(v *derivedValues) error {
				total := 0
				for _, bedroom := range snap.BedroomsOfResidence(id) {
					total += bedroom.SingleBeds + bedroom.DoubleBeds
				}
				v.set(func() { v.residenceFreeUnits[id] = total })
				return nil
			},
		})
	}

	for _, rent := range snap.ListRents() {
		id := rent.ID
		discountKey := attrKey{domain.EntityRent, id, attrRentDiscount}
		nodes = append(nodes, node{
			key: discountKey,
			eval: func(v *derivedValues) error {
				basis, err := nominalBasis(snap, id, attrRentDiscount)
				if err != nil {
					return err
				}
				pct := 0
				for _, d := range snap.DiscountsOfRent(id) {
					pct += d.Percentage
				}
				v.set(func() { v.rentDiscount[id] = basis * float64(pct) / 100 })
				return nil
			},
		})
		nodes = append(nodes, node{
			key:  attrKey{domain.EntityRent, id, attrRentRate},
			deps: []attrKey{discountKey},
			eval: func(v *derivedValues) error {
				basis, err := nominalBasis(snap, id, attrRentRate)
				if err != nil {
					return err
				}
				discount, _ := v.RentDiscount(id)
				v.set(func() { v.rentRate[id] = basis - discount })
				return nil
			},
		})
	}

	for _, resident := range snap.ListResidents() {
		if !resident.IsTenant() {
			continue
		}
		id := resident.ID
		var deps []attrKey
		for _, rent := range snap.RentsOfTenant(id) {
			deps = append(deps, attrKey{domain.EntityRent, rent.ID, attrRentRate})
			for _, bedroom := range snap.BedroomsOfRent(rent.ID) {
				deps = append(deps, attrKey{domain.EntityBedroom, bedroom.ID, attrFloor})
			}
		}
		nodes = append(nodes, node{
			key:  attrKey{domain.EntityResident, id, attrPaidRate},
			deps: deps,
			eval: func(v *derivedValues) error {
				total := 0.0
				floors := make(map[int]struct{})
				for _, rent := range snap.RentsOfTenant(id) {
					rate, _ := v.RentRate(rent.ID)
					total += rate
					for _, bedroom := range snap.BedroomsOfRent(rent.ID) {
						for _, occupant := range snap.OccupantsOfBedroom(bedroom.ID) {
							if floor, ok := v.RoomFloor(domain.EntityBedroom, occupant.BedroomID); ok {
								floors[floor] = struct{}{}
							}
						}
					}
				}
				if len(floors) > 1 {
					total -= floorSpreadDeduction
				}
				v.set(func() { v.tenantPaidRate[id] = total })
				return nil
			},
		})
	}

	return nodes
}

// nominalBasis is the sum of the nominal rates of the rent's bedrooms. A rent
// with no linked bedroom cannot be priced and aborts the run.
func nominalBasis(snap *Snapshot, rentID, attribute string) (float64, error) {
	bedrooms := snap.BedroomsOfRent(rentID)
	if len(bedrooms) == 0 {
		return 0, &domain.UnresolvedDerivationError{
			Entity:    domain.EntityRent,
			EntityID:  rentID,
			Attribute: attribute,
			Message:   "rent has no linked bedroom",
		}
	}
	basis := 0.0
	for _, b := range bedrooms {
		basis += b.Rate
	}
	return basis, nil
}

func (v *derivedValues) set(write func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	write()
}

// topoLayers arranges nodes into evaluation layers with Kahn's algorithm.
// Dependencies on slots no node produces (stored attributes) are ignored.
// Nodes left over after layering form at least one true cycle, which is a
// fatal model defect.
func topoLayers(nodes []node) ([][]node, error) {
	produced := make(map[attrKey]int, len(nodes))
	for i, n := range nodes {
		produced[n.key] = i
	}
	indegree := make([]int, len(nodes))
	dependents := make(map[attrKey][]int)
	for i, n := range nodes {
		for _, dep := range n.deps {
			if _, ok := produced[dep]; !ok {
				continue
			}
			indegree[i]++
			dependents[dep] = append(dependents[dep], i)
		}
	}

	var layers [][]node
	current := make([]int, 0, len(nodes))
	for i := range nodes {
		if indegree[i] == 0 {
			current = append(current, i)
		}
	}
	placed := 0
	for len(current) > 0 {
		layer := make([]node, 0, len(current))
		var next []int
		for _, i := range current {
			layer = append(layer, nodes[i])
			placed++
			for _, dep := range dependents[nodes[i].key] {
				indegree[dep]--
				if indegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		layers = append(layers, layer)
		current = next
	}
	if placed != len(nodes) {
		return nil, &domain.CyclicDerivationError{Cycle: extractCycle(nodes, indegree, produced)}
	}
	return layers, nil
}

// extractCycle walks unresolved dependencies from any stuck node until a key
// repeats and returns the members of that loop.
func extractCycle(nodes []node, indegree []int, produced map[attrKey]int) []string {
	stuck := -1
	for i := range nodes {
		if indegree[i] > 0 {
			stuck = i
			break
		}
	}
	if stuck < 0 {
		return nil
	}
	seen := make(map[attrKey]bool)
	order := []attrKey{}
	at := stuck
	for !seen[nodes[at].key] {
		seen[nodes[at].key] = true
		order = append(order, nodes[at].key)
		next := -1
		for _, dep := range nodes[at].deps {
			if j, ok := produced[dep]; ok && indegree[j] > 0 {
				next = j
				break
			}
		}
		if next < 0 {
			break
		}
		at = next
	}
	start := 0
	for i, k := range order {
		if k == nodes[at].key {
			start = i
			break
		}
	}
	members := make([]string, 0, len(order)-start)
	for _, k := range order[start:] {
		members = append(members, k.String())
	}
	sort.Strings(members)
	return members
}
