package ir

import (
	"fmt"
	"iter"
	"slices"
)

// DefinitionRegistry collects the named definitions of one ApiSpec in first-registration
// order. Registration is idempotent per (namespace, name).
type DefinitionRegistry struct {
	order []*DefinitionSpec
	byID  map[DefinitionID]*DefinitionSpec
}

// NewDefinitionRegistry creates an empty registry
func NewDefinitionRegistry() *DefinitionRegistry {
	return &DefinitionRegistry{byID: make(map[DefinitionID]*DefinitionSpec)}
}

// Register records a definition and returns its id. Registering an existing
// (namespace, name) with the same properties returns the existing id; different
// properties fail with ErrNameCollisionOnDefinition.
func (r *DefinitionRegistry) Register(namespace, name string, props []Property) (DefinitionID, error) {
	return r.add(&DefinitionSpec{ID: DefinitionID{Namespace: namespace, Name: name}, Properties: props})
}

// RegisterSpec is Register for a fully populated definition (description included)
func (r *DefinitionRegistry) RegisterSpec(def *DefinitionSpec) (DefinitionID, error) {
	return r.add(def)
}

func (r *DefinitionRegistry) add(def *DefinitionSpec) (DefinitionID, error) {
	if existing, ok := r.byID[def.ID]; ok {
		if !equalProperties(existing.Properties, def.Properties) {
			return existing.ID, &Error{
				Kind:       ErrNameCollisionOnDefinition,
				Definition: def.ID.String(),
				Detail:     "registered twice with different properties",
			}
		}
		return existing.ID, nil
	}
	r.byID[def.ID] = def
	r.order = append(r.order, def)
	return def.ID, nil
}

// Has reports whether id is registered
func (r *DefinitionRegistry) Has(id DefinitionID) bool {
	_, ok := r.byID[id]
	return ok
}

// Lookup returns the definition registered under id
func (r *DefinitionRegistry) Lookup(id DefinitionID) (*DefinitionSpec, bool) {
	def, ok := r.byID[id]
	return def, ok
}

// Values yields the registered definitions in first-registration order. The system
// error definition is never part of a per-API listing.
func (r *DefinitionRegistry) Values() iter.Seq[*DefinitionSpec] {
	return func(yield func(*DefinitionSpec) bool) {
		for _, def := range r.order {
			if def.SystemError {
				continue
			}
			if !yield(def) {
				return
			}
		}
	}
}

// List is Values collected into a slice
func (r *DefinitionRegistry) List() []*DefinitionSpec {
	return slices.Collect(r.Values())
}

// Len is the number of definitions Values yields
func (r *DefinitionRegistry) Len() int {
	n := 0
	for range r.Values() {
		n++
	}
	return n
}

// SystemErrorSlot holds the single shared error definition of a run. The first document
// that references it defines its shape; later documents must agree.
type SystemErrorSlot struct {
	id     DefinitionID
	def    *DefinitionSpec
	source string
	// lookup resolves the definitions the shape references, in the defining document
	lookup DefinitionLookup
}

// NewSystemErrorSlot creates an empty slot for the error named name in namespace
func NewSystemErrorSlot(namespace, name string) *SystemErrorSlot {
	return &SystemErrorSlot{id: DefinitionID{Namespace: namespace, Name: name}}
}

// ID is the definition id every reference to the system error resolves to
func (s *SystemErrorSlot) ID() DefinitionID { return s.id }

// Name is the unqualified definition name documents use for the system error
func (s *SystemErrorSlot) Name() string { return s.id.Name }

// Defined reports whether a document has already supplied the shape
func (s *SystemErrorSlot) Defined() bool { return s.def != nil }

// Define writes the shape once. lookup resolves the definitions props reference in the
// calling document; each document keeps its own copy of those, so a later call is
// compared by shape (EqualShape) rather than by definition id. A different shape fails
// with ErrNameCollisionOnDefinition.
func (s *SystemErrorSlot) Define(document, description string, props []Property, lookup DefinitionLookup) (DefinitionID, error) {
	if lookup == nil {
		lookup = noDefinitions
	}
	if s.def != nil {
		if !s.sameShape(props, lookup) {
			return s.id, &Error{
				Kind:       ErrNameCollisionOnDefinition,
				Document:   document,
				Definition: s.id.String(),
				Detail:     fmt.Sprintf("shape differs from the one declared by %s", s.source),
			}
		}
		return s.id, nil
	}
	s.def = &DefinitionSpec{ID: s.id, Description: description, Properties: props, SystemError: true}
	s.source = document
	s.lookup = lookup
	return s.id, nil
}

func (s *SystemErrorSlot) sameShape(props []Property, lookup DefinitionLookup) bool {
	if len(props) != len(s.def.Properties) {
		return false
	}
	for i, p := range props {
		if p.Name != s.def.Properties[i].Name || !EqualShape(s.def.Properties[i].Type, p.Type, s.lookup, lookup) {
			return false
		}
	}
	return true
}

// Definition returns the shared definition, or nil when no document referenced it
func (s *SystemErrorSlot) Definition() *DefinitionSpec { return s.def }

func noDefinitions(DefinitionID) (*DefinitionSpec, bool) { return nil, false }
