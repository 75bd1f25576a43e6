package metadata

import (
	"fmt"

	"firestore-odm/internal/shared/errors"
)

// NavigationKind classifies how a navigation is stored.
type NavigationKind int

const (
	// KindReference is a pointer-like value addressing a document in a
	// separate collection.
	KindReference NavigationKind = iota
	// KindEmbeddedObject is a sub-structure stored inline in the parent.
	KindEmbeddedObject
	// KindEmbeddedArray is an inline array of embedded objects.
	KindEmbeddedArray
	// KindReferenceArray is an inline array of references.
	KindReferenceArray
	// KindChildCollection is a nested collection addressed relative to the
	// parent document.
	KindChildCollection
	// KindMap is an inline map of values keyed by string.
	KindMap
)

func (k NavigationKind) String() string {
	switch k {
	case KindReference:
		return "reference"
	case KindEmbeddedObject:
		return "embedded-object"
	case KindEmbeddedArray:
		return "embedded-array"
	case KindReferenceArray:
		return "reference-array"
	case KindChildCollection:
		return "child-collection"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("navigation-kind(%d)", int(k))
	}
}

// PropertyMetadata describes one scalar property of an entity.
type PropertyMetadata struct {
	Name string
	// PersistsNull opts the property into null persistence: only then may a
	// filter compare it against an evaluated null.
	PersistsNull bool
	EnumType     string
}

// NavigationMetadata describes one navigation of an entity.
type NavigationMetadata struct {
	Name           string
	Kind           NavigationKind
	TargetEntity   string
	CollectionPath string
}

// IsCollection reports whether loading the navigation yields many documents.
func (n NavigationMetadata) IsCollection() bool {
	return n.Kind == KindChildCollection || n.Kind == KindReferenceArray
}

// EntityMetadata is the per-entity contract supplied by the storage
// convention subsystem: collection path, primary key, and the classification
// of every property and navigation.
type EntityMetadata struct {
	name           string
	collectionPath string
	primaryKey     string
	properties     map[string]PropertyMetadata
	navigations    map[string]NavigationMetadata
}

// NewEntity starts building metadata for one entity.
func NewEntity(name, collectionPath, primaryKey string) *EntityMetadata {
	return &EntityMetadata{
		name:           name,
		collectionPath: collectionPath,
		primaryKey:     primaryKey,
		properties:     make(map[string]PropertyMetadata),
		navigations:    make(map[string]NavigationMetadata),
	}
}

// WithProperty registers a scalar property.
func (e *EntityMetadata) WithProperty(p PropertyMetadata) *EntityMetadata {
	e.properties[p.Name] = p
	return e
}

// WithNullableProperty registers a property opted into null persistence.
func (e *EntityMetadata) WithNullableProperty(name string) *EntityMetadata {
	return e.WithProperty(PropertyMetadata{Name: name, PersistsNull: true})
}

// WithEnumProperty registers a property stored as an enum.
func (e *EntityMetadata) WithEnumProperty(name, enumType string) *EntityMetadata {
	return e.WithProperty(PropertyMetadata{Name: name, EnumType: enumType})
}

// WithNavigation registers a navigation.
func (e *EntityMetadata) WithNavigation(n NavigationMetadata) *EntityMetadata {
	e.navigations[n.Name] = n
	return e
}

// Name returns the entity name.
func (e *EntityMetadata) Name() string { return e.name }

// CollectionPath returns the storage path of the entity's collection.
func (e *EntityMetadata) CollectionPath() string { return e.collectionPath }

// PrimaryKey returns the primary-key property name.
func (e *EntityMetadata) PrimaryKey() string { return e.primaryKey }

// Property looks up a scalar property by (possibly dotted) path.
func (e *EntityMetadata) Property(path string) (PropertyMetadata, bool) {
	p, ok := e.properties[path]
	return p, ok
}

// Navigation looks up a navigation by name.
func (e *EntityMetadata) Navigation(name string) (NavigationMetadata, bool) {
	n, ok := e.navigations[name]
	return n, ok
}

// EnumDefinition maps between the runtime values of one enum type and their
// persisted names.
type EnumDefinition struct {
	name   string
	names  map[int64]string
	values map[string]int64
}

// NewEnum builds an enum definition from value/name pairs.
func NewEnum(name string, members map[int64]string) *EnumDefinition {
	def := &EnumDefinition{
		name:   name,
		names:  make(map[int64]string, len(members)),
		values: make(map[string]int64, len(members)),
	}
	for v, n := range members {
		def.names[v] = n
		def.values[n] = v
	}
	return def
}

// Name returns the enum type name.
func (d *EnumDefinition) Name() string { return d.name }

// NameOf returns the persisted name of a runtime value.
func (d *EnumDefinition) NameOf(value int64) (string, bool) {
	n, ok := d.names[value]
	return n, ok
}

// ValueOf returns the runtime value of a persisted name.
func (d *EnumDefinition) ValueOf(name string) (int64, bool) {
	v, ok := d.values[name]
	return v, ok
}

// Source is the metadata lookup contract the pipeline consumes. The storage
// convention subsystem provides the production implementation; Registry
// serves tests and hosts without one.
type Source interface {
	Entity(name string) (*EntityMetadata, error)
	Enum(name string) (*EnumDefinition, error)
}

// Registry is an in-memory metadata Source.
type Registry struct {
	entities map[string]*EntityMetadata
	enums    map[string]*EnumDefinition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[string]*EntityMetadata),
		enums:    make(map[string]*EnumDefinition),
	}
}

// Register adds an entity.
func (r *Registry) Register(e *EntityMetadata) *Registry {
	r.entities[e.name] = e
	return r
}

// RegisterEnum adds an enum definition.
func (r *Registry) RegisterEnum(d *EnumDefinition) *Registry {
	r.enums[d.name] = d
	return r
}

// Entity implements Source.
func (r *Registry) Entity(name string) (*EntityMetadata, error) {
	e, ok := r.entities[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownEntity, name)
	}
	return e, nil
}

// Enum implements Source.
func (r *Registry) Enum(name string) (*EnumDefinition, error) {
	d, ok := r.enums[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownEnum, name)
	}
	return d, nil
}
