package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ServiceType names the kind of resource a line item points at.
type ServiceType string

const (
	Accommodation ServiceType = "Accommodation"
	Meal          ServiceType = "Meal"
	TourPackage   ServiceType = "TourPackage"
	Vehicle       ServiceType = "Vehicle"
)

// ServiceTypes lists every supported type in a stable order.
var ServiceTypes = []ServiceType{Accommodation, Meal, TourPackage, Vehicle}

func (t ServiceType) Valid() bool {
	switch t {
	case Accommodation, Meal, TourPackage, Vehicle:
		return true
	}
	return false
}

// ResourceRefs holds the resource reference of a line item. Exactly one field
// is set and it is the one matching the item's ServiceType.
type ResourceRefs struct {
	Accommodation *primitive.ObjectID `bson:"accommodation,omitempty" json:"accommodation,omitempty"`
	Meal          *primitive.ObjectID `bson:"meal,omitempty" json:"meal,omitempty"`
	TourPackage   *primitive.ObjectID `bson:"tourPackage,omitempty" json:"tourPackage,omitempty"`
	Vehicle       *primitive.ObjectID `bson:"vehicle,omitempty" json:"vehicle,omitempty"`
}

// NewRefs returns refs with only the slot for t populated.
func NewRefs(t ServiceType, id primitive.ObjectID) ResourceRefs {
	var r ResourceRefs
	switch t {
	case Accommodation:
		r.Accommodation = &id
	case Meal:
		r.Meal = &id
	case TourPackage:
		r.TourPackage = &id
	case Vehicle:
		r.Vehicle = &id
	}
	return r
}

// For returns the reference stored for t, if any.
func (r ResourceRefs) For(t ServiceType) (primitive.ObjectID, bool) {
	var p *primitive.ObjectID
	switch t {
	case Accommodation:
		p = r.Accommodation
	case Meal:
		p = r.Meal
	case TourPackage:
		p = r.TourPackage
	case Vehicle:
		p = r.Vehicle
	}
	if p == nil {
		return primitive.NilObjectID, false
	}
	return *p, true
}

// Valid reports whether exactly one reference is set and it matches t.
func (r ResourceRefs) Valid(t ServiceType) bool {
	set := 0
	for _, p := range []*primitive.ObjectID{r.Accommodation, r.Meal, r.TourPackage, r.Vehicle} {
		if p != nil {
			set++
		}
	}
	_, ok := r.For(t)
	return set == 1 && ok
}

func (r ResourceRefs) equal(o ResourceRefs) bool {
	eq := func(a, b *primitive.ObjectID) bool {
		if a == nil || b == nil {
			return a == b
		}
		return *a == *b
	}
	return eq(r.Accommodation, o.Accommodation) && eq(r.Meal, o.Meal) &&
		eq(r.TourPackage, o.TourPackage) && eq(r.Vehicle, o.Vehicle)
}
