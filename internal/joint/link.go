package joint

import (
	"fmt"

	"github.com/san-kum/dynjoint/internal/physics"
	"github.com/sirupsen/logrus"
)

// LinkJoint is the capability set shared by every link variant.
type LinkJoint interface {
	CreateJoint(source, target AttachPoint) error
	DropJoint() error
	AdjustJoint(unbreakable bool) error
	IsJointUnlocked() bool
}

// Framework is the generic link mechanism. Assemblies that replace the
// default link remove it through DropSimpleJoint before building.
type Framework interface {
	DropSimpleJoint() error
}

// NopFramework has no simple joint to drop.
type NopFramework struct{}

func (NopFramework) DropSimpleJoint() error { return nil }

type Variant string

const (
	VariantTwoEndsSphere Variant = "two_ends_sphere"
	VariantRigid         Variant = "rigid"
)

// Variants lists every known variant.
func Variants() []Variant {
	return []Variant{VariantTwoEndsSphere, VariantRigid}
}

// Deps are the collaborators of a link.
type Deps struct {
	Engine    physics.Engine
	Util      physics.Util
	Host      Host
	Framework Framework
	Settings  Settings
	Log       *logrus.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Framework == nil {
		d.Framework = NopFramework{}
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	return d
}

// New builds the link variant v.
func New(v Variant, d Deps) (LinkJoint, error) {
	switch v {
	case VariantTwoEndsSphere:
		return NewTwoEndsSphere(d), nil
	case VariantRigid:
		return NewRigid(d), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
}
