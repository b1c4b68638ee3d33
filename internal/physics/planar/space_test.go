package planar

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/dynjoint/internal/physics"
)

func TestSpaceDestroyRemovesJoints(t *testing.T) {
	s := New()
	if _, _, err := s.SpawnPart("a", physics.NewPose(0, 0, 0)); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	end, _ := s.CreateObject("end", physics.NewPose(0, 0, 0))
	if _, err := s.AddBody(end); err != nil {
		t.Fatalf("add body: %v", err)
	}

	_, ab, _ := s.SpawnPart("b", physics.NewPose(0, 0, 5))

	if _, err := s.AddConstraint(end, physics.Util{}.Spherical(ab, 20, 500, 500)); err != nil {
		t.Fatalf("add constraint: %v", err)
	}
	if got := s.Joints(); got != 2 {
		t.Errorf("expected pivot + rotary limit, got %d cp joints", got)
	}

	if err := s.DestroyObject(end); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if got := s.Joints(); got != 0 {
		t.Errorf("expected no cp joints, got %d", got)
	}
	objs, bodies, cons := s.Counts()
	if objs != 2 || bodies != 2 || cons != 0 {
		t.Errorf("expected 2/2/0, got %d/%d/%d", objs, bodies, cons)
	}
}

func TestSpaceFreeRotationHasNoLimit(t *testing.T) {
	s := New()
	a, _, _ := s.SpawnPart("a", physics.NewPose(0, 0, 0))
	_, bb, _ := s.SpawnPart("b", physics.NewPose(0, 0, 1))

	s.AddConstraint(a, physics.Util{}.Spherical(bb, math.Inf(1), 1, 1))
	if got := s.Joints(); got != 1 {
		t.Errorf("expected only a pivot, got %d cp joints", got)
	}
}

func TestSpaceSetParams(t *testing.T) {
	s := New()
	a, _, _ := s.SpawnPart("a", physics.NewPose(0, 0, 0))
	_, bb, _ := s.SpawnPart("b", physics.NewPose(0, 0, 5))

	u := physics.Util{}
	p := u.Linear(bb, 1, 6, math.Inf(1), 0.1, 500)
	id, err := s.AddConstraint(a, p)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	before := s.Joints()

	if err := s.SetParams(id, u.Unbreakable(p)); err != nil {
		t.Fatalf("set params: %v", err)
	}
	got, _ := s.Params(id)
	if !got.Unbreakable() {
		t.Error("expected unbreakable thresholds")
	}
	if s.Joints() != before {
		t.Errorf("threshold change should keep joints, had %d now %d", before, s.Joints())
	}

	soft := p
	soft.Spring = 50
	if err := s.SetParams(id, soft); err != nil {
		t.Fatalf("set params: %v", err)
	}
	got, _ = s.Params(id)
	if got != soft {
		t.Errorf("expected %+v, got %+v", soft, got)
	}
	if s.Joints() != before {
		t.Errorf("rebuild should keep joint count, had %d now %d", before, s.Joints())
	}

	if err := s.SetParams(99, p); !errors.Is(err, physics.ErrStaleReference) {
		t.Errorf("expected stale reference, got %v", err)
	}
}

func TestSpaceStretchBreaksConnector(t *testing.T) {
	tests := []struct {
		name        string
		unbreakable bool
	}{
		{"normal", false},
		{"unbreakable", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			a, _, _ := s.SpawnPart("a", physics.NewPose(0, 0, 0))
			b, bb, _ := s.SpawnPart("b", physics.NewPose(0, 0, 5))

			p := physics.Util{}.Linear(bb, 1, 6, math.Inf(1), 0.1, 1)
			if tt.unbreakable {
				p = physics.Util{}.Unbreakable(p)
			}
			id, _ := s.AddConstraint(a, p)

			var forces []float64
			s.Subscribe(a, physics.BreakFunc(func(f float64) { forces = append(forces, f) }))

			s.Translate(b, mgl64.Vec3{0, 0, 10})
			s.Step(1.0 / 60)

			if tt.unbreakable {
				if len(forces) != 0 {
					t.Fatalf("unbreakable connector broke with %v", forces)
				}
				if _, err := s.Params(id); err != nil {
					t.Errorf("connector should survive: %v", err)
				}
				return
			}

			if len(forces) != 1 || forces[0] <= 1 {
				t.Fatalf("expected one break above threshold, got %v", forces)
			}
			if s.Joints() != 0 {
				t.Errorf("broken connector left %d cp joints", s.Joints())
			}
			if _, err := s.Params(id); !errors.Is(err, physics.ErrStaleReference) {
				t.Errorf("expected stale connector, got %v", err)
			}
		})
	}
}

func TestSpacePoseRoundTrip(t *testing.T) {
	s := New()
	pose := physics.Pose{Position: mgl64.Vec3{1, 2, 3}, Rotation: mgl64.QuatRotate(0.3, mgl64.Vec3{0, 1, 0})}
	obj, _, _ := s.SpawnPart("a", pose)

	got, err := s.ObjectPose(obj)
	if err != nil {
		t.Fatalf("pose: %v", err)
	}
	if !got.Position.ApproxEqual(pose.Position) {
		t.Errorf("expected position %v, got %v", pose.Position, got.Position)
	}
	if !got.Rotation.ApproxEqual(pose.Rotation) {
		t.Errorf("expected rotation %v, got %v", pose.Rotation, got.Rotation)
	}
}

func TestSpaceFixedJointBreaksWhenPulledOpen(t *testing.T) {
	tests := []struct {
		name        string
		unbreakable bool
	}{
		{"normal", false},
		{"unbreakable", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			a, _, _ := s.SpawnPart("a", physics.NewPose(0, 0, 0))
			b, bb, _ := s.SpawnPart("b", physics.NewPose(0, 0, 5))

			p := physics.Util{}.Fixed(bb, 500, 500)
			if tt.unbreakable {
				p = physics.Util{}.Unbreakable(p)
			}
			id, _ := s.AddConstraint(a, p)

			var forces []float64
			s.Subscribe(a, physics.BreakFunc(func(f float64) { forces = append(forces, f) }))

			s.Step(1.0 / 60)
			if len(forces) != 0 {
				t.Fatalf("broke at rest with %v", forces)
			}

			s.Translate(b, mgl64.Vec3{0, 0, 1})
			s.Step(1.0 / 60)

			if tt.unbreakable {
				if len(forces) != 0 {
					t.Fatalf("unbreakable joint broke with %v", forces)
				}
				if load, _ := s.Load(id); !math.IsInf(load.Force, 1) {
					t.Errorf("expected an infinite load on the open pivot, got %f", load.Force)
				}
				return
			}
			if len(forces) != 1 || !math.IsInf(forces[0], 1) {
				t.Fatalf("expected one infinite break, got %v", forces)
			}
			if s.Joints() != 0 {
				t.Errorf("broken joint left %d cp joints", s.Joints())
			}
		})
	}
}
