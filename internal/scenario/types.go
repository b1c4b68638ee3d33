package scenario

// Sample is the state of a run after one step. Force and Torque are the
// largest loads over live constraints; a break during the step counts too.
type Sample struct {
	Step        int
	Time        float64
	Distance    float64
	Force       float64
	Torque      float64
	Unbreakable bool
	Live        bool
}

type EventKind string

const (
	EventCreated     EventKind = "created"
	EventUnbreakable EventKind = "unbreakable"
	EventRestored    EventKind = "restored"
	EventBreak       EventKind = "break"
	EventDropped     EventKind = "dropped"
)

type Event struct {
	Time  float64
	Kind  EventKind
	Force float64
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Sample)
}

type Result struct {
	Name      string
	Samples   []Sample
	Events    []Event
	Metrics   map[string]float64
	Broken    bool
	BreakTime float64
}
