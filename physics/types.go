package physics

import (
	"fmt"
	"strings"
)

type JointType int

const (
	JointHinge JointType = iota
	JointHinge2
	JointBall
	JointSlider
	JointScrew
	JointUniversal
	JointFixed
)

var jointTypeNames = map[JointType]string{
	JointHinge:     "hinge",
	JointHinge2:    "hinge2",
	JointBall:      "ball",
	JointSlider:    "slider",
	JointScrew:     "screw",
	JointUniversal: "universal",
	JointFixed:     "fixed",
}

// ParseJointType accepts the SDF type names and their aliases.
func ParseJointType(s string) (JointType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "revolute", "hinge":
		return JointHinge, nil
	case "revolute2", "hinge2":
		return JointHinge2, nil
	case "ball":
		return JointBall, nil
	case "prismatic", "slider":
		return JointSlider, nil
	case "screw":
		return JointScrew, nil
	case "universal":
		return JointUniversal, nil
	case "fixed":
		return JointFixed, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedJoint, s)
}

func (t JointType) String() string {
	if n, ok := jointTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("JointType(%d)", int(t))
}

// AngleCount is the number of indexed degrees of freedom.
func (t JointType) AngleCount() int {
	switch t {
	case JointHinge2, JointUniversal:
		return 2
	case JointBall, JointFixed:
		return 0
	}
	return 1
}

// AxisCount is the number of <axis> elements the type requires.
func (t JointType) AxisCount() int {
	switch t {
	case JointHinge2, JointUniversal:
		return 2
	case JointHinge, JointSlider, JointScrew:
		return 1
	}
	return 0
}

type Lifecycle int

const (
	Uninitialized Lifecycle = iota
	Loaded
	Constructed
	Destroyed
)

func (l Lifecycle) String() string {
	switch l {
	case Uninitialized:
		return "uninitialized"
	case Loaded:
		return "loaded"
	case Constructed:
		return "constructed"
	case Destroyed:
		return "destroyed"
	}
	return fmt.Sprintf("Lifecycle(%d)", int(l))
}
