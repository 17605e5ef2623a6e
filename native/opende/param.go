package opende

import (
	"math"

	"github.com/milk9111/jointsim/native/rigid"
)

// Param selects a joint parameter. Parameters for the second and third axis
// are offset by ParamGroup and 2*ParamGroup.
type Param int

const (
	ParamLoStop Param = iota
	ParamHiStop
	ParamVel
	ParamFMax
	ParamFudgeFactor
	ParamBounce
	ParamCFM
	ParamStopERP
	ParamStopCFM
	ParamSuspensionERP
	ParamSuspensionCFM
	ParamERP

	ParamGroup Param = 0x100

	ParamLoStop2 = ParamGroup + ParamLoStop
	ParamHiStop2 = ParamGroup + ParamHiStop
	ParamVel2    = ParamGroup + ParamVel
	ParamFMax2   = ParamGroup + ParamFMax
)

// Axis returns the parameter p for axis index i.
func (p Param) Axis(i int) Param {
	return p%ParamGroup + ParamGroup*Param(i)
}

func (p Param) split() (Param, int) {
	return p % ParamGroup, int(p / ParamGroup)
}

type limot struct {
	rigid.Limit
}

func newLimot() limot {
	return limot{Limit: rigid.NewLimit()}
}

func (l *limot) set(p Param, v float64) bool {
	switch p {
	case ParamLoStop:
		l.Lo = v
	case ParamHiStop:
		l.Hi = v
	case ParamVel:
		l.Vel = v
	case ParamFMax:
		l.FMax = math.Max(v, 0)
	case ParamFudgeFactor:
		if v >= 0 && v <= 1 {
			l.FudgeFactor = v
		}
	case ParamBounce:
		l.Bounce = v
	case ParamStopERP:
		l.StopERP = v
	case ParamStopCFM:
		l.StopCFM = v
	default:
		return false
	}
	return true
}

func (l *limot) get(p Param, w *World) (float64, bool) {
	switch p {
	case ParamLoStop:
		return l.Lo, true
	case ParamHiStop:
		return l.Hi, true
	case ParamVel:
		return l.Vel, true
	case ParamFMax:
		return l.FMax, true
	case ParamFudgeFactor:
		return l.FudgeFactor, true
	case ParamBounce:
		return l.Bounce, true
	case ParamStopERP:
		if l.StopERP < 0 {
			return w.erp, true
		}
		return l.StopERP, true
	case ParamStopCFM:
		if l.StopCFM <= 0 {
			return w.cfm, true
		}
		return l.StopCFM, true
	}
	return 0, false
}
