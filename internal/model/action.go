package model

// Action is a human-friendly storage operating mode for an hour.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// actionEpsilonKW hides solver noise around zero.
const actionEpsilonKW = 1e-6

// ActionFromFlowsKW classifies an hour by the storage net flow.
func ActionFromFlowsKW(chargeKW, dischargeKW float64) Action {
	net := dischargeKW - chargeKW
	switch {
	case net < -actionEpsilonKW:
		return ActionCharging
	case net > actionEpsilonKW:
		return ActionDischarging
	default:
		return ActionIdle
	}
}
