package ride

// Status is a ride lifecycle state.
type Status string

const (
	StatusRequested Status = "requested"
	StatusAccept    Status = "accept"
	StatusStart     Status = "start"
	StatusEnd       Status = "end"
	StatusCancel    Status = "cancel"
)

// Rank places each status in the forward-only lifecycle order. A ride may
// only ever move to a strictly higher rank. Note that cancel outranks end,
// so end -> cancel is currently a legal forward move; whether terminal
// states should reject everything instead is a pending product decision.
func Rank(s Status) (int, bool) {
	switch s {
	case StatusRequested:
		return 0, true
	case StatusAccept:
		return 1, true
	case StatusStart:
		return 2, true
	case StatusEnd:
		return 3, true
	case StatusCancel:
		return 4, true
	}
	return 0, false
}
