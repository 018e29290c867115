package delivery

// Status is the delivery state of a single notification as reported by the
// provider or observed locally while dispatching.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
	StatusError     Status = "error"

	// StatusUnknown is the sentinel returned by the query API for
	// identifiers the store has never seen. It is never stored.
	StatusUnknown Status = "unknown"
)

// rank orders the happy path. Failed/error are terminal and handled apart.
var rank = map[Status]int{
	StatusIdle:      0,
	StatusSending:   1,
	StatusSent:      2,
	StatusDelivered: 3,
	StatusRead:      4,
}

// Advances reports whether moving from cur to next is a forward transition
// along idle -> sending -> sent -> {delivered, read}. Failure states always
// advance a non-terminal item; nothing advances out of them.
func (next Status) Advances(cur Status) bool {
	if cur == StatusError || cur == StatusFailed {
		return false
	}
	if next == StatusError || next == StatusFailed {
		return true
	}
	nr, ok := rank[next]
	if !ok {
		return false
	}
	cr, ok := rank[cur]
	if !ok {
		return true
	}
	return nr > cr
}

func (s Status) String() string {
	return string(s)
}

// Terminal reports whether no further provider callback can change s.
func (s Status) Terminal() bool {
	return s == StatusRead || s == StatusError || s == StatusFailed
}
