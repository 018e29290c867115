package delivery

// Frame is the wire shape pushed to observers over the realtime channel.
// The server sends exactly one FrameInitial on connect, then FrameUpdate
// per recorded state change. There are no client-to-server frames.
type Frame struct {
	Type      string            `json:"type"`
	MessageID string            `json:"messageId,omitempty"`
	Status    Status            `json:"status,omitempty"`
	Statuses  map[string]Status `json:"statuses,omitempty"`
}

const (
	FrameInitial = "initial"
	FrameUpdate  = "status_update"
)

func NewInitialFrame(statuses map[string]Status) Frame {
	return Frame{Type: FrameInitial, Statuses: statuses}
}

func NewUpdateFrame(id string, status Status) Frame {
	return Frame{Type: FrameUpdate, MessageID: id, Status: status}
}
