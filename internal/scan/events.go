package scan

import "time"

// Status captures progress of a single file.
type Status string

const (
	// StatusQueued indicates the file is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusWorking indicates rules are running on the file.
	StatusWorking Status = "working"
	// StatusDone indicates all rules finished.
	StatusDone Status = "done"
)

// Event reports progress for a file.
type Event struct {
	File    string
	Status  Status
	Found   int
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}
