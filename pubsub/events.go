package pubsub

import "context"

const (
	// StartedEvent marks the beginning of a long-running job.
	StartedEvent EventType = "started"
	// ProgressEvent carries incremental progress of a running job.
	ProgressEvent EventType = "progress"
	// FinishedEvent marks successful completion.
	FinishedEvent EventType = "finished"
	// FailedEvent marks termination with an error.
	FailedEvent EventType = "failed"
)

// Subscriber hands out event channels.
type Subscriber[T any] interface {
	// Subscribe returns a read-only event channel that is closed
	// automatically when the context ends.
	Subscribe(context.Context) <-chan Event[T]
}

type (
	// EventType identifies the kind of event.
	EventType string

	// Event is one occurrence in a job's lifecycle.
	Event[T any] struct {
		Type    EventType
		Payload T
	}

	// Publisher delivers events to all subscribers.
	Publisher[T any] interface {
		Publish(EventType, T)
	}
)

// IngestProgress is the payload published while the knowledge base is
// being rebuilt from the monograph directory.
type IngestProgress struct {
	// File is the monograph currently being processed.
	File string
	// FilesDone counts fully ingested files.
	FilesDone int
	// FilesTotal is the number of files discovered for this rebuild.
	FilesTotal int
	// Chunks counts stored chunks so far.
	Chunks int
	// Err is set on FailedEvent.
	Err string
}
