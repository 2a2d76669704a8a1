/*
Package event provides the pub/sub bus that connects the file watcher, the
coverage pipeline and the CLI.

Events:
  - files.changed: a watched source or spec path changed
  - coverage.instrumented: the one-shot instrumentation pass finished
  - coverage.reported: a coverage report was written

Subscribers registered with Subscribe or SubscribeAll are called
synchronously by Publish, in registration order. Every published event is
also marshaled to JSON and published on a watermill gochannel topic named
after the event type; Stream exposes that topic as a channel:

	events, err := event.Default().Stream(ctx, event.FilesChanged)
	for ev := range events {
	    raw := ev.Data.(json.RawMessage)
	    ...
	}

Messages published while no stream is open are dropped.
*/
package event
