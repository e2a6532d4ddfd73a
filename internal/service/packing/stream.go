package packing

import (
	"bufio"
	"context"
	"io"
)

// Event is the outcome of one terminated scan from a key stream.
type Event struct {
	Scan ScanRecord
	Err  error
}

// Run consumes keys until the channel closes or ctx is cancelled, emitting
// one event per terminated scan. The returned channel is closed on exit.
func (v *Verifier) Run(ctx context.Context, keys <-chan rune) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case key, ok := <-keys:
				if !ok {
					return
				}
				rec, ready, err := v.Feed(ctx, key)
				if !ready {
					continue
				}
				select {
				case events <- Event{Scan: rec, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events
}

// Keys turns a reader, such as a wedge scanner on stdin, into a key stream.
// The channel closes at EOF, on a read error, or when ctx is cancelled.
func Keys(ctx context.Context, r io.Reader) <-chan rune {
	keys := make(chan rune)
	go func() {
		defer close(keys)
		br := bufio.NewReader(r)
		for {
			key, _, err := br.ReadRune()
			if err != nil {
				return
			}
			select {
			case keys <- key:
			case <-ctx.Done():
				return
			}
		}
	}()
	return keys
}
