package rag

import (
	"context"
	"strings"

	"github.com/poiesic/docchat/core"
)

// Fragment is one piece of generated answer text.
type Fragment struct {
	Text string
}

// Stream delivers an answer as it is generated. Fragments must be drained,
// or the context passed to the producer cancelled, to release the model call.
type Stream struct {
	// Query is the rewritten question the answer was generated for.
	Query string

	// Sources are the chunks placed in the prompt context, best first.
	Sources []*core.SearchResult

	fragments chan Fragment
	err       error
}

func newStream(buffer int) *Stream {
	return &Stream{fragments: make(chan Fragment, buffer)}
}

// Fragments returns the channel of answer fragments. It is closed when
// generation completes, fails or is cancelled.
func (s *Stream) Fragments() <-chan Fragment {
	return s.fragments
}

// Err returns the terminal error once Fragments is closed. It is nil
// when the model finished normally.
func (s *Stream) Err() error {
	return s.err
}

// Text drains the stream and returns the concatenated answer.
func (s *Stream) Text(ctx context.Context) (string, error) {
	var sb strings.Builder
	for {
		select {
		case fragment, ok := <-s.fragments:
			if !ok {
				return sb.String(), s.err
			}
			sb.WriteString(fragment.Text)
		case <-ctx.Done():
			return sb.String(), ctx.Err()
		}
	}
}

// finish records err and closes the fragment channel. The write to err
// happens before the close, so readers that observed the close see it.
func (s *Stream) finish(err error) {
	s.err = err
	close(s.fragments)
}

// failedStream returns an already terminated stream.
func failedStream(err error) *Stream {
	s := newStream(0)
	s.finish(err)
	return s
}
