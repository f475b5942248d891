// Package ownership models "who disposes this stream" as an
// ownership-transferring value: a sum of {Owned(stream), Borrowed(stream)}
// rather than a boolean flag threaded everywhere, so only one holder ever
// closes a given stream.
package ownership

import "github.com/vmdkcore/vmdkcore/internal/sparsestream"

// Parent wraps a parent sparsestream.Stream together with whether this
// holder owns it (and so must Dispose it) or merely borrows it.
type Parent struct {
	stream sparsestream.Stream
	owned  bool
}

// Owned wraps s as an owned parent: Dispose will close it.
func Owned(s sparsestream.Stream) Parent {
	return Parent{stream: s, owned: true}
}

// Borrowed wraps s as a borrowed parent: Dispose is a no-op: some other
// holder is responsible for closing s.
func Borrowed(s sparsestream.Stream) Parent {
	return Parent{stream: s, owned: false}
}

// None is the empty Parent: no parent stream at all.
var None = Parent{}

// Stream returns the wrapped stream, or nil if there is none.
func (p Parent) Stream() sparsestream.Stream {
	return p.stream
}

// IsZero reports whether p wraps no stream.
func (p Parent) IsZero() bool {
	return p.stream == nil
}

// Owned reports whether this holder is responsible for closing the stream.
func (p Parent) Owned() bool {
	return p.owned
}

// Dispose closes the wrapped stream iff this holder owns it.
func (p Parent) Dispose() error {
	if p.owned && p.stream != nil {
		return p.stream.Close()
	}
	return nil
}

// Borrow returns a Borrowed Parent wrapping the same stream, for handing a
// non-owning reference to an earlier element of a concatenation.
func (p Parent) Borrow() Parent {
	return Borrowed(p.stream)
}
