package traces

import (
	"bufio"
	"bytes"
	"context"
	"io"
)

type wikipediaProvider struct {
	r *bufio.Reader
}

// NewWikipediaProvider returns a Provider whose items are hashes of request
// paths from the Wikipedia request trace
// (http://www.wikibench.eu/wiki/2007-09/).
func NewWikipediaProvider(r io.Reader) Provider {
	return &wikipediaProvider{
		r: bufio.NewReader(r),
	}
}

func (p *wikipediaProvider) Provide(ctx context.Context, items chan<- uint64) {
	defer close(items)
	for {
		b, err := p.r.ReadBytes('\n')
		if err != nil {
			return
		}
		v := p.parse(b)
		if v != nil {
			select {
			case <-ctx.Done():
				return
			case items <- hashString(v):
			}
		}
	}
}

func (p *wikipediaProvider) parse(b []byte) []byte {
	// Get url
	idx := bytes.Index(b, []byte("http://"))
	if idx < 0 {
		return nil
	}
	b = b[idx+len("http://"):]
	// Get path
	idx = bytes.IndexByte(b, '/')
	if idx > 0 {
		b = b[idx:]
	}
	// Skip params
	idx = bytes.IndexAny(b, "? ")
	if idx > 0 {
		b = b[:idx]
	}
	return b
}
