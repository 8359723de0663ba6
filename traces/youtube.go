package traces

import (
	"bufio"
	"bytes"
	"context"
	"io"
)

type youtubeProvider struct {
	r *bufio.Reader
}

// NewYoutubeProvider returns a Provider whose items are hashes of video ids
// parsed from a Youtube request trace.
func NewYoutubeProvider(r io.Reader) Provider {
	return &youtubeProvider{
		r: bufio.NewReader(r),
	}
}

func (p *youtubeProvider) Provide(ctx context.Context, items chan<- uint64) {
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

func (p *youtubeProvider) parse(b []byte) []byte {
	// Get video id
	idx := bytes.Index(b, []byte("GETVIDEO "))
	if idx < 0 {
		return nil
	}
	b = b[idx+len("GETVIDEO "):]
	idx = bytes.IndexAny(b, "& ")
	if idx > 0 {
		b = b[:idx]
	}
	return b
}
