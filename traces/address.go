package traces

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strconv"
)

type addressProvider struct {
	r *bufio.Reader
}

// NewAddressProvider returns a Provider whose items are memory addresses
// from application traces collected by the University of California, San
// Diego (http://cseweb.ucsd.edu/classes/fa07/cse240a/project1.html).
func NewAddressProvider(r io.Reader) Provider {
	return &addressProvider{r: bufio.NewReader(r)}
}

func (p *addressProvider) Provide(ctx context.Context, items chan<- uint64) {
	defer close(items)
	for {
		b, err := p.r.ReadBytes('\n')
		if err != nil {
			return
		}
		v := p.parse(b)
		if v > 0 {
			select {
			case <-ctx.Done():
				return
			case items <- v:
			}
		}
	}
}

func (p *addressProvider) parse(b []byte) uint64 {
	idx := bytes.IndexByte(b, ' ')
	if idx < 0 {
		return 0
	}
	b = b[idx+1:]
	idx = bytes.IndexByte(b, ' ')
	if idx < 0 {
		return 0
	}
	b = b[:idx]

	val, err := strconv.ParseUint(string(b), 0, 64)
	if err != nil {
		return 0
	}
	return val
}
