package traces

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
)

type cache2kProvider struct {
	r *bufio.Reader
}

// NewCache2kProvider returns a Provider whose items are little-endian
// uint32 record ids from the Cache2k benchmark repository
// (https://github.com/cache2k/cache2k-benchmark).
func NewCache2kProvider(r io.Reader) Provider {
	return &cache2kProvider{r: bufio.NewReader(r)}
}

func (p *cache2kProvider) Provide(ctx context.Context, items chan<- uint64) {
	defer close(items)

	v := make([]byte, 4)
	for {
		if _, err := io.ReadFull(p.r, v); err != nil {
			return
		}
		k := uint64(binary.LittleEndian.Uint32(v))
		select {
		case <-ctx.Done():
			return
		case items <- k:
		}
	}
}
