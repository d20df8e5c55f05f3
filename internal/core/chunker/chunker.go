// Package chunker splits converted markdown into token-bounded chunks with
// configurable overlap between consecutive chunks.
package chunker

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Chunk is one token-bounded fragment of a document, positioned in order.
type Chunk struct {
	Pos      int
	Text     string
	TokenCnt int
}

// Chunker groups line fragments into chunks of roughly TargetTokens tokens,
// keeping roughly OverlapTokens from the tail of each chunk as the seed of
// the next so context bleeds across boundaries.
type Chunker struct {
	TargetTokens  int
	OverlapTokens int
}

func New(targetTokens, overlapTokens int) *Chunker {
	if targetTokens <= 0 {
		targetTokens = 500
	}
	if overlapTokens < 0 {
		overlapTokens = 0
	}
	return &Chunker{TargetTokens: targetTokens, OverlapTokens: overlapTokens}
}

// StreamChunk groups incoming fragments into chunks on a goroutine managed by
// g. Backpressure applies on the returned channel.
func (c *Chunker) StreamChunk(ctx context.Context, g *errgroup.Group, frags <-chan string) <-chan Chunk {
	out := make(chan Chunk, 8)

	g.Go(func() error {
		defer close(out)

		var (
			buf    []string
			tokSum int
			pos    int
		)

		// flush emits the buffered lines as one chunk and seeds the buffer
		// for the next chunk with the overlap tail.
		flush := func() error {
			if tokSum == 0 {
				return nil
			}
			ch := Chunk{Pos: pos, Text: strings.Join(buf, "\n"), TokenCnt: tokSum}
			pos++

			select {
			case out <- ch:
			case <-ctx.Done():
				return ctx.Err()
			}

			if c.OverlapTokens > 0 {
				var keep []string
				remain := c.OverlapTokens
				for j := len(buf) - 1; j >= 0 && remain > 0; j-- {
					keep = append([]string{buf[j]}, keep...)
					remain -= ApproxTokens(buf[j])
				}
				buf = keep
				tokSum = 0
				for _, s := range buf {
					tokSum += ApproxTokens(s)
				}
			} else {
				buf = buf[:0]
				tokSum = 0
			}
			return nil
		}

		for frag := range frags {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			buf = append(buf, frag)
			tokSum += ApproxTokens(frag)

			if tokSum >= c.TargetTokens {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		return flush()
	})

	return out
}

// SplitText is the synchronous form: it splits text into non-empty lines and
// runs them through the streaming chunker.
func (c *Chunker) SplitText(ctx context.Context, text string) ([]Chunk, error) {
	frags := make(chan string, 32)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(frags)
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line == "" {
				continue
			}
			select {
			case frags <- line:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var chunks []Chunk
	out := c.StreamChunk(gctx, g, frags)
	for ch := range out {
		chunks = append(chunks, ch)
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// ApproxTokens is a cheap token estimator (~4 chars per token).
func ApproxTokens(s string) int {
	n := len([]rune(s))
	if n <= 0 {
		return 0
	}
	return (n + 3) / 4
}
