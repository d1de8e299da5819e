package ingestion

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/docchat/ai"
	"github.com/poiesic/docchat/core"
)

// embedChunks fills in chunk vectors, submitting one batch per worker task.
// The first failing batch cancels the remaining ones.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for start := 0; start < len(chunks); start += p.batchSize {
		batch := chunks[start:min(start+p.batchSize, len(chunks))]

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			if err := p.embedBatch(ctx, batch); err != nil {
				fail(err)
			}
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}
	wg.Wait()

	return firstErr
}

func (p *Pipeline) embedBatch(ctx context.Context, batch []*core.Chunk) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	var vectors [][]float32
	err := ai.RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = p.embedder.EmbedTexts(ctx, texts)
		return err
	}, p.maxRetries, p.retryDelay)
	if err != nil {
		return err
	}

	if len(vectors) != len(batch) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(batch), len(vectors))
	}
	for i := range vectors {
		if len(vectors[i]) == 0 {
			return fmt.Errorf("empty embedding for chunk %d", batch[i].Index)
		}
		batch[i].Vector = vectors[i]
	}
	return nil
}
