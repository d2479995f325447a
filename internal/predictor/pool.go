package predictor

import (
	"context"

	"github.com/rs/zerolog/log"

	"getaround-insights/internal/model"
)

type scoreFunc func(ctx context.Context, cars []model.Car) ([]float64, error)

type chunk struct {
	index int
	cars  []model.Car
}

type chunkResult struct {
	index       int
	predictions []float64
	err         error
}

// WorkerPool scores a large batch as fixed-size chunks spread over a pool of
// workers. Results are reassembled in input order.
type WorkerPool struct {
	size      int
	batchSize int
	score     scoreFunc
}

// NewWorkerPool creates a pool of size workers sending at most batchSize rows
// per call to score.
func NewWorkerPool(size, batchSize int, score scoreFunc) *WorkerPool {
	return &WorkerPool{
		size:      max(size, 1),
		batchSize: max(batchSize, 1),
		score:     score,
	}
}

func (wp *WorkerPool) split(cars []model.Car) []chunk {
	var chunks []chunk
	for i := 0; i*wp.batchSize < len(cars); i++ {
		end := min((i+1)*wp.batchSize, len(cars))
		chunks = append(chunks, chunk{index: i, cars: cars[i*wp.batchSize : end]})
	}
	return chunks
}

// Predict scores cars. The first failing chunk cancels the others and no
// partial result is returned.
func (wp *WorkerPool) Predict(ctx context.Context, cars []model.Car) ([]float64, error) {
	if len(cars) <= wp.batchSize {
		return wp.score(ctx, cars)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks := wp.split(cars)
	jobs := make(chan chunk, wp.size)
	// Buffered for every chunk so workers never block after an early return.
	results := make(chan chunkResult, len(chunks))

	for i := 0; i < min(wp.size, len(chunks)); i++ {
		go wp.worker(ctx, i, jobs, results)
	}
	go func() {
		defer close(jobs)
		for _, c := range chunks {
			select {
			case jobs <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	out := make([]float64, len(cars))
	for range chunks {
		r := <-results
		if r.err != nil {
			return nil, r.err
		}
		copy(out[r.index*wp.batchSize:], r.predictions)
	}
	return out, nil
}

func (wp *WorkerPool) worker(ctx context.Context, id int, jobs <-chan chunk, results chan<- chunkResult) {
	for c := range jobs {
		log.Debug().Int("worker", id).Int("chunk", c.index).Int("rows", len(c.cars)).Msg("scoring chunk")
		predictions, err := wp.score(ctx, c.cars)
		results <- chunkResult{index: c.index, predictions: predictions, err: err}
	}
}
