package pointview

import (
	"context"
	"fmt"
)

// EmbeddingProvider supplies point positions for an embedding dimension.
// Positions returns pointCount*dim floats, point-major.
type EmbeddingProvider interface {
	Positions(ctx context.Context, dim int) ([]float32, error)
}

// EmbeddingFunc adapts a function to EmbeddingProvider.
type EmbeddingFunc func(ctx context.Context, dim int) ([]float32, error)

// Positions implements EmbeddingProvider.
func (f EmbeddingFunc) Positions(ctx context.Context, dim int) ([]float32, error) {
	return f(ctx, dim)
}

func (s *State) fetchPositions(ctx context.Context, dim int) ([]float32, error) {
	if s.opts.embedding == nil {
		return nil, ErrNoEmbedding
	}
	if dim <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dim)
	}
	pos, err := s.opts.embedding.Positions(ctx, dim)
	if err != nil {
		return nil, fmt.Errorf("embedding dimension %d: %w", dim, err)
	}
	if len(pos) != s.n*dim {
		return nil, &LengthMismatchError{Buffer: "positions", Got: len(pos), Want: s.n * dim}
	}
	return pos, nil
}

// SetDimension switches the embedding dimension. Positions are fetched once
// per dimension and cached. Concurrent calls are serialized; a second call
// waits until the first has installed its positions and recomputed centroids.
func (s *State) SetDimension(ctx context.Context, dim int) error {
	if err := s.dimLock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.dimLock.Release(1)

	s.mu.Lock()
	pos, cached := s.positions[dim]
	s.mu.Unlock()

	if !cached {
		var err error
		if pos, err = s.fetchPositions(ctx, dim); err != nil {
			s.log.LogValidation(ctx, "set-dimension", err)
			return err
		}
	}

	s.mu.Lock()
	defer s.unlock()
	s.positions[dim] = pos
	s.live.Dimension = dim
	s.recomputeCentroids()
	return nil
}

// Dimension returns the embedding dimension of the live view.
func (s *State) Dimension() int {
	s.mu.Lock()
	defer s.unlock()
	return s.live.Dimension
}
