package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/vocala/pkg/models"
)

// ExampleRepository handles database operations for word examples
type ExampleRepository struct{}

// NewExampleRepository creates a new repository instance
func NewExampleRepository() *ExampleRepository {
	return &ExampleRepository{}
}

// GetByWordID returns the examples for a word in their original order
func (r *ExampleRepository) GetByWordID(ctx context.Context, wordID int64) ([]models.Example, error) {
	var examples []models.Example
	query := DB.Rebind("SELECT * FROM examples WHERE word_id = ? ORDER BY position")
	if err := DB.SelectContext(ctx, &examples, query, wordID); err != nil {
		return nil, fmt.Errorf("failed to get examples: %v", err)
	}
	return examples, nil
}

// GetByWordIDs returns examples for several words keyed by word ID
func (r *ExampleRepository) GetByWordIDs(ctx context.Context, wordIDs []int64) (map[int64][]models.Example, error) {
	result := make(map[int64][]models.Example)
	if len(wordIDs) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In("SELECT * FROM examples WHERE word_id IN (?) ORDER BY word_id, position", wordIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build example query: %v", err)
	}
	var examples []models.Example
	if err := DB.SelectContext(ctx, &examples, DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get examples: %v", err)
	}
	for _, ex := range examples {
		result[ex.WordID] = append(result[ex.WordID], ex)
	}
	return result, nil
}
