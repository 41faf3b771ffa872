package planner

import (
	"context"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

var sampleTasks = []model.Task{
	{Title: "Morning prayer and meditation", Category: model.CategoryFaith},
	{Title: "Review monthly budget", Category: model.CategoryFinance},
	{Title: "Go for a 30-min run", Category: model.CategoryFitness},
	{Title: "Call mom and dad", Category: model.CategoryFamily},
	{Title: "Change car oil", Category: model.CategoryFortress},
	{Title: "Read book for 1 hour", Category: model.CategoryFulfillment},
	{Title: "Watch funny cat videos", Category: model.CategoryFrivolous},
}

// Seed fills an empty store with one task per life area. It reports how
// many records were created.
func (s *Service) Seed(ctx context.Context) (int, error) {
	existing, err := s.store.List(ctx, model.Filter{})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, sample := range sampleTasks {
		if _, err := s.Create(ctx, sample); err != nil {
			return i, err
		}
	}
	return len(sampleTasks), nil
}
