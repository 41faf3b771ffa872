package model

import (
	"fmt"
	"strings"
)

// Category is a life area. Every task belongs to exactly one.
type Category string

const (
	CategoryFaith         Category = "faith"
	CategoryFinance       Category = "finance"
	CategoryFitness       Category = "fitness"
	CategoryFamily        Category = "family"
	CategoryFortress      Category = "fortress"
	CategoryFulfillment   Category = "fulfillment"
	CategoryFrivolous     Category = "frivolous"
	CategoryUncategorized Category = "uncategorized"
)

var categoryOrder = []Category{
	CategoryFaith,
	CategoryFinance,
	CategoryFitness,
	CategoryFamily,
	CategoryFortress,
	CategoryFulfillment,
	CategoryFrivolous,
	CategoryUncategorized,
}

var categoryNames = map[Category]string{
	CategoryFaith:         "Faith",
	CategoryFinance:       "Finance",
	CategoryFitness:       "Fitness",
	CategoryFamily:        "Family",
	CategoryFortress:      "Fortress",
	CategoryFulfillment:   "Fulfillment",
	CategoryFrivolous:     "Frivolous",
	CategoryUncategorized: "Uncategorized",
}

func Categories() []Category {
	return append([]Category(nil), categoryOrder...)
}

func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

func (c Category) DisplayName() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return string(c)
}

func (c Category) Index() int {
	for i, candidate := range categoryOrder {
		if candidate == c {
			return i
		}
	}
	return len(categoryOrder)
}

func ParseCategory(value string) (Category, error) {
	category := Category(strings.ToLower(strings.TrimSpace(value)))
	if !category.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrValidation, value)
	}
	return category, nil
}

type CategoryGroup struct {
	Category Category `json:"category"`
	Tasks    []Task   `json:"tasks"`
}

// GroupByCategory keeps the input order inside each group and returns
// groups in life-area order, skipping empty ones.
func GroupByCategory(tasks []Task) []CategoryGroup {
	byCategory := make(map[Category][]Task)
	for _, task := range tasks {
		byCategory[task.Category] = append(byCategory[task.Category], task)
	}

	groups := make([]CategoryGroup, 0, len(byCategory))
	for _, category := range categoryOrder {
		if len(byCategory[category]) == 0 {
			continue
		}
		groups = append(groups, CategoryGroup{Category: category, Tasks: byCategory[category]})
	}
	return groups
}
