// Package seed loads the tag and ingredient catalogs.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pageza/foodgram/backend/internal/models"
)

// Catalog is the part of the catalog service seeding needs.
type Catalog interface {
	SeedTags(ctx context.Context, tags []models.Tag) (int64, error)
	SeedIngredients(ctx context.Context, ingredients []models.Ingredient) (int64, error)
}

// DefaultTags are the meal tags every installation starts with.
var DefaultTags = []models.Tag{
	{Name: "Завтрак", Color: "#E26C2D", Slug: "breakfast"},
	{Name: "Обед", Color: "#49B64E", Slug: "lunch"},
	{Name: "Ужин", Color: "#8775D2", Slug: "dinner"},
	{Name: "Напитки", Color: "#FF6B6B", Slug: "drinks"},
	{Name: "Закуски", Color: "#4ECDC4", Slug: "appetizers"},
	{Name: "Мороженое", Color: "#45B7D1", Slug: "ice-cream"},
	{Name: "Сладости", Color: "#FFA07A", Slug: "desserts"},
}

var DefaultIngredients = []models.Ingredient{
	{Name: "Молоко", MeasurementUnit: "мл"},
	{Name: "Сахар", MeasurementUnit: "г"},
	{Name: "Яйцо", MeasurementUnit: "шт"},
	{Name: "Соль", MeasurementUnit: "г"},
	{Name: "Мука", MeasurementUnit: "г"},
	{Name: "Масло сливочное", MeasurementUnit: "г"},
	{Name: "Томаты", MeasurementUnit: "шт"},
	{Name: "Лук", MeasurementUnit: "шт"},
	{Name: "Чеснок", MeasurementUnit: "зубчик"},
	{Name: "Перец черный", MeasurementUnit: "г"},
}

type tagRecord struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type ingredientRecord struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// ReadTags parses a JSON array of {name, color, slug}.
func ReadTags(path string) ([]models.Tag, error) {
	var records []tagRecord
	if err := readJSON(path, &records); err != nil {
		return nil, err
	}
	tags := make([]models.Tag, 0, len(records))
	for i, r := range records {
		if r.Name == "" || r.Slug == "" || r.Color == "" {
			return nil, fmt.Errorf("%s: tag %d is missing name, color or slug", path, i)
		}
		tags = append(tags, models.Tag{Name: r.Name, Color: r.Color, Slug: r.Slug})
	}
	return tags, nil
}

// ReadIngredients parses a JSON array of {name, measurement_unit}.
func ReadIngredients(path string) ([]models.Ingredient, error) {
	var records []ingredientRecord
	if err := readJSON(path, &records); err != nil {
		return nil, err
	}
	out := make([]models.Ingredient, 0, len(records))
	for i, r := range records {
		if r.Name == "" || r.MeasurementUnit == "" {
			return nil, fmt.Errorf("%s: ingredient %d is missing name or measurement_unit", path, i)
		}
		out = append(out, models.Ingredient{Name: r.Name, MeasurementUnit: r.MeasurementUnit})
	}
	return out, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Tags inserts tags, or DefaultTags when path is empty. Existing rows are kept.
func Tags(ctx context.Context, catalog Catalog, path string) (int64, error) {
	tags := DefaultTags
	if path != "" {
		var err error
		if tags, err = ReadTags(path); err != nil {
			return 0, err
		}
	}
	return catalog.SeedTags(ctx, cloneTags(tags))
}

// Ingredients inserts ingredients, or DefaultIngredients when path is empty.
func Ingredients(ctx context.Context, catalog Catalog, path string) (int64, error) {
	ingredients := DefaultIngredients
	if path != "" {
		var err error
		if ingredients, err = ReadIngredients(path); err != nil {
			return 0, err
		}
	}
	return catalog.SeedIngredients(ctx, cloneIngredients(ingredients))
}

// gorm writes generated ids back into the slice; the defaults stay untouched.
func cloneTags(in []models.Tag) []models.Tag {
	return append([]models.Tag(nil), in...)
}

func cloneIngredients(in []models.Ingredient) []models.Ingredient {
	return append([]models.Ingredient(nil), in...)
}
