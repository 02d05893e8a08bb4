package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/phpdave11/gofpdf"
	"golang.org/x/text/encoding/charmap"
)

// ErrPDFFontRequired is returned when the list has text the core PDF fonts
// cannot encode and no TTF font is configured.
var ErrPDFFontRequired = errors.New("shopping list needs a unicode pdf font")

// ShoppingList sums the ingredient amounts of every recipe in the
// principal's cart, grouped by (name, unit) and ordered by name then unit.
func (s *InteractionService) ShoppingList(ctx context.Context, p *types.Principal) ([]types.ShoppingListLine, error) {
	if !p.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	var lines []types.ShoppingListLine
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_carts.user_id = ?", p.UserID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build shopping list: %w", err)
	}
	return lines, nil
}

// FormatShoppingLine renders "<name> — <total> <unit>".
func FormatShoppingLine(l types.ShoppingListLine) string {
	return l.Name + " — " + strconv.FormatInt(l.Total, 10) + " " + l.MeasurementUnit
}

// RenderShoppingListText joins the formatted lines with newlines.
func RenderShoppingListText(lines []types.ShoppingListLine) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = FormatShoppingLine(l)
	}
	return strings.Join(out, "\n")
}

// PDFRenderer lays the shopping list out on A4 pages. Without a TTF font
// it only accepts text that fits the cp1252 core fonts.
type PDFRenderer struct {
	FontPath string
}

func (r PDFRenderer) Render(lines []types.ShoppingListLine) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	family := "Helvetica"
	tr := func(s string) string { return s }
	if r.FontPath != "" {
		family = "ListFont"
		pdf.AddUTF8Font(family, "", r.FontPath)
	} else {
		if !coreFontSafe(lines) {
			return nil, ErrPDFFontRequired
		}
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}

	pdf.AddPage()
	pdf.SetFont(family, "", 16)
	pdf.Cell(0, 10, tr("Shopping list"))
	pdf.Ln(12)

	pdf.SetFont(family, "", 12)
	if len(lines) == 0 {
		pdf.Cell(0, 8, tr("Your shopping cart is empty."))
	}
	for _, l := range lines {
		pdf.CellFormat(0, 8, tr(FormatShoppingLine(l)), "", 1, "L", false, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func coreFontSafe(lines []types.ShoppingListLine) bool {
	for _, l := range lines {
		for _, r := range FormatShoppingLine(l) {
			if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
				return false
			}
		}
	}
	return true
}
