package seed

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// DemoPassword is shared by every demo account.
const DemoPassword = "demo-kitchen-42"

// DemoUsernames are the accounts Demo creates, each with one recipe.
var DemoUsernames = []string{"alice", "bob"}

// ErrCatalogEmpty means tags and ingredients must be seeded before demo data.
var ErrCatalogEmpty = errors.New("load tags and ingredients before demo data")

// Accounts registers demo users.
type Accounts interface {
	Register(ctx context.Context, req types.RegisterRequest) (*models.User, error)
}

// Recipes creates demo recipes.
type Recipes interface {
	Create(ctx context.Context, p *types.Principal, req types.RecipeWriteRequest) (*types.RecipeResponse, error)
}

// Lookup reads back the catalog the demo recipes link to.
type Lookup interface {
	ListTags(ctx context.Context) ([]types.TagResponse, error)
	ListIngredients(ctx context.Context, name string) ([]types.IngredientResponse, error)
}

// Demo creates the demo users and one recipe for each. Users that already
// exist are skipped along with their recipe.
func Demo(ctx context.Context, accounts Accounts, recipes Recipes, catalog Lookup) (users, created int, err error) {
	tags, err := catalog.ListTags(ctx)
	if err != nil {
		return 0, 0, err
	}
	ingredients, err := catalog.ListIngredients(ctx, "")
	if err != nil {
		return 0, 0, err
	}
	if len(tags) == 0 || len(ingredients) == 0 {
		return 0, 0, ErrCatalogEmpty
	}
	image, err := demoImage()
	if err != nil {
		return 0, 0, err
	}

	for _, username := range DemoUsernames {
		user, err := accounts.Register(ctx, types.RegisterRequest{
			Email:     username + "@example.com",
			Username:  username,
			FirstName: username,
			LastName:  "Demo",
			Password:  DemoPassword,
		})
		var verr *service.ValidationError
		if errors.As(err, &verr) && (len(verr.Fields["email"]) > 0 || len(verr.Fields["username"]) > 0) {
			logging.Ctx(ctx).Debug().Str("username", username).Msg("demo user already present")
			continue
		}
		if err != nil {
			return users, created, fmt.Errorf("failed to create demo user %s: %w", username, err)
		}
		users++

		name := username + "'s Recipe"
		text := "Тестовое описание блюда."
		cookingTime := 15
		_, err = recipes.Create(ctx, &types.Principal{UserID: user.ID}, types.RecipeWriteRequest{
			Name:        &name,
			Text:        &text,
			Image:       &image,
			CookingTime: &cookingTime,
			Tags:        []uint{tags[0].ID},
			Ingredients: []types.IngredientAmount{{ID: ingredients[0].ID, Amount: 100}},
		})
		if err != nil {
			return users, created, fmt.Errorf("failed to create demo recipe for %s: %w", username, err)
		}
		created++
	}
	return users, created, nil
}

// demoImage is a plain square placeholder as a data URI.
func demoImage() (string, error) {
	img := imaging.New(64, 64, color.NRGBA{R: 226, G: 108, B: 45, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode demo image: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
