package testhelpers

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pageza/foodgram/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "s3cret-pass"

var testPasswordHash []byte

func passwordHash(t *testing.T) string {
	t.Helper()
	if testPasswordHash == nil {
		h, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}
		testPasswordHash = h
	}
	return string(testPasswordHash)
}

func CreateUser(t *testing.T, db *gorm.DB, email, username string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		Username:     username,
		FirstName:    "Test",
		LastName:     username,
		PasswordHash: passwordHash(t),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return user
}

func CreateStaff(t *testing.T, db *gorm.DB, email, username string) *models.User {
	t.Helper()
	user := CreateUser(t, db, email, username)
	if err := db.Model(user).Update("is_staff", true).Error; err != nil {
		t.Fatalf("failed to promote %s: %v", email, err)
	}
	user.IsStaff = true
	return user
}

func CreateTag(t *testing.T, db *gorm.DB, name, slug, color string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Slug: slug, Color: color}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create tag %s: %v", slug, err)
	}
	return tag
}

func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ing).Error; err != nil {
		t.Fatalf("failed to create ingredient %s: %v", name, err)
	}
	return ing
}

// CreateRecipe inserts a recipe with its links directly.
// amounts maps ingredient id to amount.
func CreateRecipe(t *testing.T, db *gorm.DB, authorID uint, name string, tagIDs []uint, amounts map[uint]int) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        name,
		Image:       "/media/recipes/images/" + name + ".png",
		Text:        "Cook " + name,
		CookingTime: 10,
		PubDate:     time.Now().UTC(),
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Ingredients", "Author").Create(recipe).Error; err != nil {
			return err
		}
		for _, id := range tagIDs {
			if err := tx.Create(&models.RecipeTag{RecipeID: recipe.ID, TagID: id}).Error; err != nil {
				return err
			}
		}
		for id, amount := range amounts {
			link := &models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: id, Amount: amount}
			if err := tx.Omit("Ingredient").Create(link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to create recipe %s: %v", name, err)
	}
	return recipe
}

// PNGBytes returns a small valid PNG.
func PNGBytes(t *testing.T) []byte {
	t.Helper()
	img := imaging.New(4, 4, color.NRGBA{R: 200, G: 80, B: 40, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, image.Image(img), imaging.PNG); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// PNGDataURI returns PNGBytes as a base64 data URI.
func PNGDataURI(t *testing.T) string {
	t.Helper()
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(PNGBytes(t))
}
