package types

// RegisterRequest is the body of POST /api/users/.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150,username"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,max=128"`
}

// UpdateUserRequest is the body of PUT/PATCH /api/users/me/.
// nil fields are left untouched.
type UpdateUserRequest struct {
	Email     *string `json:"email" binding:"omitempty,email,max=254"`
	Username  *string `json:"username" binding:"omitempty,max=150,username"`
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
}

type AvatarRequest struct {
	Avatar string `json:"avatar" binding:"required"`
}

type IngredientAmount struct {
	ID     uint `json:"id" binding:"required"`
	Amount int  `json:"amount" binding:"required,min=1,max=32000"`
}

// RecipeWriteRequest is shared by create, PUT and PATCH. Absent fields are
// nil; which ones are required depends on the operation.
type RecipeWriteRequest struct {
	Name        *string            `json:"name" binding:"omitempty,max=200"`
	Text        *string            `json:"text"`
	Image       *string            `json:"image"`
	CookingTime *int               `json:"cooking_time" binding:"omitempty,min=1,max=32000"`
	Tags        []uint             `json:"tags"`
	Ingredients []IngredientAmount `json:"ingredients" binding:"omitempty,dive"`
}

// WriteMode selects the validation rules for a recipe write.
type WriteMode int

const (
	WriteCreate WriteMode = iota
	WriteReplace
	WritePatch
)

func (m WriteMode) String() string {
	switch m {
	case WriteCreate:
		return "create"
	case WriteReplace:
		return "replace"
	default:
		return "patch"
	}
}

// RecipeFilter holds the recipe list query parameters.
type RecipeFilter struct {
	AuthorID         *uint
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
	Search           string
}

// PageRequest is a 1-based page number and page size.
type PageRequest struct {
	Page  int
	Limit int
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}
