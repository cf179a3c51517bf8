package repositories

import "github.com/rios0rios0/recipebump/internal/domain/entities"

// RecipeRepository reads and rewrites the pin of recipe files inside a meta repository tree.
// It never clones or checks out; callers hand it a path obtained from the workspace.
type RecipeRepository interface {
	// Locate finds "<recipe>.bb" under root.
	Locate(root, recipe string) (string, error)
	ReadPin(path string) (entities.RecipePin, error)
	// WritePin returns false when the file already held the requested pin.
	WritePin(path, version, branch string) (bool, error)
}
