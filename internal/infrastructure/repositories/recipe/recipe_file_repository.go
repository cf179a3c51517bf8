package recipe

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
	"github.com/rios0rios0/recipebump/internal/domain/repositories"
)

var errFound = errors.New("found")

// RecipeFileRepository implements repositories.RecipeRepository for BitBake recipe files.
type RecipeFileRepository struct{}

func NewRecipeFileRepository() *RecipeFileRepository {
	return &RecipeFileRepository{}
}

var _ repositories.RecipeRepository = (*RecipeFileRepository)(nil)

// Locate walks root in lexical order, skipping .git, and returns the first "<recipe>.bb".
func (it *RecipeFileRepository) Locate(root, recipe string) (string, error) {
	target := recipe + entities.RecipeExtension
	var found string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == target {
			found = path
			return errFound
		}
		return nil
	})
	if errors.Is(err, errFound) {
		return found, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to search %q for %s: %w", root, target, err)
	}
	return "", fmt.Errorf("%w: %s under %s", entities.ErrRecipeNotFound, target, root)
}

func (it *RecipeFileRepository) ReadPin(path string) (entities.RecipePin, error) {
	file, err := loadRecipeFile(path)
	if err != nil {
		return entities.RecipePin{}, err
	}

	version, ok := file.value(entities.VersionField)
	if !ok {
		return entities.RecipePin{}, fmt.Errorf("%w: %s in %s", entities.ErrFieldMissing, entities.VersionField, path)
	}
	branch, hasBranch := file.value(entities.BranchField)
	if !hasBranch {
		branch = entities.DefaultGitBranchName
	}

	return entities.RecipePin{
		Path:          path,
		Version:       version,
		GitBranchName: branch,
		HasBranch:     hasBranch,
	}, nil
}

// WritePin rewrites every declaration of the version field, and of the branch field when present.
// A missing branch field is appended only for a non-default branch. The file is replaced atomically.
func (it *RecipeFileRepository) WritePin(path, version, branch string) (bool, error) {
	file, err := loadRecipeFile(path)
	if err != nil {
		return false, err
	}

	if !file.set(entities.VersionField, version) {
		return false, fmt.Errorf("%w: %s in %s", entities.ErrFieldMissing, entities.VersionField, path)
	}
	if !file.set(entities.BranchField, branch) && branch != "" && branch != entities.DefaultGitBranchName {
		file.appendField(entities.BranchField, branch, entities.VersionField)
	}

	content := file.render()
	if content == file.original {
		return false, nil
	}
	if err = writeAtomic(path, []byte(content), file.mode); err != nil {
		return false, err
	}
	return true, nil
}

// writeAtomic replaces path by renaming a fully written sibling temp file over it.
func writeAtomic(path string, data []byte, mode fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %q: %w", path, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %q: %w", tmpName, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %q: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %w", tmpName, err)
	}
	if err = os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("failed to chmod %q: %w", tmpName, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %q: %w", path, err)
	}
	committed = true
	return nil
}

// recipeFile is a recipe split into lines, with the assignments of known fields indexed.
type recipeFile struct {
	original string
	lines    []string
	mode     fs.FileMode
}

// assignment captures "<lhs>"<value>"<rest>" where lhs keeps the field name, operator and spacing verbatim.
type assignment struct {
	index int
	lhs   string
	value string
	rest  string
}

var fieldPatterns = map[string]*regexp.Regexp{
	entities.VersionField: fieldPattern(entities.VersionField),
	entities.BranchField:  fieldPattern(entities.BranchField),
}

func fieldPattern(field string) *regexp.Regexp {
	return regexp.MustCompile(`^(\s*` + regexp.QuoteMeta(field) + `\s*(?:\?\??|:)?=\s*)"([^"]*)"(.*)$`)
}

func loadRecipeFile(path string) (*recipeFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat recipe %q: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe %q: %w", path, err)
	}

	content := string(data)
	return &recipeFile{
		original: content,
		lines:    strings.Split(content, "\n"),
		mode:     info.Mode().Perm(),
	}, nil
}

func (it *recipeFile) assignments(field string) []assignment {
	pattern := fieldPatterns[field]
	var found []assignment
	for i, line := range it.lines {
		if match := pattern.FindStringSubmatch(line); match != nil {
			found = append(found, assignment{index: i, lhs: match[1], value: match[2], rest: match[3]})
		}
	}
	return found
}

// value returns the last declaration of field.
func (it *recipeFile) value(field string) (string, bool) {
	found := it.assignments(field)
	if len(found) == 0 {
		return "", false
	}
	return found[len(found)-1].value, true
}

// set rewrites every declaration of field, not only the first, so that the last-wins read returns
// value afterwards.
func (it *recipeFile) set(field, value string) bool {
	found := it.assignments(field)
	for _, a := range found {
		it.lines[a.index] = a.lhs + `"` + value + `"` + a.rest
	}
	return len(found) > 0
}

// appendField adds a declaration at end of file, copying the spacing of the like field's last declaration.
func (it *recipeFile) appendField(field, value, like string) {
	lhs := field + " = "
	if found := it.assignments(like); len(found) > 0 {
		template := found[len(found)-1].lhs
		lhs = strings.Replace(template, like, field, 1)
	}
	line := lhs + `"` + value + `"`

	last := len(it.lines) - 1
	if it.lines[last] == "" {
		// content ended with a newline; keep it after the new line
		it.lines = append(it.lines[:last], line, "")
		return
	}
	it.lines = append(it.lines, line, "")
}

func (it *recipeFile) render() string {
	return strings.Join(it.lines, "\n")
}
