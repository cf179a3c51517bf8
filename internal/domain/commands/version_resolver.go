package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
	"github.com/rios0rios0/recipebump/internal/domain/repositories"
)

// TargetHead asks for whatever is at the tip of the source branch.
const TargetHead = "HEAD"

// ResolveRequest describes one recipe's version request.
type ResolveRequest struct {
	Repository string // workspace name of the recipe's source repository
	Recipe     string
	Current    entities.RecipePin
	Target     string // TargetHead or a tag, with or without the "version/" prefix
	Confirm    bool   // allows creating and pushing a new tag at HEAD
	DryRun     bool   // proposes a new tag instead of creating it
}

// Resolution is the concrete version a request resolved to.
type Resolution struct {
	CurrentTag  string
	Tag         string
	Hash        string
	PinValue    string // "<version>_<hash>", empty when the tag is only proposed
	NoOp        bool   // the request equals the current pin
	Created     bool   // the tag was created at HEAD during resolution
	Proposed    bool   // dry-run: the tag would have been created
	Discrepancy bool   // tags differ but no commit separates them
	CommitCount int
}

// VersionResolver turns a version request into a concrete tag and pin value. It keeps no state
// between calls; every repository fact comes from the tag queries.
type VersionResolver struct {
	tags repositories.TagRepository
}

func NewVersionResolver(tags repositories.TagRepository) *VersionResolver {
	return &VersionResolver{tags: tags}
}

// Resolve determines the new version of a recipe. A request naming the pinned tag is a no-op.
// For HEAD, a single tag at the tip is used, several tags fail with *entities.AmbiguousTagError and
// none derives the next tag from the latest one, which requires req.Confirm.
func (it *VersionResolver) Resolve(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	pinned, err := req.Current.Pinned()
	if err != nil {
		return nil, fmt.Errorf("current pin of %s: %w", req.Recipe, err)
	}
	currentTag := pinned.Tag()

	target := req.Target
	if target == "" {
		target = TargetHead
	}

	var resolution *Resolution
	if target == TargetHead {
		resolution, err = it.resolveHead(ctx, req, currentTag)
	} else {
		resolution, err = it.resolveExplicit(ctx, req, currentTag, entities.NormalizeTag(target))
	}
	if err != nil || resolution.NoOp || resolution.Proposed {
		return resolution, err
	}

	pin, err := entities.NewPinnedVersion(resolution.Tag, resolution.Hash)
	if err != nil {
		return nil, fmt.Errorf("resolved tag %s of %s: %w", resolution.Tag, req.Recipe, err)
	}
	resolution.PinValue = pin.Format()
	if resolution.PinValue == req.Current.Version {
		resolution.NoOp = true
		return resolution, nil
	}

	it.flagDiscrepancy(ctx, req, resolution)
	return resolution, nil
}

func (it *VersionResolver) resolveHead(ctx context.Context, req ResolveRequest, currentTag string) (*Resolution, error) {
	headTags, err := it.tags.TagsAtHead(ctx, req.Repository)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags at HEAD of %s: %w", req.Repository, err)
	}
	if slices.Contains(headTags, currentTag) {
		return &Resolution{CurrentTag: currentTag, Tag: currentTag, NoOp: true}, nil
	}

	switch len(headTags) {
	case 0:
		return it.createNextTag(ctx, req, currentTag)
	case 1:
		return it.withHash(ctx, req, currentTag, headTags[0])
	default:
		candidates := append([]string(nil), headTags...)
		entities.SortTags(candidates)
		return nil, &entities.AmbiguousTagError{Recipe: req.Recipe, Candidates: candidates}
	}
}

func (it *VersionResolver) resolveExplicit(
	ctx context.Context,
	req ResolveRequest,
	currentTag, tag string,
) (*Resolution, error) {
	if tag == currentTag {
		return &Resolution{CurrentTag: currentTag, Tag: tag, NoOp: true}, nil
	}
	return it.withHash(ctx, req, currentTag, tag)
}

// createNextTag increments the latest version tag (or the pinned one when the repository has none)
// and tags HEAD with it.
func (it *VersionResolver) createNextTag(ctx context.Context, req ResolveRequest, currentTag string) (*Resolution, error) {
	latest, err := it.tags.LatestVersionTag(ctx, req.Repository)
	if errors.Is(err, entities.ErrNoVersionTags) {
		latest, err = currentTag, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read latest tag of %s: %w", req.Repository, err)
	}

	next, err := entities.NextTag(latest)
	if err != nil {
		return nil, fmt.Errorf("cannot derive next version of %s from %s: %w", req.Recipe, latest, err)
	}

	if req.DryRun {
		return &Resolution{CurrentTag: currentTag, Tag: next, Proposed: true}, nil
	}
	if !req.Confirm {
		return nil, &entities.ConfirmationRequiredError{Recipe: req.Recipe, Tag: next}
	}

	message := fmt.Sprintf("Update %s from %s to %s", req.Recipe, latest, next)
	if err = it.tags.CreateVersionTag(ctx, req.Repository, next, message); err != nil {
		return nil, err
	}

	resolution, err := it.withHash(ctx, req, currentTag, next)
	if err != nil {
		return nil, err
	}
	resolution.Created = true
	return resolution, nil
}

func (it *VersionResolver) withHash(
	ctx context.Context,
	req ResolveRequest,
	currentTag, tag string,
) (*Resolution, error) {
	hash, err := it.tags.TagCommitHash(ctx, req.Repository, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s on %s: %w", tag, req.Repository, err)
	}
	return &Resolution{CurrentTag: currentTag, Tag: tag, Hash: hash}, nil
}

// flagDiscrepancy marks a resolution whose tag differs from the pinned one while no commits separate them.
func (it *VersionResolver) flagDiscrepancy(ctx context.Context, req ResolveRequest, resolution *Resolution) {
	count, err := it.tags.CommitCountBetween(ctx, req.Repository, resolution.CurrentTag, resolution.Tag)
	if err != nil {
		logger.Warnf("Could not count commits of %s between %s and %s: %v",
			req.Recipe, resolution.CurrentTag, resolution.Tag, err)
		return
	}
	resolution.CommitCount = count
	resolution.Discrepancy = count == 0
}
