//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
)

func TestChangeSetBuildTitle(t *testing.T) {
	t.Parallel()

	t.Run("should list changed versions in insertion order", func(t *testing.T) {
		t.Parallel()

		// given
		changeSet := entities.NewChangeSet("meta-s6", "@s6mobis")
		changeSet.Add(entities.ChangeRecord{Recipe: "zeta", OldVersion: "version/1.0", NewVersion: "version/1.1"})
		changeSet.Add(entities.ChangeRecord{Recipe: "alpha", OldVersion: "version/2.0", NewVersion: "version/2.1"})

		// when
		title := changeSet.BuildTitle()

		// then
		assert.Equal(t, "zeta=1.1 alpha=2.1", title)
	})

	t.Run("should leave out branch-only changes", func(t *testing.T) {
		t.Parallel()

		// given
		changeSet := entities.NewChangeSet("meta-s6", "@s6mobis")
		changeSet.Add(entities.ChangeRecord{
			Recipe: "app", OldVersion: "version/1.0", NewVersion: "version/1.0",
			OldBranch: "@s6mobis", NewBranch: "feature",
		})

		// when / then
		assert.Empty(t, changeSet.BuildTitle())
		assert.Equal(t, "Update CCOS versions for @s6mobis", changeSet.Subject())
	})

	t.Run("should replace an earlier record of the same recipe", func(t *testing.T) {
		t.Parallel()

		// given
		changeSet := entities.NewChangeSet("meta-s6", "@s6mobis")
		changeSet.Add(entities.ChangeRecord{Recipe: "app", OldVersion: "version/1.0", NewVersion: "version/1.1"})
		changeSet.Add(entities.ChangeRecord{Recipe: "lib", OldVersion: "version/3.0", NewVersion: "version/3.1"})

		// when
		changeSet.Add(entities.ChangeRecord{Recipe: "app", OldVersion: "version/1.0", NewVersion: "version/1.2"})

		// then
		assert.Equal(t, 2, changeSet.Len())
		assert.Equal(t, "app=1.2 lib=3.1", changeSet.BuildTitle())
	})
}

func TestChangeSetBuildBody(t *testing.T) {
	t.Parallel()

	messages := map[string][]entities.CommitMessage{
		"app": {
			entities.ParseCommitMessage("Fix crash\n\nDescription:\nFix crash on start\nCause:\nnull sink\nJira:\nAPP-2"),
			entities.ParseCommitMessage("Add logging APP-12"),
		},
		"lib": {
			entities.ParseCommitMessage("Speed up parser\n\nCountermeasure:\nCache tables\nJira:\nLIB-7 APP-2"),
		},
	}

	newChangeSet := func() *entities.ChangeSet {
		changeSet := entities.NewChangeSet("meta-s6", "@s6mobis")
		changeSet.Add(entities.ChangeRecord{
			Recipe: "app", OldVersion: "version/1.0", NewVersion: "version/1.1",
			OldBranch: "@s6mobis", NewBranch: "@s6mobis",
		})
		changeSet.Add(entities.ChangeRecord{
			Recipe: "lib", OldVersion: "version/3.0", NewVersion: "version/3.1",
			OldBranch: "@s6mobis", NewBranch: "next",
		})
		return changeSet
	}

	t.Run("should compose subject, descriptions and sorted jiras", func(t *testing.T) {
		t.Parallel()

		// when
		body := newChangeSet().BuildBody(messages, entities.BodyOptions{})

		// then
		expected := "app=1.1 lib=3.1\n\n" +
			"Fix crash on start\nAdd logging APP-12\n" +
			"Speed up parser\nlib: branch @s6mobis -> next\n\n" +
			"Jiras:\nAPP-12\nAPP-2\nLIB-7\n"
		assert.Equal(t, expected, body)
	})

	t.Run("should add cause and countermeasure sections when structured", func(t *testing.T) {
		t.Parallel()

		// when
		body := newChangeSet().BuildBody(messages, entities.BodyOptions{Structured: true})

		// then
		assert.Contains(t, body, "Cause:\nnull sink\n\n")
		assert.Contains(t, body, "Countermeasure:\nCache tables\n\n")
	})

	t.Run("should be deterministic", func(t *testing.T) {
		t.Parallel()

		// when
		first := newChangeSet().BuildBody(messages, entities.BodyOptions{Structured: true})
		second := newChangeSet().BuildBody(messages, entities.BodyOptions{Structured: true})

		// then
		assert.Equal(t, first, second)
	})

	t.Run("should emit an empty jira section when there are no commits", func(t *testing.T) {
		t.Parallel()

		// when
		body := newChangeSet().BuildBody(nil, entities.BodyOptions{})

		// then
		assert.Equal(t, "app=1.1 lib=3.1\n\nlib: branch @s6mobis -> next\n\nJiras:\n", body)
	})

	t.Run("should keep the empty description block in place", func(t *testing.T) {
		t.Parallel()

		// given
		changeSet := entities.NewChangeSet("meta-s6", "@s6mobis")
		changeSet.Add(entities.ChangeRecord{Recipe: "app", OldVersion: "version/1.0", NewVersion: "version/1.1"})

		// when
		plain := changeSet.BuildBody(nil, entities.BodyOptions{})
		structured := changeSet.BuildBody(nil, entities.BodyOptions{Structured: true})

		// then
		assert.Equal(t, "app=1.1\n\n\n\nJiras:\n", plain)
		assert.Equal(t, "app=1.1\n\n\n\nCause:\n\nCountermeasure:\n\nJiras:\n", structured)
	})
}
