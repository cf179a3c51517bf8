//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
)

func TestParseCommitMessage(t *testing.T) {
	t.Parallel()

	t.Run("should split header-delimited sections", func(t *testing.T) {
		t.Parallel()

		// given
		text := "[fix]: Repair audio routing\n\n" +
			"Description:\nAudio was routed to the wrong sink\nafter resume\n" +
			"Cause:\nMissing state reset\n" +
			"Countermeasure:\nReset on resume\n" +
			"Jira:\nAUD-12\n"

		// when
		message := entities.ParseCommitMessage(text)

		// then
		assert.Equal(t, "fix", message.Type)
		assert.Equal(t, "Repair audio routing", message.Title)
		assert.Equal(t, "Audio was routed to the wrong sink\nafter resume", message.Description)
		assert.Equal(t, "Missing state reset", message.Cause)
		assert.Equal(t, "Reset on resume", message.Countermeasure)
		assert.Equal(t, "AUD-12", message.Jira)
		assert.Equal(t, []string{"AUD-12"}, message.IssueRefs.Sorted())
	})

	t.Run("should fall back to the title when no description is given", func(t *testing.T) {
		t.Parallel()

		// when
		message := entities.ParseCommitMessage("Bump dependencies\n\nsome body text")

		// then
		assert.Empty(t, message.Description)
		assert.Equal(t, "Bump dependencies", message.Summary())
	})

	t.Run("should not treat headers embedded in a line as section starts", func(t *testing.T) {
		t.Parallel()

		// when
		message := entities.ParseCommitMessage("Title\nSee Description: below\nDescription:\nreal")

		// then
		assert.Equal(t, "real", message.Description)
	})

	t.Run("should collect issue keys from the whole text without duplicates", func(t *testing.T) {
		t.Parallel()

		// when
		message := entities.ParseCommitMessage("ABC-2 fix\n\nDescription:\nrelates to ABC-12 and ABC-2, not abc-3")

		// then
		assert.Equal(t, []string{"ABC-12", "ABC-2"}, message.IssueRefs.Sorted())
	})
}

func TestIssueSetMerge(t *testing.T) {
	t.Parallel()

	t.Run("should union keys", func(t *testing.T) {
		t.Parallel()

		// given
		refs := entities.ExtractIssueRefs("XY-1 XY-2")

		// when
		refs.Merge(entities.ExtractIssueRefs("XY-2 ZZ-9"))

		// then
		assert.Equal(t, []string{"XY-1", "XY-2", "ZZ-9"}, refs.Sorted())
	})
}
