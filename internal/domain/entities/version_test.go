//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()

	t.Run("should round-trip well-formed versions through Format", func(t *testing.T) {
		t.Parallel()

		for _, text := range []string{"1", "1.2.3", "0.0.1", "2.10.0-player", "version/4.5.6", "version/1.0-rc-1"} {
			// when
			version, err := entities.ParseVersion(text)

			// then
			require.NoError(t, err, text)
			assert.Equal(t, text, version.Format())
		}
	})

	t.Run("should keep the suffix with its separator", func(t *testing.T) {
		t.Parallel()

		// when
		version, err := entities.ParseVersion("version/2.3.4-beta")

		// then
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3, 4}, version.Parts)
		assert.Equal(t, "-beta", version.Suffix)
		assert.True(t, version.Prefixed)
		assert.Equal(t, "2.3.4-beta", version.Bare())
	})

	t.Run("should reject malformed versions", func(t *testing.T) {
		t.Parallel()

		for _, text := range []string{"", "-beta", "1..2", "1.2.", "a.b", "01.2", "1.02.3", "version/"} {
			// when
			_, err := entities.ParseVersion(text)

			// then
			require.ErrorIs(t, err, entities.ErrFormat, text)
		}
	})
}

func TestVersionIncrement(t *testing.T) {
	t.Parallel()

	t.Run("should bump only the last component and keep the suffix", func(t *testing.T) {
		t.Parallel()

		// given
		version, err := entities.ParseVersion("version/2.3.9-player")
		require.NoError(t, err)

		// when
		next := version.Increment()

		// then
		assert.Equal(t, "version/2.3.10-player", next.Format())
		assert.Equal(t, "version/2.3.9-player", version.Format())
	})

	t.Run("should produce a strictly greater tag", func(t *testing.T) {
		t.Parallel()

		for _, tag := range []string{"version/0.0.1", "version/1.9", "version/9.99.999"} {
			// when
			next, err := entities.NextTag(tag)

			// then
			require.NoError(t, err)
			assert.Equal(t, 1, entities.CompareTags(next, tag), tag)
		}
	})
}

func TestCompareTags(t *testing.T) {
	t.Parallel()

	t.Run("should compare components numerically", func(t *testing.T) {
		t.Parallel()

		// when / then
		assert.Equal(t, -1, entities.CompareTags("version/1.2.0", "version/1.10.0"))
		assert.Equal(t, 1, entities.CompareTags("version/2.0", "version/1.99.99"))
		assert.Equal(t, 0, entities.CompareTags("version/1.2", "version/1.2.0"))
	})

	t.Run("should handle components longer than an int", func(t *testing.T) {
		t.Parallel()

		// when / then
		assert.Equal(t, -1, entities.CompareTags("version/1.99999999999999999999", "version/1.100000000000000000000"))
	})
}

func TestLatestTag(t *testing.T) {
	t.Parallel()

	t.Run("should pick the numerically highest tag", func(t *testing.T) {
		t.Parallel()

		// given
		tags := []string{"version/1.10.0", "version/1.2.0", "version/1.9.9"}

		// when
		latest := entities.LatestTag(tags)

		// then
		assert.Equal(t, "version/1.10.0", latest)
	})

	t.Run("should be independent of input order for numerically equal tags", func(t *testing.T) {
		t.Parallel()

		// when
		first := entities.LatestTag([]string{"version/1.2.0", "version/1.2", "version/1.2.0-rc"})
		second := entities.LatestTag([]string{"version/1.2.0-rc", "version/1.2.0", "version/1.2"})

		// then
		assert.Equal(t, first, second)
	})

	t.Run("should return empty for no tags", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, entities.LatestTag(nil))
	})
}

func TestPinnedVersion(t *testing.T) {
	t.Parallel()

	t.Run("should split the commit hash at the last underscore", func(t *testing.T) {
		t.Parallel()

		// when
		pin, err := entities.ParsePinnedVersion("0.0.1_7683c0f6")

		// then
		require.NoError(t, err)
		assert.Equal(t, "7683c0f6", pin.Hash)
		assert.Equal(t, "version/0.0.1", pin.Tag())
		assert.Equal(t, "0.0.1_7683c0f6", pin.Format())
	})

	t.Run("should accept a value without hash", func(t *testing.T) {
		t.Parallel()

		// when
		pin, err := entities.ParsePinnedVersion("1.4-player")

		// then
		require.NoError(t, err)
		assert.Empty(t, pin.Hash)
		assert.Equal(t, "version/1.4-player", pin.Tag())
	})

	t.Run("should keep an underscore that is not followed by a hash", func(t *testing.T) {
		t.Parallel()

		// when
		pin, err := entities.ParsePinnedVersion("1.4-my_suffix")

		// then
		require.NoError(t, err)
		assert.Empty(t, pin.Hash)
		assert.Equal(t, "-my_suffix", pin.Version.Suffix)
	})

	t.Run("should reject a value carrying the tag prefix", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := entities.ParsePinnedVersion("version/1.2.3_abc")

		// then
		require.ErrorIs(t, err, entities.ErrFormat)
	})

	t.Run("should synthesize a pin from a tag and hash", func(t *testing.T) {
		t.Parallel()

		// when
		pin, err := entities.NewPinnedVersion("version/2.3.5", "deadbeef")

		// then
		require.NoError(t, err)
		assert.Equal(t, "2.3.5_deadbeef", pin.Format())
	})
}

func TestNormalizeTag(t *testing.T) {
	t.Parallel()

	t.Run("should add the prefix only once", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "version/1.2", entities.NormalizeTag("1.2"))
		assert.Equal(t, "version/1.2", entities.NormalizeTag("version/1.2"))
		assert.Equal(t, "1.2", entities.StripTagPrefix("version/1.2"))
	})
}
