package entities

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// TagPrefix is the namespace every version tag lives under.
const TagPrefix = "version/"

var (
	digitRunPattern = regexp.MustCompile(`[0-9]+`)
	hexHashPattern  = regexp.MustCompile(`^[0-9a-f]+$`)
)

// Version is a dotted numeric version with an optional suffix, e.g. "1.2.3-player".
// Suffix keeps its leading separator so Format can restore the original text.
type Version struct {
	Parts    []int
	Suffix   string
	Prefixed bool // true when parsed from a "version/" tag name
}

// ParseVersion parses "1.2.3", "1.2.3-suffix" or the tag form "version/1.2.3-suffix".
// Components with leading zeros are rejected because they cannot round-trip.
func ParseVersion(text string) (Version, error) {
	raw := strings.TrimSpace(text)
	prefixed := strings.HasPrefix(raw, TagPrefix)
	raw = strings.TrimPrefix(raw, TagPrefix)

	numeric, suffix := raw, ""
	if idx := strings.Index(raw, "-"); idx >= 0 {
		numeric, suffix = raw[:idx], raw[idx:]
	}
	if numeric == "" {
		return Version{}, fmt.Errorf("%w: %q has no numeric segment", ErrFormat, text)
	}

	segments := strings.Split(numeric, ".")
	parts := make([]int, 0, len(segments))
	for _, segment := range segments {
		if segment == "" || (len(segment) > 1 && segment[0] == '0') {
			return Version{}, fmt.Errorf("%w: malformed component %q in %q", ErrFormat, segment, text)
		}
		value, err := strconv.Atoi(segment)
		if err != nil || value < 0 {
			return Version{}, fmt.Errorf("%w: malformed component %q in %q", ErrFormat, segment, text)
		}
		parts = append(parts, value)
	}

	return Version{Parts: parts, Suffix: suffix, Prefixed: prefixed}, nil
}

// Increment returns a copy with the last numeric component bumped by one.
func (it Version) Increment() Version {
	parts := append([]int(nil), it.Parts...)
	if len(parts) > 0 {
		parts[len(parts)-1]++
	}
	return Version{Parts: parts, Suffix: it.Suffix, Prefixed: it.Prefixed}
}

// Format is the inverse of ParseVersion.
func (it Version) Format() string {
	if it.Prefixed {
		return TagPrefix + it.Bare()
	}
	return it.Bare()
}

// Bare renders the version without the tag prefix.
func (it Version) Bare() string {
	segments := make([]string, len(it.Parts))
	for i, part := range it.Parts {
		segments[i] = strconv.Itoa(part)
	}
	return strings.Join(segments, ".") + it.Suffix
}

// Tag renders the version as a tag name under TagPrefix.
func (it Version) Tag() string {
	return TagPrefix + it.Bare()
}

func (it Version) String() string { return it.Format() }

// NextTag derives the tag following the given one ("version/2.3.4" -> "version/2.3.5").
func NextTag(tag string) (string, error) {
	version, err := ParseVersion(tag)
	if err != nil {
		return "", err
	}
	return version.Increment().Tag(), nil
}

// NormalizeTag adds the tag prefix to a bare version name.
func NormalizeTag(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasPrefix(name, TagPrefix) {
		return name
	}
	return TagPrefix + name
}

// StripTagPrefix removes the tag prefix when present.
func StripTagPrefix(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), TagPrefix)
}

// CompareTags orders two tags by the digit runs found in each, padding the shorter tuple with zeros.
// It returns -1, 0 or 1. Digit runs are compared as decimal strings so very long components never overflow.
func CompareTags(a, b string) int {
	left := digitRunPattern.FindAllString(a, -1)
	right := digitRunPattern.FindAllString(b, -1)

	count := max(len(left), len(right))
	for i := range count {
		l, r := "0", "0"
		if i < len(left) {
			l = trimLeadingZeros(left[i])
		}
		if i < len(right) {
			r = trimLeadingZeros(right[i])
		}
		if c := compareDecimal(l, r); c != 0 {
			return c
		}
	}
	return 0
}

// LatestTag returns the highest tag by CompareTags. Numerically equal tags fall back to semver
// precedence and then to plain string order, so the choice is stable for any input order.
func LatestTag(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	sorted := append([]string(nil), tags...)
	SortTags(sorted)
	return sorted[len(sorted)-1]
}

// SortTags sorts tags ascending by CompareTags.
func SortTags(tags []string) {
	sort.SliceStable(tags, func(i, j int) bool {
		return compareTagsTotal(tags[i], tags[j]) < 0
	})
}

func compareTagsTotal(a, b string) int {
	if c := CompareTags(a, b); c != 0 {
		return c
	}

	v1 := normalizeSemver(a)
	v2 := normalizeSemver(b)
	if semver.IsValid(v1) && semver.IsValid(v2) {
		if c := semver.Compare(v1, v2); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

// normalizeSemver ensures the tag has a 'v' prefix for semver compatibility.
func normalizeSemver(tag string) string {
	return "v" + StripTagPrefix(tag)
}

func trimLeadingZeros(digits string) string {
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

func compareDecimal(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// PinnedVersion is the persisted recipe value "<version>_<commit hash>".
type PinnedVersion struct {
	Version Version
	Hash    string
}

// ParsePinnedVersion splits a persisted pin value at its last '_' when the remainder is a lowercase
// hex hash. A value without a hash parses with an empty Hash.
func ParsePinnedVersion(text string) (PinnedVersion, error) {
	raw := strings.TrimSpace(text)
	versionText, hash := raw, ""
	if idx := strings.LastIndex(raw, "_"); idx >= 0 && hexHashPattern.MatchString(raw[idx+1:]) {
		versionText, hash = raw[:idx], raw[idx+1:]
	}

	version, err := ParseVersion(versionText)
	if err != nil {
		return PinnedVersion{}, err
	}
	if version.Prefixed {
		return PinnedVersion{}, fmt.Errorf("%w: pin value %q must not carry the tag prefix", ErrFormat, text)
	}
	return PinnedVersion{Version: version, Hash: hash}, nil
}

// NewPinnedVersion synthesizes a pin value from a tag name and the commit it points at.
func NewPinnedVersion(tag, hash string) (PinnedVersion, error) {
	version, err := ParseVersion(StripTagPrefix(tag))
	if err != nil {
		return PinnedVersion{}, err
	}
	return PinnedVersion{Version: version, Hash: hash}, nil
}

// Format renders the pin exactly as it is stored in the recipe.
func (it PinnedVersion) Format() string {
	if it.Hash == "" {
		return it.Version.Bare()
	}
	return it.Version.Bare() + "_" + it.Hash
}

// Tag is the git tag this pin refers to.
func (it PinnedVersion) Tag() string {
	return it.Version.Tag()
}

func (it PinnedVersion) String() string { return it.Format() }
