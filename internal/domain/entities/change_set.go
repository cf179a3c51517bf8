package entities

import (
	"fmt"
	"strings"
)

// ChangeRecord is the before/after state of one recipe within a ChangeSet. Versions are tag names.
type ChangeRecord struct {
	Recipe     string
	OldVersion string
	OldBranch  string
	NewVersion string
	NewBranch  string
}

func (it ChangeRecord) VersionChanged() bool {
	return NormalizeTag(it.OldVersion) != NormalizeTag(it.NewVersion)
}

func (it ChangeRecord) BranchChanged() bool {
	return it.OldBranch != it.NewBranch
}

// BodyOptions toggles optional sections of the aggregated body.
type BodyOptions struct {
	Structured bool // adds the Cause: and Countermeasure: sections
}

// ChangeSet collects the recipe changes of one (meta repository, target branch) pair.
// It holds at most one record per recipe.
type ChangeSet struct {
	Meta    string
	Branch  string
	records []ChangeRecord
}

func NewChangeSet(meta, branch string) *ChangeSet {
	return &ChangeSet{Meta: meta, Branch: branch}
}

// Add appends a record, replacing in place any earlier record for the same recipe.
func (it *ChangeSet) Add(record ChangeRecord) {
	for i := range it.records {
		if it.records[i].Recipe == record.Recipe {
			it.records[i] = record
			return
		}
	}
	it.records = append(it.records, record)
}

func (it *ChangeSet) Records() []ChangeRecord {
	return append([]ChangeRecord(nil), it.records...)
}

func (it *ChangeSet) Len() int { return len(it.records) }

// BuildTitle lists "<recipe>=<version>" for every record whose version changed, in insertion order.
func (it *ChangeSet) BuildTitle() string {
	var b strings.Builder
	for _, record := range it.records {
		if !record.VersionChanged() {
			continue
		}
		fmt.Fprintf(&b, "%s=%s ", record.Recipe, StripTagPrefix(record.NewVersion))
	}
	return strings.TrimRight(b.String(), " ")
}

// Subject is the title, or a generic line when only branches changed.
func (it *ChangeSet) Subject() string {
	if title := it.BuildTitle(); title != "" {
		return title
	}
	return "Update CCOS versions for " + it.Branch
}

// BuildBody composes the commit and pull request body from the parsed commits of each recipe.
func (it *ChangeSet) BuildBody(messages map[string][]CommitMessage, opts BodyOptions) string {
	var b strings.Builder
	b.WriteString(it.Subject())
	b.WriteString("\n\n")

	// the description block and its blank line are written even when empty
	b.WriteString(strings.Join(it.blocks(messages, descriptionOf, true), "\n"))
	b.WriteString("\n\n")

	if opts.Structured {
		writeSection(&b, headerCause, it.blocks(messages, causeOf, false))
		writeSection(&b, headerCountermeasure, it.blocks(messages, countermeasureOf, false))
	}

	b.WriteString("Jiras:\n")
	for _, ref := range it.IssueRefs(messages).Sorted() {
		b.WriteString(ref)
		b.WriteString("\n")
	}
	return b.String()
}

// IssueRefs is the union of issue keys across the commits of every recorded recipe.
func (it *ChangeSet) IssueRefs(messages map[string][]CommitMessage) IssueSet {
	refs := IssueSet{}
	for _, record := range it.records {
		for _, message := range messages[record.Recipe] {
			refs.Merge(message.IssueRefs)
		}
	}
	return refs
}

func (it *ChangeSet) blocks(
	messages map[string][]CommitMessage,
	field func(CommitMessage) string,
	withBranch bool,
) []string {
	var blocks []string
	for _, record := range it.records {
		var lines []string
		for _, message := range messages[record.Recipe] {
			if text := field(message); text != "" {
				lines = append(lines, text)
			}
		}
		if withBranch && record.BranchChanged() {
			lines = append(lines, fmt.Sprintf("%s: branch %s -> %s", record.Recipe, record.OldBranch, record.NewBranch))
		}
		if len(lines) > 0 {
			blocks = append(blocks, strings.Join(lines, "\n"))
		}
	}
	return blocks
}

func writeSection(b *strings.Builder, header string, blocks []string) {
	b.WriteString(header)
	b.WriteString("\n")
	if len(blocks) > 0 {
		b.WriteString(strings.Join(blocks, "\n"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func descriptionOf(message CommitMessage) string    { return message.Summary() }
func causeOf(message CommitMessage) string          { return message.Cause }
func countermeasureOf(message CommitMessage) string { return message.Countermeasure }
