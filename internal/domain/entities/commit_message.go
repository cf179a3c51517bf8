package entities

import (
	"regexp"
	"sort"
	"strings"
)

const (
	headerDescription    = "Description:"
	headerCause          = "Cause:"
	headerCountermeasure = "Countermeasure:"
	headerDependency     = "Dependency:"
	headerJira           = "Jira:"
)

var (
	// IssueRefPattern matches issue-tracker keys such as "ABC-123".
	IssueRefPattern = regexp.MustCompile(`[A-Z][A-Z0-9]*-[0-9]+`)

	typedTitlePattern = regexp.MustCompile(`^\[([^\]]+)\]:\s*(.*)$`)
)

// CommitMessage is the structured view of one commit body.
type CommitMessage struct {
	Type           string
	Title          string
	Description    string
	Cause          string
	Countermeasure string
	Dependency     string
	Jira           string
	IssueRefs      IssueSet
}

// ParseCommitMessage splits a commit body into its header-delimited sections.
// A section runs from its header line to the next recognized header or the end of the text.
// The first non-empty line is the title; "[type]: title" additionally captures the type.
func ParseCommitMessage(text string) CommitMessage {
	message := CommitMessage{IssueRefs: ExtractIssueRefs(text)}
	sections := map[string][]string{}

	current := ""
	titleSeen := false
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimRight(line, " \t\r")
		if isSectionHeader(trimmed) {
			current = trimmed
			continue
		}

		if current != "" {
			sections[current] = append(sections[current], trimmed)
			continue
		}

		if !titleSeen && strings.TrimSpace(trimmed) != "" {
			titleSeen = true
			title := strings.TrimSpace(trimmed)
			if match := typedTitlePattern.FindStringSubmatch(title); match != nil {
				message.Type = strings.TrimSpace(match[1])
				title = strings.TrimSpace(match[2])
			}
			message.Title = title
		}
	}

	message.Description = joinSection(sections[headerDescription])
	message.Cause = joinSection(sections[headerCause])
	message.Countermeasure = joinSection(sections[headerCountermeasure])
	message.Dependency = joinSection(sections[headerDependency])
	message.Jira = joinSection(sections[headerJira])
	return message
}

// Summary is the text used for this commit in an aggregated description.
func (it CommitMessage) Summary() string {
	if it.Description != "" {
		return it.Description
	}
	return it.Title
}

func isSectionHeader(line string) bool {
	switch line {
	case headerDescription, headerCause, headerCountermeasure, headerDependency, headerJira:
		return true
	}
	return false
}

func joinSection(lines []string) string {
	return strings.Trim(strings.Join(lines, "\n"), "\n \t")
}

// ExtractIssueRefs collects every issue key found anywhere in text.
func ExtractIssueRefs(text string) IssueSet {
	refs := IssueSet{}
	for _, match := range IssueRefPattern.FindAllString(text, -1) {
		refs.Add(match)
	}
	return refs
}

// IssueSet is a de-duplicated collection of issue keys.
type IssueSet map[string]struct{}

func (s IssueSet) Add(ref string) {
	s[ref] = struct{}{}
}

func (s IssueSet) Merge(other IssueSet) {
	for ref := range other {
		s.Add(ref)
	}
}

// Sorted returns the keys in plain lexicographic order ("ABC-12" sorts before "ABC-2").
func (s IssueSet) Sorted() []string {
	refs := make([]string, 0, len(s))
	for ref := range s {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}
