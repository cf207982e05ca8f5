package section

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentpipe/core"
)

// DefaultTitle is used when the caller supplies no title for unstructured input.
const DefaultTitle = "Document"

// Split partitions text into ordered sections according to mode.
//
// SectionModeSingle yields exactly one section whose title is defaultTitle
// and whose content is the entire input, unmodified. SectionModeAuto detects
// markdown style headings and yields one section per heading unit; when no
// headings exist, blank-line separated paragraph blocks become the units,
// and input without any structural break falls back to the single-section
// behavior. Source order is always preserved.
//
// Split fails only for empty or whitespace-only input, or an unknown mode.
func Split(text string, mode core.SectionMode, defaultTitle string) ([]core.Section, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: input text is empty", core.ErrInvalidInput)
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown section mode %q", core.ErrInvalidInput, mode)
	}
	if defaultTitle == "" {
		defaultTitle = DefaultTitle
	}

	if mode == core.SectionModeSingle {
		return []core.Section{{Title: defaultTitle, Content: text}}, nil
	}

	if sections := splitByHeadings(text, defaultTitle); len(sections) > 1 {
		return sections, nil
	}
	if sections := splitByParagraphs(text); len(sections) > 1 {
		return sections, nil
	}
	return []core.Section{{Title: defaultTitle, Content: text}}, nil
}

// splitByHeadings scans for ATX (#..######) and setext (=== / --- underline)
// headings, opening a new section at each. Text before the first heading
// becomes a preamble section under the default title.
func splitByHeadings(text, defaultTitle string) []core.Section {
	lines := strings.Split(text, "\n")

	var sections []core.Section
	title := defaultTitle
	var body []string

	flush := func() {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		if content != "" {
			sections = append(sections, core.Section{Title: title, Content: content})
		}
		body = body[:0]
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if h, ok := atxHeading(line); ok {
			flush()
			title = h
			continue
		}

		// Setext heading: a non-empty line underlined by === or ---.
		if i+1 < len(lines) && strings.TrimSpace(line) != "" && setextUnderline(lines[i+1]) {
			flush()
			title = strings.TrimSpace(line)
			i++
			continue
		}

		body = append(body, line)
	}
	flush()

	return sections
}

func atxHeading(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level > 6 || level == len(trimmed) || trimmed[level] != ' ' {
		return "", false
	}
	return strings.TrimSpace(strings.TrimRight(trimmed[level:], "#")), true
}

func setextUnderline(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 3 {
		return false
	}
	ch := trimmed[0]
	if ch != '=' && ch != '-' {
		return false
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != ch {
			return false
		}
	}
	return true
}

// splitByParagraphs treats blank-line separated blocks as units, numbering
// the resulting sections in source order.
func splitByParagraphs(text string) []core.Section {
	blocks := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")

	var sections []core.Section
	for _, block := range blocks {
		content := strings.TrimSpace(block)
		if content == "" {
			continue
		}
		sections = append(sections, core.Section{
			Title:   fmt.Sprintf("Section %d", len(sections)+1),
			Content: content,
		})
	}
	return sections
}
