// Package section splits raw input text into the ordered sections a
// pipeline processes independently. Splitting is structural only: markdown
// style headings (ATX and setext) open new sections, and inputs without
// detectable structure collapse to a single section.
package section
