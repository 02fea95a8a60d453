// Package search implements the vessel autocomplete logic: case-insensitive
// substring matching over the in-memory collection, highlight segmentation,
// and progressive-reveal pagination with a clamped keyboard cursor.
//
// An empty query is browse mode and matches the entire list. (The original
// dashboard shipped one strict and one browse component; browse is the
// documented behavior here.)
package search

import (
	"strings"

	"github.com/user/fleet-dashboard-api/internal/models"
)

// BatchSize - number of matches revealed per render batch. All matches are
// computed eagerly; only the revealed window grows.
const BatchSize = 30

// Match reports whether a vessel name matches the query
func Match(name, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}

// Filter returns the vessels whose name matches the query, in input order
func Filter(vessels []models.Vessel, query string) []models.Vessel {
	if query == "" {
		out := make([]models.Vessel, len(vessels))
		copy(out, vessels)
		return out
	}
	var out []models.Vessel
	for _, v := range vessels {
		if Match(v.Name, query) {
			out = append(out, v)
		}
	}
	return out
}

// Segment - one run of text, flagged when it is part of a query match
type Segment struct {
	Text    string `json:"text"`
	IsMatch bool   `json:"isMatch"`
}

// Segments splits text into ordered runs so the UI can highlight every
// occurrence of the query. The concatenation of all segment texts is always
// the original text. An empty query yields one unhighlighted segment.
func Segments(text, query string) []Segment {
	if text == "" {
		return nil
	}
	if query == "" {
		return []Segment{{Text: text}}
	}

	lowerText := strings.ToLower(text)
	lowerQuery := strings.ToLower(query)

	var segments []Segment
	pos := 0
	for pos < len(text) {
		idx := strings.Index(lowerText[pos:], lowerQuery)
		if idx < 0 {
			segments = append(segments, Segment{Text: text[pos:]})
			break
		}
		if idx > 0 {
			segments = append(segments, Segment{Text: text[pos : pos+idx]})
		}
		segments = append(segments, Segment{Text: text[pos+idx : pos+idx+len(query)], IsMatch: true})
		pos += idx + len(query)
	}
	return segments
}

// Results - one computed match set with its reveal window and cursor.
// Matches are fixed at construction; MoveDown/Extend only grow the window.
type Results struct {
	matches []models.Vessel
	visible int
	active  int
}

// NewResults filters the collection and opens the first batch
func NewResults(vessels []models.Vessel, query string) *Results {
	matches := Filter(vessels, query)
	visible := BatchSize
	if visible > len(matches) {
		visible = len(matches)
	}
	return &Results{matches: matches, visible: visible}
}

// Total returns the full match count
func (r *Results) Total() int {
	return len(r.matches)
}

// VisibleCount returns the size of the revealed window
func (r *Results) VisibleCount() int {
	return r.visible
}

// Visible returns the currently revealed matches
func (r *Results) Visible() []models.Vessel {
	return r.matches[:r.visible]
}

// Extend reveals one more batch, capped at the match count. Called when the
// results container scrolls near its bottom.
func (r *Results) Extend() {
	r.visible += BatchSize
	if r.visible > len(r.matches) {
		r.visible = len(r.matches)
	}
}

// ActiveIndex returns the cursor position, -1 when there are no matches
func (r *Results) ActiveIndex() int {
	if len(r.matches) == 0 {
		return -1
	}
	return r.active
}

// MoveDown advances the cursor, clamped to the last match. Moving past the
// revealed window extends it by another batch.
func (r *Results) MoveDown() {
	if len(r.matches) == 0 {
		return
	}
	if r.active < len(r.matches)-1 {
		r.active++
	}
	if r.active >= r.visible {
		r.Extend()
	}
}

// MoveUp retreats the cursor, clamped to the first match
func (r *Results) MoveUp() {
	if r.active > 0 {
		r.active--
	}
}

// SetActive syncs the cursor to a hovered row, ignoring out-of-window values
func (r *Results) SetActive(i int) {
	if i < 0 || i >= r.visible {
		return
	}
	r.active = i
}

// Active returns the match under the cursor
func (r *Results) Active() (models.Vessel, bool) {
	if len(r.matches) == 0 {
		return models.Vessel{}, false
	}
	return r.matches[r.active], true
}
