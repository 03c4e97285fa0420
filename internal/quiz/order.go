package quiz

import (
	"strings"

	"github.com/boqueria/training-api/internal/model"
)

// BuildOrder derives the presentation order of a level.
//
// Rows without an id, category1 or category2 are skipped. The remaining rows
// are grouped by category1 and then category2, both in first-seen order, and
// only the rows inside a single (category1, category2) group are shuffled.
func BuildOrder(rows []model.QuestionRow) []model.OrderEntry {
	return BuildOrderWith(rows, RandomShuffle)
}

// BuildOrderWith is BuildOrder with an explicit Shuffler for the groups.
func BuildOrderWith(rows []model.QuestionRow, shuffle Shuffler) []model.OrderEntry {
	type group struct {
		category2 string
		entries   []model.OrderEntry
	}
	type bucket struct {
		category1 string
		groups    []*group
		byName    map[string]*group
	}

	var buckets []*bucket
	byCategory1 := make(map[string]*bucket)
	total := 0

	for i, row := range rows {
		id := strings.TrimSpace(row.ID)
		c1 := strings.TrimSpace(row.Category1)
		c2 := strings.TrimSpace(row.Category2)
		if id == "" || c1 == "" || c2 == "" {
			continue
		}

		b, ok := byCategory1[c1]
		if !ok {
			b = &bucket{category1: c1, byName: make(map[string]*group)}
			byCategory1[c1] = b
			buckets = append(buckets, b)
		}
		g, ok := b.byName[c2]
		if !ok {
			g = &group{category2: c2}
			b.byName[c2] = g
			b.groups = append(b.groups, g)
		}
		g.entries = append(g.entries, model.OrderEntry{QuestionID: id, RowIndex: i, Category1: c1})
		total++
	}

	order := make([]model.OrderEntry, 0, total)
	for _, b := range buckets {
		for _, g := range b.groups {
			entries := g.entries
			shuffle(len(entries), func(i, j int) { entries[i], entries[j] = entries[j], entries[i] })
			order = append(order, entries...)
		}
	}
	return order
}

// IndexOfQuestion returns the position of questionID in order, or -1.
func IndexOfQuestion(order []model.OrderEntry, questionID string) int {
	for i, e := range order {
		if e.QuestionID == questionID {
			return i
		}
	}
	return -1
}

// IndexOfCategory1 returns the first position whose category1 is c1, or -1.
func IndexOfCategory1(order []model.OrderEntry, c1 string) int {
	for i, e := range order {
		if e.Category1 == c1 {
			return i
		}
	}
	return -1
}

// ProgressRate is floor(100*(index+1)/total) clamped to [0, 100].
func ProgressRate(index, total int) int {
	if total <= 0 {
		return 0
	}
	rate := 100 * (index + 1) / total
	return max(0, min(100, rate))
}
