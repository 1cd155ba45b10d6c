package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"BlogCurator/internal/domain"
)

const editorsChoiceLabel = "editors_choice"

// renderReadingList writes list as indented JSON or as a table with one row per entry.
func renderReadingList(w io.Writer, list domain.ReadingList, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	case "table", "":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	fmt.Fprintf(w, "Reading list %s (generated %s)\n\n", list.Period, list.GeneratedAt.Format("2006-01-02 15:04 MST"))

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
	)
	table.Header([]string{"List", "#", "Score", "Feed", "Title", "URL"})
	table.Bulk(readingListRows(list))
	table.Render()
	return nil
}

// readingListRows flattens the editor's choice followed by categories in id order.
func readingListRows(list domain.ReadingList) [][]string {
	var rows [][]string
	add := func(label string, entries []domain.ListEntry) {
		for i, e := range entries {
			rows = append(rows, []string{
				label,
				strconv.Itoa(i + 1),
				strconv.FormatFloat(e.FinalScore, 'f', 1, 64),
				e.FeedID,
				e.Title,
				e.URL,
			})
		}
	}

	add(editorsChoiceLabel, list.EditorsChoice)

	ids := make([]domain.CategoryID, 0, len(list.Categories))
	for id := range list.Categories {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		add(string(id), list.Categories[id])
	}
	return rows
}
