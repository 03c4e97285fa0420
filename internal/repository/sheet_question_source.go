package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/boqueria/training-api/internal/model"
)

// SheetQuestionSource downloads a level from a Google spreadsheet as CSV.
// The spreadsheet must be shared for link viewing.
//
// Without a gid map the sheet is addressed by name through the gviz endpoint,
// which has two limits: an unknown sheet name is answered with the first
// sheet of the spreadsheet instead of an error, and in a column of mixed
// types the cells of the minority type come back empty (a numeric answer in
// a text column, for example). Mapping every level to its gid switches to the
// plain CSV export, which has neither problem and reports unmapped levels as
// not found.
type SheetQuestionSource struct {
	baseURL       string
	spreadsheetID string
	gids          map[string]string
	client        *http.Client
}

// NewSheetQuestionSource creates a new SheetQuestionSource.
func NewSheetQuestionSource(baseURL, spreadsheetID string, timeout time.Duration) *SheetQuestionSource {
	return &SheetQuestionSource{
		baseURL:       strings.TrimRight(baseURL, "/"),
		spreadsheetID: spreadsheetID,
		client:        &http.Client{Timeout: timeout},
	}
}

// WithSheetGIDs addresses levels by sheet gid instead of by name.
func (s *SheetQuestionSource) WithSheetGIDs(gids map[string]string) *SheetQuestionSource {
	if len(gids) > 0 {
		s.gids = gids
	}
	return s
}

func (s *SheetQuestionSource) exportURL(level string) (string, bool) {
	base := fmt.Sprintf("%s/spreadsheets/d/%s", s.baseURL, url.PathEscape(s.spreadsheetID))
	q := url.Values{}
	if s.gids != nil {
		gid, ok := s.gids[level]
		if !ok {
			return "", false
		}
		q.Set("format", "csv")
		q.Set("gid", gid)
		return base + "/export?" + q.Encode(), true
	}
	q.Set("tqx", "out:csv")
	q.Set("sheet", level)
	return base + "/gviz/tq?" + q.Encode(), true
}

// FetchRows downloads the sheet named level and parses it as CSV.
func (s *SheetQuestionSource) FetchRows(ctx context.Context, level string) ([]model.QuestionRow, error) {
	if s.spreadsheetID == "" {
		return nil, fmt.Errorf("%w: spreadsheet id not configured", ErrSourceUnavailable)
	}

	u, ok := s.exportURL(level)
	if !ok {
		return nil, fmt.Errorf("%w: no gid mapped for sheet %q", ErrLevelNotFound, level)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrSourceUnavailable, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		return nil, fmt.Errorf("%w: sheet %q", ErrLevelNotFound, level)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrSourceUnavailable, resp.StatusCode)
	}

	// The export answers unknown sheets with an HTML error page.
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "text/html") {
		return nil, fmt.Errorf("%w: sheet %q", ErrLevelNotFound, level)
	}

	r := csv.NewReader(resp.Body)
	r.FieldsPerRecord = -1
	cells, err := r.ReadAll()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, fmt.Errorf("%w: malformed csv at line %d: %w", ErrSourceUnavailable, pe.Line, err)
		}
		return nil, fmt.Errorf("%w: read body: %w", ErrSourceUnavailable, err)
	}

	return rowsFromCells(cells), nil
}
