package ingest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/AngelCh415/paidmedia-mmm/internal/models"
)

var (
	ErrSectionNotFound = errors.New("data section not found")
	ErrTableNotFound   = errors.New("data table not found in section")
	ErrNotConfigured   = errors.New("source not configured")
)

// SectionPrefix identifies the heading of the office x channel summary.
const SectionPrefix = "3. Office-Level Summary"

// columnas de la tabla resumen
const (
	colOfficeID = iota
	colOfficeName
	colCity
	colState
	colChannel
	colSpend
	colImpressions
	colClicks
	colConvObserved
	colConvIncremental
	colBookings
	colRevenue
	colAvgWeeklySpend
	colCPAObserved
	colCPAIncremental
	colCPATarget
	colCapacity
	summaryColumns
)

type Summary struct {
	Rows    []models.SourceRow
	Skipped int
}

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// ParseSummary finds the office-level summary section and decodes every table row
// inside it, up to the next heading of the same or higher level. Pipe rows that
// a blank line split off from their table are decoded too. Rows that cannot be
// decoded are counted in Skipped.
func ParseSummary(src []byte) (Summary, error) {
	doc := md.Parser().Parse(text.NewReader(src))
	var (
		section *ast.Heading
		out     Summary
	)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			if section == nil {
				if strings.HasPrefix(strings.TrimSpace(nodeText(h, src)), SectionPrefix) {
					section = h
				}
				continue
			}
			if h.Level <= section.Level {
				break
			}
			continue
		}
		if section == nil {
			continue
		}
		switch t := n.(type) {
		case *extast.Table:
			out.merge(decodeTable(t, src))
		case *ast.Paragraph:
			lines := t.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				cells, ok := splitPipeRow(string(seg.Value(src)))
				if !ok {
					continue
				}
				out.add(cells)
			}
		}
	}
	if section == nil {
		return Summary{}, ErrSectionNotFound
	}
	if len(out.Rows) == 0 && out.Skipped == 0 {
		return Summary{}, ErrTableNotFound
	}
	return out, nil
}

func (s *Summary) merge(o Summary) {
	s.Rows = append(s.Rows, o.Rows...)
	s.Skipped += o.Skipped
}

// add decodes and validates one row, counting it as skipped on failure.
func (s *Summary) add(cells []string) {
	sr, err := DecodeRow(cells)
	if err == nil {
		err = models.Validate(sr)
	}
	if err != nil {
		s.Skipped++
		return
	}
	s.Rows = append(s.Rows, sr)
}

// splitPipeRow splits a "| a | b |" line into trimmed cells. Lines that do not
// start with a pipe and delimiter rows like "|---|:--:|" are rejected.
func splitPipeRow(line string) ([]string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "|") {
		return nil, false
	}
	if strings.Trim(line, "|-: \t") == "" {
		return nil, false
	}
	line = strings.TrimSuffix(strings.TrimPrefix(line, "|"), "|")
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells, true
}

func decodeTable(t *extast.Table, src []byte) Summary {
	var s Summary
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		row, ok := r.(*extast.TableRow)
		if !ok {
			continue // cabecera
		}
		var cells []string
		for c := row.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, strings.TrimSpace(nodeText(c, src)))
		}
		s.add(cells)
	}
	return s
}

// DecodeRow converts the cells of one summary row.
func DecodeRow(cells []string) (models.SourceRow, error) {
	if len(cells) < summaryColumns {
		return models.SourceRow{}, fmt.Errorf("row has %d cells, want %d", len(cells), summaryColumns)
	}
	id, err := strconv.Atoi(cells[colOfficeID])
	if err != nil {
		return models.SourceRow{}, fmt.Errorf("office id %q: %w", cells[colOfficeID], err)
	}
	r := models.SourceRow{
		OfficeID:   id,
		OfficeName: cells[colOfficeName],
		Channel:    models.Channel(cells[colChannel]),
	}
	fields := []struct {
		dst   *float64
		col   int
		parse func(string) (float64, error)
	}{
		{&r.Spend, colSpend, parseNumber},
		{&r.ConversionsObserved, colConvObserved, parseNumber},
		{&r.ConversionsIncremental, colConvIncremental, parseNumber},
		{&r.Bookings, colBookings, parseNumber},
		{&r.AvgWeeklySpend, colAvgWeeklySpend, parseNumber},
		{&r.CapacityUtil, colCapacity, parsePercent},
	}
	for _, f := range fields {
		v, err := f.parse(cells[f.col])
		if err != nil {
			return models.SourceRow{}, fmt.Errorf("column %d: %w", f.col, err)
		}
		*f.dst = v
	}
	return r, nil
}

// parseNumber accepts "$12,345.67", "1,234" and plain numbers.
func parseNumber(s string) (float64, error) {
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return 0, errors.New("empty cell")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not finite: %q", s)
	}
	return v, nil
}

// parsePercent converts "75%" to 0.75; a bare number is taken as a fraction.
func parsePercent(s string) (float64, error) {
	pct := strings.HasSuffix(strings.TrimSpace(s), "%")
	v, err := parseNumber(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if err != nil {
		return 0, err
	}
	if pct {
		v /= 100
	}
	return v, nil
}

func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
