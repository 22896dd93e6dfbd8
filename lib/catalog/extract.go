package catalog

import (
	"database/sql"
	"errors"
	"iter"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"github.com/fiffu/seatwatch/lib/models"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

var (
	sectionExpr    = xpath.MustCompile("//div[contains(concat(' ', normalize-space(@class), ' '), ' section ')]")
	sectionIDExpr  = byClass("span", "section-id")
	instructorExpr = byClass("span", "section-instructor")
	openSeatsExpr  = byClass("span", "open-seats-count")

	errNegativeSeats = errors.New("negative count")
)

type Extractor struct {
	log *zap.Logger
}

func NewExtractor(log *zap.Logger) *Extractor {
	return &Extractor{log}
}

// Extract walks the section blocks of page in document order. A page without section blocks
// yields nothing. Sub-field problems are logged and defaulted per section.
func (e *Extractor) Extract(page *PageContent) iter.Seq[models.SectionRecord] {
	return func(yield func(models.SectionRecord) bool) {
		doc, err := htmlquery.Parse(strings.NewReader(page.Body))
		if err != nil {
			e.log.Sugar().Warnw("Unparsable catalog page", "course_id", page.CourseID, "err", err)
			return
		}

		it := sectionExpr.Select(htmlquery.CreateXPathNavigator(doc))
		for it.MoveNext() {
			nav, ok := it.Current().(*htmlquery.NodeNavigator)
			if !ok {
				continue
			}
			if !yield(e.readSection(page.CourseID, nav.Current())) {
				return
			}
		}
	}
}

func (e *Extractor) readSection(courseID string, n *html.Node) models.SectionRecord {
	rec := models.SectionRecord{
		CourseID:   courseID,
		SectionID:  readSectionID(n),
		Instructor: models.UnknownInstructor,
	}
	if rec.SectionID == "" {
		e.warn(&ExtractionWarning{CourseID: courseID, Field: "section id"})
	}

	if instructor, ok := selectText(n, instructorExpr); ok && instructor != "" {
		rec.Instructor = instructor
	} else {
		e.warn(&ExtractionWarning{CourseID: courseID, SectionID: rec.SectionID, Field: "instructor"})
	}

	raw, ok := selectText(n, openSeatsExpr)
	if !ok {
		e.warn(&ExtractionWarning{CourseID: courseID, SectionID: rec.SectionID, Field: "open seats"})
		return rec
	}
	seats, err := strconv.Atoi(raw)
	if err == nil && seats < 0 {
		err = errNegativeSeats
	}
	if err != nil {
		e.warn(&ParseValueError{CourseID: courseID, SectionID: rec.SectionID, Value: raw, Err: err})
		return rec
	}
	rec.SeatsAvailable = sql.NullInt64{Int64: int64(seats), Valid: true}
	return rec
}

func readSectionID(n *html.Node) string {
	if id, ok := selectText(n, sectionIDExpr); ok && id != "" {
		return id
	}
	return strings.TrimPrefix(strings.TrimSpace(attr(n, "id")), "section-")
}

func (e *Extractor) warn(err error) {
	e.log.Sugar().Warnw("Section extraction problem", "err", err)
}
