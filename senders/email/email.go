package email

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/fiffu/seatwatch/lib/models"
)

var (
	//go:embed seat_available.txt
	seatAvailableText     string
	seatAvailableTemplate = template.Must(template.New("seat_available.txt").Parse(seatAvailableText))
)

func mustFillTemplate(tmpl *template.Template, values any) string {
	buf := new(strings.Builder)
	err := tmpl.Execute(buf, values)
	if err != nil {
		return ""
	}
	return buf.String()
}

type SeatAvailableFormat struct {
	Event *models.NotificationEvent
}

func (ef *SeatAvailableFormat) Subject() string {
	return fmt.Sprintf("Course Seat Available: %s Section %s", ef.Event.CourseID, ef.Event.SectionID)
}

func (ef *SeatAvailableFormat) Body() string {
	return mustFillTemplate(seatAvailableTemplate, ef.Event)
}
