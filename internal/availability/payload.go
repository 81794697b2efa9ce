package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the MM/DD/YYYY form the calendar API speaks in both
// directions.
const DateLayout = "01/02/2006"

// StayQuery is the party shape every check asks about.
type StayQuery struct {
	Nights        int
	PeoplePerRoom int
}

// NewStayQuery validates a stay shape.
func NewStayQuery(nights, peoplePerRoom int) (StayQuery, error) {
	if nights < 1 {
		return StayQuery{}, fmt.Errorf("availability: nights must be at least 1, got %d", nights)
	}
	if peoplePerRoom < 1 {
		return StayQuery{}, fmt.Errorf("availability: people per room must be at least 1, got %d", peoplePerRoom)
	}
	return StayQuery{Nights: nights, PeoplePerRoom: peoplePerRoom}, nil
}

// Payload builds the form body for a check starting on date.
func (q StayQuery) Payload(date time.Time) string {
	return BuildPayload(date, q.Nights, q.PeoplePerRoom)
}

// BuildPayload renders the calendar request body: the date and night count,
// an empty H4[] marker, then one room block per night holding the party size
// and two zero fields. The date is written unescaped. Non-positive nights or
// people are a programming error and panic.
func BuildPayload(date time.Time, nights, people int) string {
	if nights < 1 || people < 1 {
		panic(fmt.Sprintf("availability: BuildPayload(nights=%d, people=%d): both must be positive", nights, people))
	}

	var b strings.Builder
	b.WriteString("date=")
	b.WriteString(date.Format(DateLayout))
	b.WriteString("&nights=")
	b.WriteString(strconv.Itoa(nights))
	b.WriteString("&H4%5B%5D=")

	p := strconv.Itoa(people)
	for night := 1; night <= nights; night++ {
		field := "&H4%5B" + strconv.Itoa(night) + "%5D%5B%5D="
		b.WriteString(field + p)
		b.WriteString(field + "0")
		b.WriteString(field + "0")
	}
	return b.String()
}
