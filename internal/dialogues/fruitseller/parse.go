package fruitseller

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/parley/pkg/domain"
)

// Intent is what an utterance asks the fruit seller to do.
type Intent string

const (
	IntentStart   Intent = "start"
	IntentAdd     Intent = "add"
	IntentRemove  Intent = "remove"
	IntentChange  Intent = "change"
	IntentOptions Intent = "options"
	IntentYes     Intent = "yes"
	IntentNo      Intent = "no"
	IntentCancel  Intent = "cancel"
	IntentDate    Intent = "date"
	IntentStatus  Intent = "status"
)

// Parse result slots.
const (
	KeyIntent      = "intent"
	KeyFruitsEmpty = "fruits_empty"
	KeyOptions     = "fruit_options"
	KeyRemoved     = "removed"
	KeyParseError  = "parse_error"
)

// Query is the structured reading of one utterance.
type Query struct {
	Intent  Intent
	Fruits  []domain.ListItem
	Replace []domain.ListItem
	Date    *time.Time
	Time    *time.Time
}

var fruitNames = map[string]string{
	"banana": "banana", "bananas": "banana",
	"apple": "apple", "apples": "apple",
	"pear": "pear", "pears": "pear",
	"orange": "orange", "oranges": "orange",
}

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11,
	"twelve": 12, "dozen": 12,
}

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var (
	startPattern   = regexp.MustCompile(`^(fruits?|fruit seller|(i (want|would like) to )?(buy|order) (some )?fruits?|can i (buy|order) fruits?( from you)?)$`)
	cancelPattern  = regexp.MustCompile(`^(cancel|i quit|(i want to |please )?cancel( the| my)?( order)?|stop( the)? order)$`)
	optionsPattern = regexp.MustCompile(`^(options|what are the options|what (fruits?|options) (do you have|are (there|available))|what do you have|what is available)$`)
	statusPattern  = regexp.MustCompile(`^(status|what is the status( of my order)?|what is my order)$`)
	yesPattern     = regexp.MustCompile(`^(yes|yes yes|yes please|yes thanks|yes thank you|yep|yeah|sure|correct|absolutely)$`)
	noPattern      = regexp.MustCompile(`^(no|no no|no thanks|no thank you|nope|nothing else|that is all|that's all)$`)
	removePattern  = regexp.MustCompile(`^(remove|drop|skip|take out|no more|i do not want|i don't want)\b`)
	changePattern  = regexp.MustCompile(`^(replace|change|swap) (.+?) (with|to|for) (.+)$`)

	isoDatePattern   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	monthDayPattern  = regexp.MustCompile(`\b([a-z]+) (\d{1,2})(st|nd|rd|th)?\b`)
	dayMonthPattern  = regexp.MustCompile(`\b(\d{1,2})(st|nd|rd|th)? (of )?([a-z]+)\b`)
	relativePattern  = regexp.MustCompile(`\b(today|tomorrow)\b`)
	clockPattern     = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`)
	meridiemPattern  = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
	noonPattern      = regexp.MustCompile(`\b(noon|midday)\b`)
	punctuationStrip = regexp.MustCompile(`[^a-z0-9:\-' ]+`)
)

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = punctuationStrip.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// ParseQuery reads an utterance. ok is false when nothing in it concerns the
// fruit seller. now anchors relative dates and year inference.
func ParseQuery(utterance string, now time.Time) (q Query, ok bool, err error) {
	text := normalize(utterance)
	switch {
	case text == "":
		return q, false, nil
	case startPattern.MatchString(text):
		return Query{Intent: IntentStart}, true, nil
	case cancelPattern.MatchString(text):
		return Query{Intent: IntentCancel}, true, nil
	case optionsPattern.MatchString(text):
		return Query{Intent: IntentOptions}, true, nil
	case statusPattern.MatchString(text):
		return Query{Intent: IntentStatus}, true, nil
	case yesPattern.MatchString(text):
		return Query{Intent: IntentYes}, true, nil
	case noPattern.MatchString(text):
		return Query{Intent: IntentNo}, true, nil
	}

	if m := changePattern.FindStringSubmatch(text); m != nil {
		from, to := parseFruitList(m[2]), parseFruitList(m[4])
		if len(from) > 0 && len(to) > 0 {
			return Query{Intent: IntentChange, Replace: from, Fruits: to}, true, nil
		}
	}
	if removePattern.MatchString(text) {
		if fruits := parseFruitList(text); len(fruits) > 0 {
			return Query{Intent: IntentRemove, Fruits: fruits}, true, nil
		}
	}
	if fruits := parseFruitList(text); len(fruits) > 0 {
		return Query{Intent: IntentAdd, Fruits: fruits}, true, nil
	}

	q = Query{Intent: IntentDate}
	if d, found := parseDate(text, now); found {
		q.Date = &d
	}
	t, found, err := parseClock(text)
	if err != nil {
		return q, true, err
	}
	if found {
		q.Time = &t
	}
	if q.Date == nil && q.Time == nil {
		return Query{}, false, nil
	}
	return q, true, nil
}

// parseFruitList collects "[count] fruit" pairs. A count applies to the next
// fruit only; fruits without one count as one.
func parseFruitList(text string) []domain.ListItem {
	var items []domain.ListItem
	pending := 0
	for _, tok := range strings.Fields(text) {
		if n, err := strconv.Atoi(tok); err == nil && n > 0 {
			pending = n
			continue
		}
		if n, ok := numberWords[tok]; ok {
			pending = n
			continue
		}
		if name, ok := fruitNames[tok]; ok {
			if pending == 0 {
				pending = 1
			}
			items = append(items, domain.ListItem{Name: name, Quantity: pending})
			pending = 0
		}
	}
	return items
}

func parseDate(text string, now time.Time) (time.Time, bool) {
	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		if d, err := time.Parse(domain.DateLayout, m[0]); err == nil {
			return d, true
		}
	}
	if m := relativePattern.FindStringSubmatch(text); m != nil {
		d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if m[1] == "tomorrow" {
			d = d.AddDate(0, 0, 1)
		}
		return d, true
	}
	for _, m := range monthDayPattern.FindAllStringSubmatch(text, -1) {
		if month, ok := months[m[1]]; ok {
			day, _ := strconv.Atoi(m[2])
			if d, ok := upcoming(month, day, now); ok {
				return d, true
			}
		}
	}
	for _, m := range dayMonthPattern.FindAllStringSubmatch(text, -1) {
		if month, ok := months[m[4]]; ok {
			day, _ := strconv.Atoi(m[1])
			if d, ok := upcoming(month, day, now); ok {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

// upcoming places a month and day in the current year, or the next one when
// that day has already passed.
func upcoming(month time.Month, day int, now time.Time) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	year := now.Year()
	if month < now.Month() || (month == now.Month() && day < now.Day()) {
		year++
	}
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if d.Month() != month {
		return time.Time{}, false
	}
	return d, true
}

// parseClock finds a time of day. An out-of-range time is an error rather
// than a miss, so the user can be told.
func parseClock(text string) (time.Time, bool, error) {
	hour, minute := -1, 0
	meridiem := ""
	if m := clockPattern.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		meridiem = m[3]
	} else if m := meridiemPattern.FindStringSubmatch(text); m != nil {
		hour, _ = strconv.Atoi(m[1])
		meridiem = m[2]
	} else if noonPattern.MatchString(text) {
		hour = 12
	}
	if hour < 0 {
		return time.Time{}, false, nil
	}

	if meridiem != "" && (hour < 1 || hour > 12) {
		return time.Time{}, false, errInvalidTime
	}
	switch meridiem {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 12 {
			hour += 12
		}
	}
	if hour > 23 || minute > 59 {
		return time.Time{}, false, errInvalidTime
	}
	return time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC), true, nil
}
