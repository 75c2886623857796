package ledger

import (
	"fmt"
	"time"
)

// The month worksheet layout. Each worker owns a block: one header row with
// the column titles (B through M) followed by one data row per day of the
// month. The worker's name and phone live in merged cells spanning the data
// rows; shift fields go into columns D..L of the day's row.
//
//	B    C        D     E        F        G        H       I       J        K        L        M
//	ФИО  телефон  АВТО  пробег   начало   коорд.   3 часа  6 часов  конец   коорд.   пробег   дата

var headerTitles = []string{
	"ФИО", "Номер телефона", "АВТО", "Начальный пробег",
	"Время начала", "Координаты начала",
	"Промеж 3 часа", "Промеж 6 часов",
	"Время окончания", "Координаты конец",
	"Конечный пробег", "Дата",
}

var monthTitles = map[time.Month]string{
	time.January:   "Январь",
	time.February:  "Февраль",
	time.March:     "Март",
	time.April:     "Апрель",
	time.May:       "Май",
	time.June:      "Июнь",
	time.July:      "Июль",
	time.August:    "Август",
	time.September: "Сентябрь",
	time.October:   "Октябрь",
	time.November:  "Ноябрь",
	time.December:  "Декабрь",
}

// monthTitle names the worksheet for the month containing t.
func monthTitle(t time.Time) string {
	return monthTitles[t.Month()]
}

// daysInMonth returns the number of day rows a block needs for the month
// containing t.
func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// targetRow addresses the day row inside a block: header row plus the
// day of month of t.
func targetRow(headerRow int64, t time.Time) int64 {
	return headerRow + int64(t.Day())
}

// slotColumn maps an intermediate slot to its worksheet column: the first
// accepted report lands in the 3-hour column, the second in the 6-hour one.
func slotColumn(slot int) string {
	if slot == 0 {
		return "H"
	}
	return "I"
}

// clockTime renders a timestamp the way the worksheet shows it.
func clockTime(t time.Time) string {
	return t.Format("15:04:05")
}

// dayLabel renders the date column value for a day of the month.
func dayLabel(day int, t time.Time) string {
	return fmt.Sprintf("%02d.%02d", day, int(t.Month()))
}
