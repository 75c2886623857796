package models

import "fmt"

// Worker is a registered field worker. The phone is stored normalized:
// whitespace stripped, no leading "+".
type Worker struct {
	ID        int64  `json:"id" db:"id"`
	Phone     string `json:"phone" db:"phone"`
	FullName  string `json:"full_name" db:"fio"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
}

// Vehicle is one assignable vehicle from the fleet catalog. The label is the
// exact string the worker picks from the keyboard (make/color/plate).
type Vehicle struct {
	ID       int    `json:"id" db:"id"`
	Label    string `json:"label" db:"label"`
	Position int    `json:"position" db:"position"`
}

// Coordinates is a GPS point from a shared location.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String renders the coordinates the way they are written into the worksheet.
func (c Coordinates) String() string {
	return fmt.Sprintf("%v, %v", c.Latitude, c.Longitude)
}
