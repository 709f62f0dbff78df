package model

import "time"

// Bar is one daily close of a price history.
type Bar struct {
	Date  time.Time
	Close float64
}
