package booking

import (
	"strconv"
	"strings"
)

// Fare pricing is a fixed linear formula: base fee plus a per-kilometer rate
// applied to the distance string carried by the booking.
const (
	fareBase  = 2.0
	farePerKM = 0.5
)

// Fare returns the fare for this booking in dollars. An absent or unparseable
// distance counts as zero kilometers, matching how the booking source prices
// incomplete records.
func (trip *Booking) Fare() float64 {
	distance, err := strconv.ParseFloat(strings.TrimSpace(trip.Distance), 64)
	if err != nil || distance < 0 {
		distance = 0
	}
	return distance*farePerKM + fareBase
}

// TotalEarnings sums the fares of the given trips.
func TotalEarnings(trips []Booking) float64 {
	var total float64
	for i := range trips {
		total += trips[i].Fare()
	}
	return total
}
