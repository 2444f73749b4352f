package pricing

import (
	"time"

	"dispatch/internal/domain"
)

// FareBreakdown is the result of a quote.
type FareBreakdown struct {
	RatePerKm    float64
	BaseFare     float64
	DistanceFare float64
	TotalFare    float64
	BillableKm   float64
}

// Engine quotes a fare for a trip. Consumed once at trip creation; pure
// function of its inputs, no side effects.
type Engine interface {
	Quote(distanceKm float64, tripType domain.TripType, pickupTime, bookingTime time.Time, vehicleClassSKU string) FareBreakdown
}

// RateCard is a simple per-type rate table implementation of Engine.
type RateCard struct {
	baseFare    float64
	perKm       map[domain.TripType]float64
	minBillable float64
}

// NewRateCard creates a RateCard with default rates.
func NewRateCard() *RateCard {
	return &RateCard{
		baseFare: 100,
		perKm: map[domain.TripType]float64{
			domain.TripTypeAirport:   18,
			domain.TripTypeInterCity: 14,
			domain.TripTypeRental:    12,
		},
		minBillable: 5,
	}
}

// Quote computes the fare breakdown for the given trip parameters.
func (r *RateCard) Quote(distanceKm float64, tripType domain.TripType, pickupTime, bookingTime time.Time, vehicleClassSKU string) FareBreakdown {
	rate, ok := r.perKm[tripType]
	if !ok {
		rate = r.perKm[domain.TripTypeInterCity]
	}

	billable := distanceKm
	if billable < r.minBillable {
		billable = r.minBillable
	}

	distanceFare := billable * rate

	return FareBreakdown{
		RatePerKm:    rate,
		BaseFare:     r.baseFare,
		DistanceFare: distanceFare,
		TotalFare:    r.baseFare + distanceFare,
		BillableKm:   billable,
	}
}

// Ensure RateCard implements Engine.
var _ Engine = (*RateCard)(nil)
