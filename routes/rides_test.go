package routes

import (
	"testing"

	"taxiye-driver-server/models"
)

func TestValidRideTransitions(t *testing.T) {
	cases := []struct {
		from  models.RideStatus
		to    models.RideStatus
		valid bool
	}{
		{models.RideAccepted, models.RideInProgress, true},
		{models.RideAccepted, models.RideCancelled, true},
		{models.RideAccepted, models.RideCompleted, false},
		{models.RideInProgress, models.RideCompleted, true},
		{models.RideInProgress, models.RideCancelled, true},
		{models.RideRequested, models.RideInProgress, false},
		{models.RideCompleted, models.RideInProgress, false},
		{models.RideCancelled, models.RideAccepted, false},
	}
	for _, tc := range cases {
		if got := validRideTransition(tc.from, tc.to); got != tc.valid {
			t.Errorf("transition %s -> %s: got %v, want %v", tc.from, tc.to, got, tc.valid)
		}
	}
}
