package service

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultBcryptCost = 10
	defaultPerPage    = 15
	defaultMaxPerPage = 100
)

// Options carries the settings shared by the services.
type Options struct {
	BcryptCost int
	// DefaultLocation applies to users without a timezone.
	DefaultLocation *time.Location
	DefaultPerPage  int
	MaxPerPage      int
	// Now is the clock. Tests pin it.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.BcryptCost < bcrypt.MinCost || o.BcryptCost > bcrypt.MaxCost {
		o.BcryptCost = defaultBcryptCost
	}
	if o.DefaultLocation == nil {
		o.DefaultLocation = time.UTC
	}
	if o.DefaultPerPage <= 0 {
		o.DefaultPerPage = defaultPerPage
	}
	if o.MaxPerPage <= 0 {
		o.MaxPerPage = defaultMaxPerPage
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// RoundAverage rounds a mean mood level to one decimal place, half away from zero.
func RoundAverage(avg float64) float64 {
	return decimal.NewFromFloat(avg).Round(1).InexactFloat64()
}
