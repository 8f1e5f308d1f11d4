package services

import (
	"math"
	"time"

	"library/internal/models"
)

const (
	// LoanPeriodDays is how long a patron may keep a book before fees accrue.
	LoanPeriodDays = 14

	// BaseDailyFineRate applies to the first week overdue, in dollars per day.
	BaseDailyFineRate = 0.50

	// ExtendedDailyFineRate applies from the eighth day overdue onward.
	ExtendedDailyFineRate = 1.00

	// BaseRateDays is the length of the cheap-rate window.
	BaseRateDays = 7

	// MaxLateFee caps the fee on a single loan, in dollars.
	MaxLateFee = 15.00

	// MaxActiveLoans is the borrowing limit: a patron with this many active
	// loans is refused another.
	MaxActiveLoans = 5
)

// ComputeLateFee derives the overdue fee for a loan due at dueDate, as of
// asOf. Whole days only; due-today and not-yet-due both yield zero. The
// first week overdue accrues at BaseDailyFineRate, later days at
// ExtendedDailyFineRate, and the total is capped at MaxLateFee and rounded
// to cents.
//
// Pure: no clock, no I/O.
func ComputeLateFee(dueDate, asOf time.Time) models.FeeInfo {
	days := int(asOf.Sub(dueDate).Hours() / 24)
	if days < 0 {
		days = 0
	}

	var fee float64
	if days <= BaseRateDays {
		fee = float64(days) * BaseDailyFineRate
	} else {
		fee = BaseRateDays*BaseDailyFineRate + float64(days-BaseRateDays)*ExtendedDailyFineRate
	}
	if fee > MaxLateFee {
		fee = MaxLateFee
	}

	return models.FeeInfo{
		DaysOverdue: days,
		FeeAmount:   roundToCents(fee),
	}
}

func roundToCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
