package domain

import (
	"strconv"
	"strings"
	"time"
)

// CardStatus is the lifecycle state of a virtual card.
type CardStatus string

const (
	CardStatusActive    CardStatus = "active"
	CardStatusBlocked   CardStatus = "blocked"
	CardStatusCancelled CardStatus = "cancelled"
)

var cardTransitions = map[CardStatus][]CardStatus{
	CardStatusActive:  {CardStatusBlocked, CardStatusCancelled},
	CardStatusBlocked: {CardStatusActive, CardStatusCancelled},
}

// CanTransitionTo reports whether the move from s to next is allowed.
func (s CardStatus) CanTransitionTo(next CardStatus) bool {
	for _, allowed := range cardTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

const (
	DefaultCardDailyLimit   int64 = 500000
	DefaultCardMonthlyLimit int64 = 5000000
	CardValidityYears             = 5
)

// Card is a virtual spend instrument with independent daily and monthly quotas.
type Card struct {
	ID           string
	OwnerUserID  string
	HolderName   string
	Number       string
	CVVHash      string
	Expiry       string
	Status       CardStatus
	DailyLimit   int64
	MonthlyLimit int64
	DailySpent   int64
	MonthlySpent int64
	PeriodAnchor time.Time
	BlockedAt    *time.Time
	CancelledAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidateLimits checks a daily/monthly limit pair.
func ValidateLimits(daily, monthly int64) error {
	if daily <= 0 || monthly <= 0 || daily > monthly {
		return ErrInvalidLimits
	}
	return nil
}

// Last4 returns the last four digits of the card number.
func (c *Card) Last4() string {
	if len(c.Number) < 4 {
		return c.Number
	}
	return c.Number[len(c.Number)-4:]
}

// MaskedNumber hides all but the last four digits.
func (c *Card) MaskedNumber() string {
	if len(c.Number) <= 4 {
		return c.Number
	}
	return strings.Repeat("*", len(c.Number)-4) + c.Last4()
}

// Block moves an active card to blocked. Blocking a blocked card is a no-op.
func (c *Card) Block(now time.Time) error {
	if c.Status == CardStatusBlocked {
		return nil
	}
	if !c.Status.CanTransitionTo(CardStatusBlocked) {
		return ErrInvalidCardTransition
	}
	c.Status = CardStatusBlocked
	c.BlockedAt = &now
	c.UpdatedAt = now
	return nil
}

// Unblock moves a blocked card back to active. Unblocking an active card is a no-op.
func (c *Card) Unblock(now time.Time) error {
	if c.Status == CardStatusActive {
		return nil
	}
	if !c.Status.CanTransitionTo(CardStatusActive) {
		return ErrInvalidCardTransition
	}
	c.Status = CardStatusActive
	c.BlockedAt = nil
	c.UpdatedAt = now
	return nil
}

// Cancel terminates the card.
func (c *Card) Cancel(now time.Time) error {
	if c.Status == CardStatusCancelled {
		return nil
	}
	if !c.Status.CanTransitionTo(CardStatusCancelled) {
		return ErrInvalidCardTransition
	}
	c.Status = CardStatusCancelled
	c.CancelledAt = &now
	c.UpdatedAt = now
	return nil
}

// SetLimits replaces both limits. Spent counters are kept.
func (c *Card) SetLimits(daily, monthly int64, now time.Time) error {
	if c.Status == CardStatusCancelled {
		return ErrCardNotActive
	}
	if err := ValidateLimits(daily, monthly); err != nil {
		return err
	}
	c.DailyLimit = daily
	c.MonthlyLimit = monthly
	c.UpdatedAt = now
	return nil
}

// Rollover lazily resets counters when now falls in a later day or month
// than PeriodAnchor. It reports whether anything was reset.
func (c *Card) Rollover(now time.Time) bool {
	today := truncateToDay(now)
	anchor := truncateToDay(c.PeriodAnchor)
	if !today.After(anchor) {
		return false
	}

	c.DailySpent = 0
	if today.Year() != anchor.Year() || today.Month() != anchor.Month() {
		c.MonthlySpent = 0
	}
	c.PeriodAnchor = today
	return true
}

// Authorize applies rollover, checks both quotas and, on success,
// increments both counters.
func (c *Card) Authorize(amount int64, now time.Time) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if c.Status != CardStatusActive {
		return ErrCardNotActive
	}

	c.Rollover(now)

	if amount > c.DailyLimit-c.DailySpent {
		return ErrDailyLimitExceeded
	}
	if amount > c.MonthlyLimit-c.MonthlySpent {
		return ErrMonthlyLimitExceeded
	}

	c.DailySpent += amount
	c.MonthlySpent += amount
	c.UpdatedAt = now
	return nil
}

// DailyRemaining is the amount still authorizable today, before rollover.
func (c *Card) DailyRemaining() int64 {
	return max(c.DailyLimit-c.DailySpent, 0)
}

// MonthlyRemaining is the amount still authorizable this month, before rollover.
func (c *Card) MonthlyRemaining() int64 {
	return max(c.MonthlyLimit-c.MonthlySpent, 0)
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// PeriodStart returns the UTC date used as the initial period anchor.
func PeriodStart(now time.Time) time.Time {
	return truncateToDay(now)
}

// ExpiryFrom formats the MM/YY expiry of a card issued at now.
func ExpiryFrom(now time.Time) string {
	return now.UTC().AddDate(CardValidityYears, 0, 0).Format("01/06")
}

// LuhnValid reports whether number passes the mod 10 check.
func LuhnValid(number string) bool {
	if number == "" {
		return false
	}
	sum := 0
	alternate := false
	for i := len(number) - 1; i >= 0; i-- {
		n, err := strconv.Atoi(string(number[i]))
		if err != nil {
			return false
		}
		if alternate {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		alternate = !alternate
	}
	return sum%10 == 0
}

// LuhnCheckDigit computes the digit that makes payload+digit Luhn-valid.
func LuhnCheckDigit(payload string) byte {
	sum := 0
	double := true
	for i := len(payload) - 1; i >= 0; i-- {
		n := int(payload[i] - '0')
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return byte('0' + (10-sum%10)%10)
}
