package domain

import "time"

// VerificationStatus is the outcome of the external identity check.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationInReview VerificationStatus = "in_review"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// Statuses only move forward, except a rejected user may resubmit.
var verificationTransitions = map[VerificationStatus][]VerificationStatus{
	VerificationPending:  {VerificationInReview, VerificationApproved, VerificationRejected},
	VerificationInReview: {VerificationApproved, VerificationRejected},
	VerificationRejected: {VerificationInReview},
}

// ParseVerificationStatus parses a status string.
func ParseVerificationStatus(s string) (VerificationStatus, error) {
	switch status := VerificationStatus(s); status {
	case VerificationPending, VerificationInReview, VerificationApproved, VerificationRejected:
		return status, nil
	}
	return "", ErrInvalidStatus
}

// CanTransitionTo reports whether the move from s to next is allowed.
func (s VerificationStatus) CanTransitionTo(next VerificationStatus) bool {
	for _, allowed := range verificationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// VerificationRecord holds a user's verification status.
type VerificationRecord struct {
	UserID     string
	Status     VerificationStatus
	Notes      string
	ReviewerID string
	UpdatedAt  time.Time
}

// NewVerificationRecord returns the implicit record of a user never reviewed.
func NewVerificationRecord(userID string) *VerificationRecord {
	return &VerificationRecord{UserID: userID, Status: VerificationPending}
}

// Transition moves the record to next. Repeating the current status is a no-op
// and reports false.
func (r *VerificationRecord) Transition(next VerificationStatus, reviewerID, notes string, now time.Time) (bool, error) {
	if r.Status == next {
		return false, nil
	}
	if !r.Status.CanTransitionTo(next) {
		return false, ErrInvalidStatusTransition
	}
	r.Status = next
	r.ReviewerID = reviewerID
	r.Notes = notes
	r.UpdatedAt = now
	return true, nil
}
