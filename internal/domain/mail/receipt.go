package mail

import "github.com/shopspring/decimal"

// RegistrationReceipt carries the fields rendered into an event
// registration confirmation email.
type RegistrationReceipt struct {
	To             string
	EventName      string
	EventDate      string
	Amount         decimal.Decimal
	CardLastFour   string
	RegistrationID int64
}

// MembershipReceipt carries the fields rendered into a membership payment
// confirmation email.
type MembershipReceipt struct {
	To           string
	TierName     string
	SeasonYear   int
	Amount       decimal.Decimal
	CardLastFour string
}

// ReceiptMailer sends transactional receipt emails. Sends are best-effort:
// implementations log failures and report them as a false return, never as
// an error that could fail an already-completed payment.
type ReceiptMailer interface {
	SendRegistrationReceipt(r RegistrationReceipt) bool
	SendMembershipReceipt(r MembershipReceipt) bool
}
