// Package report composes the account statement delivered to chat channels.
package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Statement carries everything one run learned about an account. Optional
// fields are empty strings or nil pointers; Compose omits their sections.
type Statement struct {
	// CustomerName is empty when the identity fetch failed or the API
	// returned no name.
	CustomerName string
	Balance      decimal.Decimal
	// ReadingTime is the raw upstream reading timestamp.
	ReadingTime string
	// RechargeAmount and RechargeDate describe the most recent top-up.
	// The recharge block is only rendered when both are present.
	RechargeAmount *decimal.Decimal
	RechargeDate   string
	// LowBalanceBelow is the warning threshold; balances strictly below it
	// get a recharge reminder.
	LowBalanceBelow decimal.Decimal
}

// Compose renders the statement as a Markdown message. It is deterministic
// and has no side effects.
func Compose(s Statement) string {
	var b strings.Builder
	b.WriteString("📊 *DESCO Prepaid Electricity Account Statement*\n\n")

	if s.CustomerName != "" {
		fmt.Fprintf(&b, "Dear *%s*,\n\n", s.CustomerName)
	} else {
		b.WriteString("Dear Valued Customer,\n\n")
	}

	fmt.Fprintf(&b, "Your current account balance is: *৳%s*\n", s.Balance)

	if s.ReadingTime != "" {
		fmt.Fprintf(&b, "Last Reading Date: %s\n", s.ReadingTime)
	}

	if s.RechargeAmount != nil && s.RechargeDate != "" {
		b.WriteString("\n💳 *Last Recharge:*\n")
		fmt.Fprintf(&b, "Amount: ৳%s\n", s.RechargeAmount)
		fmt.Fprintf(&b, "Date: %s\n", s.RechargeDate)
	}

	if s.Balance.LessThan(s.LowBalanceBelow) {
		b.WriteString("\n⚠️ _Please recharge your account to ensure uninterrupted service._\n\n")
	} else {
		b.WriteString("\n")
	}

	return b.String()
}
