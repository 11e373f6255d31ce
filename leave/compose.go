/*
compose.go - Notification composer

PURPOSE:
  Pure, stateless rendering of engine outcomes into audience-addressed
  plain-text messages. The connector delivers each message to its recipient;
  nothing here is sent speculatively - Compose only sees outcomes whose
  state-machine step has durably completed.

AUDIENCES:
  requester - the employee who submitted the request or query
  approver  - the designated approver for the request
  report    - whoever asked for the report
  ops       - operational channel, only for reconciliation failures
*/
package leave

import (
	"fmt"
	"strings"
)

// =============================================================================
// MESSAGES
// =============================================================================

type Audience string

const (
	AudienceRequester Audience = "requester"
	AudienceApprover  Audience = "approver"
	AudienceReport    Audience = "report"
	AudienceOps       Audience = "ops"
)

// Message is a rendered notification addressed to one recipient.
type Message struct {
	Audience    Audience
	RecipientID string
	Text        string
}

// Compose renders an outcome into the messages it implies. The ordering is
// stable: requester first, then approver, then report/ops.
func Compose(o Outcome) []Message {
	switch v := o.(type) {
	case Submitted:
		return composeSubmitted(v)
	case InsufficientBalance:
		return composeInsufficientBalance(v)
	case Approved:
		return composeApproved(v)
	case Declined:
		return composeDeclined(v)
	case AlreadyDecided:
		return composeAlreadyDecided(v)
	case BalanceSnapshot:
		return composeBalanceSnapshot(v)
	case Report:
		return composeReport(v, "")
	default:
		return nil
	}
}

// ComposeReportFor renders a report addressed to a specific recipient.
func ComposeReportFor(r Report, recipientID string) []Message {
	return composeReport(r, recipientID)
}

// =============================================================================
// PER-OUTCOME RENDERERS
// =============================================================================

func composeSubmitted(o Submitted) []Message {
	r := o.Request
	confirmation := fmt.Sprintf(
		"✅ Your leave request has been submitted to %s for approval.\n\n"+
			"*Details:*\n• Type: %s\n• Dates: %s to %s\n• Duration: %d business days",
		r.ApproverName, r.Category.DisplayName(), r.StartDate, r.EndDate, r.Days)

	reason := r.Reason
	if reason == "" {
		reason = "Not provided"
	}
	approval := fmt.Sprintf(
		"🏖️ New leave request from %s\n"+
			"*Employee:* %s\n*Leave Type:* %s\n*Start Date:* %s\n*End Date:* %s\n"+
			"*Duration:* %d business days\n*Reason:* %s",
		r.DisplayName, r.DisplayName, r.Category.DisplayName(),
		r.StartDate, r.EndDate, r.Days, reason)

	return []Message{
		{Audience: AudienceRequester, RecipientID: r.EmployeeID, Text: confirmation},
		{Audience: AudienceApprover, RecipientID: r.ApproverID, Text: approval},
	}
}

func composeInsufficientBalance(o InsufficientBalance) []Message {
	text := fmt.Sprintf(
		"❌ Insufficient leave balance. You have %s days of %s leave, but requested %d days.",
		o.Available, o.Category, o.Requested)
	return []Message{
		{Audience: AudienceRequester, RecipientID: o.EmployeeID, Text: text},
	}
}

func composeApproved(o Approved) []Message {
	r := o.Request
	employee := fmt.Sprintf(
		"🎉 Your leave request has been approved by %s!\n\n"+
			"*Dates:* %s to %s\n*Duration:* %d business days\n\nEnjoy your time off!",
		r.ApproverName, r.StartDate, r.EndDate, r.Days)
	approver := fmt.Sprintf("✅ Leave request #%d from %s approved.", r.ID, r.DisplayName)

	msgs := []Message{
		{Audience: AudienceRequester, RecipientID: r.EmployeeID, Text: employee},
		{Audience: AudienceApprover, RecipientID: r.ApproverID, Text: approver},
	}

	if o.Reconciliation != nil {
		msgs = append(msgs, Message{
			Audience: AudienceOps,
			Text: fmt.Sprintf(
				"🚨 Ledger reconciliation required: request #%d was approved but the debit of %d %s days for %s failed. "+
					"The request remains approved; correct the ledger manually. Cause: %v",
				o.Reconciliation.RequestID, o.Reconciliation.Days,
				o.Reconciliation.Category, o.Reconciliation.EmployeeID,
				o.Reconciliation.Cause),
		})
	}
	return msgs
}

func composeDeclined(o Declined) []Message {
	r := o.Request
	employee := fmt.Sprintf(
		"Your leave request has been declined by %s.\n\n"+
			"*Dates:* %s to %s\n*Duration:* %d business days\n\n"+
			"Please contact your manager for more information.",
		r.ApproverName, r.StartDate, r.EndDate, r.Days)
	approver := fmt.Sprintf("❌ Leave request #%d from %s declined.", r.ID, r.DisplayName)

	return []Message{
		{Audience: AudienceRequester, RecipientID: r.EmployeeID, Text: employee},
		{Audience: AudienceApprover, RecipientID: r.ApproverID, Text: approver},
	}
}

func composeAlreadyDecided(o AlreadyDecided) []Message {
	r := o.Request
	return []Message{
		{
			Audience:    AudienceApprover,
			RecipientID: r.ApproverID,
			Text:        fmt.Sprintf("Leave request #%d was already %s. No changes were made.", r.ID, r.Status),
		},
	}
}

func composeBalanceSnapshot(o BalanceSnapshot) []Message {
	b := o.Balance
	var sb strings.Builder
	sb.WriteString("📊 Your Leave Balance\n")
	for _, c := range Categories {
		fmt.Fprintf(&sb, "• %s: %s days\n", c.DisplayName(), b.Available(c))
	}
	return []Message{
		{Audience: AudienceRequester, RecipientID: b.EmployeeID, Text: strings.TrimRight(sb.String(), "\n")},
	}
}

func composeReport(o Report, recipientID string) []Message {
	if len(o.Requests) == 0 {
		return []Message{
			{Audience: AudienceReport, RecipientID: recipientID, Text: "No leave requests found in the system."},
		}
	}

	var sb strings.Builder
	sb.WriteString("*Recent Leave Requests:*\n\n")
	for _, r := range o.Requests {
		fmt.Fprintf(&sb, "%s *%s* - %s\n   %s to %s (%d days) - Status: %s\n\n",
			statusEmoji(r.Status), r.DisplayName, r.Category.DisplayName(),
			r.StartDate, r.EndDate, r.Days, titleCase(string(r.Status)))
	}
	return []Message{
		{Audience: AudienceReport, RecipientID: recipientID, Text: strings.TrimRight(sb.String(), "\n")},
	}
}

func statusEmoji(s Status) string {
	switch s {
	case StatusPending:
		return "⏳"
	case StatusApproved:
		return "✅"
	case StatusDeclined:
		return "❌"
	default:
		return "❓"
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
