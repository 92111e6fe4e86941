// Package emails delivers invitation notifications. Delivery failures are the
// caller's problem to log, never to roll back on: an invitation exists whether
// or not the email made it out, and can always be resent.
package emails

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"time"
)

// Sender sends the invitation email. Nil-safe no-op implementations are used
// when no provider is configured.
type Sender interface {
	SendInvite(ctx context.Context, toEmail, rawToken, role string, expiresAt time.Time) error
}

// InviteLink builds the account-setup URL embedded in the email.
func InviteLink(baseURL, rawToken string) string {
	return fmt.Sprintf("%s/invite/accept?token=%s", baseURL, url.QueryEscape(rawToken))
}

// EscapeHTML escapes a string for safe interpolation into email HTML.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

func invitationContent(inviteLink, role string, expiresAt time.Time) string {
	return fmt.Sprintf(`
    <h1>You've Been Invited to Wayfarer</h1>
    <p>You have been invited to join the <strong>Wayfarer</strong> travel-guide team as a <strong>%s</strong>.</p>
    <p>Click the button below to set up your account:</p>
    <center>
      <a href="%s" class="wf-button">Accept Invitation</a>
    </center>
    <p style="margin-top:20px;font-size:14px;color:#666;">
      This invitation link will expire on %s. If you were not expecting this invitation, you can safely ignore this email.
    </p>
    <p>&mdash; The Wayfarer Team</p>
`, EscapeHTML(role), inviteLink, expiresAt.UTC().Format("Jan 2, 2006"))
}
