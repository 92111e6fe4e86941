package emails

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"
)

// SESClient sends invitation emails via Amazon SES v2. Used instead of Brevo
// when EMAIL_PROVIDER=ses. Disabled (no-op) when MailFrom is empty.
type SESClient struct {
	client        *sesv2.Client
	mailFrom      string
	inviteBaseURL string
	enabled       bool
}

// NewSESClient loads the default AWS config for the region and builds the client.
func NewSESClient(ctx context.Context, region, mailFrom, inviteBaseURL string) (*SESClient, error) {
	if mailFrom == "" {
		log.Info().Msg("SES sender disabled: MAIL_FROM not configured")
		return &SESClient{enabled: false}, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &SESClient{
		client:        sesv2.NewFromConfig(cfg),
		mailFrom:      mailFrom,
		inviteBaseURL: inviteBaseURL,
		enabled:       true,
	}, nil
}

// SendInvite sends the invitation email with the account-setup link.
func (c *SESClient) SendInvite(ctx context.Context, toEmail, rawToken, role string, expiresAt time.Time) error {
	if !c.enabled {
		return nil
	}
	link := InviteLink(c.inviteBaseURL, rawToken)
	htmlBody := EmailLayout(invitationContent(link, role, expiresAt))
	textBody := fmt.Sprintf(`You have been invited to join the Wayfarer travel-guide team as a %s.

Set up your account:
%s

This invitation link will expire on %s. If you were not expecting this
invitation, you can safely ignore this email.
`, role, link, expiresAt.UTC().Format("Jan 2, 2006"))

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("Wayfarer <%s>", c.mailFrom)),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String("You have been invited to Wayfarer"),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if _, err := c.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send to %s: %w", toEmail, err)
	}
	return nil
}
