package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailService defines the interface for sending program emails
type EmailService interface {
	SendResetLinkEmail(ctx context.Context, email, token string, expiresAt time.Time) error
	SendApplicationApprovedEmail(ctx context.Context, email, teamName, profileName, resetToken string) error
	SendApplicationRejectedEmail(ctx context.Context, email, teamName, note string) error
	SendStageChangedEmail(ctx context.Context, email, teamName, fromStage, toStage string) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	baseURL     string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress, baseURL string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		baseURL:     baseURL,
		logger:      logger,
	}, nil
}

// SendResetLinkEmail sends a password reset link. The mail never carries
// a password, only the tokenized link; the recipient picks their own
// password on the landing page.
func (s *AWSSESEmailService) SendResetLinkEmail(ctx context.Context, email, token string, expiresAt time.Time) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	minutes := int(time.Until(expiresAt).Round(time.Minute).Minutes())

	textBody := fmt.Sprintf(`Reset Your Password

A password reset was requested for your account. Click the link below to choose a new password:

%s

This link can be used once and expires in %d minutes.

Didn't request this?
If you didn't ask for a password reset, you can ignore this email. Your password will not change.

This is an automated message. Please do not reply to this email.
`, resetLink, minutes)

	return s.send(ctx, email, "Reset your password", textBody)
}

// SendApplicationApprovedEmail welcomes an approved team and hands them
// the link where they set their project account password.
func (s *AWSSESEmailService) SendApplicationApprovedEmail(ctx context.Context, email, teamName, profileName, resetToken string) error {
	setupLink := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, resetToken)

	textBody := fmt.Sprintf(`Welcome to the Program

Congratulations %s, your application has been approved!

Your project profile name is: %s

Set your account password using the link below to start tracking your progress:

%s

This link can be used once. If it expires before you use it, an administrator can issue a new one.

This is an automated message. Please do not reply to this email.
`, teamName, profileName, setupLink)

	return s.send(ctx, email, "Your application has been approved", textBody)
}

// SendApplicationRejectedEmail notifies a team their application was
// not accepted. The note is the reviewer's optional explanation.
func (s *AWSSESEmailService) SendApplicationRejectedEmail(ctx context.Context, email, teamName, note string) error {
	body := fmt.Sprintf(`Application Update

Hello %s,

Thank you for applying. After review, your application was not accepted this time.
`, teamName)

	if note != "" {
		body += fmt.Sprintf("\nReviewer note: %s\n", note)
	}

	body += "\nYou are welcome to apply again in a future intake.\n\nThis is an automated message. Please do not reply to this email.\n"

	return s.send(ctx, email, "Your application status", body)
}

// SendStageChangedEmail tells a team their project moved to a new stage.
func (s *AWSSESEmailService) SendStageChangedEmail(ctx context.Context, email, teamName, fromStage, toStage string) error {
	textBody := fmt.Sprintf(`Stage Update

Hello %s,

Your project moved from the %s stage to the %s stage.

Log in to see your current standing and any mentor feedback.

This is an automated message. Please do not reply to this email.
`, teamName, fromStage, toStage)

	return s.send(ctx, email, "Your project changed stage", textBody)
}

func (s *AWSSESEmailService) send(ctx context.Context, email, subject, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send email via SES",
			slog.String("subject", subject),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("subject", subject),
		slog.String("message_id", *result.MessageId))

	return nil
}
