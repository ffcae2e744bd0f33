package utils

import (
	"context"
	"fmt"
	"time"

	"userfinderapi/pkg/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/redis/go-redis/v9"
)

type EmailStatus struct {
	Sent     bool    `json:"sent"`
	Cooldown float64 `json:"cooldown"`
}

func SendVerificationCodeEmail(sesCli *ses.Client, redisCli *redis.Client, ctx context.Context, to string, code string) (*EmailStatus, error) {

	html := fmt.Sprintf(`
		<!DOCTYPE html>
		<html lang="en">
		<head>
			<meta charset="UTF-8" />
		</head>
		<body style="margin: 0; padding: 0; background-color: #18181b; font-family: sans-serif;">
			<table width="100%%" cellspacing="0" cellpadding="0">
				<tr>
					<td align="center" style="padding: 40px 20px;">
						<table width="600" style="background-color: #27272a; border-radius: 8px;">
							<tr>
								<td valign="top" style="padding: 32px;">
									<div style="color: #FFF; font-size: 24px; font-weight: bold;">Verify your email</div>
									<div style="padding-top: 12px; font-size: 16px; color: #FFF;">
										Enter this code to finish setting up your UserFinder account.
									</div>
									<div style="padding-top: 24px; font-size: 32px; letter-spacing: 8px; color: #FFF; font-weight: bold;">
										%s
									</div>
									<div style="font-size: 12px; color: #FFF; padding-top: 24px;">© 2026 UserFinder</div>
								</td>
							</tr>
						</table>
					</td>
				</tr>
			</table>
		</body>
		</html>`, code)

	return sendEmail(sesCli, redisCli, ctx, "verify", to, "Your verification code", html)

}

func sendEmail(sesCli *ses.Client, redisCli *redis.Client, ctx context.Context, kind string, to string, subject string, html string) (*EmailStatus, error) {

	// per-recipient cooldown, rate limiting only
	cooldownKey := fmt.Sprintf("email:%s:cooldown:%s", kind, to)

	ttl, err := redisCli.TTL(ctx, cooldownKey).Result()
	if err != nil {
		return nil, fmt.Errorf("in sendEmail: %w", err)
	}
	if ttl > 0 {
		return &EmailStatus{
			Sent:     false,
			Cooldown: ttl.Seconds(),
		}, nil
	}

	cooldown := time.Minute * 2
	if err := redisCli.Set(ctx, cooldownKey, "1", cooldown).Err(); err != nil {
		return nil, fmt.Errorf("in sendEmail: %w", err)
	}

	emailInput := &ses.SendEmailInput{
		Source: aws.String(config.EMAIL_SENDER),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(html)},
			},
		},
	}

	if _, err := sesCli.SendEmail(ctx, emailInput); err != nil {
		return nil, fmt.Errorf("in sendEmail: %w", err)
	}

	return &EmailStatus{
		Sent:     true,
		Cooldown: cooldown.Seconds(),
	}, nil

}
