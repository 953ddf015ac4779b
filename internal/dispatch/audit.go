package dispatch

import (
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/THA011/Telegram-whatsApp-Chat-agents/internal/utils"
)

const deliveryFailureEmailHTML = `<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { padding: 20px; max-width: 600px; margin: auto; border: 1px solid #ddd; border-radius: 5px; }
.header { font-size: 24px; font-weight: bold; color: #d9534f; }
.data-label { font-weight: bold; }
ul { list-style-type: none; padding: 0; }
li { margin-bottom: 10px; }
</style>
</head>
<body>
<div class="container">
<p class="header">Outbound Delivery Failure</p>
<p>A message could not be delivered after all retry attempts. Please investigate.</p>
<ul>
  <li><span class="data-label">Task ID:</span> %s</li>
  <li><span class="data-label">User ID:</span> %s</li>
  <li><span class="data-label">Channel:</span> %s</li>
  <li><span class="data-label">Attempts:</span> %d</li>
  <li><span class="data-label">Last error:</span> %s</li>
  <li><span class="data-label">Enqueued at:</span> %s</li>
</ul>
</div>
</body>
</html>`

// LogAuditor records terminal failures on the service log. Payloads
// are deliberately omitted; they may contain one-time codes.
type LogAuditor struct{}

func (LogAuditor) DeliveryFailed(task *Task, err error) {
	utils.Logger.WithError(err).Errorf(
		"Delivery task %s for user %s via %s failed permanently after %d attempt(s)",
		task.ID, task.UserID, task.Channel, task.Attempts,
	)
}

// EmailAuditor additionally alerts an internal address via SendGrid.
type EmailAuditor struct {
	client    *sendgrid.Client
	fromEmail string
	toEmail   string
	orgName   string
}

func NewEmailAuditor(apiKey, fromEmail, toEmail, orgName string) *EmailAuditor {
	return &EmailAuditor{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		toEmail:   toEmail,
		orgName:   orgName,
	}
}

func (a *EmailAuditor) DeliveryFailed(task *Task, err error) {
	LogAuditor{}.DeliveryFailed(task, err)

	reason := "unknown"
	if err != nil {
		reason = err.Error()
	}

	from := mail.NewEmail(a.orgName, a.fromEmail)
	to := mail.NewEmail("", a.toEmail)
	subject := a.orgName + " - Outbound delivery failure"
	plain := fmt.Sprintf(
		"Delivery task %s (user %s, channel %s) failed after %d attempt(s): %s",
		task.ID, task.UserID, task.Channel, task.Attempts, reason,
	)
	html := fmt.Sprintf(deliveryFailureEmailHTML,
		task.ID, task.UserID, task.Channel, task.Attempts, reason,
		task.EnqueuedAt.Format(time.RFC3339),
	)
	message := mail.NewSingleEmail(from, subject, to, plain, html)

	if _, sendErr := a.client.Send(message); sendErr != nil {
		utils.Logger.WithError(sendErr).Error("Failed to send delivery-failure alert email via SendGrid")
	}
}
