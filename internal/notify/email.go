package notify

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"
)

const companyName = "Bike Rental"

// Common header template for all emails
const emailHeader = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<div style="text-align: center; margin-bottom: 30px; background-color: #f9f9f9; padding: 20px;">
			<h2 style="color: #4CAF50; margin: 0;">Bike Rental</h2>
		</div>
`

// Common footer template for all emails
const emailFooter = `
		<div style="text-align: center; margin-top: 20px; font-size: 12px; color: #666; border-top: 1px solid #eee; padding-top: 20px;">
			<p>This is an automated message, please do not reply to this email.</p>
			<p>Best regards,<br>The Bike Rental Team</p>
		</div>
	</div>
</body>
</html>
`

// Mailer sends notification emails over SMTP.
type Mailer struct {
	from     string
	password string
	host     string
	port     string
}

// NewMailerFromEnv builds a Mailer from EMAIL_FROM/EMAIL_PASSWORD/SMTP_HOST/SMTP_PORT.
func NewMailerFromEnv() *Mailer {
	return &Mailer{
		from:     os.Getenv("EMAIL_FROM"),
		password: os.Getenv("EMAIL_PASSWORD"),
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
	}
}

func (m *Mailer) send(to []string, subject, body string) error {
	if m.from == "" || m.password == "" || m.host == "" || m.port == "" {
		return fmt.Errorf("email configuration not set")
	}

	// Headers
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", companyName, m.from)
	headers["To"] = strings.Join(to, ",")
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	message := ""
	for key, value := range headers {
		message += fmt.Sprintf("%s: %s\r\n", key, value)
	}
	message += "\r\n" + body

	auth := smtp.PlainAuth("", m.from, m.password, m.host)
	return smtp.SendMail(m.host+":"+m.port, auth, m.from, to, []byte(message))
}

// Send renders the template for the event kind and delivers it.
func (m *Mailer) Send(event Event) error {
	if event.RecipientEmail == "" {
		return fmt.Errorf("no recipient email for %s", event.Kind)
	}
	subject, body := renderEmail(event)
	return m.send([]string{event.RecipientEmail}, subject, body)
}

func renderEmail(event Event) (subject, body string) {
	var title, text string

	switch event.Kind {
	case EventRentalRequestCreated:
		subject = fmt.Sprintf("New Rental Request - %s", event.BikeLabel)
		title = "New Rental Request"
		text = fmt.Sprintf(
			"<p>Hello %s,</p><p><strong>%s</strong> wants to rent your <strong>%s</strong> from %s to %s.</p><p>Message: %s</p><p>Please log in to your account to approve or reject this request.</p>",
			event.RecipientName, event.ActorName, event.BikeLabel, event.StartDate, event.EndDate, event.Message)

	case EventRentalRequestApproved:
		subject = "Your Rental Request was Approved!"
		title = "Rental Request Approved"
		text = fmt.Sprintf(
			"<p>Hello %s,</p><p>Great news! Your request to rent <strong>%s</strong> from %s to %s has been approved by %s.</p><p>Total price: <strong>%s</strong></p><p>Owner contact: %s</p>",
			event.RecipientName, event.BikeLabel, event.StartDate, event.EndDate, event.ActorName, event.Price, event.Contact)

	case EventRentalRequestRejected:
		subject = "Update on Your Rental Request"
		title = "Rental Request Rejected"
		text = fmt.Sprintf(
			"<p>Hello %s,</p><p>Unfortunately, your request to rent <strong>%s</strong> was not approved.</p><p>You can continue browsing other available bikes on our platform.</p>",
			event.RecipientName, event.BikeLabel)

	case EventPurchaseRequestCreated:
		subject = fmt.Sprintf("New Purchase Request - %s", event.BikeLabel)
		title = "New Purchase Request"
		text = fmt.Sprintf(
			"<p>Hello %s,</p><p><strong>%s</strong> wants to buy your <strong>%s</strong>.</p><p>Buyer contact: %s</p><p>Message: %s</p><p>Review this request in your dashboard.</p>",
			event.RecipientName, event.ActorName, event.BikeLabel, event.Contact, event.Message)

	case EventPurchaseAccepted:
		subject = fmt.Sprintf("Purchase Request Accepted - %s", event.BikeLabel)
		title = "Purchase Request Accepted"
		text = fmt.Sprintf(
			"<p>Hello %s,</p><p>The purchase of <strong>%s</strong> for <strong>%s</strong> has been agreed with %s.</p><p>Contact: %s</p><p>Please arrange the payment and pickup directly.</p>",
			event.RecipientName, event.BikeLabel, event.Price, event.ActorName, event.Contact)

	case EventPurchaseRejected:
		subject = fmt.Sprintf("Purchase Request Rejected - %s", event.BikeLabel)
		title = "Purchase Request Rejected"
		text = fmt.Sprintf(
			"<p>Hello %s,</p><p>Unfortunately, your purchase request for <strong>%s</strong> was not accepted.</p><p>You can continue browsing other available bikes on our platform.</p>",
			event.RecipientName, event.BikeLabel)

	case EventPurchaseAutoRejected:
		subject = fmt.Sprintf("Purchase Request Rejected - %s", event.BikeLabel)
		title = "Purchase Request Rejected"
		text = fmt.Sprintf(
			"<p>Hello %s,</p><p>Unfortunately, your purchase request for <strong>%s</strong> was not accepted as the bike has been sold to another buyer.</p><p>You can continue browsing other available bikes on our platform.</p>",
			event.RecipientName, event.BikeLabel)

	default:
		subject = fmt.Sprintf("Update from %s", companyName)
		title = "Account Update"
		text = fmt.Sprintf("<p>Hello %s,</p><p>There is an update on one of your listings or requests.</p>", event.RecipientName)
	}

	body = fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">%s</h1>
					%s
				</div>`+emailFooter, title, text)
	return subject, body
}
