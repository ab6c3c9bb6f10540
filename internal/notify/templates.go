package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

const siteName = "SplitMate"

// WelcomeData holds data for the welcome email.
type WelcomeData struct {
	Name string
}

// BuildWelcomeEmail creates the welcome email sent after registration.
func BuildWelcomeEmail(to string, data WelcomeData) Email {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Welcome to %s, %s!\n\n", siteName, data.Name)
	text.WriteString("We're excited to have you on board for seamless expense splitting with your roommates.\n")
	text.WriteString("Get started by creating or joining a group to start tracking shared expenses.\n\n")
	fmt.Fprintf(&text, "Happy splitting!\nThe %s Team\n", siteName)

	return Email{
		To:       to,
		Subject:  fmt.Sprintf("Welcome to %s!", siteName),
		TextBody: text.String(),
		HTMLBody: render(welcomeHTML, struct {
			SiteName string
			WelcomeData
		}{siteName, data}),
	}
}

// ReminderData holds data for a payment reminder.
type ReminderData struct {
	Name         string
	ExpenseTitle string
	Amount       string
	GroupName    string
}

// BuildReminderEmail creates a pending payment reminder for one member.
func BuildReminderEmail(to string, data ReminderData) Email {
	var text bytes.Buffer
	fmt.Fprintf(&text, "Hi %s,\n\n", data.Name)
	text.WriteString("This is a friendly reminder about your pending payment for:\n")
	fmt.Fprintf(&text, "%s - %s\n\n", data.ExpenseTitle, data.Amount)
	text.WriteString("Please mark it as paid once you've completed the payment.\n")

	return Email{
		To:       to,
		Subject:  "Payment Reminder: " + data.ExpenseTitle,
		TextBody: text.String(),
		HTMLBody: render(reminderHTML, data),
	}
}

var (
	welcomeHTML = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #374151;">
  <h1>Welcome to {{.SiteName}}, {{.Name}}!</h1>
  <p>We're excited to have you on board for seamless expense splitting with your roommates.</p>
  <p>Get started by creating or joining a group to start tracking shared expenses.</p>
  <p>Happy splitting!</p>
  <p><strong>The {{.SiteName}} Team</strong></p>
</body>
</html>`))

	reminderHTML = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #374151;">
  <h1>Payment Reminder</h1>
  <p>Hi {{.Name}},</p>
  <p>This is a friendly reminder about your pending payment{{if .GroupName}} in {{.GroupName}}{{end}} for:</p>
  <h3>{{.ExpenseTitle}} - {{.Amount}}</h3>
  <p>Please mark it as paid once you've completed the payment.</p>
  <p>Thank you!</p>
</body>
</html>`))
)

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	_ = t.Execute(&buf, data)
	return buf.String()
}
