package email

import (
	"fmt"
	"html"
	"strings"
)

// ReviewEventData carries what a review-cycle notice email needs.
type ReviewEventData struct {
	RecipientName string
	Email         string
	Title         string
	Body          string
	AppName       string
	BaseURL       string
}

// BuildReviewEventEmail renders a notice about a proof submission, review
// decision or task assignment.
func BuildReviewEventEmail(data ReviewEventData) Message {
	appName := data.AppName
	if appName == "" {
		appName = "Timesheet"
	}

	name := data.RecipientName
	if name == "" {
		name = "there"
	}

	subject := fmt.Sprintf("[%s] %s", appName, data.Title)

	link := ""
	if data.BaseURL != "" {
		link = strings.TrimRight(data.BaseURL, "/") + "/tasks"
	}

	textBody := fmt.Sprintf(`Hi %s,

%s

%s
%s
Thanks,
The %s Team`,
		name, data.Title, data.Body, textLink(link), appName)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #2563eb;">Hi %s,</h2>
    <p><strong>%s</strong></p>
    <p>%s</p>
    %s
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">Thanks,<br>The %s Team</p>
</body>
</html>`,
		html.EscapeString(name),
		html.EscapeString(data.Title),
		html.EscapeString(data.Body),
		htmlLink(link),
		html.EscapeString(appName))

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}

func textLink(link string) string {
	if link == "" {
		return ""
	}
	return "Open your tasks: " + link + "\n"
}

func htmlLink(link string) string {
	if link == "" {
		return ""
	}
	return fmt.Sprintf(`<p style="text-align: center; margin: 30px 0;">
        <a href="%s" style="background-color: #2563eb; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Open tasks</a>
    </p>`, html.EscapeString(link))
}
