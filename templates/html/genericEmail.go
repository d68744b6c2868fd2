package templates

import (
	"fmt"
	"html"
	"strings"
)

// RenderGenericEmail generates branded HTML for a generic email.
// The subject is displayed in the header banner, and bodyContent is plain text
// that gets HTML-escaped and has newlines converted to <br> tags.
func RenderGenericEmail(subject, bodyContent string) string {
	escaped := html.EscapeString(bodyContent)
	htmlBody := strings.ReplaceAll(escaped, "\n", "<br>")

	safeSubject := html.EscapeString(subject)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #0a0a0f; }
    .container { max-width: 600px; margin: 0 auto; background-color: #12121f; }
    .header { background: linear-gradient(135deg, #14b8a6 0%%, #0f766e 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #e5e7eb; line-height: 1.6; font-size: 15px; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid rgba(255,255,255,0.1); }
    .footer a { color: #14b8a6; text-decoration: none; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      %s
    </div>
    <div class="footer">
      <p>&copy; TruthLens | <a href="https://www.truthlens.app">truthlens.app</a></p>
      <p><a href="https://www.truthlens.app/support">Contact Support</a></p>
    </div>
  </div>
</body>
</html>`, safeSubject, safeSubject, htmlBody)
}

// RenderAccessApprovedEmail is sent when an admin approves an access request
func RenderAccessApprovedEmail(name string, tier string, expiresAt string) string {
	body := fmt.Sprintf("Hi %s,\n\nYour access request has been approved. "+
		"Your account is now on the %s tier until %s.\n\n"+
		"Open the app and start scanning.", name, tier, expiresAt)
	return RenderGenericEmail("Your TruthLens access was approved", body)
}

// RenderAccessDeniedEmail is sent when an admin denies an access request
func RenderAccessDeniedEmail(name string, reason string) string {
	body := fmt.Sprintf("Hi %s,\n\nUnfortunately we could not approve your access request.\n\n"+
		"Reason: %s\n\n"+
		"You can submit a new request at any time.", name, reason)
	return RenderGenericEmail("About your TruthLens access request", body)
}

// RenderAccessExpiredEmail is sent when a granted access period runs out
func RenderAccessExpiredEmail(name string, tier string) string {
	body := fmt.Sprintf("Hi %s,\n\nYour %s access period has ended and your account "+
		"has returned to the free tier.\n\n"+
		"You can subscribe or redeem a new code to restore your benefits.", name, tier)
	return RenderGenericEmail("Your TruthLens access has expired", body)
}
