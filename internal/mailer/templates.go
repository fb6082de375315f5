package mailer

import "fmt"

// Message templates. Subjects and bodies are composed here so services only
// deal with the Sender interface.

func VerificationSubject() string { return "Verify Your Email - Campus iReport" }

func VerificationBody(baseURL, token string) string {
	link := fmt.Sprintf("%s/verify-email?token=%s", baseURL, token)
	return fmt.Sprintf(`<html><body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<div style="background-color: #f8fafc; padding: 20px; border-radius: 10px;">
<h1 style="color: #6366f1; text-align: center;">Welcome to Campus iReport!</h1>
<p>Thank you for registering. To complete your registration, please verify your email address:</p>
<div style="text-align: center; margin: 30px 0;">
<a href="%s" style="background-color: #6366f1; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Verify Email Address</a>
</div>
<p>If the button doesn't work, copy and paste this link into your browser:</p>
<p style="word-break: break-all; color: #6366f1;">%s</p>
<p>This verification link will expire in 24 hours.</p>
<hr style="margin: 30px 0; border: none; border-top: 1px solid #e2e8f0;">
<p style="color: #64748b; font-size: 14px;">If you didn't create an account, please ignore this email.</p>
</div></body></html>`, link, link)
}

func PasswordResetSubject() string { return "Reset Your Password - Campus iReport" }

func PasswordResetBody(baseURL, token string) string {
	link := fmt.Sprintf("%s/reset-password?token=%s", baseURL, token)
	return fmt.Sprintf(`<html><body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<div style="background-color: #f8fafc; padding: 20px; border-radius: 10px;">
<h1 style="color: #6366f1; text-align: center;">Password Reset Request</h1>
<p>You've requested to reset your password. Click the button below to set a new one:</p>
<div style="text-align: center; margin: 30px 0;">
<a href="%s" style="background-color: #ef4444; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Reset Password</a>
</div>
<p>If the button doesn't work, copy and paste this link into your browser:</p>
<p style="word-break: break-all; color: #6366f1;">%s</p>
<p>This reset link will expire in 1 hour.</p>
<hr style="margin: 30px 0; border: none; border-top: 1px solid #e2e8f0;">
<p style="color: #64748b; font-size: 14px;">If you didn't request a password reset, please ignore this email. Your password will remain unchanged.</p>
</div></body></html>`, link, link)
}

func IncidentUpdateSubject(title string) string {
	return fmt.Sprintf("Incident Update: %s", title)
}

// IncidentUpdateBody notifies a reporter that a moderator acted on their
// incident. The action string is human-readable ("resolved", "archived").
func IncidentUpdateBody(baseURL, title, action string) string {
	return fmt.Sprintf(`<html><body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<div style="background-color: #f8fafc; padding: 20px; border-radius: 10px;">
<h1 style="color: #6366f1; text-align: center;">Incident Update</h1>
<p>There's been an update on your incident report:</p>
<div style="background-color: white; padding: 15px; border-radius: 5px; margin: 20px 0;">
<h3 style="margin: 0; color: #1e293b;">&quot;%s&quot;</h3>
<p style="margin: 10px 0 0 0; color: #64748b;">Action: %s</p>
</div>
<p>Log in to Campus iReport to view the full details.</p>
<div style="text-align: center; margin: 30px 0;">
<a href="%s" style="background-color: #6366f1; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">View Details</a>
</div>
</div></body></html>`, title, action, baseURL)
}
