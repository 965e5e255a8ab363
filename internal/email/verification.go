package email

import "fmt"

// VerificationBody renders the HTML body of the address verification mail.
// The link lands on the frontend, which posts the token back to the API.
func VerificationBody(username, verificationLink string) string {
	return fmt.Sprintf(`
	<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
		<h2>Welcome, %s!</h2>
		<p>Thanks for signing up. Please confirm your email address by clicking the button below:</p>
		<div style="text-align: center; margin: 30px 0;">
			<a href="%s"
			   style="background-color: #4CAF50; color: white; padding: 15px 30px;
			          text-decoration: none; border-radius: 5px; font-size: 16px;">
				Verify Email
			</a>
		</div>
	</div>`, username, verificationLink)
}
