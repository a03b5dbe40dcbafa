package email

import "fmt"

// ActivationMessage builds the account activation email. rawToken is the
// one-time value; it appears only in this message. Like the reset mail,
// the link points at a frontend route, not the API.
func ActivationMessage(to, baseURL, rawToken string) Message {
	url := fmt.Sprintf("%s/register/activate/%s", baseURL, rawToken)
	return Message{
		To:      to,
		Subject: "Account activation",
		Text: "Welcome to BudgetApp!\n\n" +
			"Please activate your account by visiting the link below:\n\n" +
			url + "\n",
		HTML: "<p>Welcome to BudgetApp!</p>" +
			"<p>Please activate your account by clicking the link below:</p>" +
			fmt.Sprintf(`<p><a href="%s">Activate account</a></p>`, url),
	}
}

// PasswordResetMessage builds the password reset email.
func PasswordResetMessage(to, baseURL, rawToken string) Message {
	url := fmt.Sprintf("%s/password/reset/%s", baseURL, rawToken)
	return Message{
		To:      to,
		Subject: "Password reset",
		Text: "Someone requested a password reset for your BudgetApp account.\n\n" +
			"If this was you, visit the link below within 2 hours:\n\n" +
			url + "\n\n" +
			"If you did not request a reset, you can ignore this email.\n",
		HTML: "<p>Someone requested a password reset for your BudgetApp account.</p>" +
			"<p>If this was you, click the link below within 2 hours:</p>" +
			fmt.Sprintf(`<p><a href="%s">Reset password</a></p>`, url) +
			"<p>If you did not request a reset, you can ignore this email.</p>",
	}
}
