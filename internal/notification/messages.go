package notification

import "fmt"

func AccountCreated(to, username string) Message {
	return Message{
		To:      to,
		Subject: "Your consultant account is awaiting approval",
		Body: fmt.Sprintf("Hello %s,\n\nYour consultant account has been created and is pending review by an administrator. "+
			"You will receive another message once it has been approved.\n", username),
	}
}

func AccountApproved(to, username, setupLink string) Message {
	return Message{
		To:      to,
		Subject: "Your consultant account has been approved",
		Body: fmt.Sprintf("Hello %s,\n\nYour account has been approved. Set your password within 24 hours using the link below:\n\n%s\n\n"+
			"If you did not expect this message you can ignore it.\n", username, setupLink),
	}
}

func AccountRejected(to, username, reason string) Message {
	return Message{
		To:      to,
		Subject: "Your consultant application was not approved",
		Body:    fmt.Sprintf("Hello %s,\n\nYour consultant application was not approved.\n\nReason: %s\n", username, reason),
	}
}

func PasswordSet(to, username string) Message {
	return Message{
		To:      to,
		Subject: "Your password has been set",
		Body: fmt.Sprintf("Hello %s,\n\nYour password was set successfully. You can now log in.\n"+
			"If this was not you, contact an administrator immediately.\n", username),
	}
}

func PasswordReset(to, username, link string) Message {
	return Message{
		To:      to,
		Subject: "Password setup link",
		Body: fmt.Sprintf("Hello %s,\n\nUse the link below to choose a new password. It expires in 24 hours:\n\n%s\n\n"+
			"If you did not ask for this you can ignore this message.\n", username, link),
	}
}
