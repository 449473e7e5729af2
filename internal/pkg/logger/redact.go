package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactRecipient masks a recipient identifier. Recipient values on pixel
// URLs are usually email addresses but may be arbitrary opaque strings;
// non-email values keep only their first two characters.
func RedactRecipient(recipient string) string {
	if strings.Count(recipient, "@") == 1 {
		return RedactEmail(recipient)
	}
	r := []rune(recipient)
	if len(r) > 2 {
		return string(r[:2]) + "***"
	}
	return "***"
}
