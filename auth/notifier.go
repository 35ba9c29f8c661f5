package auth

import "context"

// DeliveryResult reports the outcome of one outbound email. Delivery
// failures are never request failures; the orchestrator logs them and
// forwards the result in the response payload.
type DeliveryResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Notifier is the outbound email collaborator. Implementations must not be
// called while a database transaction is open.
type Notifier interface {
	SendVerification(ctx context.Context, email, firstName, otpCode string) DeliveryResult
	SendWelcome(ctx context.Context, user *User) DeliveryResult
}

// NoopNotifier drops every notification. Used in development when SMTP
// credentials are not configured.
type NoopNotifier struct {
	Logger Logger
}

func (n NoopNotifier) SendVerification(ctx context.Context, email, firstName, otpCode string) DeliveryResult {
	if n.Logger != nil {
		n.Logger.Info("notifier disabled, dropping verification email", "email", email)
	}
	return DeliveryResult{Success: true, Message: "notifier disabled"}
}

func (n NoopNotifier) SendWelcome(ctx context.Context, user *User) DeliveryResult {
	if n.Logger != nil {
		n.Logger.Info("notifier disabled, dropping welcome email", "email", user.Email)
	}
	return DeliveryResult{Success: true, Message: "notifier disabled"}
}
