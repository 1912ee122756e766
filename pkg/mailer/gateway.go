package mailer

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/shopsphere/accounts/pkg/helpers"
)

// TemplateKind identifies one of the notification templates.
type TemplateKind string

const (
	TemplateVerify     TemplateKind = "verify_email"
	TemplateResetUser  TemplateKind = "reset_password"
	TemplateResetAdmin TemplateKind = "reset_password_admin"
	TemplateWelcome    TemplateKind = "welcome"
)

// Gateway dispatches account notifications. Implementations report dispatch
// failure to the caller; retries are the operator's concern, never implicit.
type Gateway interface {
	Send(ctx context.Context, to string, kind TemplateKind, data map[string]any) error
}

// QueueGateway hands notifications to the email worker through RabbitMQ.
// When sending is disabled the publish is skipped and reported as success,
// so local environments run without a broker-backed mail pipeline.
type QueueGateway struct {
	Pub     *helpers.RabbitPublisher
	Logger  *logrus.Logger
	Enabled bool
}

func NewQueueGateway(pub *helpers.RabbitPublisher, logger *logrus.Logger, enabled bool) *QueueGateway {
	return &QueueGateway{Pub: pub, Logger: logger, Enabled: enabled}
}

func (g *QueueGateway) Send(ctx context.Context, to string, kind TemplateKind, data map[string]any) error {
	if !g.Enabled || g.Pub == nil {
		if g.Logger != nil {
			g.Logger.WithFields(logrus.Fields{"to": to, "template": string(kind)}).Debug("mail sending disabled, skipping dispatch")
		}
		return nil
	}
	job := EmailJob{To: to, Template: string(kind), Data: data}
	if err := g.Pub.PublishJSON(ctx, job); err != nil {
		if g.Logger != nil {
			g.Logger.WithError(err).WithFields(logrus.Fields{"to": to, "template": string(kind)}).Error("email job publish failed")
		}
		return err
	}
	return nil
}

var _ Gateway = (*QueueGateway)(nil)
