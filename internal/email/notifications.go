package email

import (
	"fmt"
	"strings"

	"salespilot/internal/config"
	"salespilot/internal/models"
)

// Notifier raises operator notifications for classification events.
type Notifier struct {
	service    *Service
	recipients []string
}

// NewNotifier creates a notifier over a freshly configured email service.
// Recipients come from the NOTIFY_EMAILS setting.
func NewNotifier(cfg *config.Config) *Notifier {
	var recipients []string
	for _, addr := range strings.Split(cfg.NotifyEmails, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	return &Notifier{
		service:    NewService(cfg),
		recipients: recipients,
	}
}

// NotifyHotLead alerts operators that a lead just moved to a qualified
// stage. Delivery is asynchronous; a lost email never blocks or fails the
// classification pass.
func (n *Notifier) NotifyHotLead(tenant *models.Tenant, lead *models.Lead, reason string) {
	if !n.service.IsEnabled() || len(n.recipients) == 0 {
		return
	}

	subject := fmt.Sprintf("Lead caliente: %s", lead.Phone)

	var body strings.Builder
	body.WriteString("Un lead fue clasificado como caliente.\n\n")
	fmt.Fprintf(&body, "Cuenta: %s\n", tenant.Name)
	fmt.Fprintf(&body, "Teléfono: %s\n", lead.Phone)
	if lead.Name != "" {
		fmt.Fprintf(&body, "Nombre: %s\n", lead.Name)
	}
	fmt.Fprintf(&body, "Etapa: %s\n", lead.Stage)
	fmt.Fprintf(&body, "Prioridad: %s\n", lead.Priority)
	if reason != "" {
		fmt.Fprintf(&body, "Motivo: %s\n", reason)
	}
	body.WriteString("\nResponde pronto mientras el interés está alto.\n")

	n.service.SendAsync(n.recipients, subject, body.String())
}
