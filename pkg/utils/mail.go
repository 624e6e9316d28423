package utils

import (
	"github.com/sirupsen/logrus"

	"gopkg.in/gomail.v2"

	"github.com/mailjet/mailjet-apiv3-go/v4"
)

type NotifyConfig struct {
	FromEmail     string
	FromName      string
	MailjetAPIKey string
	MailjetSecret string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
}

// Notifier sends best-effort transactional email. Delivery goes through
// Mailjet when API keys are configured, then SMTP, and falls back to a local
// log line when neither is set up, so an unconfigured environment never
// breaks the caller.
type Notifier struct {
	cfg NotifyConfig
}

func NewNotifier(cfg NotifyConfig) *Notifier {
	if cfg.FromEmail == "" {
		cfg.FromEmail = "noreply@cypherd.local"
	}
	if cfg.FromName == "" {
		cfg.FromName = "CypherD Mock Wallet"
	}
	return &Notifier{cfg: cfg}
}

// Send never returns an error: failures are logged and swallowed. Callers
// invoke it from a goroutine so delivery cannot delay the request.
func (n *Notifier) Send(toEmail, subject, body string) {
	switch {
	case n.cfg.MailjetAPIKey != "" && n.cfg.MailjetSecret != "":
		n.sendMailjet(toEmail, subject, body)
	case n.cfg.SMTPHost != "" && n.cfg.SMTPUser != "" && n.cfg.SMTPPass != "":
		n.sendSMTP(toEmail, subject, body)
	default:
		logrus.Infof("[EMAIL MOCK] to=%s | %s | %s", toEmail, subject, body)
	}
}

func (n *Notifier) sendMailjet(toEmail, subject, body string) {
	mj := mailjet.NewMailjetClient(n.cfg.MailjetAPIKey, n.cfg.MailjetSecret)
	messagesInfo := []mailjet.InfoMessagesV31{
		{
			From: &mailjet.RecipientV31{
				Email: n.cfg.FromEmail,
				Name:  n.cfg.FromName,
			},
			To: &mailjet.RecipientsV31{
				{Email: toEmail},
			},
			Subject:  subject,
			TextPart: body,
		},
	}
	messages := &mailjet.MessagesV31{Info: messagesInfo}
	if _, err := mj.SendMailV31(messages); err != nil {
		logrus.Errorf("mailjet send to %s failed: %s", toEmail, err)
		return
	}
	logrus.Infof("mailjet: sent %q to %s", subject, toEmail)
}

func (n *Notifier) sendSMTP(toEmail, subject, body string) {
	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.FromEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(n.cfg.SMTPHost, n.cfg.SMTPPort, n.cfg.SMTPUser, n.cfg.SMTPPass)
	if err := d.DialAndSend(m); err != nil {
		logrus.Errorf("smtp send to %s failed: %s", toEmail, err)
		return
	}
	logrus.Infof("smtp: sent %q to %s", subject, toEmail)
}
