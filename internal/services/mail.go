package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"strings"

	"courtside/internal/config"
	"courtside/internal/models"
)

// Mailer delivers a rendered email. MailService is the SMTP implementation.
type Mailer interface {
	Send(to []string, subject, body string) error
}

type MailService struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	Enabled  bool

	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailService(cfg config.SMTPConfig) *MailService {
	enabled := cfg.Enabled()
	if !enabled {
		log.Println("MailService disabled: missing SMTP environment variables")
	}
	return &MailService{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		Enabled:  enabled,
		sendMail: smtp.SendMail,
	}
}

func (s *MailService) Send(to []string, subject, body string) error {
	if !s.Enabled {
		return nil
	}
	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: Courtside <%s>\r\n"+
		"Subject: %s\r\n"+
		"%s\r\n%s", strings.Join(to, ","), s.From, subject, mime, body))

	if err := s.sendMail(addr, auth, s.From, to, msg); err != nil {
		return fmt.Errorf("send mail to %v: %w", to, err)
	}
	log.Printf("Email sent to %v: %s", to, subject)
	return nil
}

var mailTemplates = template.Must(template.New("mail").Parse(`
{{define "waitlist_promoted"}}<p>Hi {{.Username}},</p>
<p>A spot opened up and you are now confirmed: <strong>{{.Text}}</strong></p>
<p>See you on the court.</p>{{end}}
{{define "reply_comment"}}<p>Hi {{.Username}},</p>
<p>{{.Text}}</p>{{end}}
`))

var mailSubjects = map[models.NotificationType]string{
	models.NotificationTypeWaitlistPromoted: "You're off the waiting list",
	models.NotificationTypeReplyComment:     "New reply to your comment",
}

// emailable reports whether notifications of type t are also sent by mail.
func emailable(t models.NotificationType) bool {
	_, ok := mailSubjects[t]
	return ok
}

func renderMail(n models.Notification, recipient models.User) (subject, body string, err error) {
	var buf bytes.Buffer
	data := map[string]string{"Username": recipient.Username, "Text": n.Text}
	if err := mailTemplates.ExecuteTemplate(&buf, string(n.Type), data); err != nil {
		return "", "", fmt.Errorf("render %s email: %w", n.Type, err)
	}
	return mailSubjects[n.Type], buf.String(), nil
}
