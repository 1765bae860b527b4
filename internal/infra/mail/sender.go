package mail

import (
	"bytes"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"
)

var draftTemplate = template.Must(template.New("draft").Parse(`A follow-up email was drafted for deal "{{.DealName}}" (#{{.DealID}}).

Stage:   {{.Stage}}
Contact: {{.ContactName}}

The draft is saved in the deal notes. Review it before sending.

----------------------------------------
{{.Email}}
----------------------------------------
`))

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
	}
}

// SendDraft mails a drafted deal email to the sales inbox for review.
func (s *EmailSender) SendDraft(to string, data DraftEmailData) error {
	m, err := s.draftMessage(to, data)
	if err != nil {
		return err
	}

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send draft email: %w", err)
	}
	return nil
}

func (s *EmailSender) draftMessage(to string, data DraftEmailData) (*gomail.Message, error) {
	body, err := RenderDraft(data)
	if err != nil {
		return nil, err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("[CRM] Draft ready: %s moved to %s", data.DealName, data.Stage))
	m.SetBody("text/plain", body)
	return m, nil
}

func RenderDraft(data DraftEmailData) (string, error) {
	var body bytes.Buffer
	if err := draftTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to render draft email: %w", err)
	}
	return body.String(), nil
}
