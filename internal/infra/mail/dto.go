package mail

// DraftEmailData feeds the draft notification template.
type DraftEmailData struct {
	DealID      int
	DealName    string
	Stage       string
	ContactName string
	Email       string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}
