package email

import "strings"

// Message is a single outbound email. At least one recipient, a subject and
// one body part are required.
type Message struct {
	To       []string
	CC       []string
	BCC      []string
	Subject  string
	TextBody string
	HTMLBody string
	Headers  map[string]string
}

func (m Message) validate() error {
	if len(cleanAddrs(m.To))+len(cleanAddrs(m.CC))+len(cleanAddrs(m.BCC)) == 0 {
		return ErrInvalidMessage{Reason: "at least one recipient is required"}
	}
	if strings.TrimSpace(m.Subject) == "" {
		return ErrInvalidMessage{Reason: "subject is required"}
	}
	if strings.TrimSpace(m.TextBody) == "" && strings.TrimSpace(m.HTMLBody) == "" {
		return ErrInvalidMessage{Reason: "either TextBody or HTMLBody is required"}
	}
	return nil
}

func cleanAddrs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
