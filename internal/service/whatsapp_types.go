package service

// WhatsApp Cloud API outbound message types

const (
	waMaxButtons        = 3
	waMaxButtonTitle    = 20
	waMaxBody           = 1024
	waMaxRows           = 10
	waMaxRowID          = 200
	waMaxRowTitle       = 24
	waMaxRowDescription = 72
	waMaxSectionTitle   = 24
	waMaxListButton     = 20
)

type waMessage struct {
	MessagingProduct string         `json:"messaging_product"`
	To               string         `json:"to"`
	Type             string         `json:"type"`
	Text             *waText        `json:"text,omitempty"`
	Interactive      *waInteractive `json:"interactive,omitempty"`
}

type waText struct {
	Body string `json:"body"`
}

type waInteractive struct {
	Type   string   `json:"type"`
	Body   waText   `json:"body"`
	Action waAction `json:"action"`
}

type waAction struct {
	Buttons  []waButton  `json:"buttons,omitempty"`
	Button   string      `json:"button,omitempty"`
	Sections []waSection `json:"sections,omitempty"`
}

type waButton struct {
	Type  string  `json:"type"`
	Reply waReply `json:"reply"`
}

type waReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type waSection struct {
	Title string  `json:"title"`
	Rows  []waRow `json:"rows"`
}

type waRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
