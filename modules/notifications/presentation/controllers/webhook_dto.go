package controllers

// Callback envelope as delivered by the WhatsApp Cloud API. Every level is
// optional: the ingestion contract is to treat absent or unexpected shapes
// as no-ops, never as errors.
type webhookEnvelope struct {
	Object string         `json:"object"`
	Entry  []webhookEntry `json:"entry"`
}

type webhookEntry struct {
	ID      string          `json:"id"`
	Changes []webhookChange `json:"changes"`
}

type webhookChange struct {
	Field string       `json:"field"`
	Value webhookValue `json:"value"`
}

type webhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Statuses         []statusNotice   `json:"statuses"`
	Messages         []inboundMessage `json:"messages"`
	Errors           []providerError  `json:"errors"`
	Contacts         []inboundContact `json:"contacts"`
	Metadata         map[string]any   `json:"metadata"`
}

type statusNotice struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

type inboundMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

type inboundContact struct {
	WaID string `json:"wa_id"`
}

type providerError struct {
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}
