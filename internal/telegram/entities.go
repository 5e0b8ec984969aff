package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/avoronin/vestnik/internal/annotate"
)

// SpansFromEntities converts text_link message entities into annotation
// spans. Entity offsets are UTF-16 code units, matching what the annotate
// package expects.
func SpansFromEntities(entities []tgbotapi.MessageEntity) []annotate.Span {
	var spans []annotate.Span
	for _, e := range entities {
		if e.Type != "text_link" || e.URL == "" {
			continue
		}
		spans = append(spans, annotate.Span{
			Offset: e.Offset,
			Length: e.Length,
			URL:    e.URL,
		})
	}
	return spans
}
