package house

import (
	"fmt"
	"strings"
)

// summaryPrompt asks for a short recap of one chat's new messages.
func summaryPrompt(houseName, messagesBlob string) string {
	return strings.TrimSpace(fmt.Sprintf(`
Сделай короткую сводку новых сообщений домового чата "%s".

КРИТИЧНО:
- Верни только ОДНУ строку (без переносов), не больше 30 слов.
- Только факты из сообщений: о чём говорили, что решили, что сломалось.
- Не используй markdown (** * # _ `+"`"+`).
- Не выдумывай факты.

Сообщения:
%s`, houseName, messagesBlob))
}
