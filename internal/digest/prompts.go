package digest

import (
	"fmt"
	"strings"

	"github.com/avoronin/vestnik/internal/claims"
)

// summaryPrompt asks for a one-line plain-text summary of a single email.
func summaryPrompt(subject, fromLabel, body string) string {
	return strings.TrimSpace(fmt.Sprintf(`
Сделай очень короткое содержание рабочего письма.

КРИТИЧНО:
- Верни только ОДНУ строку (без переносов), 6–20 слов, по смыслу.
- Никаких префиксов: не пиши "TL;DR:", "Action:" и т.п.
- Не используй markdown (** * # _ `+"`"+`).
- Не упоминай тему письма (Subject) и не пересказывай её буквально.
- Не выдумывай факты.

Данные:
From: %s
Subject: %s

Текст письма:
%s`, fromLabel, subject, body))
}

// digestPrompt asks the model to theme claim-less items. The summary and
// claims blocks are computed by code and must be inserted unchanged.
func digestPrompt(summaryText, claimsText string, other []claims.Item, failed []failedItem) string {
	otherCards := make([]string, 0, len(other))
	for _, it := range other {
		otherCards = append(otherCards, fmt.Sprintf("- From: %s\n  Content: %s", it.FromLabel, it.Summary))
	}
	otherData := "(нет данных)"
	if len(otherCards) > 0 {
		otherData = strings.Join(otherCards, "\n")
	}

	failedCards := make([]string, 0, len(failed))
	for _, f := range failed {
		failedCards = append(failedCards, fmt.Sprintf("- From: %s\n  Subject: %s\n  Reason: %s", f.FromLabel, trimSubject(f.Subject), f.Reason))
	}
	failedData := "(нет)"
	if len(failedCards) > 0 {
		failedData = strings.Join(failedCards, "\n")
	}

	return strings.TrimSpace(fmt.Sprintf(`
Сформируй Telegram-дайджест в виде ПРОСТОГО ТЕКСТА (PLAIN TEXT).
КРИТИЧНО: НЕ используй markdown и спецсимволы форматирования (** * # _ `+"`"+`).

КРИТИЧНО:
- Блок "СВОДКА" уже посчитан кодом. Вставь его РОВНО как есть. Не меняй цифры и формулировки.
- Блок "ЗАЯВКИ" уже подготовлен кодом. Вставь его РОВНО как есть. Не меняй и не переставляй строки.
- Не добавляй Subject.
- Не добавляй Action.
- Не добавляй "ТОП ТЕМЫ".

Нужно:
1) Вставить готовую СВОДКУ.
2) Вставить готовые ЗАЯВКИ.
3) Сформировать блок ПРОЧЕЕ: сгруппировать письма без заявок по 3–8 темам.
   Внутри темы каждая строка строго:
   - <From>: +++ СОДЕРЖАНИЕ: <Content>
4) Блок НЕ ОБРАБОТАНО показывать только если есть ошибки.

Формат итогового текста (строго):

%s

ЗАЯВКИ:
%s

ПРОЧЕЕ:
[Тема 1]
- <From>: +++ СОДЕРЖАНИЕ: <Content>
- ...

[Тема 2]
- ...

НЕ ОБРАБОТАНО:
- From: ... : Subject ...
(только если есть)

Данные для ПРОЧЕЕ:
%s

Ошибки:
%s`, summaryText, claimsText, otherData, failedData))
}
