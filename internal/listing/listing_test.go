package listing

import "testing"

const sample = `Компания: Абсолют Страхование

Москва
1. Java-разработчик — ЗП не указана
Ссылка: https://hh.ru/vacancy/130121074

Санкт-Петербург
1. Главный специалист управления ипотечного страхования — ЗП не указана
Ссылка: https://hh.ru/vacancy/130176260

2. Ведущий специалист — ЗП не указана
Ссылка: https://hh.ru/vacancy/129959488

3. Начальник управления страхования грузов — ЗП не указана
Ссылка: https://hh.ru/vacancy/124635869

Нижний Новгород
1. Специалист отдела по ипотечному страхованию — ЗП не указана
Ссылка: https://hh.ru/vacancy/130247778
`

const withBanned = `Компания: Ренессанс cтрахование, Группа

Санкт-Петербург
1. Водитель персональный на автомобиле компании — 70000-70000 RUR
Ссылка: https://hh.ru/vacancy/130207683

2. Страховой агент в офис — 70000-100000 RUR
Ссылка: https://hh.ru/vacancy/129721441

3. Специалист по техническому сопровождению клиентов — ЗП не указана
Ссылка: https://hh.ru/vacancy/129890898
`

const withMedicalTitles = `Компания: Страховая компания

Санкт-Петербург
1. Консультант страховой медицины — ЗП не указана
Ссылка: https://hh.ru/vacancy/100000001

2. Специалист по рассмотрению обращений граждан по вопросам оказания медицинской помощи — ЗП не указана
Ссылка: https://hh.ru/vacancy/100000002

3. Сотрудник контакт-центра СМО по обязательному медицинскому страхованию — ЗП не указана
Ссылка: https://hh.ru/vacancy/100000003

4. Специалист по сопровождению клиентов — ЗП не указана
Ссылка: https://hh.ru/vacancy/100000004
`

const withAliasHeader = `Компания: Тест

Москва:
1. Аналитик — ЗП не указана
Ссылка: https://hh.ru/vacancy/200000001

СПБ:
1. Backend разработчик — ЗП не указана
Ссылка: https://hh.ru/vacancy/200000002

Казань
1. QA инженер — ЗП не указана
Ссылка: https://hh.ru/vacancy/200000003
`

const withCountHeader = `Санкт-Петербург (2)
1. Специалист по документообороту — ЗП 50 000 - 70 000 ₽
2. Менеджер по развитию партнерской сети — ЗП 150 000 - 500 000 ₽
`

const withCountedMultiCity = `Санкт-Петербург (1)
1. SPB Вакансия — ЗП не указана
Ссылка: https://hh.ru/vacancy/400000001

Москва (1)
1. Moscow Вакансия — ЗП не указана
Ссылка: https://hh.ru/vacancy/400000002
`

const withRemoteInMoscow = `Компания: Удаленка ООО

Москва
1. Python разработчик — удаленная работа, ЗП не указана
Ссылка: https://hh.ru/vacancy/500000001

Санкт-Петербург
1. Аналитик — ЗП не указана
Ссылка: https://hh.ru/vacancy/500000002
`

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestParseCity(t *testing.T) {
	res := newTestParser(t).ParseCity(sample, nil)
	if res.Detected != 3 {
		t.Errorf("expected 3 detected, got %d", res.Detected)
	}
	if len(res.Selected) != 3 {
		t.Fatalf("expected 3 selected, got %d", len(res.Selected))
	}
	first := res.Selected[0]
	if first.Title != "Главный специалист управления ипотечного страхования" {
		t.Errorf("unexpected first title: %q", first.Title)
	}
	if first.Link != "https://hh.ru/vacancy/130176260" {
		t.Errorf("unexpected first link: %q", first.Link)
	}
	if first.Company != "Абсолют Страхование" {
		t.Errorf("unexpected company: %q", first.Company)
	}
	if res.Selected[2].Link != "https://hh.ru/vacancy/124635869" {
		t.Errorf("unexpected last link: %q", res.Selected[2].Link)
	}
}

func TestSelectedNeverExceedsDetected(t *testing.T) {
	p := newTestParser(t)
	for _, msg := range []string{sample, withBanned, withMedicalTitles, withAliasHeader, withCountedMultiCity, withRemoteInMoscow, "", "мусор\nбез структуры"} {
		for _, res := range []Result{p.ParseCity(msg, nil), p.ParseRemote(msg, nil)} {
			if len(res.Selected) > res.Detected {
				t.Errorf("selected %d > detected %d for %q", len(res.Selected), res.Detected, msg)
			}
		}
	}
}

func TestBannedKeywordsFilter(t *testing.T) {
	res := newTestParser(t).ParseCity(withBanned, nil)
	if res.Detected != 3 {
		t.Errorf("expected 3 detected, got %d", res.Detected)
	}
	if len(res.Selected) != 1 {
		t.Fatalf("expected 1 selected, got %d", len(res.Selected))
	}
	if res.Selected[0].Title != "Специалист по техническому сопровождению клиентов" {
		t.Errorf("unexpected surviving title: %q", res.Selected[0].Title)
	}
}

func TestBannedKeywordMatchesWordStem(t *testing.T) {
	p, err := New(Config{BannedKeywords: []string{"медицин"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res := p.ParseCity(withMedicalTitles, nil)
	if res.Detected != 4 {
		t.Errorf("expected 4 detected, got %d", res.Detected)
	}
	if len(res.Selected) != 1 {
		t.Fatalf("expected 1 selected, got %d", len(res.Selected))
	}
	if res.Selected[0].Title != "Специалист по сопровождению клиентов" {
		t.Errorf("unexpected surviving title: %q", res.Selected[0].Title)
	}
}

func TestParseCityFromAliasHeader(t *testing.T) {
	res := newTestParser(t).ParseCity(withAliasHeader, nil)
	if len(res.Selected) != 1 {
		t.Fatalf("expected 1 selected, got %d", len(res.Selected))
	}
	if res.Selected[0].Title != "Backend разработчик" {
		t.Errorf("unexpected title: %q", res.Selected[0].Title)
	}
	if res.Selected[0].Link != "https://hh.ru/vacancy/200000002" {
		t.Errorf("unexpected link: %q", res.Selected[0].Link)
	}
}

func TestInlineLinksCompleteEntriesWithoutLinkLines(t *testing.T) {
	inline := map[string]string{
		"специалист по документообороту":        "https://hh.ru/vacancy/300000001",
		"менеджер по развитию партнерской сети": "https://hh.ru/vacancy/300000002",
	}
	res := newTestParser(t).ParseCity(withCountHeader, inline)
	if res.Detected != 2 {
		t.Errorf("expected 2 detected, got %d", res.Detected)
	}
	if len(res.Selected) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(res.Selected))
	}
	if res.Selected[0].Link != "https://hh.ru/vacancy/300000001" {
		t.Errorf("unexpected first link: %q", res.Selected[0].Link)
	}
}

func TestCountedHeaderStopsScan(t *testing.T) {
	res := newTestParser(t).ParseCity(withCountedMultiCity, nil)
	if res.Detected != 1 {
		t.Errorf("expected 1 detected, got %d", res.Detected)
	}
	if len(res.Selected) != 1 || res.Selected[0].Link != "https://hh.ru/vacancy/400000001" {
		t.Errorf("unexpected selection: %+v", res.Selected)
	}
}

func TestRemoteGatingAcrossVariants(t *testing.T) {
	p := newTestParser(t)

	city := p.ParseCity(withRemoteInMoscow, nil)
	if city.Detected != 1 || len(city.Selected) != 1 {
		t.Fatalf("city variant: detected=%d selected=%d", city.Detected, len(city.Selected))
	}
	if city.Selected[0].Link != "https://hh.ru/vacancy/500000002" {
		t.Errorf("city variant picked wrong entry: %+v", city.Selected[0])
	}

	remote := p.ParseRemote(withRemoteInMoscow, nil)
	if remote.Detected != 1 || len(remote.Selected) != 1 {
		t.Fatalf("remote variant: detected=%d selected=%d", remote.Detected, len(remote.Selected))
	}
	if remote.Selected[0].Link != "https://hh.ru/vacancy/500000001" {
		t.Errorf("remote variant picked wrong entry: %+v", remote.Selected[0])
	}
}

func TestNoTargetSection(t *testing.T) {
	res := newTestParser(t).ParseCity("Москва\n1. Role\nСсылка: https://hh.ru/vacancy/1", nil)
	if res.Detected != 0 || len(res.Selected) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestPendingEntryWithoutLinkIsDropped(t *testing.T) {
	msg := "Санкт-Петербург\n1. Оборванная вакансия — ЗП не указана\n"
	res := newTestParser(t).ParseCity(msg, nil)
	if res.Detected != 0 || len(res.Selected) != 0 {
		t.Errorf("expected trailing pending entry to be dropped, got %+v", res)
	}
}

func TestExtractCompany(t *testing.T) {
	if got := ExtractCompany(sample); got != "Абсолют Страхование" {
		t.Errorf("ExtractCompany = %q", got)
	}
	if got := ExtractCompany("компания: Нижний Регистр"); got != "Нижний Регистр" {
		t.Errorf("expected case-insensitive label, got %q", got)
	}
	if got := ExtractCompany("нет реквизитов"); got != "" {
		t.Errorf("expected empty company, got %q", got)
	}
}
