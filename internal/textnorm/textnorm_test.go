package textnorm

import "testing"

func TestKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Санкт-Петербург  ", "санкт-петербург"},
		{"Нижний   Новгород", "нижний новгород"},
		{"Ёлки\tПалки", "елки палки"},
		{"Mixed Case ASCII", "mixed case ascii"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := Key(c.in); got != c.want {
			t.Errorf("Key(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestKeyFoldsYo(t *testing.T) {
	if Key("Орёл") != Key("Орел") {
		t.Error("expected ё and е variants to share an identity")
	}
}

func TestContainsKey(t *testing.T) {
	if !ContainsKey("Консультант страховой медицины", "медицин") {
		t.Error("expected stem match inside a longer word")
	}
	if ContainsKey("Специалист по сопровождению", "медицин") {
		t.Error("unexpected match")
	}
	if ContainsKey("Любой заголовок", "") {
		t.Error("empty keyword must never match")
	}
	if ContainsKey("Любой заголовок", "   ") {
		t.Error("blank keyword must never match")
	}
}

func TestContainsAnyKey(t *testing.T) {
	banned := []string{"врач", "водитель", ""}
	if !ContainsAnyKey("Водитель персональный", banned) {
		t.Error("expected case-insensitive keyword hit")
	}
	if ContainsAnyKey("Backend разработчик", banned) {
		t.Error("unexpected hit")
	}
}
