package htmltext

import (
	"strings"
	"testing"
)

func TestTextStripsTags(t *testing.T) {
	src := `<html><body><p>Привет</p><script>var x = 1;</script><div>мир</div></body></html>`
	got := Text(src)
	if !strings.Contains(got, "Привет") || !strings.Contains(got, "мир") {
		t.Errorf("text lost: %q", got)
	}
	if strings.Contains(got, "var x") {
		t.Errorf("script content leaked: %q", got)
	}
}

func TestTextBlockBoundaries(t *testing.T) {
	src := `<p>первая</p><p>вторая</p>`
	got := Text(src)
	if got != "первая\nвторая" {
		t.Errorf("Text = %q", got)
	}
}

func TestTextInvalidHTML(t *testing.T) {
	// html.Parse is lenient, so even garbage yields something
	got := Text("просто текст без тегов")
	if got != "просто текст без тегов" {
		t.Errorf("Text = %q", got)
	}
}

func TestAnchors(t *testing.T) {
	src := `<p><a href="https://hh.ru/vacancy/111">Менеджер</a> и <a href="https://hh.ru/vacancy/222">Аналитик</a></p>`
	got := Anchors(src)
	if got["Менеджер"] != "https://hh.ru/vacancy/111" {
		t.Errorf("anchors = %v", got)
	}
	if got["Аналитик"] != "https://hh.ru/vacancy/222" {
		t.Errorf("anchors = %v", got)
	}
}

func TestAnchorsFirstWins(t *testing.T) {
	src := `<a href="https://a.example">ссылка</a><a href="https://b.example">ссылка</a>`
	got := Anchors(src)
	if got["ссылка"] != "https://a.example" {
		t.Errorf("expected first href to win, got %v", got)
	}
}

func TestAnchorsSkipsEmpty(t *testing.T) {
	src := `<a href="https://a.example"></a><a>без ссылки</a>`
	got := Anchors(src)
	if len(got) != 0 {
		t.Errorf("expected no anchors, got %v", got)
	}
}
