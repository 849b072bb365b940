package catalog

import (
	"strings"
	"testing"
)

const indexPage = `
<html><body>
<table>
  <tbody>
    <tr>
      <td>GEN-0.1 Prefacio</td>
      <td><a href="/descargas/gen01.pdf">AMDT 10 - 2024</a></td>
    </tr>
    <tr>
      <td> ENR-1.1 Reglas y procedimientos generales </td>
      <td>extra</td>
      <td><a href="https://cdn.example.gob.ar/enr11.pdf">AMDT 9</a></td>
    </tr>
    <tr><td>fila incompleta</td></tr>
    <tr>
      <td>GEN-0.1 Prefacio</td>
      <td><a href="/descargas/gen01.pdf">AMDT 10 - 2024</a></td>
    </tr>
  </tbody>
</table>
</body></html>`

func TestParseIndex(t *testing.T) {
	records, err := ParseIndex(strings.NewReader(indexPage), "https://ais.example.gob.ar", "GEN")
	if err != nil {
		t.Fatalf("ParseIndex: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records (duplicate row removed), got %d", len(records))
	}

	first := records[0]
	if first.Title != "GEN-0.1 Prefacio" {
		t.Errorf("title = %q", first.Title)
	}
	if first.URL != "https://ais.example.gob.ar/descargas/gen01.pdf" {
		t.Errorf("relative link not resolved: %q", first.URL)
	}
	if first.Version != "AMDT 10 - 2024" {
		t.Errorf("version = %q", first.Version)
	}
	if first.Section != "GEN" {
		t.Errorf("section = %q", first.Section)
	}

	second := records[1]
	if second.Title != "ENR-1.1 Reglas y procedimientos generales" {
		t.Errorf("title not trimmed: %q", second.Title)
	}
	if second.URL != "https://cdn.example.gob.ar/enr11.pdf" {
		t.Errorf("absolute link rewritten: %q", second.URL)
	}
}

func TestParseIndex_BadBase(t *testing.T) {
	if _, err := ParseIndex(strings.NewReader(indexPage), "://bad", "GEN"); err == nil {
		t.Error("expected error for unparseable base url")
	}
}
