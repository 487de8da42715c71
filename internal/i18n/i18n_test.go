package i18n

import (
	"testing"
	"testing/fstest"
)

func TestEmbeddedCatalogsLoad(t *testing.T) {
	b, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	locales := b.Locales()
	if len(locales) < 3 {
		t.Fatalf("expected at least three locales, got %v", locales)
	}
	if locales[0].String() != BaseLocale {
		t.Fatalf("expected base locale first, got %v", locales[0])
	}
}

func TestLocalizerResolvesLanguages(t *testing.T) {
	b, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}

	tests := []struct {
		locale string
		want   string
	}{
		{locale: "en-US", want: "Session expiring"},
		{locale: "pt-BR", want: "Sessão expirando"},
		{locale: "pt", want: "Sessão expirando"},
		{locale: "es", want: "Sesión por expirar"},
		{locale: "fr-FR", want: "Session expiring"},
		{locale: "!!!", want: "Session expiring"},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			got := b.Localizer(tt.locale).Text(KeySessionExpiringTitle)
			if got != tt.want {
				t.Fatalf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocalizerUnknownKeyReturnsKey(t *testing.T) {
	b, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	if got := b.Localizer("en-US").Text("no.such.key"); got != "no.such.key" {
		t.Fatalf("expected key echo, got %q", got)
	}
}

func TestLoadFromFSValidation(t *testing.T) {
	tests := []struct {
		name string
		fs   fstest.MapFS
	}{
		{
			name: "missing base locale",
			fs: fstest.MapFS{
				"locales/pt-BR.yaml": {Data: []byte("locale: pt-BR\nmessages:\n  a: b\n")},
			},
		},
		{
			name: "locale does not match file",
			fs: fstest.MapFS{
				"locales/en-US.yaml": {Data: []byte("locale: en-GB\nmessages:\n  a: b\n")},
			},
		},
		{
			name: "key not in base",
			fs: fstest.MapFS{
				"locales/en-US.yaml": {Data: []byte("locale: en-US\nmessages:\n  a: b\n")},
				"locales/pt-BR.yaml": {Data: []byte("locale: pt-BR\nmessages:\n  z: y\n")},
			},
		},
		{
			name: "no files",
			fs:   fstest.MapFS{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromFS(tt.fs); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
