package locale

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTextUnmarshal(t *testing.T) {
	var plain Text
	require.NoError(t, json.Unmarshal([]byte(`"Title is required"`), &plain))
	assert.False(t, plain.IsTranslated())
	assert.Equal(t, "Title is required", plain.Resolve("de", "en"))

	var translated Text
	require.NoError(t, json.Unmarshal([]byte(`{"en":"Required","de":"Pflichtfeld"}`), &translated))
	assert.True(t, translated.IsTranslated())
	assert.Equal(t, "Pflichtfeld", translated.Resolve("de", "en"))
	assert.Equal(t, "Required", translated.Resolve("fr", "en"))
	assert.Equal(t, "", translated.Resolve("fr", "it"))

	var bad Text
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))

	data, err := json.Marshal(translated)
	require.NoError(t, err)
	assert.JSONEq(t, `{"en":"Required","de":"Pflichtfeld"}`, string(data))
}

func TestTextUnmarshalYAML(t *testing.T) {
	var holder struct {
		A Text `yaml:"a"`
		B Text `yaml:"b"`
	}
	src := "a: plain\nb:\n  en: english\n  nl: dutch\n"
	require.NoError(t, yaml.Unmarshal([]byte(src), &holder))
	assert.Equal(t, "plain", holder.A.Plain)
	assert.Equal(t, "dutch", Context{Locale: "nl", Fallback: "en"}.Resolve(holder.B))
}

func TestGetAndSet(t *testing.T) {
	blob := `{"en":"Hello","de":"Hallo"}`
	assert.Equal(t, "Hallo", Get(blob, "de", "en"))
	assert.Equal(t, "Hello", Get(blob, "fr", "en"))
	assert.Equal(t, "", Get(blob, "fr", "it"))
	assert.Equal(t, "plain text", Get("plain text", "en", "en"))

	out, err := Set(blob, "fr", "Bonjour")
	require.NoError(t, err)
	assert.JSONEq(t, `{"en":"Hello","de":"Hallo","fr":"Bonjour"}`, out)

	out, err = Set("", "pt.BR", "Olá")
	require.NoError(t, err)
	assert.JSONEq(t, `{"pt.BR":"Olá"}`, out)
	assert.Equal(t, "Olá", Get(out, "pt.BR", "en"))
}

func TestDecode(t *testing.T) {
	m, ok := Decode(`{"en":"a","de":"b"}`)
	require.True(t, ok)
	assert.Equal(t, "b", m["de"])

	_, ok = Decode(`"a"`)
	assert.False(t, ok)
	_, ok = Decode(`nope`)
	assert.False(t, ok)
}

func TestNegotiate(t *testing.T) {
	available := []string{"en", "de", "nl"}
	assert.Equal(t, "de", Negotiate("de-DE,de;q=0.9,en;q=0.5", available, "en"))
	assert.Equal(t, "nl", Negotiate("nl", available, "en"))
	assert.Equal(t, "en", Negotiate("", available, "en"))
	assert.Equal(t, "en", Negotiate("ja", available, "en"))
	assert.Equal(t, "en", Negotiate("de", nil, "en"))
}
