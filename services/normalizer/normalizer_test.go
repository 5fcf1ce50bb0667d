package normalizer

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/dto"
)

func b64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestNormalize_Headers(t *testing.T) {
	msg := &dto.ProviderMessage{
		Id:       "m1",
		ThreadId: "t1",
		Headers: []dto.Header{
			{Name: "from", Value: "Ana Souza <ana@example.com>"},
			{Name: "TO", Value: "admissions@acme.edu"},
			{Name: "Subject", Value: "Enrollment"},
		},
		Root: dto.LeafPart{MimeType: "text/plain", Data: b64("  hello  ")},
	}

	got := Normalize(msg)

	assert.Equal(t, dto.NormalizedEmail{
		MessageId:   "m1",
		ThreadId:    "t1",
		From:        "Ana Souza <ana@example.com>",
		FromAddress: "ana@example.com",
		To:          "admissions@acme.edu",
		Subject:     "Enrollment",
		Date:        "",
		Body:        "hello",
	}, got)
}

func TestNormalize_Nil(t *testing.T) {
	assert.Equal(t, dto.NormalizedEmail{}, Normalize(nil))
}

func TestExtractBody(t *testing.T) {
	tests := []struct {
		name string
		root dto.MimePart
		want string
	}{
		{
			name: "nil root",
			root: nil,
			want: "",
		},
		{
			name: "plain leaf padded",
			root: dto.LeafPart{MimeType: "text/plain", Data: base64.URLEncoding.EncodeToString([]byte("hi!"))},
			want: "hi!",
		},
		{
			name: "html leaf",
			root: dto.LeafPart{MimeType: "text/html; charset=utf-8", Data: b64("<p>Hello&nbsp;<b>world</b></p>\n\n<p>Tom &amp; Jerry</p>")},
			want: "Hello world Tom & Jerry",
		},
		{
			name: "first textual leaf wins depth first",
			root: dto.ContainerPart{MimeType: "multipart/mixed", Children: []dto.MimePart{
				dto.ContainerPart{MimeType: "multipart/alternative", Children: []dto.MimePart{
					dto.LeafPart{MimeType: "text/plain", Data: b64("nested plain")},
					dto.LeafPart{MimeType: "text/html", Data: b64("<p>nested html</p>")},
				}},
				dto.LeafPart{MimeType: "text/plain", Data: b64("outer plain")},
			}},
			want: "nested plain",
		},
		{
			name: "undecodable leaf is skipped",
			root: dto.ContainerPart{MimeType: "multipart/alternative", Children: []dto.MimePart{
				dto.LeafPart{MimeType: "text/plain", Data: "%%%not base64%%%"},
				dto.LeafPart{MimeType: "text/html", Data: b64("<i>fallback</i>")},
			}},
			want: "fallback",
		},
		{
			name: "attachments are ignored",
			root: dto.ContainerPart{MimeType: "multipart/mixed", Children: []dto.MimePart{
				dto.LeafPart{MimeType: "application/pdf", Filename: "a.pdf", Data: b64("%PDF")},
			}},
			want: "",
		},
		{
			name: "only malformed data",
			root: dto.LeafPart{MimeType: "text/plain", Data: "***"},
			want: "",
		},
		{
			name: "empty container",
			root: dto.ContainerPart{MimeType: "multipart/alternative"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractBody(tt.root))
		})
	}
}

func TestHTMLToText(t *testing.T) {
	assert.Equal(t, `a < b > c "d" 'e'`, HTMLToText(`<div>a &lt; b &gt; c &quot;d&quot; &#39;e&#39;</div>`))
	assert.Equal(t, "", HTMLToText("<br/><br/>"))
}

func TestExtractAddress(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Ana Souza <ana@example.com>", "ana@example.com"},
		{"\"Souza, Ana\" <ana.souza@mail.example.com>", "ana.souza@mail.example.com"},
		{"ana@example.com", "ana@example.com"},
		{"mailer ana+news@example.co.uk (Ana)", "ana+news@example.co.uk"},
		{"Undisclosed recipients", "Undisclosed recipients"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractAddress(tt.header), tt.header)
	}
}
