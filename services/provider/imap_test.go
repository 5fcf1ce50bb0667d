package provider

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/dto"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/enum"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/interfaces"
)

const multipartMessage = "From: Ana Souza <ana@example.com>\r\n" +
	"To: admissions@acme.edu\r\n" +
	"Subject: Enrollment question\r\n" +
	"Date: Mon, 2 Jun 2025 10:00:00 +0000\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Hello there\r\n" +
	"--b1\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>Hello there</p>\r\n" +
	"--b1--\r\n"

func TestParseRFC822_Multipart(t *testing.T) {
	msg, err := parseRFC822("42", []byte(multipartMessage))
	require.NoError(t, err)

	assert.Equal(t, "42", msg.Id)
	assert.Equal(t, "Enrollment question", msg.Header("Subject"))
	assert.Equal(t, "admissions@acme.edu", msg.Header("to"))

	root, ok := msg.Root.(dto.ContainerPart)
	require.True(t, ok)
	assert.Equal(t, "multipart/alternative", root.ContentType())
	require.Len(t, root.Children, 2)

	plain, ok := root.Children[0].(dto.LeafPart)
	require.True(t, ok)
	assert.Equal(t, "text/plain", plain.ContentType())
	decoded, err := base64.URLEncoding.DecodeString(plain.Data)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "Hello there")
}

func TestParseRFC822_SinglePart(t *testing.T) {
	raw := "From: ana@example.com\r\nSubject: Hi\r\nContent-Type: text/plain\r\n\r\nJust text\r\n"

	msg, err := parseRFC822("7", []byte(raw))
	require.NoError(t, err)

	leaf, ok := msg.Root.(dto.LeafPart)
	require.True(t, ok)
	decoded, err := base64.URLEncoding.DecodeString(leaf.Data)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "Just text")
}

func TestNewestUIDs(t *testing.T) {
	assert.Equal(t, []string{"30", "20", "10"}, newestUIDs([]uint32{10, 30, 20}, 5))
	assert.Equal(t, []string{"30", "20"}, newestUIDs([]uint32{10, 30, 20}, 2))
	assert.Empty(t, newestUIDs(nil, 5))
}

func TestXOAuth2Client_Start(t *testing.T) {
	mech, ir, err := newXOAuth2Client("admissions@acme.edu", "tok").Start()

	require.NoError(t, err)
	assert.Equal(t, "XOAUTH2", mech)
	assert.Equal(t, "user=admissions@acme.edu\x01auth=Bearer tok\x01\x01", string(ir))
}

func TestRegistry_Get(t *testing.T) {
	gmailProvider := &GmailProvider{}
	r := NewRegistryWith(map[enum.MailProvider]interfaces.MailProvider{
		enum.ProviderGoogle: gmailProvider,
	})

	p, err := r.Get(enum.ProviderGoogle)
	require.NoError(t, err)
	assert.Same(t, gmailProvider, p)

	_, err = r.Get(enum.ProviderOutlook)
	assert.Error(t, err)
}
