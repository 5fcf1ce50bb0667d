package dto

import "strings"

// ProviderMessage is a fetched message before normalization, independent of the provider API.
type ProviderMessage struct {
	Id       string
	ThreadId string
	Snippet  string
	Headers  []Header
	Root     MimePart
}

type Header struct {
	Name  string
	Value string
}

// MimePart is either a LeafPart or a ContainerPart.
type MimePart interface {
	ContentType() string
	isMimePart()
}

// LeafPart carries inline content as base64url text, the Gmail wire form.
type LeafPart struct {
	MimeType string
	Filename string
	Data     string
}

type ContainerPart struct {
	MimeType string
	Children []MimePart
}

func (p LeafPart) ContentType() string      { return strings.ToLower(p.MimeType) }
func (p ContainerPart) ContentType() string { return strings.ToLower(p.MimeType) }

func (LeafPart) isMimePart()      {}
func (ContainerPart) isMimePart() {}

// Header returns the first header value with the given name, or "".
func (m *ProviderMessage) Header(name string) string {
	if m == nil {
		return ""
	}
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}
