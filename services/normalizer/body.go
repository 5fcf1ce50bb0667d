package normalizer

import (
	"encoding/base64"
	"strings"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/dto"
)

const (
	mimeTextPlain = "text/plain"
	mimeTextHTML  = "text/html"
)

// ExtractBody returns the plain text of the first textual leaf, depth first, whose data
// decodes. HTML leaves are flattened to text.
func ExtractBody(root dto.MimePart) string {
	body, _ := firstTextual(root)
	return body
}

func firstTextual(part dto.MimePart) (string, bool) {
	switch p := part.(type) {
	case dto.LeafPart:
		return leafText(p)
	case *dto.LeafPart:
		if p == nil {
			return "", false
		}
		return leafText(*p)
	case dto.ContainerPart:
		return firstTextualChild(p.Children)
	case *dto.ContainerPart:
		if p == nil {
			return "", false
		}
		return firstTextualChild(p.Children)
	}
	return "", false
}

func firstTextualChild(children []dto.MimePart) (string, bool) {
	for _, child := range children {
		if body, ok := firstTextual(child); ok {
			return body, true
		}
	}
	return "", false
}

func leafText(p dto.LeafPart) (string, bool) {
	mimeType := baseMimeType(p.ContentType())
	if mimeType != mimeTextPlain && mimeType != mimeTextHTML {
		return "", false
	}
	if p.Data == "" {
		return "", false
	}
	raw, ok := decodeBase64URL(p.Data)
	if !ok {
		return "", false
	}
	if mimeType == mimeTextHTML {
		return HTMLToText(string(raw)), true
	}
	return strings.TrimSpace(string(raw)), true
}

func baseMimeType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.TrimSpace(strings.ToLower(contentType))
}

// decodeBase64URL accepts padded and unpadded base64url.
func decodeBase64URL(data string) ([]byte, bool) {
	data = strings.TrimSpace(data)
	if raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "=")); err == nil {
		return raw, true
	}
	if raw, err := base64.URLEncoding.DecodeString(data); err == nil {
		return raw, true
	}
	return nil, false
}
