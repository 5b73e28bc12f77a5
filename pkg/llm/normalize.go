package llm

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// defaultImageMIME is assumed for raw buffer attachments that carry no
// explicit MIME type. The bytes are never sniffed.
const defaultImageMIME = "image/jpeg"

var imageMIMEAliases = map[string]string{
	"image/jpg":   "image/jpeg",
	"image/pjpeg": "image/jpeg",
	"image/x-png": "image/png",
}

// normalizeImageMIME lowercases, strips parameters and resolves common
// aliases. An empty input resolves to the default image MIME type.
func normalizeImageMIME(mt string) string {
	mt = strings.ToLower(strings.TrimSpace(mt))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "" {
		return defaultImageMIME
	}
	if alias, ok := imageMIMEAliases[mt]; ok {
		return alias
	}
	return mt
}

// resolveAttachment turns an attachment into a URL usable in an image part.
// A URL is used verbatim; a buffer is base64-encoded into a data URI. The
// second return is false for unsupported shapes (neither field set).
func resolveAttachment(att *ImageAttachment) (string, bool) {
	switch {
	case att == nil:
		return "", false
	case att.URL != "":
		return att.URL, true
	case len(att.Buffer) > 0:
		encoded := base64.StdEncoding.EncodeToString(att.Buffer)
		return fmt.Sprintf("data:%s;base64,%s", normalizeImageMIME(att.MIME), encoded), true
	default:
		return "", false
	}
}

// parseDataURI splits a base64 data URI into its MIME type and raw bytes.
// Used by the non-OpenAI transports, which need inline image bytes rather
// than URLs.
func parseDataURI(uri string) (mime string, data []byte, ok bool) {
	rest, found := strings.CutPrefix(uri, "data:")
	if !found {
		return "", nil, false
	}
	mime, payload, found := strings.Cut(rest, ";base64,")
	if !found {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false
	}
	return mime, data, true
}

// classifyPart maps a content part onto its wire shape. Unknown parts degrade
// to an empty text part so positional slots survive normalization.
func classifyPart(p ContentPart) openai.ChatMessagePart {
	switch p.Kind {
	case PartText:
		return openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: p.Text}
	case PartImage:
		return openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: p.URL, Detail: openai.ImageURLDetailAuto},
		}
	default:
		return openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: ""}
	}
}

// normalizeMessages converts provider-neutral messages into wire-ready ones,
// merging an optional standalone image attachment into the first plain-string
// user message. Pure data transformation apart from a warning on unsupported
// attachment shapes.
func normalizeMessages(messages []ChatMessage, att *ImageAttachment, logger Logger) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	merged := false

	for _, m := range messages {
		role := string(m.Role)

		if m.Parts != nil {
			parts := make([]openai.ChatMessagePart, 0, len(m.Parts))
			for _, p := range m.Parts {
				wire := classifyPart(p)
				// Only user messages may carry images.
				if m.Role != RoleUser && wire.Type == openai.ChatMessagePartTypeImageURL {
					continue
				}
				parts = append(parts, wire)
			}
			out = append(out, openai.ChatCompletionMessage{Role: role, MultiContent: parts})
			continue
		}

		if m.Role == RoleUser && att != nil && !merged {
			merged = true
			url, ok := resolveAttachment(att)
			if !ok {
				logger.Log(Record{
					Category: "llm",
					Level:    LevelWarn,
					Message:  "unsupported image attachment shape, sending message without image",
				})
				out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
				continue
			}
			out = append(out, openai.ChatCompletionMessage{
				Role: role,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: m.Content},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: url, Detail: openai.ImageURLDetailAuto}},
				},
			})
			continue
		}

		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	return out
}
