package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"

	"github.com/bnema/chatdrive/internal/ports"
)

const (
	streamDataPrefix = "data:"
	streamDoneMarker = "[DONE]"
	rawPrefixLimit   = 120
)

// ParseExchange interprets a chat response body as a newline-delimited
// pseudo-stream of data-prefixed JSON fragments. The first fragment carrying
// non-empty content wins; later lines are ignored.
func ParseExchange(body []byte) ports.ChatExchange {
	if len(body) == 0 {
		return ports.ChatExchange{Outcome: ports.OutcomeEmptyBody}
	}

	sawData := false
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, streamDataPrefix) {
			continue
		}
		sawData = true

		payload := strings.TrimSpace(strings.TrimPrefix(line, streamDataPrefix))
		if payload == "" || payload == streamDoneMarker {
			continue
		}

		var fragment struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal([]byte(payload), &fragment); err != nil {
			continue
		}
		if fragment.Content != "" {
			return ports.ChatExchange{Content: fragment.Content, Outcome: ports.OutcomeContent}
		}
	}

	if !sawData {
		return ports.ChatExchange{Outcome: ports.OutcomeUnparseable, RawPrefix: rawPrefix(body)}
	}

	return ports.ChatExchange{Outcome: ports.OutcomeNoContent, RawPrefix: rawPrefix(body)}
}

func rawPrefix(body []byte) string {
	if len(body) > rawPrefixLimit {
		body = body[:rawPrefixLimit]
	}
	return string(body)
}
