package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

const tokenMask = "[redacted]"

// redactHook masks the bot token. Bot API errors embed the request URL, and
// the request URL embeds the token.
type redactHook struct {
	secret string
}

func newRedactHook(secret string) *redactHook {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil
	}
	return &redactHook{secret: secret}
}

func (h *redactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *redactHook) Fire(entry *logrus.Entry) error {
	entry.Message = h.mask(entry.Message)

	for key, value := range entry.Data {
		switch v := value.(type) {
		case string:
			entry.Data[key] = h.mask(v)
		case error:
			if strings.Contains(v.Error(), h.secret) {
				entry.Data[key] = h.mask(v.Error())
			}
		}
	}

	return nil
}

func (h *redactHook) mask(s string) string {
	return strings.ReplaceAll(s, h.secret, tokenMask)
}
