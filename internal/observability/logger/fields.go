package logger

import (
	"time"

	"go.uber.org/zap"
)

// Standard HTTP fields.

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// Standard business fields.

// ExternalID is the chat-platform identity (e.g. a Discord user id).
func ExternalID(v string) zap.Field { return zap.String("external_id", v) }

// AccountID is a linked provider account id.
func AccountID(v string) zap.Field { return zap.String("account_id", v) }

// Outcome is a terminal link outcome code.
func Outcome(v string) zap.Field { return zap.String("outcome", v) }

// Email logs a masked provider email. Never log the raw address.
func Email(v string) zap.Field { return zap.String("email_masked", MaskEmail(v)) }

// Standard system fields.

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

// Generic fields.

func Count(v int) zap.Field           { return zap.Int("count", v) }
func String(key, v string) zap.Field  { return zap.String(key, v) }
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
func Any(key string, v any) zap.Field { return zap.Any(key, v) }

// MaskEmail keeps the first two characters and the domain.
func MaskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	at := -1
	for i, c := range email {
		if c == '@' {
			at = i
			break
		}
	}
	if at < 0 || at < 2 {
		return email[:2] + "***"
	}
	return email[:2] + "***" + email[at:]
}
