package logger

import (
	"time"

	"go.uber.org/zap"
)

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

func ClientID(v string) zap.Field { return zap.String("client_id", v) }

func UserID(v string) zap.Field { return zap.String("user_id", v) }

func GrantType(v string) zap.Field { return zap.String("grant_type", v) }

func ResponseType(v string) zap.Field { return zap.String("response_type", v) }

func Rule(v string) zap.Field { return zap.String("rule", v) }

func OAuthError(code string) zap.Field { return zap.String("oauth_error", code) }

func Op(v string) zap.Field { return zap.String("op", v) }

func Err(err error) zap.Field { return zap.Error(err) }
