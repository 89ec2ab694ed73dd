package bot

import "codeberg.org/mutker/servwatch/internal/errors"

const (
	ErrInitFailed = errors.ErrorCode("bot_init_failed")
	ErrSendFailed = errors.ErrorCode("bot_send_failed")
)
