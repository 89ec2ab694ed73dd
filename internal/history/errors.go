package history

import "codeberg.org/mutker/servwatch/internal/errors"

const (
	ErrInvalidDBPath    = errors.ErrorCode("history_invalid_db_path")
	ErrStorageInit      = errors.ErrorCode("history_storage_init_failed")
	ErrStorageAccess    = errors.ErrorCode("history_storage_access_failed")
	ErrStorageClose     = errors.ErrorCode("history_storage_close_failed")
	ErrSchemaInitFailed = errors.ErrorCode("history_schema_init_failed")
	ErrInvalidSample    = errors.ErrorCode("history_invalid_sample")
)
