package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Video errors
	CodeVideoEmptyID          Code = "VIDEO_EMPTY_ID"
	CodeVideoEmptyTitle       Code = "VIDEO_EMPTY_TITLE"
	CodeVideoTitleTooLong     Code = "VIDEO_TITLE_TOO_LONG"
	CodeVideoEmptyChannelID   Code = "VIDEO_EMPTY_CHANNEL_ID"
	CodeVideoInvalidDate      Code = "VIDEO_INVALID_UPLOAD_DATE"
	CodeVideoNegativeCount    Code = "VIDEO_NEGATIVE_COUNT"
	CodeVideoInvalidCategory  Code = "VIDEO_INVALID_CATEGORY"

	// Channel errors
	CodeChannelEmptyID      Code = "CHANNEL_EMPTY_ID"
	CodeChannelEmptyName    Code = "CHANNEL_EMPTY_NAME"
	CodeChannelUnknownAlias Code = "CHANNEL_UNKNOWN_ALIAS"
	CodeChannelExists       Code = "CHANNEL_ALREADY_EXISTS"

	// Webhook errors
	CodeWebhookInvalidMode      Code = "WEBHOOK_INVALID_MODE"
	CodeWebhookTokenMismatch    Code = "WEBHOOK_VERIFY_TOKEN_MISMATCH"
	CodeWebhookInvalidSignature Code = "WEBHOOK_INVALID_SIGNATURE"
	CodeWebhookUnparsableFeed   Code = "WEBHOOK_UNPARSABLE_FEED"

	// Auth errors
	CodeAuthMissingCredentials Code = "AUTH_MISSING_CREDENTIALS"
	CodeAuthInvalidAPIKey      Code = "AUTH_INVALID_API_KEY"
	CodeAuthInvalidToken       Code = "AUTH_INVALID_TOKEN"

	// Chat errors
	CodeChatEmptyQuery Code = "CHAT_EMPTY_QUERY"

	// Storage errors
	CodeNotFound  Code = "NOT_FOUND"
	CodeDuplicate Code = "DUPLICATE"
	CodeStorage   Code = "STORAGE_FAILURE"
)

// HTTPStatus maps the error code to an HTTP response status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeVideoEmptyID, CodeVideoEmptyTitle, CodeVideoTitleTooLong,
		CodeVideoEmptyChannelID, CodeVideoInvalidDate, CodeVideoNegativeCount,
		CodeVideoInvalidCategory, CodeChannelEmptyID, CodeChannelEmptyName,
		CodeWebhookInvalidMode, CodeWebhookUnparsableFeed, CodeChatEmptyQuery:
		return http.StatusBadRequest
	case CodeAuthMissingCredentials, CodeAuthInvalidAPIKey, CodeAuthInvalidToken:
		return http.StatusUnauthorized
	case CodeWebhookTokenMismatch, CodeWebhookInvalidSignature:
		return http.StatusForbidden
	case CodeNotFound, CodeChannelUnknownAlias:
		return http.StatusNotFound
	case CodeDuplicate, CodeChannelExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
