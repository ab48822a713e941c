package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
	// FieldListingURL identifies the job listing an entry belongs to.
	FieldListingURL = "listing_url"
	// FieldCompany is the company of the job listing.
	FieldCompany = "company"
	// FieldTitle is the job title of the listing.
	FieldTitle = "title"
	// FieldSession is the id of a single apply attempt.
	FieldSession = "session_id"
	// FieldQuestionKind is the classified kind of a form question.
	FieldQuestionKind = "question_kind"
	// FieldResolutionSource names the layer that produced an answer.
	FieldResolutionSource = "resolution_source"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger is replaced by a no-op one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields returns standard zap fields that describe the AI provider and model.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields attaches the common AI fields to the provided logger.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// ListingFields describes a job listing in log entries.
func ListingFields(url, company, title string) []zap.Field {
	return StringFields(
		StringField{Key: FieldListingURL, Value: url},
		StringField{Key: FieldCompany, Value: company},
		StringField{Key: FieldTitle, Value: title},
	)
}

// WithListing attaches listing fields to the logger.
func WithListing(logger *zap.Logger, url, company, title string) *zap.Logger {
	return WithFields(logger, ListingFields(url, company, title)...)
}
