package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DomainError is a business rejection from the engine (as opposed to a
// transport failure). The message is surfaced to the operator verbatim and
// never parsed; the language fields carry the structured detail that older
// systems extracted from the message text.
type DomainError struct {
	StatusCode         int
	Code               string
	Message            string
	MissingLanguages   []string
	AvailableLanguages []string
}

func (e *DomainError) Error() string {
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return fmt.Sprintf("engine rejected the request (status %d)", e.StatusCode)
}

type errorEnvelope struct {
	Error struct {
		Code               string   `json:"code"`
		Message            string   `json:"message"`
		MissingLanguages   []string `json:"missing_languages"`
		AvailableLanguages []string `json:"available_languages"`
	} `json:"error"`
}

// decodeDomainError builds a DomainError from an engine error body. Bodies
// that do not match the envelope still produce a usable error carrying the
// raw text.
func decodeDomainError(statusCode int, body []byte) *DomainError {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return &DomainError{
			StatusCode:         statusCode,
			Code:               envelope.Error.Code,
			Message:            envelope.Error.Message,
			MissingLanguages:   envelope.Error.MissingLanguages,
			AvailableLanguages: envelope.Error.AvailableLanguages,
		}
	}
	return &DomainError{
		StatusCode: statusCode,
		Message:    strings.TrimSpace(string(body)),
	}
}
