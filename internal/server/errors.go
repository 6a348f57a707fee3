package server

import (
	"errors"
	"net/http"

	"github.com/mbreukel/BacpacCompatFixer/internal/bacpac"
	"github.com/mbreukel/BacpacCompatFixer/internal/reseal"
	"github.com/mbreukel/BacpacCompatFixer/internal/sanitize"
)

// statusForError maps pipeline failures to HTTP status codes. Missing
// archives are the client's fault, malformed content is unprocessable, the
// rest is on us.
func statusForError(err error) int {
	var notFound *bacpac.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound
	}

	var missingEntry *bacpac.MissingEntryError
	var modelParse *sanitize.ParseError
	var originParse *reseal.ParseError
	if errors.As(err, &missingEntry) || errors.As(err, &modelParse) || errors.As(err, &originParse) {
		return http.StatusUnprocessableEntity
	}

	return http.StatusInternalServerError
}
