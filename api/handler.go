package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/qri-io/jsonschema"
)

// Handler serves the field-ops REST endpoints from a MemStore.
type Handler struct {
	store         *MemStore
	schemas       map[string]*jsonschema.Schema
	jwtSecret     string
	tokenDuration time.Duration
	now           func() time.Time
}

func NewHandler(store *MemStore, jwtSecret string, tokenDuration time.Duration) (*Handler, error) {
	schemas, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	if tokenDuration <= 0 {
		tokenDuration = time.Hour
	}
	return &Handler{store: store, schemas: schemas, jwtSecret: jwtSecret, tokenDuration: tokenDuration, now: time.Now}, nil
}

// storeError maps MemStore errors to responses.
func storeError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, ErrDuplicate):
		writeError(w, http.StatusConflict, what+" already exists")
	default:
		logger.Error("store error", "what", what, "err", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
