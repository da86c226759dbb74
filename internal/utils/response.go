package utils

import (
	"encoding/json"
	"net/http"
)

type ErrorBody struct {
	Error string `json:"error"`
}

type OKBody struct {
	OK bool `json:"ok"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func WriteOK(w http.ResponseWriter) error {
	return WriteJSON(w, http.StatusOK, OKBody{OK: true})
}

func WriteErrorMessage(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, ErrorBody{Error: message})
}

// WriteError maps err to its status code and writes {"error": ...}.
func WriteError(w http.ResponseWriter, err error) error {
	return WriteErrorMessage(w, StatusCode(err), PublicMessage(err))
}
