package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

func makeUrl(serverUrl string, path string) string {
	return strings.TrimRight(serverUrl, "/") + path
}

// readJsonError достает сообщение из ответа вида {"message": "..."}.
func readJsonError(body []byte) error {
	restErr := &struct {
		Message string `json:"message"`
	}{}
	if err := json.Unmarshal(body, restErr); err != nil {
		return fmt.Errorf("cannot read error message: %w", err)
	}
	return errors.New(restErr.Message)
}
