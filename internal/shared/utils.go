// Package shared
package shared

import (
	"fmt"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
)

func SafeEnv(env string) (string, error) {
	res, present := os.LookupEnv(env)
	if !present {
		return "", fmt.Errorf("missing environment variable %s", env)
	}
	return res, nil
}

func ExtractAPIKey(c echo.Context) (string, error) {
	auth := c.Request().Header.Get("Authorization")
	if auth == "" {
		return "", ErrMissingAuth
	}

	parts := strings.Split(auth, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", ErrInvalidFormat
	}

	return parts[1], nil
}

// PromptFromBody returns the prompt when it is a non-empty string.
func PromptFromBody(body *InsightRequestBody) (string, bool) {
	if body == nil {
		return "", false
	}
	prompt, ok := body.Prompt.(string)
	if !ok || prompt == "" {
		return "", false
	}
	return prompt, true
}
