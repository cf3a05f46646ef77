package models

import (
	"os"
	"strings"
)

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envVarIsTrueOrYes(envVar string) bool {
	return strings.EqualFold(envVar, "true") || strings.EqualFold(envVar, "yes")
}
