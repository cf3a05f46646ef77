package api

import (
	"github.com/gin-gonic/gin"
)

// Route A handler mounted under the API base path
type Route struct {
	Path    string
	Method  string
	Handler gin.HandlerFunc
}

// Controller A group of routes
type Controller interface {
	GetRoutes() []Route
}
