package httputil

import "github.com/gin-gonic/gin"

// IHttpHandler registers one route group under /api/v1. pub serves reads; private serves
// operations that sign with the operator key; admin is reserved.
type IHttpHandler interface {
	Root() string
	SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup)
}
