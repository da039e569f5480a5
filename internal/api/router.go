// api/router.go
package api

import (
	"github.com/gin-gonic/gin"
)

func NewRouter(st *State, clientPkg string) *gin.Engine {
	r := gin.Default()

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/compile", CompileHandler(st))
		apiGroup.GET("/meta", MetaListHandler(st))
		apiGroup.GET("/meta/:model", MetaModelHandler(st))
		apiGroup.GET("/lint", LintHandler(st))
		apiGroup.GET("/indexes/:model", IndexesHandler(st))
		apiGroup.GET("/client", ClientHandler(st, clientPkg))
	}

	return r
}

func RunServer(addr string, st *State, clientPkg string) {
	_ = NewRouter(st, clientPkg).Run(addr)
}
