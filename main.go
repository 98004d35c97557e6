package main

import (
	"github.com/biosecret/go-todo/app"
	_ "github.com/biosecret/go-todo/docs"
)

// @title Todo API
// @version 1.0
// @description Multi-user to-do list backed by JSON documents with JWT authentication.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// setup and run app
	err := app.SetupAndRunApp()
	if err != nil {
		panic(err)
	}
}
