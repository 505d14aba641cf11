package main

//go:generate swag init -g cmd/creditdash/docs.go -o docs

// @title           Credit Dashboard API
// @version         0.1.0
// @description     Credit portfolio dashboard queries and the analyst agent chat.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
