package config

// Package config provides configuration management for grid simulations

// Data archive defaults
const (
	DefaultDataRoot = "data"
	DefaultExchange = "bybit" // archive layout of the Bybit downloader
)
