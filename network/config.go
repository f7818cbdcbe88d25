// Package network is the remote control surface: external analyzers and controllers
// connect over framed TCP and push visual energy, tap tempo and macro-pad gestures
package network

import (
	"crypto/tls"
	"time"
)

// Config holds listener settings
type Config struct {
	// Address to bind; empty disables the service
	Address string

	// TLS configuration (nil = plaintext, local use)
	TLS *tls.Config

	// Connection limits
	MaxPeers int

	// ReadTimeout drops peers that send nothing, heartbeats included, for this long
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	SendQueueSize int
}

// DefaultConfig returns settings for addr
func DefaultConfig(addr string) *Config {
	return &Config{
		Address:       addr,
		MaxPeers:      8,
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  5 * time.Second,
		SendQueueSize: 64,
	}
}
