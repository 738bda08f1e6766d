package utils

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPingService(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	addr := ln.Addr().(*net.TCPAddr)
	assert.NoError(t, PingService("http://"+addr.String(), time.Second))

	_, port, _ := net.SplitHostPort(addr.String())
	ln.Close()
	assert.Error(t, PingService("http://127.0.0.1:"+port, 200*time.Millisecond))
}

func TestPingServiceInvalidURL(t *testing.T) {
	assert.ErrorContains(t, PingService("not a url", time.Second), "invalid URL")
	assert.ErrorContains(t, PingService("://bad", time.Second), "invalid URL")
}
