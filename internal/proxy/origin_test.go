package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrigin(t *testing.T) {
	cases := []struct {
		in   string
		want Origin
	}{
		{"unix:/tmp/origin.sock", Origin{Unix: "/tmp/origin.sock"}},
		{"example.com:8080", Origin{Host: "example.com", Port: 8080}},
		{"example.com", Origin{Host: "example.com", Port: 80}},
		{"127.0.0.1:3000", Origin{Host: "127.0.0.1", Port: 3000}},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, ParseOrigin(c.in), c.in)
	}
}

func TestOrigin_NetworkAndAddress(t *testing.T) {
	unix := ParseOrigin("unix:/run/app.sock")
	assert.Equal(t, "unix", unix.Network())
	assert.Equal(t, "/run/app.sock", unix.Address())

	tcp := ParseOrigin("example.com:3000")
	assert.Equal(t, "tcp", tcp.Network())
	assert.Equal(t, "example.com:3000", tcp.Address())
}
