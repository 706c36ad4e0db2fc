package verify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
)

// errKeySeen aborts the handshake once the host key has been recorded
var errKeySeen = errors.New("host key recorded")

// HostKeyCollector records SSH server host keys without authenticating
type HostKeyCollector struct {
	timeout time.Duration
	user    string
}

// NewHostKeyCollector creates a collector. user is sent in the client
// config but authentication is never attempted.
func NewHostKeyCollector(timeout time.Duration, user string) *HostKeyCollector {
	if user == "" {
		user = "spectrum-inventory"
	}
	return &HostKeyCollector{timeout: timeout, user: user}
}

// Collect performs the SSH key exchange with address:port and returns the
// server host key fingerprint in ssh.FingerprintSHA256 form
func (c *HostKeyCollector) Collect(ctx context.Context, address string, port int) (string, error) {
	addr := net.JoinHostPort(address, strconv.Itoa(port))

	dialer := &net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to dial: %w", err)
	}
	defer conn.Close()

	if c.timeout > 0 {
		conn.SetDeadline(time.Now().Add(c.timeout))
	}

	var fingerprint string
	config := &ssh.ClientConfig{
		User: c.user,
		HostKeyCallback: func(_ string, _ net.Addr, key ssh.PublicKey) error {
			fingerprint = ssh.FingerprintSHA256(key)
			return errKeySeen
		},
		Timeout: c.timeout,
	}

	sshConn, _, _, err := ssh.NewClientConn(conn, addr, config)
	if sshConn != nil {
		sshConn.Close()
	}
	if fingerprint != "" {
		return fingerprint, nil
	}
	if err == nil {
		err = errors.New("server presented no host key")
	}
	return "", fmt.Errorf("ssh handshake with %s: %w", addr, err)
}
