package resolver

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SFTPConfig holds connection settings for the sftp document source.
type SFTPConfig struct {
	// User overrides the username embedded in the URI.
	User string
	// KeyPath is the private key file; defaults to ~/.ssh/id_ed25519.
	KeyPath string
	// KnownHostsPath defaults to ~/.ssh/known_hosts.
	KnownHostsPath string
	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration
}

// SFTPSource fetches documents over ssh for sftp:// URIs. Connections are
// per-fetch: the viewer opens remote notebooks rarely enough that keeping
// sessions alive is not worth the reconnect handling.
type SFTPSource struct {
	config SFTPConfig
}

// NewSFTPSource creates an sftp source with defaults filled in.
func NewSFTPSource(cfg SFTPConfig) (*SFTPSource, error) {
	home, err := os.UserHomeDir()
	if err != nil && (cfg.KeyPath == "" || cfg.KnownHostsPath == "") {
		return nil, fmt.Errorf("resolve home dir for ssh defaults: %w", err)
	}
	if cfg.KeyPath == "" {
		cfg.KeyPath = filepath.Join(home, ".ssh", "id_ed25519")
	}
	if cfg.KnownHostsPath == "" {
		cfg.KnownHostsPath = filepath.Join(home, ".ssh", "known_hosts")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 15 * time.Second
	}
	return &SFTPSource{config: cfg}, nil
}

// Fetch downloads the file behind an sftp://[user@]host[:port]/path URI.
func (s *SFTPSource) Fetch(ctx context.Context, uri string) ([]byte, error) {
	user, addr, remotePath, err := parseSFTPURI(uri)
	if err != nil {
		return nil, err
	}
	if s.config.User != "" {
		user = s.config.User
	}
	if user == "" {
		user = os.Getenv("USER")
	}

	clientCfg, err := s.clientConfig(user)
	if err != nil {
		return nil, err
	}

	conn, err := dialSSH(ctx, addr, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := sftp.NewClient(conn)
	if err != nil {
		return nil, fmt.Errorf("sftp session: %w", err)
	}
	defer client.Close()

	f, err := client.Open(remotePath)
	if err != nil {
		return nil, fmt.Errorf("open remote %s: %w", remotePath, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read remote %s: %w", remotePath, err)
	}
	if len(data) > maxDocumentBytes {
		return nil, fmt.Errorf("remote %s is over the %d byte limit", remotePath, maxDocumentBytes)
	}
	return data, nil
}

func (s *SFTPSource) clientConfig(user string) (*ssh.ClientConfig, error) {
	keyData, err := os.ReadFile(s.config.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("read ssh key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		return nil, fmt.Errorf("parse ssh key: %w", err)
	}

	hostKeyCallback, err := knownhosts.New(s.config.KnownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("load known_hosts: %w", err)
	}

	return &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         s.config.DialTimeout,
	}, nil
}

// dialSSH respects context cancellation during connection establishment.
func dialSSH(ctx context.Context, addr string, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	d := net.Dialer{Timeout: cfg.Timeout}
	netConn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, cfg)
	if err != nil {
		_ = netConn.Close()
		return nil, err
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

// parseSFTPURI splits sftp://[user@]host[:port]/path into its parts.
func parseSFTPURI(uri string) (user, addr, path string, err error) {
	const prefix = "sftp://"
	if !strings.HasPrefix(uri, prefix) {
		return "", "", "", fmt.Errorf("uri %q is not sftp", uri)
	}

	rest := strings.TrimPrefix(uri, prefix)
	slash := strings.Index(rest, "/")
	if slash <= 0 {
		return "", "", "", fmt.Errorf("uri %q has no remote path", uri)
	}
	hostPart := rest[:slash]
	path = rest[slash:]

	if at := strings.Index(hostPart, "@"); at >= 0 {
		user = hostPart[:at]
		hostPart = hostPart[at+1:]
	}
	if hostPart == "" {
		return "", "", "", fmt.Errorf("uri %q has no host", uri)
	}
	if !strings.Contains(hostPart, ":") {
		hostPart += ":22"
	}
	return user, hostPart, path, nil
}
