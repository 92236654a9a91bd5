// Package mirror copies local capture files to a remote directory over
// SSH. Every publish is a single attempt: failures are reported to the
// caller, never retried here. The session's finalize pass re-uploads
// the whole directory, which covers anything a per-file publish missed.
package mirror

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/owlbox/owlcap/pkg/logger"
)

// DefaultPort is the standard SSH port.
const DefaultPort = 22

// DefaultDialTimeout bounds connection establishment so a dead link
// cannot hang the session indefinitely.
const DefaultDialTimeout = 30 * time.Second

// Target identifies the remote directory files are mirrored into.
// Built once from configuration and shared read-only.
type Target struct {
	User        string
	Host        string
	Dir         string
	KeyPath     string
	Port        int
	DialTimeout time.Duration
}

// Validate reports every missing required field at once, the way the
// CLI surfaces configuration errors before anything runs.
func (t Target) Validate() error {
	var missing []string
	if t.Host == "" {
		missing = append(missing, "remote host")
	}
	if t.User == "" {
		missing = append(missing, "remote user")
	}
	if t.Dir == "" {
		missing = append(missing, "remote directory")
	}
	if len(missing) > 0 {
		return fmt.Errorf("remote publish enabled but missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Addr returns the host:port dial address.
func (t Target) Addr() string {
	port := t.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(port))
}

// RemotePath maps a local file into the target directory, preserving
// the base name.
func (t Target) RemotePath(localPath string) string {
	return path.Join(strings.TrimRight(t.Dir, "/"), filepath.Base(localPath))
}

// Publisher uploads one local file to the remote target. Implemented
// by Mirror; session tests substitute a recording fake.
type Publisher interface {
	Publish(ctx context.Context, localPath string) error
	Close() error
}

// remoteFS is the slice of the SFTP client a transfer needs. Split out
// so the ensure-then-upload logic is testable without a live SSH
// connection.
type remoteFS interface {
	MkdirAll(path string) error
	Create(path string) (io.WriteCloser, error)
}

// sftpFS adapts *sftp.Client to remoteFS.
type sftpFS struct{ *sftp.Client }

func (f sftpFS) Create(path string) (io.WriteCloser, error) { return f.Client.Create(path) }

// Mirror is the SSH/SFTP Publisher. The connection is dialed lazily on
// first publish and reused; a failed transfer drops it so the next
// call redials.
type Mirror struct {
	target Target

	mu   sync.Mutex
	conn *ssh.Client
	sftp remoteFS
}

// New validates the target and returns a Mirror. No connection is made
// until the first Publish.
func New(target Target) (*Mirror, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if target.DialTimeout == 0 {
		target.DialTimeout = DefaultDialTimeout
	}
	return &Mirror{target: target}, nil
}

// Target returns the immutable remote target.
func (m *Mirror) Target() Target { return m.target }

// Publish ensures the remote directory exists, then copies localPath
// into it under the same base name, overwriting any previous upload.
// The transfer is skipped entirely when the directory cannot be
// ensured.
func (m *Mirror) Publish(ctx context.Context, localPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	client, err := m.client()
	if err != nil {
		return fmt.Errorf("cannot reach %s: %w", m.target.Addr(), err)
	}

	if err := client.MkdirAll(m.target.Dir); err != nil {
		m.drop()
		return fmt.Errorf("skipping upload of %s; could not ensure remote directory %s: %w",
			filepath.Base(localPath), m.target.Dir, err)
	}

	local, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("cannot open %s for upload: %w", localPath, err)
	}
	defer local.Close()

	remotePath := m.target.RemotePath(localPath)
	remote, err := client.Create(remotePath)
	if err != nil {
		m.drop()
		return fmt.Errorf("cannot create remote file %s: %w", remotePath, err)
	}

	if _, err := io.Copy(remote, local); err != nil {
		remote.Close()
		m.drop()
		return fmt.Errorf("upload of %s failed: %w", filepath.Base(localPath), err)
	}
	if err := remote.Close(); err != nil {
		m.drop()
		return fmt.Errorf("upload of %s failed on close: %w", filepath.Base(localPath), err)
	}

	logger.Info("Uploaded", "file", filepath.Base(localPath),
		"target", fmt.Sprintf("%s@%s:%s", m.target.User, m.target.Host, m.target.Dir))
	return nil
}

// Close tears down the SSH connection if one was established.
func (m *Mirror) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.conn = nil
	m.sftp = nil
	return err
}

// client returns the live SFTP client, dialing on first use.
// Caller holds m.mu.
func (m *Mirror) client() (remoteFS, error) {
	if m.sftp != nil {
		return m.sftp, nil
	}

	cfg := &ssh.ClientConfig{
		User: m.target.User,
		Auth: m.authMethods(),
		// Field units rarely carry a curated known_hosts; the channel
		// moves public snapshots, not secrets.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         m.target.DialTimeout,
	}

	logger.Debug("Dialing remote host", "addr", m.target.Addr(), "user", m.target.User)
	conn, err := ssh.Dial("tcp", m.target.Addr(), cfg)
	if err != nil {
		return nil, err
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sftp subsystem unavailable: %w", err)
	}

	m.conn = conn
	m.sftp = sftpFS{client}
	return m.sftp, nil
}

// drop discards a connection after a failure so the next publish
// starts from a fresh dial. Caller holds m.mu.
func (m *Mirror) drop() {
	if m.conn != nil {
		m.conn.Close()
	}
	m.conn = nil
	m.sftp = nil
}

// authMethods builds the key-based auth chain: configured key file,
// the default user key, then the SSH agent when one is running.
func (m *Mirror) authMethods() []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	keyPaths := []string{}
	if m.target.KeyPath != "" {
		keyPaths = append(keyPaths, m.target.KeyPath)
	}
	if home, err := os.UserHomeDir(); err == nil {
		keyPaths = append(keyPaths, filepath.Join(home, ".ssh", "id_rsa"))
	}
	for _, keyPath := range keyPaths {
		data, err := os.ReadFile(keyPath)
		if err != nil {
			logger.Debug("SSH key not readable", "path", keyPath, "error", err)
			continue
		}
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			logger.Warn("SSH key not parseable", "path", keyPath, "error", err)
			continue
		}
		methods = append(methods, ssh.PublicKeys(signer))
		break
	}

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	return methods
}
