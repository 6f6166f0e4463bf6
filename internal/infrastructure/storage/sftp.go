package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sync"
	"time"

	"github.com/duomind/backend/internal/config"
	"github.com/duomind/backend/internal/core/ports"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SFTPStore keeps the content area on a remote host, for deployments where
// the API server has no durable local disk. One connection is held open and
// re-established lazily after failures.
type SFTPStore struct {
	cfg config.SFTPConfig

	mu     sync.Mutex
	client *sftp.Client
	conn   *ssh.Client
}

func NewSFTPStore(cfg config.SFTPConfig) (*SFTPStore, error) {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	s := &SFTPStore{cfg: cfg}
	client, err := s.connect()
	if err != nil {
		return nil, err
	}
	if err := client.MkdirAll(cfg.RemoteDir); err != nil {
		return nil, fmt.Errorf("failed to create remote dir %s: %w", cfg.RemoteDir, err)
	}
	return s, nil
}

func (s *SFTPStore) authMethods() ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if s.cfg.PrivateKey != "" {
		signer, err := ssh.ParsePrivateKey([]byte(s.cfg.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if s.cfg.Password != "" {
		methods = append(methods, ssh.Password(s.cfg.Password))
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("sftp: no credentials provided")
	}
	return methods, nil
}

func (s *SFTPStore) connect() (*sftp.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	methods, err := s.authMethods()
	if err != nil {
		return nil, err
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	conn, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            s.cfg.User,
		Auth:            methods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         s.cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("sftp: connection to %s failed: %w", addr, err)
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create sftp client: %w", err)
	}

	s.conn = conn
	s.client = client
	return client, nil
}

func (s *SFTPStore) reset() {
	s.mu.Lock()
	if s.client != nil {
		s.client.Close()
		s.client = nil
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.mu.Unlock()
}

func (s *SFTPStore) remotePath(name string) string {
	return path.Join(s.cfg.RemoteDir, path.Base(name))
}

func (s *SFTPStore) Save(ctx context.Context, name string, r io.Reader) error {
	client, err := s.connect()
	if err != nil {
		return err
	}
	f, err := client.Create(s.remotePath(name))
	if err != nil {
		s.reset()
		return fmt.Errorf("failed to create remote file: %w", err)
	}
	if _, err := f.ReadFrom(r); err != nil {
		f.Close()
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return f.Close()
}

func (s *SFTPStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	client, err := s.connect()
	if err != nil {
		return nil, err
	}
	f, err := client.Open(s.remotePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		s.reset()
		return nil, err
	}
	// Buffer the whole file so the ssh session is not held open by slow readers.
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, err
	}
	f.Close()
	return io.NopCloser(&buf), nil
}

func (s *SFTPStore) Exists(ctx context.Context, name string) (bool, error) {
	client, err := s.connect()
	if err != nil {
		return false, err
	}
	if _, err := client.Stat(s.remotePath(name)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *SFTPStore) Remove(ctx context.Context, name string) error {
	client, err := s.connect()
	if err != nil {
		return err
	}
	if err := client.Remove(s.remotePath(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *SFTPStore) Close() error {
	s.reset()
	return nil
}

var _ ports.FileStore = (*SFTPStore)(nil)
