package cache

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SFTPConfig holds SFTP connection configuration.
type SFTPConfig struct {
	Host     string `yaml:"host" toml:"host"`
	Port     int    `yaml:"port" toml:"port"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"` // or use KeyFile
	KeyFile  string `yaml:"key_file" toml:"key_file"`
	HostKey  string `yaml:"host_key" toml:"host_key"` // SSH host public key for verification
	BasePath string `yaml:"base_path" toml:"base_path"`
}

// SFTP stores entries as files on a remote host.
type SFTP struct {
	client   *sftp.Client
	basePath string
}

// NewSFTP connects to the configured host and returns an SFTP cache.
func NewSFTP(cfg SFTPConfig) (*SFTP, error) {
	var auth []ssh.AuthMethod

	if cfg.KeyFile != "" {
		keyBytes, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key file: %w", err)
		}
		key, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		auth = []ssh.AuthMethod{ssh.PublicKeys(key)}
	} else if cfg.Password != "" {
		auth = []ssh.AuthMethod{ssh.Password(cfg.Password)}
	} else {
		return nil, fmt.Errorf("either password or key file must be provided")
	}

	var hostKeyCallback ssh.HostKeyCallback
	if cfg.HostKey != "" {
		hostKey, _, _, _, err := ssh.ParseAuthorizedKey([]byte(cfg.HostKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse host key: %w", err)
		}
		hostKeyCallback = ssh.FixedHostKey(hostKey)
	} else {
		var err error
		hostKeyCallback, err = knownhosts.New(os.ExpandEnv("$HOME/.ssh/known_hosts"))
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}
	}

	sshConfig := &ssh.ClientConfig{
		User:            cfg.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         10 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	sshClient, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SSH server: %w", err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("failed to create SFTP client: %w", err)
	}

	return &SFTP{
		client:   sftpClient,
		basePath: cfg.BasePath,
	}, nil
}

func (s *SFTP) path(key string) string {
	return path.Join(s.basePath, key)
}

// Contains reports whether a remote file exists for key.
func (s *SFTP) Contains(key string) (bool, error) {
	_, err := s.client.Stat(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Get reads the remote file for key.
func (s *SFTP) Get(key string) ([]byte, error) {
	f, err := s.client.Open(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrMiss
		}
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// Set writes data to the remote file for key.
func (s *SFTP) Set(key string, data []byte) error {
	fullPath := s.path(key)

	if err := s.client.MkdirAll(path.Dir(fullPath)); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path.Dir(fullPath), err)
	}

	f, err := s.client.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// Delete removes the remote file for key.
func (s *SFTP) Delete(key string) error {
	err := s.client.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Prune removes remote files last modified more than maxAge ago.
func (s *SFTP) Prune(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	entries, err := s.client.ReadDir(s.basePath)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !entry.ModTime().Before(cutoff) {
			continue
		}
		if err := s.client.Remove(path.Join(s.basePath, entry.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Close closes the SFTP connection.
func (s *SFTP) Close() error {
	return s.client.Close()
}
