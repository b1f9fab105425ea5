package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/existflow/mtc/internal/config"
	"github.com/existflow/mtc/internal/logger"
)

// exit status used by the fetch command when the file is missing
const missingExitStatus = 44

// PromptFunc asks the user for a secret
type PromptFunc func(prompt string) ([]byte, error)

// SSHTransport copies snapshots with plain shell commands over an SSH session,
// the way scp does, below a remote directory.
type SSHTransport struct {
	client *ssh.Client
	dir    string
}

// SSHOptions holds everything needed to open an SSHTransport
type SSHOptions struct {
	Address         string
	Username        string
	Dir             string
	Auth            []ssh.AuthMethod
	HostKeyCallback ssh.HostKeyCallback
	Timeout         time.Duration
}

// DialSSH connects and authenticates
func DialSSH(ctx context.Context, opts SSHOptions) (*SSHTransport, error) {
	if opts.Address == "" || opts.Username == "" {
		return nil, errors.New("ssh sync needs sync.address and sync.username in the config")
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	address := opts.Address
	if _, _, err := net.SplitHostPort(address); err != nil {
		address = net.JoinHostPort(address, "22")
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	clientConfig := &ssh.ClientConfig{
		User:            opts.Username,
		Auth:            opts.Auth,
		HostKeyCallback: opts.HostKeyCallback,
		Timeout:         timeout,
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, address, clientConfig)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s failed: %w", address, err)
	}

	logger.Info("SSH session established", logger.F("address", address), logger.F("user", opts.Username))
	return &SSHTransport{client: ssh.NewClient(c, chans, reqs), dir: opts.Dir}, nil
}

// SSHOptionsFromConfig builds options from the sync config, prompting for a
// password or key passphrase when needed
func SSHOptionsFromConfig(cfg config.SyncConfig, prompt PromptFunc) (SSHOptions, error) {
	hostKeys, err := hostKeyCallback(cfg)
	if err != nil {
		return SSHOptions{}, err
	}
	auth, err := authMethods(cfg, prompt)
	if err != nil {
		return SSHOptions{}, err
	}
	return SSHOptions{
		Address:         cfg.Address,
		Username:        cfg.Username,
		Dir:             cfg.ServerPath,
		Auth:            auth,
		HostKeyCallback: hostKeys,
	}, nil
}

func hostKeyCallback(cfg config.SyncConfig) (ssh.HostKeyCallback, error) {
	if cfg.InsecureHostKey {
		logger.Warn("SSH host key verification disabled")
		return ssh.InsecureIgnoreHostKey(), nil
	}
	cb, err := knownhosts.New(cfg.KnownHosts)
	if err != nil {
		return nil, fmt.Errorf("failed to load known_hosts %s: %w", cfg.KnownHosts, err)
	}
	return cb, nil
}

func authMethods(cfg config.SyncConfig, prompt PromptFunc) ([]ssh.AuthMethod, error) {
	if cfg.KeyFile != "" {
		pem, err := os.ReadFile(cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			passphrase, perr := prompt(fmt.Sprintf("Passphrase for %s: ", cfg.KeyFile))
			if perr != nil {
				return nil, perr
			}
			signer, err = ssh.ParsePrivateKeyWithPassphrase(pem, passphrase)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse key file: %w", err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}

	password := ssh.PasswordCallback(func() (string, error) {
		secret, err := prompt(fmt.Sprintf("%s@%s's password: ", cfg.Username, cfg.Address))
		return string(secret), err
	})
	return []ssh.AuthMethod{password}, nil
}

func (t *SSHTransport) remotePath(name string) string {
	if t.dir == "" {
		return name
	}
	return path.Join(t.dir, name)
}

// Fetch reads the remote file
func (t *SSHTransport) Fetch(ctx context.Context, name string) ([]byte, error) {
	p := shellQuote(t.remotePath(name))
	cmd := fmt.Sprintf("test -f %s || exit %d; cat %s", p, missingExitStatus, p)

	out, err := t.run(ctx, cmd, nil)
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitStatus() == missingExitStatus {
		return nil, fmt.Errorf("%s: %w", t.remotePath(name), ErrRemoteNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", name, err)
	}
	logger.Debug("Downloaded snapshot", logger.F("name", name), logger.F("bytes", len(out)))
	return out, nil
}

// Store writes to a temporary file next to the target and moves it into
// place, so a broken connection never leaves a torn snapshot.
func (t *SSHTransport) Store(ctx context.Context, name string, data []byte) error {
	target := t.remotePath(name)
	tmp := fmt.Sprintf("%s.%s.tmp", target, uuid.NewString())
	cmd := fmt.Sprintf("mkdir -p %s && cat > %s && chmod 644 %s && mv -f %s %s",
		shellQuote(path.Dir(target)), shellQuote(tmp), shellQuote(tmp), shellQuote(tmp), shellQuote(target))

	if _, err := t.run(ctx, cmd, data); err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}
	logger.Debug("Uploaded snapshot", logger.F("name", name), logger.F("bytes", len(data)))
	return nil
}

// run executes cmd in a fresh session. Cancelling ctx closes the session.
func (t *SSHTransport) run(ctx context.Context, cmd string, stdin []byte) ([]byte, error) {
	session, err := t.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	if stdin != nil {
		session.Stdin = bytes.NewReader(stdin)
	}

	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()

	select {
	case <-ctx.Done():
		session.Close()
		return nil, ctx.Err()
	case err := <-done:
		if err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return nil, fmt.Errorf("%w: %s", err, msg)
			}
			return nil, err
		}
		return stdout.Bytes(), nil
	}
}

// Close ends the SSH connection
func (t *SSHTransport) Close() error {
	return t.client.Close()
}

// shellQuote wraps s in single quotes for a POSIX shell
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
