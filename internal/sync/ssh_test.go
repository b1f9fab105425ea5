package sync

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/existflow/mtc/internal/config"
	"github.com/existflow/mtc/internal/store"
)

const (
	testUser     = "mtc"
	testPassword = "secret"
)

// startSSHServer runs an SSH server on localhost that executes every exec
// request with sh, like a real login shell would
func startSSHServer(t *testing.T) (string, ssh.PublicKey) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == testUser && string(pass) == testPassword {
				return nil, nil
			}
			return nil, errors.New("access denied")
		},
	}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveSSHConn(conn, cfg)
		}
	}()
	return ln.Addr().String(), signer.PublicKey()
}

func serveSSHConn(conn net.Conn, cfg *ssh.ServerConfig) {
	sc, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		conn.Close()
		return
	}
	defer sc.Close()
	go ssh.DiscardRequests(reqs)

	for nc := range chans {
		if nc.ChannelType() != "session" {
			nc.Reject(ssh.UnknownChannelType, "only sessions")
			continue
		}
		ch, chReqs, err := nc.Accept()
		if err != nil {
			continue
		}
		go serveExec(ch, chReqs)
	}
}

func serveExec(ch ssh.Channel, reqs <-chan *ssh.Request) {
	defer ch.Close()
	for req := range reqs {
		if req.Type != "exec" {
			req.Reply(false, nil)
			continue
		}
		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			req.Reply(false, nil)
			return
		}
		req.Reply(true, nil)

		cmd := exec.Command("sh", "-c", payload.Command)
		cmd.Stdin = ch
		cmd.Stdout = ch
		cmd.Stderr = ch.Stderr()
		status := 0
		if err := cmd.Run(); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				status = exitErr.ExitCode()
			} else {
				status = 127
			}
		}
		ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{uint32(status)}))
		return
	}
}

func dialTestServer(t *testing.T, addr, dir string) *SSHTransport {
	t.Helper()
	tr, err := DialSSH(context.Background(), SSHOptions{
		Address:         addr,
		Username:        testUser,
		Dir:             dir,
		Auth:            []ssh.AuthMethod{ssh.Password(testPassword)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	})
	if err != nil {
		t.Fatalf("DialSSH: %v", err)
	}
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestSSHTransportFetchAndStore(t *testing.T) {
	addr, _ := startSSHServer(t)
	dir := filepath.Join(t.TempDir(), "mtc remote")
	tr := dialTestServer(t, addr, dir)
	ctx := context.Background()

	if _, err := tr.Fetch(ctx, store.TodosFile); !errors.Is(err, ErrRemoteNotFound) {
		t.Fatalf("Fetch missing = %v, want ErrRemoteNotFound", err)
	}

	for _, payload := range []string{`{"items":[],"is_server":true}`, `{"items":[{"body":"it's"}],"is_server":true}`} {
		if err := tr.Store(ctx, store.TodosFile, []byte(payload)); err != nil {
			t.Fatalf("Store: %v", err)
		}
		got, err := tr.Fetch(ctx, store.TodosFile)
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if string(got) != payload {
			t.Errorf("Fetch = %q, want %q", got, payload)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != store.TodosFile {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("remote dir holds %v, want only %s", names, store.TodosFile)
	}
	info, err := os.Stat(filepath.Join(dir, store.TodosFile))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0644 {
		t.Errorf("snapshot mode = %o, want 644", perm)
	}
}

func TestSSHTransportReportsCommandErrors(t *testing.T) {
	addr, _ := startSSHServer(t)
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	// the remote dir would have to live below a regular file
	tr := dialTestServer(t, addr, filepath.Join(blocker, "sub"))

	err := tr.Store(context.Background(), store.TasksFile, []byte("{}"))
	if err == nil {
		t.Fatal("Store below a file succeeded")
	}
	if errors.Is(err, ErrRemoteNotFound) || !strings.Contains(err.Error(), store.TasksFile) {
		t.Errorf("Store error = %v", err)
	}
}

func TestSSHOptionsFromConfigKnownHosts(t *testing.T) {
	addr, hostKey := startSSHServer(t)
	home := t.TempDir()

	writeKnownHosts := func(key ssh.PublicKey) string {
		path := filepath.Join(home, "known_hosts")
		line := knownhosts.Line([]string{knownhosts.Normalize(addr)}, key)
		if err := os.WriteFile(path, []byte(line+"\n"), 0600); err != nil {
			t.Fatal(err)
		}
		return path
	}
	cfg := config.SyncConfig{
		Address:    addr,
		Username:   testUser,
		ServerPath: filepath.Join(home, "remote"),
		KnownHosts: writeKnownHosts(hostKey),
	}
	prompts := 0
	prompt := func(string) ([]byte, error) {
		prompts++
		return []byte(testPassword), nil
	}

	opts, err := SSHOptionsFromConfig(cfg, prompt)
	if err != nil {
		t.Fatal(err)
	}
	tr, err := DialSSH(context.Background(), opts)
	if err != nil {
		t.Fatalf("DialSSH with known host: %v", err)
	}
	tr.Close()
	if prompts != 1 {
		t.Errorf("password prompted %d times, want 1", prompts)
	}

	_, other, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	otherSigner, err := ssh.NewSignerFromKey(other)
	if err != nil {
		t.Fatal(err)
	}
	cfg.KnownHosts = writeKnownHosts(otherSigner.PublicKey())
	opts, err = SSHOptionsFromConfig(cfg, prompt)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DialSSH(context.Background(), opts); err == nil {
		t.Error("DialSSH accepted a host key that is not in known_hosts")
	}
}

func TestDialSSHWrongPassword(t *testing.T) {
	addr, _ := startSSHServer(t)
	_, err := DialSSH(context.Background(), SSHOptions{
		Address:         addr,
		Username:        testUser,
		Auth:            []ssh.AuthMethod{ssh.Password("guess")},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	})
	if err == nil {
		t.Error("wrong password accepted")
	}
}
