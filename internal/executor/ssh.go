package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/time/rate"
)

// DefaultConnectTimeout applies when SSHConfig.ConnectTimeout is zero.
const DefaultConnectTimeout = 10 * time.Second

// maxConcurrent bounds simultaneous SSH sessions.
const maxConcurrent = 5

// SSHConfig holds SSH connection parameters.
type SSHConfig struct {
	User           string        // defaults to the current OS user
	ProxyJump      string        // optional jump host
	ConnectTimeout time.Duration // defaults to DefaultConnectTimeout

	// KnownHosts is the file host keys are verified against,
	// ~/.ssh/known_hosts when empty.
	KnownHosts string
	// InsecureIgnoreHostKey accepts any host key.
	InsecureIgnoreHostKey bool
}

// hostKeyCallback returns the verifier for server host keys. Hosts missing
// from the known hosts file are rejected, not learned.
func (c SSHConfig) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if c.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	path := c.KnownHosts
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating known_hosts: %w", err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("loading known hosts from %s: %w", path, err)
	}
	return cb, nil
}

// Runner runs one command on one host.
type Runner interface {
	// Run executes command on host and returns combined output. A command
	// that ran but exited non-zero is reported through exitCode, not err.
	Run(ctx context.Context, host, command string) (output string, exitCode int, err error)
	Close() error
}

// HostResult is the outcome on one host.
type HostResult struct {
	Host     string `json:"host"`
	Output   string `json:"output"`
	ExitCode int    `json:"exit_code"`
	Error    string `json:"error,omitempty"`
}

// SSH runs the command on each configured host. Connections are paced by
// Limiter and run with bounded concurrency.
type SSH struct {
	Runner  Runner
	Hosts   []string
	Limiter *rate.Limiter // nil means unpaced
	Out     io.Writer     // receives per-host output; may be nil
}

// Run executes text on every host and returns per-host results in host order.
func (s *SSH) Run(ctx context.Context, text string) []HostResult {
	results := make([]HostResult, len(s.Hosts))
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrent)

	for i, host := range s.Hosts {
		wg.Add(1)
		go func(idx int, host string) {
			defer wg.Done()
			sem <- struct{}{}        // acquire semaphore
			defer func() { <-sem }() // release semaphore

			results[idx] = s.runOne(ctx, host, text)
		}(i, host)
	}

	wg.Wait()
	return results
}

func (s *SSH) runOne(ctx context.Context, host, text string) HostResult {
	res := HostResult{Host: host}
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			res.Error = err.Error()
			return res
		}
	}

	log.Debug().Str("host", host).Msg("running command over ssh")
	out, code, err := s.Runner.Run(ctx, host, text)
	res.Output = out
	res.ExitCode = code
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// HostError reports hosts where the command failed to run or exited non-zero.
type HostError struct {
	Results []HostResult
}

func (e *HostError) Error() string {
	var parts []string
	for _, r := range e.Results {
		switch {
		case r.Error != "":
			parts = append(parts, r.Error)
		case r.ExitCode != 0:
			parts = append(parts, fmt.Sprintf("%s: exit status %d", r.Host, r.ExitCode))
		}
	}
	return strings.Join(parts, "; ")
}

// Deliver implements Deliverer. Output from each host is written to Out
// prefixed with the host name.
func (s *SSH) Deliver(ctx context.Context, text string) error {
	if len(s.Hosts) == 0 {
		return errors.New("no ssh hosts configured")
	}

	results := s.Run(ctx, text)
	var failed []HostResult
	for _, r := range results {
		if s.Out != nil {
			writeHostOutput(s.Out, r)
		}
		if r.Error != "" || r.ExitCode != 0 {
			failed = append(failed, r)
		}
	}
	if len(failed) > 0 {
		return &HostError{Results: failed}
	}
	return nil
}

func writeHostOutput(w io.Writer, r HostResult) {
	out := strings.TrimRight(r.Output, "\n")
	if out != "" {
		for _, line := range strings.Split(out, "\n") {
			fmt.Fprintf(w, "%s: %s\n", r.Host, line)
		}
	}
	if r.Error != "" {
		fmt.Fprintf(w, "%s: error: %s\n", r.Host, r.Error)
	}
}

// AgentRunner implements Runner using keys from the SSH agent.
type AgentRunner struct {
	cfg       SSHConfig
	agentConn net.Conn // connection to SSH agent, closed in Close()
	signers   []ssh.Signer
	username  string
	hostKeys  ssh.HostKeyCallback
}

// NewAgentRunner connects to the SSH agent named by SSH_AUTH_SOCK.
func NewAgentRunner(cfg SSHConfig) (*AgentRunner, error) {
	hostKeys, err := cfg.hostKeyCallback()
	if err != nil {
		return nil, err
	}

	authSock := os.Getenv("SSH_AUTH_SOCK")
	if authSock == "" {
		return nil, fmt.Errorf("SSH agent not running. Start with `eval $(ssh-agent)` and add keys with `ssh-add`")
	}

	conn, err := net.Dial("unix", authSock)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to SSH agent at %s: %w", authSock, err)
	}

	signers, err := agent.NewClient(conn).Signers()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("getting SSH agent signers: %w", err)
	}
	if len(signers) == 0 {
		conn.Close()
		return nil, fmt.Errorf("SSH agent has no keys. Add keys with `ssh-add`")
	}

	username := cfg.User
	if username == "" {
		if u, err := user.Current(); err == nil {
			username = u.Username
		}
	}

	return &AgentRunner{cfg: cfg, agentConn: conn, signers: signers, username: username, hostKeys: hostKeys}, nil
}

// Close releases the agent connection.
func (r *AgentRunner) Close() error {
	if r.agentConn != nil {
		return r.agentConn.Close()
	}
	return nil
}

func (r *AgentRunner) timeout() time.Duration {
	if r.cfg.ConnectTimeout > 0 {
		return r.cfg.ConnectTimeout
	}
	return DefaultConnectTimeout
}

// splitTarget parses "[user@]host[:port]".
func splitTarget(target, defaultUser string) (userName, addr string) {
	userName = defaultUser
	if at := strings.LastIndex(target, "@"); at >= 0 {
		userName, target = target[:at], target[at+1:]
	}
	if _, _, err := net.SplitHostPort(target); err == nil {
		return userName, target
	}
	return userName, net.JoinHostPort(strings.Trim(target, "[]"), "22")
}

// Run implements Runner, connecting directly or through the jump host.
func (r *AgentRunner) Run(ctx context.Context, host, command string) (string, int, error) {
	userName, addr := splitTarget(host, r.username)

	clientConfig := &ssh.ClientConfig{
		User:            userName,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(r.signers...)},
		HostKeyCallback: r.hostKeys,
		Timeout:         r.timeout(),
	}

	var client *ssh.Client
	var err error
	if r.cfg.ProxyJump != "" {
		var jump *ssh.Client
		client, jump, err = r.dialViaProxy(ctx, addr, clientConfig)
		if jump != nil {
			defer jump.Close()
		}
	} else {
		client, err = dialContext(ctx, addr, clientConfig)
	}
	if err != nil {
		return "", 0, r.wrapSSHError(err, host)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", 0, fmt.Errorf("creating SSH session on %s: %w", host, err)
	}
	defer session.Close()

	// Closing the session unblocks CombinedOutput on cancellation.
	stop := context.AfterFunc(ctx, func() { session.Close() })
	defer stop()

	output, err := session.CombinedOutput(command)
	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return string(output), exitErr.ExitStatus(), nil
		}
		if ctx.Err() != nil {
			return string(output), 0, ctx.Err()
		}
		return string(output), 0, fmt.Errorf("running on %s: %w", host, err)
	}
	return string(output), 0, nil
}

func dialContext(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	d := net.Dialer{Timeout: config.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	ncc, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return ssh.NewClient(ncc, chans, reqs), nil
}

// dialViaProxy connects to the target through the jump host.
// Returns both the target client and the jump client; caller must close both.
func (r *AgentRunner) dialViaProxy(ctx context.Context, addr string, config *ssh.ClientConfig) (client *ssh.Client, jumpClient *ssh.Client, err error) {
	proxyUser, proxyAddr := splitTarget(r.cfg.ProxyJump, config.User)
	proxyConfig := &ssh.ClientConfig{
		User:            proxyUser,
		Auth:            config.Auth,
		HostKeyCallback: config.HostKeyCallback,
		Timeout:         config.Timeout,
	}

	jumpClient, err = dialContext(ctx, proxyAddr, proxyConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot reach proxy %s: %w", r.cfg.ProxyJump, err)
	}

	targetConn, err := jumpClient.Dial("tcp", addr)
	if err != nil {
		jumpClient.Close()
		return nil, nil, fmt.Errorf("cannot reach %s through proxy %s: %w", addr, r.cfg.ProxyJump, err)
	}

	ncc, chans, reqs, err := ssh.NewClientConn(targetConn, addr, config)
	if err != nil {
		targetConn.Close()
		jumpClient.Close()
		return nil, nil, fmt.Errorf("SSH handshake with %s failed: %w", addr, err)
	}

	return ssh.NewClient(ncc, chans, reqs), jumpClient, nil
}

// wrapSSHError produces actionable error messages based on SSH error types.
func (r *AgentRunner) wrapSSHError(err error, host string) error {
	var keyErr *knownhosts.KeyError
	if errors.As(err, &keyErr) {
		if len(keyErr.Want) == 0 {
			return fmt.Errorf("host key for %s is not in known_hosts. Connect once with ssh to add it", host)
		}
		return fmt.Errorf("host key for %s does not match known_hosts: %w", host, err)
	}

	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "no supported methods remain"):
		return fmt.Errorf("SSH authentication failed for %s as %s. Check that your key is authorized", host, r.username)
	case strings.Contains(errStr, "i/o timeout") || strings.Contains(errStr, "connection timed out"):
		if r.cfg.ProxyJump != "" && strings.Contains(errStr, r.cfg.ProxyJump) {
			return fmt.Errorf("cannot reach proxy %s: connection timed out", r.cfg.ProxyJump)
		}
		return fmt.Errorf("connection to %s timed out", host)
	case strings.Contains(errStr, "connection refused"):
		return fmt.Errorf("connection refused by %s: is SSH running on the host?", host)
	default:
		return fmt.Errorf("SSH error connecting to %s: %w", host, err)
	}
}
