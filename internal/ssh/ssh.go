// Package ssh builds the client side auth and host key settings used to read
// sources from remote hosts over SSH.
package ssh

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Agent used for SSH auth. It requires SSH_AUTH_SOCK to be set.
func Agent() (gossh.AuthMethod, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, fmt.Errorf("SSH_AUTH_SOCK not set")
	}
	sshAgent, err := net.Dial("unix", sock)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SSH agent: %w", err)
	}
	agentClient := agent.NewClient(sshAgent)
	return gossh.PublicKeysCallback(agentClient.Signers), nil
}

// KeyFile returns the key as a SSH auth method. Phrase protected keys are not
// supported.
func KeyFile(keyFile string) (gossh.AuthMethod, error) {
	buffer, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, err
	}
	key, err := gossh.ParsePrivateKey(buffer)
	if err != nil {
		return nil, fmt.Errorf("unable to parse private key %s: %w", keyFile, err)
	}
	return gossh.PublicKeys(key), nil
}

// AuthMethods collects the usable auth methods: the private key file if
// given and the agent if reachable. It fails if none is usable.
func AuthMethods(keyFile string) ([]gossh.AuthMethod, error) {
	var methods []gossh.AuthMethod
	var errs []error

	if keyFile != "" {
		m, err := KeyFile(keyFile)
		if err == nil {
			methods = append(methods, m)
		} else {
			errs = append(errs, err)
		}
	}
	if m, err := Agent(); err == nil {
		methods = append(methods, m)
	} else {
		errs = append(errs, err)
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("no usable SSH auth method: %v", errs)
	}
	return methods, nil
}

// DefaultKnownHostsFile returns ~/.ssh/known_hosts.
func DefaultKnownHostsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".ssh", "known_hosts")
	}
	return filepath.Join(home, ".ssh", "known_hosts")
}

// HostKeyCallback verifies host keys against a known_hosts file. With
// trustAllHosts every host key is accepted.
func HostKeyCallback(knownHostsFile string, trustAllHosts bool) (gossh.HostKeyCallback, error) {
	if trustAllHosts {
		return gossh.InsecureIgnoreHostKey(), nil
	}
	callback, err := knownhosts.New(knownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read known hosts file %s: %w", knownHostsFile, err)
	}
	return callback, nil
}
