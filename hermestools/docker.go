package hermestools

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/ory/dockertest"
)

// DockerServiceConfig describes a container backing an integration test.
// Builder is retried until it returns without error or MaxWait passes.
type DockerServiceConfig[T any] struct {
	DockerImage    string
	DockerImageTag string
	InternalPort   int
	Environment    map[string]string
	Cmd            []string
	MaxWait        time.Duration
	Builder        func(host string, port int) (T, error)
}

// Env renders Environment as sorted KEY=VALUE pairs.
func (config DockerServiceConfig[T]) Env() []string {
	env := make([]string, 0, len(config.Environment))
	for key, value := range config.Environment {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	sort.Strings(env)

	return env
}

// GetDockerService starts the container, waits until Builder succeeds and
// purges the container when the test finishes. It is skipped in -short mode.
func GetDockerService[T any](
	t *testing.T,
	config DockerServiceConfig[T],
) T {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping docker backed test in short mode.")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("Could not construct pool: %s", err)
	}

	if config.MaxWait > 0 {
		pool.MaxWait = config.MaxWait
	}

	if err := pool.Client.Ping(); err != nil {
		t.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: config.DockerImage,
		Tag:        config.DockerImageTag,
		Env:        config.Env(),
		Cmd:        config.Cmd,
	})
	if err != nil {
		t.Fatalf("Could not start %s:%s: %s", config.DockerImage, config.DockerImageTag, err)
	}

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Errorf("Could not purge %s: %s", config.DockerImage, err)
		}
	})

	host, port, err := dockerServiceAddress(resource.GetHostPort(fmt.Sprintf("%d/tcp", config.InternalPort)))
	if err != nil {
		t.Fatalf("Could not resolve address of %s: %s", config.DockerImage, err)
	}

	var service T
	if err := pool.Retry(func() error {
		var err error
		service, err = config.Builder(host, port)

		return err
	}); err != nil {
		t.Fatalf("Could not reach %s: %s", config.DockerImage, err)
	}

	return service
}

// dockerServiceAddress prefers the host of a remote DOCKER_HOST over the
// mapped local address.
func dockerServiceAddress(hostPort string) (string, int, error) {
	host, rawPort, err := net.SplitHostPort(hostPort)
	if err != nil {
		return "", 0, err
	}

	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return "", 0, err
	}

	if dockerHost := os.Getenv("DOCKER_HOST"); dockerHost != "" {
		dockerURL, err := url.Parse(dockerHost)
		if err != nil {
			return "", 0, err
		}

		if dockerURL.Scheme == "tcp" && dockerURL.Hostname() != "" {
			host = dockerURL.Hostname()
		}
	}

	return host, port, nil
}
