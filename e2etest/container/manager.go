package container

import (
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/stacklend-io/risk-engine/testutil"
)

const (
	MongoUsername = "user"
	MongoPassword = "password"
	MongoDatabase = "test-database"

	RabbitUsername = "user"
	RabbitPassword = "password"
)

// Manager tracks the docker resources one e2e run depends on so they can be
// purged together.
type Manager struct {
	cfg       ImageConfig
	pool      *dockertest.Pool
	resources []*dockertest.Resource
}

func NewManager(t *testing.T) (*Manager, error) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, err
	}

	return &Manager{
		cfg:  NewImageConfig(),
		pool: pool,
	}, nil
}

// RunMongoResource starts a mongo container, returning the resource whose
// "27017/tcp" port is mapped to the server.
func (m *Manager) RunMongoResource(t *testing.T) (*dockertest.Resource, error) {
	t.Helper()

	return m.runResource(t, "mongo-e2e-tests-db", &dockertest.RunOptions{
		Repository: m.cfg.MongoRepository,
		Tag:        m.cfg.MongoVersion,
		Env: []string{
			"MONGO_INITDB_ROOT_USERNAME=" + MongoUsername,
			"MONGO_INITDB_ROOT_PASSWORD=" + MongoPassword,
			"MONGO_INITDB_DATABASE=" + MongoDatabase,
		},
	})
}

// RunRabbitResource starts a rabbitmq container, returning the resource whose
// "5672/tcp" port is mapped to the broker.
func (m *Manager) RunRabbitResource(t *testing.T) (*dockertest.Resource, error) {
	t.Helper()

	return m.runResource(t, "rabbitmq-e2e-tests-broker", &dockertest.RunOptions{
		Repository: m.cfg.RabbitRepository,
		Tag:        m.cfg.RabbitVersion,
		Env: []string{
			"RABBITMQ_DEFAULT_USER=" + RabbitUsername,
			"RABBITMQ_DEFAULT_PASS=" + RabbitPassword,
		},
	})
}

func (m *Manager) runResource(t *testing.T, namePrefix string, opts *dockertest.RunOptions) (*dockertest.Resource, error) {
	t.Helper()

	// there can be only 1 container with the same name, so we add
	// random string in the end in case there is still old container running
	randomString, err := testutil.RandomAlphaNum(3)
	if err != nil {
		return nil, err
	}
	opts.Name = namePrefix + "-" + randomString

	resource, err := m.pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return nil, err
	}

	m.resources = append(m.resources, resource)
	return resource, nil
}

// ClearResources purges every container this manager started.
func (m *Manager) ClearResources() error {
	for _, resource := range m.resources {
		if err := m.pool.Purge(resource); err != nil {
			return err
		}
	}
	m.resources = nil
	return nil
}
