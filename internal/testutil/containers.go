// Container helpers for integration tests and the standalone testcontainers command.
// They expect the environment to be loaded from a .env file.

package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/bluffpark/holidaylights/internal/config"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	defaultDBPort   = "3306"
	testDBDatabase  = "holidaylights"
	testDBUser      = "lights"
	testDBPassword  = "lights"
	testDBRootPass  = "rootpass"
	dbNetworkAlias  = "db"
	authzAlias      = "authorizer"
	dbReadyAttempts = 30
)

// TestContainers are the services a full holidaylights stack needs
type TestContainers struct {
	Network             *testcontainers.DockerNetwork
	DBContainer         testcontainers.Container
	AuthorizerContainer testcontainers.Container

	// Config points at the containers from the host
	Config *config.Config
}

// Terminate stops every container that was started
func (tc *TestContainers) Terminate(t *testing.T) {
	ctx := context.Background()
	if tc.AuthorizerContainer != nil {
		if err := tc.AuthorizerContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate Authorizer: %v", err)
		}
	}
	if tc.DBContainer != nil {
		if err := tc.DBContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate MariaDB: %v", err)
		}
	}
	if tc.Network != nil {
		if err := tc.Network.Remove(ctx); err != nil {
			logMessage(t, "Failed to remove network: %v", err)
		}
	}
}

// CreateTestContainers starts MariaDB from DB_IMAGE and, when AUTHZ_IMAGE is
// set, an Authorizer backed by the same database server.
func CreateTestContainers(ctx context.Context, t *testing.T) (*TestContainers, error) {
	dbImage := os.Getenv("DB_IMAGE")
	if dbImage == "" {
		return nil, fmt.Errorf("DB_IMAGE is not set")
	}

	tc := &TestContainers{}

	nw, err := network.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create network: %w", err)
	}
	tc.Network = nw

	if local, err := imageExists(ctx, dbImage); err != nil {
		logMessage(t, "Could not inspect local images: %v", err)
	} else if local {
		logMessage(t, "Image %s exists, reusing...", dbImage)
	} else {
		logMessage(t, "Image %s not found locally, pulling...", dbImage)
	}

	tcpDBPort, err := nat.NewPort("tcp", defaultDBPort)
	if err != nil {
		tc.Terminate(t)
		return nil, fmt.Errorf("failed to create DB port: %w", err)
	}
	dbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        dbImage,
			ExposedPorts: []string{string(tcpDBPort)},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": testDBRootPass,
				"MYSQL_DATABASE":      testDBDatabase,
				"MYSQL_USER":          testDBUser,
				"MYSQL_PASSWORD":      testDBPassword,
			},
			WaitingFor: wait.ForListeningPort(tcpDBPort).WithStartupTimeout(60 * time.Second),
			Networks:   []string{nw.Name},
			NetworkAliases: map[string][]string{
				nw.Name: {dbNetworkAlias},
			},
		},
		Started: true,
	})
	if err != nil {
		tc.Terminate(t)
		return nil, fmt.Errorf("failed to start MariaDB: %w", err)
	}
	tc.DBContainer = dbContainer

	dbHost, err := dbContainer.Host(ctx)
	if err != nil {
		tc.Terminate(t)
		return nil, fmt.Errorf("failed to get MariaDB host: %w", err)
	}
	dbPort, err := dbContainer.MappedPort(ctx, tcpDBPort)
	if err != nil {
		tc.Terminate(t)
		return nil, fmt.Errorf("failed to get MariaDB port: %w", err)
	}

	if err := waitForMySQL(dbHost, dbPort); err != nil {
		tc.Terminate(t)
		return nil, err
	}

	tc.Config = &config.Config{
		Port:               "3000",
		DBType:             "mariadb",
		DBHost:             dbHost,
		DBPort:             dbPort.Port(),
		DBDatabase:         testDBDatabase,
		DBUser:             testDBUser,
		DBPassword:         testDBPassword,
		DBConnectionLimit:  10,
		MaxVotesPerAddress: 10,
		MaxPhotos:          10,
		VoteRetryLimit:     20,
		VoteRetryInterval:  5 * time.Millisecond,
	}
	logMessage(t, "DB_HOST=%s DB_PORT=%s", dbHost, dbPort.Port())

	if authzImage := os.Getenv("AUTHZ_IMAGE"); authzImage != "" {
		if err := tc.startAuthorizer(ctx, t, authzImage); err != nil {
			tc.Terminate(t)
			return nil, err
		}
	}

	return tc, nil
}

func (tc *TestContainers) startAuthorizer(ctx context.Context, t *testing.T, authzImage string) error {
	authzPortNumber := os.Getenv("AUTHZ_PORT")
	if authzPortNumber == "" {
		authzPortNumber = "8080"
	}
	tcpAuthzPort, err := nat.NewPort("tcp", authzPortNumber)
	if err != nil {
		return fmt.Errorf("failed to create Authorizer port: %w", err)
	}

	authzLogLevel := "info"
	if os.Getenv("DEBUG_CONTAINER") == "true" {
		authzLogLevel = "debug"
	}
	authzDBConnection := fmt.Sprintf("root:%s@tcp(%s:%s)/%s", testDBRootPass, dbNetworkAlias, defaultDBPort, testDBDatabase)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        authzImage,
			ExposedPorts: []string{string(tcpAuthzPort)},
			Env: map[string]string{
				"ENV":           "production",
				"CLIENT_ID":     os.Getenv("AUTHZ_CLIENT_ID"),
				"PORT":          authzPortNumber,
				"DATABASE_TYPE": "mariadb",
				"DATABASE_NAME": testDBDatabase,
				"DATABASE_URL":  authzDBConnection,
				"ADMIN_SECRET":  os.Getenv("AUTHZ_ADMIN_SECRET"),
				"ROLES":         "admin,user",
				"DEFAULT_ROLES": "user",
				"LOG_LEVEL":     authzLogLevel,
			},
			WaitingFor: wait.ForLog("Authorizer running at PORT:").WithStartupTimeout(30 * time.Second),
			Networks:   []string{tc.Network.Name},
			NetworkAliases: map[string][]string{
				tc.Network.Name: {authzAlias},
			},
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("failed to start Authorizer: %w", err)
	}
	tc.AuthorizerContainer = container

	authzHost, _ := container.Host(ctx)
	authzPort, _ := container.MappedPort(ctx, tcpAuthzPort)
	tc.Config.AuthzURL = fmt.Sprintf("http://%s:%s", authzHost, authzPort.Port())
	tc.Config.AuthzClientID = os.Getenv("AUTHZ_CLIENT_ID")
	logMessage(t, "AUTHZ_URL=%s", tc.Config.AuthzURL)
	return nil
}

// waitForMySQL pings until the server accepts logins; the port opens before that
func waitForMySQL(host string, port nat.Port) error {
	db, err := sql.Open("mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", testDBUser, testDBPassword, host, port.Port(), testDBDatabase))
	if err != nil {
		return fmt.Errorf("failed to open MariaDB for setup: %w", err)
	}
	defer db.Close()

	for i := 0; i < dbReadyAttempts; i++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(1 * time.Second)
	}
	return fmt.Errorf("MariaDB not ready after %d seconds: %w", dbReadyAttempts, err)
}

func imageExists(ctx context.Context, imageName string) (bool, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false, err
	}
	defer cli.Close()

	images, err := cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return false, err
	}

	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == imageName {
				return true, nil
			}
		}
	}

	return false, nil
}

func logMessage(t *testing.T, format string, args ...any) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
