// db/db.go
package db

import (
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/dataeng/api/config"
	logger "github.com/dev-mohitbeniwal/dataeng/api/logging"
)

// OpenNeo4j creates the neo4j driver used by the graph principal store.
func OpenNeo4j(cfg config.Neo4jConfiguration) (neo4j.Driver, error) {
	logger.Info("Connecting to Neo4j at URI", zap.String("uri", cfg.URI))
	driver, err := neo4j.NewDriver(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4j.Config) {
			c.MaxConnectionLifetime = 30 * time.Minute
			c.MaxConnectionPoolSize = 50
			c.SocketConnectTimeout = 5 * time.Second
			c.Log = neo4j.ConsoleLogger(neo4j.ERROR)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(); err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("failed to connect to Neo4j: %w", err)
	}

	logger.Info("Successfully connected to Neo4j")
	return driver, nil
}

func CloseNeo4j(driver neo4j.Driver) {
	if driver == nil {
		return
	}
	if err := driver.Close(); err != nil {
		logger.Error("Error closing Neo4j connection", zap.Error(err))
	} else {
		logger.Info("Neo4j connection closed successfully")
	}
}
