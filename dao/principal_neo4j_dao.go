// dao/principal_neo4j_dao.go
package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	echo_errors "github.com/dev-mohitbeniwal/dataeng/api/errors"
	logger "github.com/dev-mohitbeniwal/dataeng/api/logging"
	"github.com/dev-mohitbeniwal/dataeng/api/model"
)

// PrincipalNeo4jDAO keeps principals as (:User) nodes keyed by username.
type PrincipalNeo4jDAO struct {
	Driver neo4j.Driver
}

var _ PrincipalStore = &PrincipalNeo4jDAO{}

func NewPrincipalNeo4jDAO(driver neo4j.Driver) *PrincipalNeo4jDAO {
	return &PrincipalNeo4jDAO{Driver: driver}
}

// schemaStatements run once at startup. The sequence node is seeded from
// the highest existing id so stores created before it keep their ids.
var schemaStatements = []string{
	`CREATE CONSTRAINT unique_user_username IF NOT EXISTS FOR (u:User) REQUIRE u.username IS UNIQUE`,
	`CREATE CONSTRAINT unique_user_email IF NOT EXISTS FOR (u:User) REQUIRE u.email IS UNIQUE`,
	`CREATE CONSTRAINT unique_user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`,
	`CREATE CONSTRAINT unique_sequence_name IF NOT EXISTS FOR (s:Sequence) REQUIRE s.name IS UNIQUE`,
	`OPTIONAL MATCH (u:User) WITH coalesce(max(u.id), 0) AS maxID
	 MERGE (seq:Sequence {name: 'user'}) ON CREATE SET seq.value = maxID`,
}

// createPrincipalQuery takes the next id from the user sequence. SET on the
// sequence node holds its write lock until commit, so concurrent creates
// never share an id.
const createPrincipalQuery = `
        MERGE (seq:Sequence {name: 'user'}) ON CREATE SET seq.value = 0
        SET seq.value = seq.value + 1
        WITH seq.value AS nextID
        CREATE (n:User {id: nextID, username: $username, email: $email, hashedPassword: $hashedPassword,
                        role: $role, isActive: $isActive, createdAt: $createdAt})
        RETURN properties(n) AS props
        `

// EnsureUniqueConstraint creates the User constraints and the id sequence.
func (dao *PrincipalNeo4jDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraints on User")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	// Schema changes cannot share a transaction with data writes.
	for _, query := range schemaStatements {
		_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
			_, err := transaction.Run(query, nil)
			return nil, err
		})
		if err != nil {
			logger.Error("Failed to ensure User schema", zap.Error(err), zap.String("query", query))
			return err
		}
	}
	return nil
}

func (dao *PrincipalNeo4jDAO) FindByName(ctx context.Context, name string) (*model.Principal, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `MATCH (u:User {username: $username}) RETURN properties(u) AS props`
		result, err := transaction.Run(query, map[string]interface{}{"username": name})
		if err != nil {
			return nil, err
		}
		if result.Next() {
			props, _ := result.Record().Get("props")
			return props, nil
		}
		return nil, result.Err()
	})
	if err != nil {
		logger.Error("Failed to look up principal", zap.Error(err), zap.String("name", name))
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrDatabaseOperation, err)
	}
	if result == nil {
		return nil, echo_errors.ErrPrincipalNotFound
	}

	props, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: unexpected node shape %T", echo_errors.ErrDatabaseOperation, result)
	}
	return principalFromProps(props)
}

func (dao *PrincipalNeo4jDAO) Create(ctx context.Context, principal model.Principal) (*model.Principal, error) {
	logger.Info("Creating new principal", zap.String("name", principal.Name))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	if principal.CreatedAt.IsZero() {
		principal.CreatedAt = time.Now().UTC()
	}

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		result, err := transaction.Run(createPrincipalQuery, principalProps(principal))
		if err != nil {
			return nil, err
		}
		if result.Next() {
			props, _ := result.Record().Get("props")
			return props, nil
		}
		return nil, result.Err()
	})
	if err != nil {
		var neo4jErr *neo4j.Neo4jError
		if errors.As(err, &neo4jErr) && neo4jErr.Title() == "ConstraintValidationFailed" {
			return nil, echo_errors.ErrPrincipalConflict
		}
		logger.Error("Failed to create principal", zap.Error(err), zap.String("name", principal.Name))
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrDatabaseOperation, err)
	}

	props, ok := result.(map[string]interface{})
	if !ok {
		return nil, echo_errors.ErrInternalServer
	}
	return principalFromProps(props)
}

func (dao *PrincipalNeo4jDAO) SetActive(ctx context.Context, name string, active bool) (*model.Principal, error) {
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	result, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (u:User {username: $username})
        SET u.isActive = $isActive
        RETURN properties(u) AS props
        `
		result, err := transaction.Run(query, map[string]interface{}{"username": name, "isActive": active})
		if err != nil {
			return nil, err
		}
		if result.Next() {
			props, _ := result.Record().Get("props")
			return props, nil
		}
		return nil, result.Err()
	})
	if err != nil {
		logger.Error("Failed to update principal activity", zap.Error(err), zap.String("name", name))
		return nil, fmt.Errorf("%w: %v", echo_errors.ErrDatabaseOperation, err)
	}
	if result == nil {
		return nil, echo_errors.ErrPrincipalNotFound
	}

	props, ok := result.(map[string]interface{})
	if !ok {
		return nil, echo_errors.ErrInternalServer
	}
	return principalFromProps(props)
}

func principalProps(p model.Principal) map[string]interface{} {
	return map[string]interface{}{
		"username":       p.Name,
		"email":          p.Email,
		"hashedPassword": p.CredentialHash,
		"role":           string(p.Role),
		"isActive":       p.Active,
		"createdAt":      p.CreatedAt.Format(time.RFC3339Nano),
	}
}

// principalFromProps maps node properties back to a Principal. Missing or
// mistyped properties are reported as a database error.
func principalFromProps(props map[string]interface{}) (*model.Principal, error) {
	bad := func(field string) error {
		return fmt.Errorf("%w: user node has invalid %s", echo_errors.ErrDatabaseOperation, field)
	}

	id, ok := props["id"].(int64)
	if !ok {
		return nil, bad("id")
	}
	username, ok := props["username"].(string)
	if !ok {
		return nil, bad("username")
	}
	email, ok := props["email"].(string)
	if !ok {
		return nil, bad("email")
	}
	hash, ok := props["hashedPassword"].(string)
	if !ok {
		return nil, bad("hashedPassword")
	}
	roleName, _ := props["role"].(string)
	role, ok := model.ParseRole(roleName)
	if !ok {
		return nil, bad("role")
	}
	active, ok := props["isActive"].(bool)
	if !ok {
		return nil, bad("isActive")
	}
	createdRaw, _ := props["createdAt"].(string)
	createdAt, err := time.Parse(time.RFC3339Nano, createdRaw)
	if err != nil {
		return nil, bad("createdAt")
	}

	return &model.Principal{
		ID:             id,
		Name:           username,
		Email:          email,
		CredentialHash: hash,
		Role:           role,
		Active:         active,
		CreatedAt:      createdAt,
	}, nil
}
