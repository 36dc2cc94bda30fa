package dao

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echo_errors "github.com/dev-mohitbeniwal/dataeng/api/errors"
	"github.com/dev-mohitbeniwal/dataeng/api/model"
)

func TestPrincipalPropsRoundTrip(t *testing.T) {
	in := model.Principal{
		Name:           "alice",
		Email:          "alice@example.com",
		CredentialHash: "$2a$10$hash",
		Role:           model.RoleDataEngineer,
		Active:         true,
		CreatedAt:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	props := principalProps(in)
	props["id"] = int64(7)

	out, err := principalFromProps(props)
	require.NoError(t, err)

	in.ID = 7
	assert.Equal(t, in, *out)
}

func TestPrincipalFromProps_Invalid(t *testing.T) {
	valid := func() map[string]interface{} {
		return map[string]interface{}{
			"id":             int64(7),
			"username":       "alice",
			"email":          "alice@example.com",
			"hashedPassword": "$2a$10$hash",
			"role":           "user",
			"isActive":       true,
			"createdAt":      "2024-03-01T12:00:00Z",
		}
	}

	tests := map[string]func(map[string]interface{}){
		"missing id":     func(p map[string]interface{}) { delete(p, "id") },
		"string id":      func(p map[string]interface{}) { p["id"] = "7" },
		"unknown role":   func(p map[string]interface{}) { p["role"] = "superuser" },
		"missing active": func(p map[string]interface{}) { delete(p, "isActive") },
		"bad created":    func(p map[string]interface{}) { p["createdAt"] = "yesterday" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			props := valid()
			mutate(props)
			_, err := principalFromProps(props)
			assert.ErrorIs(t, err, echo_errors.ErrDatabaseOperation)
		})
	}
}

func TestSchemaStatementsConstrainIdentityFields(t *testing.T) {
	var joined string
	for _, q := range schemaStatements {
		joined += q + "\n"
	}
	for _, field := range []string{"u.username", "u.email", "u.id", "s.name"} {
		assert.Contains(t, joined, "REQUIRE "+field+" IS UNIQUE")
	}
	assert.NotContains(t, createPrincipalQuery, "max(u.id)")
	assert.Contains(t, createPrincipalQuery, "SET seq.value = seq.value + 1")
}

// newNeo4jTestDAO connects to the server named by NEO4J_TEST_URI and skips
// the test when it is unset.
func newNeo4jTestDAO(t *testing.T) *PrincipalNeo4jDAO {
	t.Helper()
	uri := os.Getenv("NEO4J_TEST_URI")
	if uri == "" {
		t.Skip("NEO4J_TEST_URI not set")
	}
	driver, err := neo4j.NewDriver(uri, neo4j.BasicAuth(os.Getenv("NEO4J_TEST_USER"), os.Getenv("NEO4J_TEST_PASSWORD"), ""))
	require.NoError(t, err)
	require.NoError(t, driver.VerifyConnectivity())
	t.Cleanup(func() { _ = driver.Close() })

	dao := NewPrincipalNeo4jDAO(driver)
	require.NoError(t, dao.EnsureUniqueConstraint(context.Background()))
	return dao
}

func TestPrincipalNeo4jDAO_ConcurrentCreatesGetDistinctIDs(t *testing.T) {
	dao := newNeo4jTestDAO(t)
	prefix := fmt.Sprintf("seq-%d-", time.Now().UnixNano())
	t.Cleanup(func() {
		session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
		defer session.Close()
		_, _ = session.Run(`MATCH (u:User) WHERE u.username STARTS WITH $prefix DETACH DELETE u`,
			map[string]interface{}{"prefix": prefix})
	})

	const n = 8
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("%s%d", prefix, i)
			p, err := dao.Create(context.Background(), model.Principal{
				Name: name, Email: name + "@example.com", CredentialHash: "h", Role: model.RoleUser, Active: true,
			})
			if assert.NoError(t, err) {
				ids <- p.ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "id %d allocated twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestPrincipalNeo4jDAO_DuplicateEmailConflicts(t *testing.T) {
	dao := newNeo4jTestDAO(t)
	prefix := fmt.Sprintf("email-%d-", time.Now().UnixNano())
	t.Cleanup(func() {
		session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
		defer session.Close()
		_, _ = session.Run(`MATCH (u:User) WHERE u.username STARTS WITH $prefix DETACH DELETE u`,
			map[string]interface{}{"prefix": prefix})
	})

	email := prefix + "shared@example.com"
	_, err := dao.Create(context.Background(), model.Principal{Name: prefix + "a", Email: email, CredentialHash: "h", Role: model.RoleUser})
	require.NoError(t, err)
	_, err = dao.Create(context.Background(), model.Principal{Name: prefix + "b", Email: email, CredentialHash: "h", Role: model.RoleUser})
	assert.ErrorIs(t, err, echo_errors.ErrPrincipalConflict)
}
