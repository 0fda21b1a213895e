package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildQueryNoFilter(t *testing.T) {
	query, args := buildQuery("SELECT COUNT(1)", "t1", Filter{})
	assert.Equal(t, "SELECT COUNT(1) FROM audit_events WHERE tenant_id = $1", query)
	assert.Equal(t, []any{"t1"}, args)
}

func TestBuildQueryNumbersPlaceholders(t *testing.T) {
	query, args := buildQuery("SELECT id", "t1", Filter{Action: ActionRightsSave, EntityID: "r9", ActorUser: "u1"})
	assert.Equal(t, "SELECT id FROM audit_events WHERE tenant_id = $1 AND action = $2 AND entity_id = $3 AND actor_user_id::text = $4", query)
	assert.Equal(t, []any{"t1", ActionRightsSave, "r9", "u1"}, args)
}

func TestMarshalOptional(t *testing.T) {
	raw, err := marshalOptional(nil)
	assert.NoError(t, err)
	assert.Nil(t, raw)

	raw, err = marshalOptional(map[string]int{"changes": 2})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"changes":2}`, string(raw))
}
