package context

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crisp-lang/crisp/pkg/types"
)

func exampleSchema() Schema {
	return Schema{
		Root: "Agent",
		Types: map[string]TypeDef{
			"Agent": {
				Name:   "Agent",
				Fields: []FieldDef{{Name: "Health", Type: "Int"}},
				Methods: []MethodDef{
					{Name: "Flee", Returns: "BtStatus"},
					{Name: "Target", Returns: "Enemy", Nullable: true},
				},
			},
			"Enemy": {
				Name:   "Enemy",
				Embeds: []string{"Agent"},
				Fields: []FieldDef{{Name: "Threat", Type: "Float"}},
			},
		},
	}
}

func TestFromSchemaBuildsRootDescriptorFromDeclaredFieldsAndMethods(t *testing.T) {
	root, lookup, err := FromSchema(exampleSchema())
	require.NoError(t, err)
	require.Equal(t, "Agent", root.TypeName())

	health, ok := root.Member("Health")
	require.True(t, ok)
	require.True(t, health.DeclaredType.IsInt())

	flee, ok := root.Member("Flee")
	require.True(t, ok)
	require.True(t, flee.DeclaredType.IsBtResult())

	_, ok = lookup("Enemy")
	require.True(t, ok)
}

func TestFromSchemaNavigateFollowsCustomTypeMembers(t *testing.T) {
	root, _, err := FromSchema(exampleSchema())
	require.NoError(t, err)

	target, _ := root.Member("Target")
	enemy, ok := root.Navigate(target.DeclaredType)
	require.True(t, ok)
	require.Equal(t, "Enemy", enemy.TypeName())
}

func TestFromSchemaIsAssignableFollowsEmbeds(t *testing.T) {
	root, _, err := FromSchema(exampleSchema())
	require.NoError(t, err)
	require.True(t, root.IsAssignable(types.Custom("Enemy"), types.Custom("Agent")))
	require.False(t, root.IsAssignable(types.Custom("Agent"), types.Custom("Enemy")))
}

func TestFromSchemaErrorsWhenRootTypeUndeclared(t *testing.T) {
	_, _, err := FromSchema(Schema{Root: "Missing", Types: map[string]TypeDef{}})
	require.Error(t, err)
}
