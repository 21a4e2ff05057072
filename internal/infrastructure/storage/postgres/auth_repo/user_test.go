package auth_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/domain/auth"
)

func TestUserListQuery(t *testing.T) {
	active := true
	repo := NewUserRepo(nil)

	sql, args, err := repo.listQuery(auth.UserFilter{}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM users ORDER BY lower(username)")
	assert.Empty(t, args)

	sql, args, err = repo.listQuery(auth.UserFilter{Search: " sam ", IsActive: &active, Role: auth.RoleCashier}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE (username ILIKE $1 OR email ILIKE $2 OR display_name ILIKE $3) AND is_active = $4 AND role = $5")
	assert.Equal(t, []any{"%sam%", "%sam%", "%sam%", true, "cashier"}, args)
}

func TestUserValuesMatchColumns(t *testing.T) {
	u := auth.NewUser("sam", "sam@example.com", "hash", auth.RoleManager)
	vals := userValues(u)

	require.Len(t, vals, len(userColumns))
	assert.Equal(t, "sam", vals[1])
	assert.Equal(t, "manager", vals[5])
}
