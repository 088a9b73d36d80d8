package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Irvanev/hvala-dvisor-sub000/entity"
)

const bootstrapKey = "s3cret"

func TestCreateInitialAdminOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewBootstrapService(env.users, env.idp, bootstrapKey)

	first := env.user(t, "first@example.com", entity.RoleRegistered)
	second := env.user(t, "second@example.com", entity.RoleRegistered)
	env.idp.accounts[first.Email] = first.ID
	env.idp.accounts[second.Email] = second.ID

	msg, err := svc.CreateInitialAdmin(ctx, bootstrapKey, "First@Example.com")
	require.NoError(t, err)
	assert.Contains(t, msg, first.Email)
	assert.Equal(t, entity.RoleAdmin, env.roleOf(t, first.ID))
	assert.Equal(t, entity.RoleAdmin, env.idp.claim(first.ID))

	_, err = svc.CreateInitialAdmin(ctx, bootstrapKey, second.Email)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, entity.RoleRegistered, env.roleOf(t, second.ID))
	assert.Empty(t, env.idp.claim(second.ID))
}

func TestCreateInitialAdminRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewBootstrapService(env.users, env.idp, bootstrapKey)

	_, err := svc.CreateInitialAdmin(ctx, "wrong", "a@example.com")
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = svc.CreateInitialAdmin(ctx, bootstrapKey, "  ")
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.CreateInitialAdmin(ctx, bootstrapKey, "nobody@example.com")
	assert.Equal(t, KindNotFound, KindOf(err))

	disabled := NewBootstrapService(env.users, env.idp, "")
	_, err = disabled.CreateInitialAdmin(ctx, "", "a@example.com")
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestCreateInitialAdminCreatesMissingRow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewBootstrapService(env.users, env.idp, bootstrapKey)
	env.idp.accounts["root@example.com"] = "fb-uid-1"

	_, err := svc.CreateInitialAdmin(ctx, bootstrapKey, "root@example.com")
	require.NoError(t, err)

	u, err := env.users.FindByID(ctx, "fb-uid-1")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, u.Role)
	assert.Equal(t, "root@example.com", u.Email)
}

func TestCreateInitialAdminConcurrent(t *testing.T) {
	env := newTestEnv(t)
	svc := NewBootstrapService(env.users, env.idp, bootstrapKey)

	emails := []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"}
	for _, e := range emails {
		u := env.user(t, e, entity.RoleRegistered)
		env.idp.accounts[e] = u.ID
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for _, e := range emails {
		wg.Add(1)
		go func(email string) {
			defer wg.Done()
			if _, err := svc.CreateInitialAdmin(context.Background(), bootstrapKey, email); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}(e)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	admins, err := env.users.ListByRole(context.Background(), entity.RoleAdmin, 10, 0)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}
